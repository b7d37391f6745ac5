// Package dataset turns a parsed upload into the year-indexed table and the
// numeric series every analyzer consumes.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/timeseries-dashboard/backend/internal/models"
)

var (
	// ErrNoRows means no row has a usable year in its first column.
	ErrNoRows = errors.New("no rows with a numeric year in the first column")
	// ErrNoValueColumns means the table has nothing besides the year column.
	ErrNoValueColumns = errors.New("no value columns besides the year column")
	// ErrUnknownColumn is returned when selecting a column the table does not have.
	ErrUnknownColumn = errors.New("unknown column")
)

// Tokens read as missing values, matched case-sensitively like spreadsheet exports.
var missingTokens = map[string]struct{}{
	"": {}, "NA": {}, "N/A": {}, "n/a": {}, "NaN": {}, "nan": {}, "NAN": {},
	"null": {}, "NULL": {}, "None": {}, "-": {}, "#N/A": {},
}

// Preview returns the first n rows of the raw table with its original header.
func Preview(raw *models.RawTable, n int) *models.TablePreview {
	if n > len(raw.Rows) {
		n = len(raw.Rows)
	}
	rows := make([][]string, n)
	for i := 0; i < n; i++ {
		rows[i] = append([]string(nil), raw.Rows[i]...)
	}
	return &models.TablePreview{
		Columns:   append([]string(nil), raw.Header...),
		Rows:      rows,
		TotalRows: len(raw.Rows),
	}
}

// BuildYearTable renames the first column to YEAR, coerces it to an integer year
// and drops every row where that fails. Duplicate years are kept and reported.
func BuildYearTable(raw *models.RawTable) (*models.YearTable, error) {
	if len(raw.Header) == 0 {
		return nil, ErrNoValueColumns
	}

	table := &models.YearTable{
		Columns: renameValueColumns(raw.Header[1:]),
		Years:   make([]int, 0, len(raw.Rows)),
		Cells:   make([][]string, 0, len(raw.Rows)),
	}

	seen := make(map[int]int, len(raw.Rows))
	for _, row := range raw.Rows {
		year, ok := ParseYear(row[0])
		if !ok {
			table.DroppedRows++
			continue
		}
		seen[year]++
		table.Years = append(table.Years, year)
		table.Cells = append(table.Cells, row[1:])
	}

	for year, n := range seen {
		if n > 1 {
			table.DuplicateYears = append(table.DuplicateYears, year)
		}
	}
	sort.Ints(table.DuplicateYears)

	if len(table.Columns) == 0 {
		return table, ErrNoValueColumns
	}
	if table.Len() == 0 {
		return table, ErrNoRows
	}
	return table, nil
}

// renameValueColumns keeps value column names apart from the reserved year name.
func renameValueColumns(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		if n == models.YearColumn {
			n = models.YearColumn + ".1"
		}
		out[i] = n
	}
	return out
}

// Columns returns the selectable (non-index) column names.
func Columns(t *models.YearTable) []string {
	return append([]string(nil), t.Columns...)
}

// ColumnCells returns the raw cells of one value column in row order.
func ColumnCells(t *models.YearTable, column string) ([]models.Cell, error) {
	idx := t.ColumnIndex(column)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, column)
	}
	cells := make([]models.Cell, t.Len())
	for i, year := range t.Years {
		cells[i] = models.Cell{Row: i, Year: year, Raw: t.Cells[i][idx]}
	}
	return cells, nil
}

// SelectSeries coerces one column of the table to a numeric series.
func SelectSeries(t *models.YearTable, column string) (*models.Series, error) {
	cells, err := ColumnCells(t, column)
	if err != nil {
		return nil, err
	}
	return CoerceSeries(column, cells), nil
}

// CoerceSeries converts raw cells to numbers, dropping every cell that is missing,
// not numeric or not finite. The result may be empty.
func CoerceSeries(name string, cells []models.Cell) *models.Series {
	s := &models.Series{
		Name:   name,
		Years:  make([]int, 0, len(cells)),
		Values: make([]float64, 0, len(cells)),
	}
	for _, c := range cells {
		v, ok := ParseNumber(c.Raw)
		if !ok {
			continue
		}
		s.Years = append(s.Years, c.Year)
		s.Values = append(s.Values, v)
	}
	return s
}

// ParseNumber parses a cell as a finite float.
func ParseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if _, missing := missingTokens[s]; missing || isHex(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// isHex reports a hexadecimal literal, which ParseFloat would accept.
func isHex(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

// ParseYear parses a cell as an integral year ("1901" or "1901.0").
func ParseYear(raw string) (int, bool) {
	v, ok := ParseNumber(raw)
	if !ok || v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
		return 0, false
	}
	return int(v), true
}

// YearSpan returns the smallest and largest year of the table.
func YearSpan(t *models.YearTable) (first, last int, ok bool) {
	if t.Len() == 0 {
		return 0, 0, false
	}
	first, last = t.Years[0], t.Years[0]
	for _, y := range t.Years[1:] {
		if y < first {
			first = y
		}
		if y > last {
			last = y
		}
	}
	return first, last, true
}
