package parser

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/timeseries-dashboard/backend/internal/models"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DelimitedParser reads delimiter separated text with a header row.
// Short rows are padded with empty cells; rows with extra fields are rejected.
type DelimitedParser struct {
	name  string
	comma rune
}

func NewDelimitedParser(name string, comma rune) *DelimitedParser {
	return &DelimitedParser{name: name, comma: comma}
}

func (p *DelimitedParser) Name() string {
	return p.name
}

func (p *DelimitedParser) Sniff(head []byte) int {
	head = bytes.TrimPrefix(head, utf8BOM)
	line := firstNonBlankLine(head)
	if line == "" {
		return 0
	}

	r := csv.NewReader(strings.NewReader(line))
	r.Comma = p.comma
	r.LazyQuotes = true
	record, err := r.Read()
	if err != nil {
		return 0
	}
	return len(record)
}

func (p *DelimitedParser) Parse(src io.Reader) (*models.RawTable, error) {
	br := bufio.NewReader(src)
	if bom, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(bom, utf8BOM) {
		br.Discard(len(utf8BOM))
	}

	r := csv.NewReader(br)
	r.Comma = p.comma
	r.FieldsPerRecord = -1
	r.ReuseRecord = false

	header, err := r.Read()
	if err == io.EOF {
		return nil, newParseError(0, "no columns to parse from file", ErrNotTabular)
	}
	if err != nil {
		return nil, wrapCSVError(err)
	}
	if err := checkUTF8(header, 1); err != nil {
		return nil, err
	}

	table := &models.RawTable{
		Header: normalizeHeader(header),
		Rows:   make([][]string, 0, 128),
	}
	width := len(table.Header)

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, wrapCSVError(err)
		}
		line, _ := r.FieldPos(0)
		if len(record) > width {
			return nil, newParseError(line,
				fmt.Sprintf("expected %d fields, saw %d", width, len(record)), ErrNotTabular)
		}
		if err := checkUTF8(record, line); err != nil {
			return nil, err
		}
		for len(record) < width {
			record = append(record, "")
		}
		table.Rows = append(table.Rows, record)
	}

	return table, nil
}

// normalizeHeader trims names, fills blanks and de-duplicates repeated names
// the way spreadsheet tools do ("Unnamed: 2", "TEMP.1").
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = name + "." + strconv.Itoa(n)
		}
		if _, dup := seen[name]; !dup {
			seen[name] = 1
		}
		out[i] = name
	}
	return out
}

func checkUTF8(record []string, line int) error {
	for _, field := range record {
		if !utf8.ValidString(field) {
			return newParseError(line, "invalid UTF-8 text", ErrNotTabular)
		}
	}
	return nil
}

func wrapCSVError(err error) error {
	var csvErr *csv.ParseError
	if errors.As(err, &csvErr) {
		return newParseError(csvErr.Line, csvErr.Err.Error(), err)
	}
	return newParseError(0, err.Error(), err)
}

func firstNonBlankLine(data []byte) string {
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) != "" {
			return line
		}
	}
	return ""
}
