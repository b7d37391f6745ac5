// Package models contains domain types for the time series dashboard.
package models

// YearColumn is the logical name given to the first column of every uploaded table.
const YearColumn = "YEAR"

// PreviewRows is the number of raw rows shown in the data preview.
const PreviewRows = 5

// RawTable is a delimited file as parsed, before any cleaning.
type RawTable struct {
	Header []string
	Rows   [][]string
}

// NumRows returns the number of data rows.
func (t *RawTable) NumRows() int {
	return len(t.Rows)
}

// TablePreview is the head of the raw table shown to the user.
type TablePreview struct {
	Columns   []string   `json:"columns" msgpack:"columns"`
	Rows      [][]string `json:"rows" msgpack:"rows"`
	TotalRows int        `json:"totalRows" msgpack:"totalRows"`
}

// YearTable is the raw table with its first column reinterpreted as an integer year.
// Rows keep their file order; Cells[i] holds the raw text of Columns for Years[i].
type YearTable struct {
	Columns        []string   `json:"columns"`
	Years          []int      `json:"years"`
	Cells          [][]string `json:"-"`
	DroppedRows    int        `json:"droppedRows"`
	DuplicateYears []int      `json:"duplicateYears,omitempty"`
}

// Len returns the number of indexed rows.
func (t *YearTable) Len() int {
	return len(t.Years)
}

// ColumnIndex returns the position of a value column, or -1.
func (t *YearTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Cell is one raw value of a value column together with its year.
type Cell struct {
	Row  int
	Year int
	Raw  string
}
