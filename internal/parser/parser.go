package parser

import (
	"errors"
	"fmt"
	"io"

	"github.com/timeseries-dashboard/backend/internal/models"
)

// Parser defines the interface for tabular file parsers.
type Parser interface {
	// Name returns the unique name of the parser.
	Name() string
	// Sniff returns how many fields the header line splits into with this
	// parser's format, or 0 if the parser cannot handle it.
	Sniff(head []byte) int
	// Parse reads the whole input into a raw table.
	Parse(r io.Reader) (*models.RawTable, error)
}

// ErrNotTabular is wrapped by ParseError when the input is not delimited text at all.
var ErrNotTabular = errors.New("content is not delimited tabular data")

// ParseError reports why an upload could not be read as a table.
type ParseError struct {
	Line   int    // 1-based line of the offending record, 0 if unknown
	Reason string // human readable
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
	}
	return e.Reason
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func newParseError(line int, reason string, cause error) *ParseError {
	return &ParseError{Line: line, Reason: reason, Err: cause}
}
