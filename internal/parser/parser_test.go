package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDelimitedParser_Parse(t *testing.T) {
	p := NewDelimitedParser("csv", ',')

	table, err := p.Parse(strings.NewReader("YEAR,TEMP,RAIN\n1901,24.1,88\n1902,24.3,\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"YEAR", "TEMP", "RAIN"}, table.Header)
	assert.Equal(t, 2, table.NumRows())
	assert.Equal(t, []string{"1902", "24.3", ""}, table.Rows[1])
}

func TestDelimitedParser_PadsShortRows(t *testing.T) {
	p := NewDelimitedParser("csv", ',')

	table, err := p.Parse(strings.NewReader("YEAR,TEMP,RAIN\n1901,24.1\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"1901", "24.1", ""}, table.Rows[0])
}

func TestDelimitedParser_SkipsBlankLinesAndBOM(t *testing.T) {
	p := NewDelimitedParser("csv", ',')

	table, err := p.Parse(strings.NewReader("\xEF\xBB\xBFYEAR,TEMP\n\n1901,1\n\n1902,2\n"))
	require.NoError(t, err)
	assert.Equal(t, "YEAR", table.Header[0])
	assert.Equal(t, 2, table.NumRows())
}

func TestDelimitedParser_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
	}{
		{name: "empty input", input: ""},
		{name: "too many fields", input: "YEAR,TEMP\n1901,1\n1902,2,3\n", line: 3},
		{name: "bare quote", input: "YEAR,TEMP\n1901,ab\"c\n", line: 2},
		{name: "invalid utf8", input: "YEAR,TEMP\n1901,\xff\xfe\n", line: 2},
	}

	p := NewDelimitedParser("csv", ',')
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Parse(strings.NewReader(tt.input))
			require.Error(t, err)

			var perr *ParseError
			require.True(t, errors.As(err, &perr), "expected *ParseError, got %T", err)
			if tt.line > 0 {
				assert.Equal(t, tt.line, perr.Line)
			}
		})
	}
}

func TestNormalizeHeader(t *testing.T) {
	got := normalizeHeader([]string{" Year ", "TEMP", "", "TEMP", "TEMP"})
	assert.Equal(t, []string{"Year", "TEMP", "Unnamed: 2", "TEMP.1", "TEMP.2"}, got)
}

func TestDelimitedParser_Sniff(t *testing.T) {
	comma := NewDelimitedParser("csv", ',')
	semi := NewDelimitedParser("csv_semicolon", ';')

	assert.Equal(t, 3, comma.Sniff([]byte("YEAR,TEMP,RAIN\n1901,1,2")))
	assert.Equal(t, 1, semi.Sniff([]byte("YEAR,TEMP,RAIN\n1901,1,2")))
	assert.Equal(t, 2, semi.Sniff([]byte("\n\nYEAR;TEMP\r\n")))
	assert.Equal(t, 0, comma.Sniff([]byte("   \n")))
}
