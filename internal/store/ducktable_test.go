// ducktable_test.go - Tests for the DuckDB-backed year table store
package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timeseries-dashboard/backend/internal/dataset"
	"github.com/timeseries-dashboard/backend/internal/models"
	"github.com/timeseries-dashboard/backend/internal/parser"
	"github.com/timeseries-dashboard/backend/internal/testutil"
)

// createTestTable creates a DuckTable that is closed when the test ends.
func createTestTable(t *testing.T) *DuckTable {
	t.Helper()
	table, err := NewDuckTable(Options{Threads: 1, MemoryLimit: "128MB"})
	require.NoError(t, err)
	t.Cleanup(func() { table.Close() })
	return table
}

func yearTable(t *testing.T, input string) *models.YearTable {
	t.Helper()
	raw, err := parser.NewDelimitedParser("csv", ',').Parse(strings.NewReader(input))
	require.NoError(t, err)
	yt, err := dataset.BuildYearTable(raw)
	require.NoError(t, err)
	return yt
}

func TestDuckTable_LoadAndCells(t *testing.T) {
	ctx := context.Background()
	table := createTestTable(t)
	yt := yearTable(t, "YEAR,TEMP,RAIN\n1901,24.1,80\nbad,0,0\n1903,,82\n1902,24.3,n/a\n")

	require.NoError(t, table.Load(ctx, yt))

	cells, err := table.Cells(ctx, "TEMP")
	require.NoError(t, err)
	assert.Equal(t, []models.Cell{
		{Row: 0, Year: 1901, Raw: "24.1"},
		{Row: 1, Year: 1903, Raw: ""},
		{Row: 2, Year: 1902, Raw: "24.3"},
	}, cells)

	want, err := dataset.ColumnCells(yt, "RAIN")
	require.NoError(t, err)
	got, err := table.Cells(ctx, "RAIN")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDuckTable_MatchesInMemorySelection(t *testing.T) {
	ctx := context.Background()
	table := createTestTable(t)
	yt := yearTable(t, testutil.TemperatureCSV())
	require.NoError(t, table.Load(ctx, yt))

	cells, err := table.Cells(ctx, "TEMP")
	require.NoError(t, err)
	fromStore := dataset.CoerceSeries("TEMP", cells)

	direct, err := dataset.SelectSeries(yt, "TEMP")
	require.NoError(t, err)
	assert.Equal(t, direct, fromStore)
}

func TestDuckTable_Summary(t *testing.T) {
	ctx := context.Background()
	table := createTestTable(t)
	require.NoError(t, table.Load(ctx, yearTable(t, testutil.TemperatureCSV())))

	s, err := table.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 121, s.Rows)
	assert.Equal(t, 1901, s.FirstYear)
	assert.Equal(t, 2021, s.LastYear)
}

func TestDuckTable_ReloadReplacesContent(t *testing.T) {
	ctx := context.Background()
	table := createTestTable(t)
	require.NoError(t, table.Load(ctx, yearTable(t, testutil.TemperatureCSV())))
	require.NoError(t, table.Load(ctx, yearTable(t, "YEAR,RAIN\n2000,1\n2001,2\n")))

	_, err := table.Cells(ctx, "TEMP")
	assert.True(t, errors.Is(err, dataset.ErrUnknownColumn))

	cells, err := table.Cells(ctx, "RAIN")
	require.NoError(t, err)
	assert.Len(t, cells, 2)

	s, err := table.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Rows)
}

func TestDuckTable_Close(t *testing.T) {
	ctx := context.Background()
	table, err := NewDuckTable(Options{})
	require.NoError(t, err)

	require.NoError(t, table.Close())
	require.NoError(t, table.Close())

	assert.ErrorIs(t, table.Load(ctx, yearTable(t, testutil.ShortCSV())), ErrClosed)
	_, err = table.Cells(ctx, "TEMP")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = table.Summary(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}
