// Package store keeps the year-indexed table of a session in an in-memory DuckDB
// database.
package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/marcboeker/go-duckdb"

	"github.com/timeseries-dashboard/backend/internal/dataset"
	"github.com/timeseries-dashboard/backend/internal/logging"
	"github.com/timeseries-dashboard/backend/internal/models"
)

// ErrClosed is returned by every call on a closed table.
var ErrClosed = errors.New("table store is closed")

// Options tune the DuckDB instance behind a table.
type Options struct {
	Threads     int
	MemoryLimit string // e.g. "256MB"
}

// Summary describes the loaded table.
type Summary struct {
	Rows      int
	FirstYear int
	LastYear  int
}

// DuckTable stores the cells of a YearTable in long format
// (row_idx, year, col, raw). The database has no file and disappears on Close.
type DuckTable struct {
	db      *sql.DB
	mu      sync.RWMutex
	columns []string
	closed  bool
}

// NewDuckTable opens an empty in-memory database.
func NewDuckTable(opts Options) (*DuckTable, error) {
	log := logging.For("store")

	pragmas := []string{"PRAGMA enable_progress_bar=false"}
	if opts.Threads > 0 {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA threads=%d", opts.Threads))
	}
	if opts.MemoryLimit != "" {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA memory_limit='%s'", opts.MemoryLimit))
	}

	connector, err := duckdb.NewConnector("", func(execer driver.ExecerContext) error {
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				log.Errorf("pragma %q failed: %v", pragma, err)
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)

	_, err = db.Exec(`
		CREATE TABLE cells (
			row_idx INTEGER NOT NULL,
			year    INTEGER NOT NULL,
			col     VARCHAR NOT NULL,
			raw     VARCHAR NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &DuckTable{db: db}, nil
}

// Load replaces the stored table with t using the DuckDB Appender.
func (d *DuckTable) Load(ctx context.Context, t *models.YearTable) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}

	start := time.Now()
	if _, err := d.db.ExecContext(ctx, "DELETE FROM cells"); err != nil {
		return fmt.Errorf("failed to clear table: %w", err)
	}

	conn, err := d.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	err = conn.Raw(func(driverConn interface{}) error {
		dConn, ok := driverConn.(*duckdb.Conn)
		if !ok {
			return fmt.Errorf("failed to cast to duckdb.Conn")
		}

		appender, err := duckdb.NewAppenderFromConn(dConn, "", "cells")
		if err != nil {
			return fmt.Errorf("failed to create appender: %w", err)
		}
		defer appender.Close()

		for i, year := range t.Years {
			for c, col := range t.Columns {
				if err := appender.AppendRow(int32(i), int32(year), col, t.Cells[i][c]); err != nil {
					return fmt.Errorf("failed to append row %d: %w", i, err)
				}
			}
		}
		return appender.Flush()
	})
	if err != nil {
		return fmt.Errorf("appender error: %w", err)
	}

	d.columns = append([]string(nil), t.Columns...)
	logging.For("store").Debugf("loaded %d rows x %d columns in %v", t.Len(), len(t.Columns), time.Since(start))
	return nil
}

// Cells returns the raw cells of one column in file order.
func (d *DuckTable) Cells(ctx context.Context, column string) ([]models.Cell, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return nil, ErrClosed
	}
	if !d.hasColumn(column) {
		return nil, fmt.Errorf("%w: %q", dataset.ErrUnknownColumn, column)
	}

	rows, err := d.db.QueryContext(ctx,
		"SELECT row_idx, year, raw FROM cells WHERE col = ? ORDER BY row_idx", column)
	if err != nil {
		return nil, fmt.Errorf("failed to query cells: %w", err)
	}
	defer rows.Close()

	var cells []models.Cell
	for rows.Next() {
		var c models.Cell
		var row, year int32
		if err := rows.Scan(&row, &year, &c.Raw); err != nil {
			return nil, fmt.Errorf("failed to scan cell: %w", err)
		}
		c.Row, c.Year = int(row), int(year)
		cells = append(cells, c)
	}
	return cells, rows.Err()
}

// Summary reports the row count and year span of the loaded table.
func (d *DuckTable) Summary(ctx context.Context) (*Summary, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return nil, ErrClosed
	}

	var s Summary
	var first, last sql.NullInt32
	err := d.db.QueryRowContext(ctx,
		"SELECT COUNT(DISTINCT row_idx), MIN(year), MAX(year) FROM cells").Scan(&s.Rows, &first, &last)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize table: %w", err)
	}
	s.FirstYear, s.LastYear = int(first.Int32), int(last.Int32)
	return &s, nil
}

func (d *DuckTable) hasColumn(name string) bool {
	for _, c := range d.columns {
		if c == name {
			return true
		}
	}
	return false
}

// Close releases the database. It is safe to call more than once.
func (d *DuckTable) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.db.Close()
}
