// memory_table.go - In-process table store used where DuckDB is not under test
package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/timeseries-dashboard/backend/internal/dataset"
	"github.com/timeseries-dashboard/backend/internal/models"
)

// MemoryTable keeps the year table in memory and satisfies session.TableStore.
type MemoryTable struct {
	mu     sync.RWMutex
	table  *models.YearTable
	closed bool
	Loads  int
}

// NewMemoryTable creates an empty store.
func NewMemoryTable() *MemoryTable {
	return &MemoryTable{}
}

func (m *MemoryTable) Load(_ context.Context, t *models.YearTable) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errors.New("memory table closed")
	}
	m.table = t
	m.Loads++
	return nil
}

func (m *MemoryTable) Cells(_ context.Context, column string) ([]models.Cell, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.table == nil {
		return nil, errors.New("memory table empty")
	}
	return dataset.ColumnCells(m.table, column)
}

func (m *MemoryTable) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.table = nil
	return nil
}

// Closed reports whether Close was called.
func (m *MemoryTable) Closed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}
