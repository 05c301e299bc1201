package internal

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

var _ VectorIndex = (*MemoryIndex)(nil)

// MemoryIndex is a VectorIndex held entirely in memory. It follows the same
// contract as SQLiteIndex and backs unit tests.
type MemoryIndex struct {
	mu     sync.RWMutex
	metric Metric
	tables map[TableName]*memTable
}

type memTable struct {
	dim  int
	rows []Document
}

func NewMemoryIndex(metric Metric) *MemoryIndex {
	return &MemoryIndex{
		metric: metric,
		tables: make(map[TableName]*memTable),
	}
}

func (m *MemoryIndex) Tables(ctx context.Context) ([]TableStat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := make([]TableStat, 0, len(m.tables))
	for name, t := range m.tables {
		stats = append(stats, TableStat{Name: name, Dim: t.dim, Rows: len(t.rows)})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })
	return stats, nil
}

func (m *MemoryIndex) Exists(ctx context.Context, table TableName) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.tables[table]
	return ok, nil
}

func (m *MemoryIndex) Create(ctx context.Context, table TableName, docs ...Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tables[table]; ok {
		return indexErr("create", table.String(), ErrTableExists)
	}
	if len(docs) == 0 {
		return indexErr("create", table.String(), fmt.Errorf("%w: no seed documents", ErrInvalidArgument))
	}

	dim := len(docs[0].Vector)
	if err := checkDims(dim, docs); err != nil {
		return indexErr("create", table.String(), err)
	}

	m.tables[table] = &memTable{dim: dim, rows: cloneDocs(docs)}
	return nil
}

func (m *MemoryIndex) Append(ctx context.Context, table TableName, docs ...Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.table("append", table)
	if err != nil {
		return err
	}
	if err := checkDims(t.dim, docs); err != nil {
		return indexErr("append", table.String(), err)
	}

	t.rows = append(t.rows, cloneDocs(docs)...)
	return nil
}

func (m *MemoryIndex) Count(ctx context.Context, table TableName) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, err := m.table("count", table)
	if err != nil {
		return 0, err
	}
	return len(t.rows), nil
}

func (m *MemoryIndex) Search(ctx context.Context, table TableName, query []float32, k int) ([]SearchHit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, err := m.table("search", table)
	if err != nil {
		return nil, err
	}

	hits, err := rankByDistance(m.metric, query, t.rows, k)
	if err != nil {
		return nil, indexErr("search", table.String(), err)
	}
	return hits, nil
}

func (m *MemoryIndex) Rows(ctx context.Context, table TableName) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, err := m.table("rows", table)
	if err != nil {
		return nil, err
	}
	return cloneDocs(t.rows), nil
}

func (m *MemoryIndex) DeleteByID(ctx context.Context, table TableName, id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.table("delete", table)
	if err != nil {
		return 0, err
	}

	kept := t.rows[:0]
	for _, doc := range t.rows {
		if doc.ID != id {
			kept = append(kept, doc)
		}
	}
	removed := len(t.rows) - len(kept)
	t.rows = kept
	return removed, nil
}

func (m *MemoryIndex) Clear(ctx context.Context, table TableName) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.table("clear", table)
	if err != nil {
		return err
	}
	t.rows = nil
	return nil
}

func (m *MemoryIndex) Drop(ctx context.Context, table TableName) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.table("drop", table); err != nil {
		return err
	}
	delete(m.tables, table)
	return nil
}

func (m *MemoryIndex) Close() error {
	return nil
}

func (m *MemoryIndex) table(op string, name TableName) (*memTable, error) {
	t, ok := m.tables[name]
	if !ok {
		return nil, indexErr(op, name.String(), ErrTableNotFound)
	}
	return t, nil
}

func cloneDocs(docs []Document) []Document {
	out := make([]Document, len(docs))
	for i, d := range docs {
		d.Vector = append([]float32(nil), d.Vector...)
		out[i] = d
	}
	return out
}
