package internal

import (
	"context"
	"errors"
)

// TableState is where a table sits in its lifecycle. Configuration is written
// by declare; the physical table appears with the first ingested document.
type TableState int

const (
	// TableUnknown: neither configuration nor physical table.
	TableUnknown TableState = iota
	// TableDeclared: configuration only, nothing ingested yet.
	TableDeclared
	// TableMaterialized: configuration and physical table.
	TableMaterialized
	// TableOrphaned: physical table whose configuration is gone.
	TableOrphaned
)

func (s TableState) String() string {
	switch s {
	case TableDeclared:
		return "declared"
	case TableMaterialized:
		return "materialized"
	case TableOrphaned:
		return "orphaned"
	default:
		return "unknown"
	}
}

// Physical reports whether the index holds the table.
func (s TableState) Physical() bool {
	return s == TableMaterialized || s == TableOrphaned
}

// TableStatus is the resolved state of one table. Config is nil unless the
// table is declared.
type TableStatus struct {
	Name   TableName
	State  TableState
	Config *TableConfig
}

// ResolveTable reads both stores once and tags the table with its state.
func ResolveTable(ctx context.Context, meta MetadataStore, index VectorIndex, name TableName) (TableStatus, error) {
	status := TableStatus{Name: name}

	cfg, err := meta.Get(ctx, name)
	switch {
	case err == nil:
		status.Config = &cfg
	case !errors.Is(err, ErrNotDeclared):
		return status, err
	}

	physical, err := index.Exists(ctx, name)
	if err != nil {
		return status, err
	}

	switch {
	case status.Config != nil && physical:
		status.State = TableMaterialized
	case status.Config != nil:
		status.State = TableDeclared
	case physical:
		status.State = TableOrphaned
	default:
		status.State = TableUnknown
	}
	return status, nil
}
