package internal

import (
	"errors"
	"fmt"
)

var (
	// ErrNotDeclared is returned when a table has no configuration sidecar.
	ErrNotDeclared = errors.New("table configuration not found")

	// ErrTableNotFound is returned when a table is not present in the index.
	ErrTableNotFound = errors.New("table not found")

	// ErrTableExists is returned when creating a physical table twice.
	ErrTableExists = errors.New("table already exists")

	// ErrDimensionMismatch is returned by the index when a vector's length
	// differs from the table's fixed dimensionality.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrEmbedding wraps every failure of the embedding provider.
	ErrEmbedding = errors.New("embedding provider error")

	// ErrEndpointMissing is returned when ingest or query run without an
	// embedding URL.
	ErrEndpointMissing = errors.New("embedding api url is required")

	// ErrInvalidArgument is returned when an input fails validation.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidTableName is returned for names outside [A-Za-z0-9_-] or
	// longer than 128 characters.
	ErrInvalidTableName = errors.New("invalid table name")
)

// IndexError reports a failed vector index operation.
type IndexError struct {
	Op    string
	Table string
	Err   error
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index %s %q: %v", e.Op, e.Table, e.Err)
}

func (e *IndexError) Unwrap() error {
	return e.Err
}

func indexErr(op, table string, err error) error {
	if err == nil {
		return nil
	}
	var ie *IndexError
	if errors.As(err, &ie) {
		return err
	}
	return &IndexError{Op: op, Table: table, Err: err}
}
