package v1

import (
	"context"

	"github.com/YhVgYe98/clawrag-core/internal"
)

// Embedder turns text into a vector using the named model.
type Embedder interface {
	Embed(ctx context.Context, model, text string) ([]float32, error)
}

// Errors returned by the client. Match them with errors.Is.
var (
	ErrNotDeclared       = internal.ErrNotDeclared
	ErrTableNotFound     = internal.ErrTableNotFound
	ErrDimensionMismatch = internal.ErrDimensionMismatch
	ErrEmbedding         = internal.ErrEmbedding
	ErrEndpointMissing   = internal.ErrEndpointMissing
	ErrInvalidArgument   = internal.ErrInvalidArgument
	ErrInvalidTableName  = internal.ErrInvalidTableName
)

// Table is one entry of a table listing.
type Table struct {
	Name  string `json:"name"`
	Rows  int    `json:"rows"`
	State string `json:"state"`
}

// TableInfo describes a table. Dim and Model are zero when the table has
// no configuration.
type TableInfo struct {
	Name  string `json:"name"`
	Dim   int    `json:"dim,omitempty"`
	Model string `json:"model,omitempty"`
	Rows  int    `json:"rows"`
	State string `json:"state"`
}

// Record identifies a stored document.
type Record struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// QueryResult is a similarity hit. Score is 1 - distance.
type QueryResult struct {
	Score float64 `json:"score"`
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Text  string  `json:"text"`
}
