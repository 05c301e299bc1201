package internal

import (
	"context"
	"fmt"
	"sort"
)

// SearchHit is a document ranked by its raw distance to the query vector.
type SearchHit struct {
	Document
	Distance float64
}

// Score is the similarity shown to callers: 1 - distance, with no further
// normalization.
func (h SearchHit) Score() float64 {
	return 1 - h.Distance
}

// TableStat describes one physically existing table.
type TableStat struct {
	Name TableName
	Dim  int
	Rows int
}

// VectorIndex is the storage engine for physical tables. A table exists only
// after Create; its dimensionality is fixed by the first document.
type VectorIndex interface {
	Tables(ctx context.Context) ([]TableStat, error)
	Exists(ctx context.Context, table TableName) (bool, error)
	Create(ctx context.Context, table TableName, docs ...Document) error
	Append(ctx context.Context, table TableName, docs ...Document) error
	Count(ctx context.Context, table TableName) (int, error)
	Search(ctx context.Context, table TableName, query []float32, k int) ([]SearchHit, error)
	// Rows returns every document in insertion order.
	Rows(ctx context.Context, table TableName) ([]Document, error)
	// DeleteByID removes all rows carrying id and reports how many there were.
	DeleteByID(ctx context.Context, table TableName, id string) (int, error)
	Clear(ctx context.Context, table TableName) error
	Drop(ctx context.Context, table TableName) error
	Close() error
}

// rankByDistance orders docs closest first. The sort is stable, so equal
// distances keep insertion order.
func rankByDistance(metric Metric, query []float32, docs []Document, k int) ([]SearchHit, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: limit must be at least 1, got %d", ErrInvalidArgument, k)
	}

	hits := make([]SearchHit, 0, len(docs))
	for _, doc := range docs {
		d, err := metric.Distance(query, doc.Vector)
		if err != nil {
			return nil, err
		}
		hits = append(hits, SearchHit{Document: doc, Distance: d})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func checkDims(dim int, docs []Document) error {
	for _, doc := range docs {
		if len(doc.Vector) != dim {
			return fmt.Errorf("%w: table has %d, document %s has %d",
				ErrDimensionMismatch, dim, doc.ID, len(doc.Vector))
		}
	}
	return nil
}
