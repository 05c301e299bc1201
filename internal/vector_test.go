package internal

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type indexFactory func(t *testing.T) VectorIndex

func indexFactories() map[string]indexFactory {
	return map[string]indexFactory{
		"memory": func(t *testing.T) VectorIndex {
			return NewMemoryIndex(MetricL2)
		},
		"sqlite": func(t *testing.T) VectorIndex {
			idx, err := OpenSQLiteIndex(context.Background(), filepath.Join(t.TempDir(), IndexFilename), MetricL2)
			require.NoError(t, err)
			t.Cleanup(func() { _ = idx.Close() })
			return idx
		},
	}
}

// runIndexContract runs fn against every VectorIndex implementation.
func runIndexContract(t *testing.T, fn func(t *testing.T, idx VectorIndex)) {
	for name, factory := range indexFactories() {
		t.Run(name, func(t *testing.T) {
			fn(t, factory(t))
		})
	}
}

func doc(text, name string, vec ...float32) Document {
	return NewDocument(text, name, vec)
}

func TestIndexCreateAndCount(t *testing.T) {
	runIndexContract(t, func(t *testing.T, idx VectorIndex) {
		ctx := context.Background()

		exists, err := idx.Exists(ctx, "docs")
		require.NoError(t, err)
		assert.False(t, exists)

		require.NoError(t, idx.Create(ctx, "docs", doc("hello", "a", 1, 0, 0)))

		exists, err = idx.Exists(ctx, "docs")
		require.NoError(t, err)
		assert.True(t, exists)

		n, err := idx.Count(ctx, "docs")
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		err = idx.Create(ctx, "docs", doc("again", "a", 1, 0, 0))
		assert.ErrorIs(t, err, ErrTableExists)
	})
}

func TestIndexCreateRequiresSeed(t *testing.T) {
	runIndexContract(t, func(t *testing.T, idx VectorIndex) {
		err := idx.Create(context.Background(), "docs")
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})
}

func TestIndexAppendDuplicates(t *testing.T) {
	runIndexContract(t, func(t *testing.T, idx VectorIndex) {
		ctx := context.Background()
		d := doc("same", "src", 0.5, 0.5)

		require.NoError(t, idx.Create(ctx, "docs", d))
		require.NoError(t, idx.Append(ctx, "docs", d))

		rows, err := idx.Rows(ctx, "docs")
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, rows[0].ID, rows[1].ID)
	})
}

func TestIndexAppendDimensionMismatch(t *testing.T) {
	runIndexContract(t, func(t *testing.T, idx VectorIndex) {
		ctx := context.Background()
		require.NoError(t, idx.Create(ctx, "docs", doc("a", "a", 1, 2, 3)))

		err := idx.Append(ctx, "docs", doc("b", "b", 1, 2))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDimensionMismatch)

		var ie *IndexError
		require.True(t, errors.As(err, &ie))
		assert.Equal(t, "append", ie.Op)
		assert.Equal(t, "docs", ie.Table)
	})
}

func TestIndexMissingTable(t *testing.T) {
	runIndexContract(t, func(t *testing.T, idx VectorIndex) {
		ctx := context.Background()

		_, err := idx.Count(ctx, "nope")
		assert.ErrorIs(t, err, ErrTableNotFound)

		err = idx.Append(ctx, "nope", doc("x", "y", 1))
		assert.ErrorIs(t, err, ErrTableNotFound)

		_, err = idx.Search(ctx, "nope", []float32{1}, 1)
		assert.ErrorIs(t, err, ErrTableNotFound)

		_, err = idx.Rows(ctx, "nope")
		assert.ErrorIs(t, err, ErrTableNotFound)

		_, err = idx.DeleteByID(ctx, "nope", "id")
		assert.ErrorIs(t, err, ErrTableNotFound)

		assert.ErrorIs(t, idx.Clear(ctx, "nope"), ErrTableNotFound)
		assert.ErrorIs(t, idx.Drop(ctx, "nope"), ErrTableNotFound)
	})
}

func TestIndexSearchOrdering(t *testing.T) {
	runIndexContract(t, func(t *testing.T, idx VectorIndex) {
		ctx := context.Background()
		require.NoError(t, idx.Create(ctx, "docs",
			doc("far", "a", 10, 10),
			doc("near", "b", 1, 1),
			doc("exact", "c", 0, 0),
		))

		hits, err := idx.Search(ctx, "docs", []float32{0, 0}, 2)
		require.NoError(t, err)
		require.Len(t, hits, 2)
		assert.Equal(t, "exact", hits[0].Text)
		assert.Equal(t, "near", hits[1].Text)
		assert.InDelta(t, 0.0, hits[0].Distance, 1e-9)
		assert.InDelta(t, 2.0, hits[1].Distance, 1e-6)
		assert.InDelta(t, 1.0, hits[0].Score(), 1e-9)
		assert.InDelta(t, -1.0, hits[1].Score(), 1e-6)
	})
}

func TestIndexSearchTiesKeepInsertionOrder(t *testing.T) {
	runIndexContract(t, func(t *testing.T, idx VectorIndex) {
		ctx := context.Background()
		require.NoError(t, idx.Create(ctx, "docs",
			doc("first", "a", 1, 0),
			doc("second", "b", 0, 1),
			doc("third", "c", -1, 0),
		))

		hits, err := idx.Search(ctx, "docs", []float32{0, 0}, 10)
		require.NoError(t, err)
		require.Len(t, hits, 3)
		assert.Equal(t, []string{"first", "second", "third"},
			[]string{hits[0].Text, hits[1].Text, hits[2].Text})
	})
}

func TestIndexSearchInvalidLimit(t *testing.T) {
	runIndexContract(t, func(t *testing.T, idx VectorIndex) {
		ctx := context.Background()
		require.NoError(t, idx.Create(ctx, "docs", doc("a", "a", 1)))

		_, err := idx.Search(ctx, "docs", []float32{1}, 0)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})
}

func TestIndexDeleteByID(t *testing.T) {
	runIndexContract(t, func(t *testing.T, idx VectorIndex) {
		ctx := context.Background()
		keep := doc("keep", "a", 1, 0)
		gone := doc("gone", "b", 0, 1)
		require.NoError(t, idx.Create(ctx, "docs", keep, gone, gone))

		n, err := idx.DeleteByID(ctx, "docs", gone.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		n, err = idx.DeleteByID(ctx, "docs", "does-not-exist")
		require.NoError(t, err)
		assert.Equal(t, 0, n)

		rows, err := idx.Rows(ctx, "docs")
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, keep.ID, rows[0].ID)
	})
}

func TestIndexClearKeepsTable(t *testing.T) {
	runIndexContract(t, func(t *testing.T, idx VectorIndex) {
		ctx := context.Background()
		require.NoError(t, idx.Create(ctx, "docs", doc("a", "a", 1, 2), doc("b", "b", 3, 4)))
		require.NoError(t, idx.Clear(ctx, "docs"))

		stats, err := idx.Tables(ctx)
		require.NoError(t, err)
		require.Len(t, stats, 1)
		assert.Equal(t, TableName("docs"), stats[0].Name)
		assert.Equal(t, 0, stats[0].Rows)
		assert.Equal(t, 2, stats[0].Dim)

		err = idx.Append(ctx, "docs", doc("c", "c", 1, 2, 3))
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})
}

func TestIndexDrop(t *testing.T) {
	runIndexContract(t, func(t *testing.T, idx VectorIndex) {
		ctx := context.Background()
		require.NoError(t, idx.Create(ctx, "docs", doc("a", "a", 1)))
		require.NoError(t, idx.Drop(ctx, "docs"))

		exists, err := idx.Exists(ctx, "docs")
		require.NoError(t, err)
		assert.False(t, exists)

		assert.ErrorIs(t, idx.Drop(ctx, "docs"), ErrTableNotFound)

		// Recreating with another dimensionality is allowed after a drop.
		require.NoError(t, idx.Create(ctx, "docs", doc("b", "b", 1, 2, 3)))
	})
}

func TestIndexTablesSorted(t *testing.T) {
	runIndexContract(t, func(t *testing.T, idx VectorIndex) {
		ctx := context.Background()
		require.NoError(t, idx.Create(ctx, "zeta", doc("z", "z", 1)))
		require.NoError(t, idx.Create(ctx, "alpha", doc("a", "a", 1), doc("b", "b", 2)))

		stats, err := idx.Tables(ctx)
		require.NoError(t, err)
		require.Len(t, stats, 2)
		assert.Equal(t, TableName("alpha"), stats[0].Name)
		assert.Equal(t, 2, stats[0].Rows)
		assert.Equal(t, TableName("zeta"), stats[1].Name)
		assert.Equal(t, 1, stats[1].Rows)
	})
}

func TestIndexDistinctNamesStayDistinct(t *testing.T) {
	pairs := [][2]TableName{
		{"a", "a_id"},
		{"docs", "Docs"},
	}

	runIndexContract(t, func(t *testing.T, idx VectorIndex) {
		ctx := context.Background()
		for _, pair := range pairs {
			first, second := pair[0], pair[1]
			require.NoError(t, idx.Create(ctx, first, doc("one", "n", 1, 0)))
			require.NoError(t, idx.Create(ctx, second, doc("two", "n", 0, 1), doc("three", "n", 1, 1)))

			n, err := idx.Count(ctx, first)
			require.NoError(t, err)
			assert.Equal(t, 1, n, "table %s", first)
			n, err = idx.Count(ctx, second)
			require.NoError(t, err)
			assert.Equal(t, 2, n, "table %s", second)

			require.NoError(t, idx.Append(ctx, first, doc("four", "n", 2, 2)))
			require.NoError(t, idx.Clear(ctx, second))
			n, err = idx.Count(ctx, first)
			require.NoError(t, err)
			assert.Equal(t, 2, n, "clearing %s must not touch %s", second, first)

			require.NoError(t, idx.Drop(ctx, second))
			exists, err := idx.Exists(ctx, first)
			require.NoError(t, err)
			assert.True(t, exists, "dropping %s must not touch %s", second, first)
		}
	})
}

func TestSQLiteIndexRecreateAfterDropPersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), IndexFilename)

	idx, err := OpenSQLiteIndex(ctx, path, MetricL2)
	require.NoError(t, err)
	require.NoError(t, idx.Create(ctx, "docs", doc("old", "n", 1, 0)))
	require.NoError(t, idx.Drop(ctx, "docs"))
	require.NoError(t, idx.Create(ctx, "docs", doc("new", "n", 1, 0, 0)))
	require.NoError(t, idx.Close())

	reopened, err := OpenSQLiteIndex(ctx, path, MetricL2)
	require.NoError(t, err)
	defer reopened.Close()

	rows, err := reopened.Rows(ctx, "docs")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "new", rows[0].Text)

	stats, err := reopened.Tables(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 3, stats[0].Dim)
}

func TestSQLiteIndexPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), IndexFilename)

	idx, err := OpenSQLiteIndex(ctx, path, MetricL2)
	require.NoError(t, err)
	d := doc("persisted\ntext", "src", 0.1, 0.2, 0.3, 0.4)
	require.NoError(t, idx.Create(ctx, "docs", d))
	require.NoError(t, idx.Close())

	reopened, err := OpenSQLiteIndex(ctx, path, MetricL2)
	require.NoError(t, err)
	defer reopened.Close()

	hits, err := reopened.Search(ctx, "docs", []float32{0.1, 0.2, 0.3, 0.4}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, d.ID, hits[0].ID)
	assert.Equal(t, "persisted\ntext", hits[0].Text)
	assert.Equal(t, d.Vector, hits[0].Vector)
}

func TestSQLiteIndexCosineMetric(t *testing.T) {
	ctx := context.Background()
	idx, err := OpenSQLiteIndex(ctx, filepath.Join(t.TempDir(), IndexFilename), MetricCosine)
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Create(ctx, "docs", doc("same direction", "a", 2, 0), doc("orthogonal", "b", 0, 3)))

	hits, err := idx.Search(ctx, "docs", []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "same direction", hits[0].Text)
	assert.InDelta(t, 1.0, hits[0].Score(), 1e-9)
	assert.InDelta(t, 0.0, hits[1].Score(), 1e-9)
}

func TestVectorBlobRoundTrip(t *testing.T) {
	vec := []float32{0, -1.5, float32(math.Pi), math.MaxFloat32}
	got, err := decodeVector(encodeVector(vec))
	require.NoError(t, err)
	assert.Equal(t, vec, got)

	_, err = decodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}
