package internal

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const busyTimeoutMS = 5000

// Physical tables and their id indexes are named vt_<tid> and vi_<tid>.
// Table names never appear in SQL identifiers.
const catalogSchema = `
CREATE TABLE IF NOT EXISTS rag_tables (
	tid        INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL UNIQUE,
	dim        INTEGER NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`

var _ VectorIndex = (*SQLiteIndex)(nil)

// SQLiteIndex stores each table as a SQLite table of float32 blobs and ranks
// by brute force. The rag_tables catalog fixes every table's dimensionality,
// so a cleared table still rejects vectors of the wrong length.
type SQLiteIndex struct {
	db     *sql.DB
	metric Metric
}

func OpenSQLiteIndex(ctx context.Context, path string, metric Metric) (*SQLiteIndex, error) {
	if err := os.MkdirAll(filepath.Dir(path), workspaceDirPerm); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", path, busyTimeoutMS)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, catalogSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create catalog: %w", err)
	}

	return &SQLiteIndex{db: db, metric: metric}, nil
}

func (s *SQLiteIndex) Tables(ctx context.Context) ([]TableStat, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, dim FROM rag_tables ORDER BY name`)
	if err != nil {
		return nil, indexErr("list", "", err)
	}

	var stats []TableStat
	for rows.Next() {
		var name string
		var st TableStat
		if err := rows.Scan(&name, &st.Dim); err != nil {
			_ = rows.Close()
			return nil, indexErr("list", "", err)
		}
		st.Name = TableName(name)
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, indexErr("list", "", err)
	}
	_ = rows.Close()

	for i := range stats {
		n, err := s.Count(ctx, stats[i].Name)
		if err != nil {
			return nil, err
		}
		stats[i].Rows = n
	}
	return stats, nil
}

func (s *SQLiteIndex) Exists(ctx context.Context, table TableName) (bool, error) {
	_, err := s.lookup(ctx, s.db, table)
	if errors.Is(err, ErrTableNotFound) {
		return false, nil
	}
	if err != nil {
		return false, indexErr("exists", table.String(), err)
	}
	return true, nil
}

func (s *SQLiteIndex) Create(ctx context.Context, table TableName, docs ...Document) error {
	if len(docs) == 0 {
		return indexErr("create", table.String(), fmt.Errorf("%w: no seed documents", ErrInvalidArgument))
	}
	dim := len(docs[0].Vector)
	if err := checkDims(dim, docs); err != nil {
		return indexErr("create", table.String(), err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return indexErr("create", table.String(), err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := s.lookup(ctx, tx, table); err == nil {
		return indexErr("create", table.String(), ErrTableExists)
	} else if !errors.Is(err, ErrTableNotFound) {
		return indexErr("create", table.String(), err)
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO rag_tables (name, dim) VALUES (?, ?)`, table.String(), dim)
	if err != nil {
		return indexErr("create", table.String(), err)
	}
	tid, err := res.LastInsertId()
	if err != nil {
		return indexErr("create", table.String(), err)
	}
	ref := tableRef{tid: tid, dim: dim}

	ddl := fmt.Sprintf(`CREATE TABLE %s (
		seq    INTEGER PRIMARY KEY AUTOINCREMENT,
		id     TEXT NOT NULL,
		name   TEXT NOT NULL,
		text   TEXT NOT NULL,
		vector BLOB NOT NULL
	)`, ref.physical())
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return indexErr("create", table.String(), err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`CREATE INDEX %s ON %s (id)`, ref.idIndex(), ref.physical())); err != nil {
		return indexErr("create", table.String(), err)
	}
	if err := insertDocs(ctx, tx, ref, docs); err != nil {
		return indexErr("create", table.String(), err)
	}

	if err := tx.Commit(); err != nil {
		return indexErr("create", table.String(), err)
	}
	return nil
}

func (s *SQLiteIndex) Append(ctx context.Context, table TableName, docs ...Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return indexErr("append", table.String(), err)
	}
	defer func() { _ = tx.Rollback() }()

	ref, err := s.lookup(ctx, tx, table)
	if err != nil {
		return indexErr("append", table.String(), err)
	}
	if err := checkDims(ref.dim, docs); err != nil {
		return indexErr("append", table.String(), err)
	}
	if err := insertDocs(ctx, tx, ref, docs); err != nil {
		return indexErr("append", table.String(), err)
	}

	if err := tx.Commit(); err != nil {
		return indexErr("append", table.String(), err)
	}
	return nil
}

func (s *SQLiteIndex) Count(ctx context.Context, table TableName) (int, error) {
	ref, err := s.lookup(ctx, s.db, table)
	if err != nil {
		return 0, indexErr("count", table.String(), err)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, ref.physical())).Scan(&n); err != nil {
		return 0, indexErr("count", table.String(), err)
	}
	return n, nil
}

func (s *SQLiteIndex) Search(ctx context.Context, table TableName, query []float32, k int) ([]SearchHit, error) {
	docs, err := s.rows(ctx, table, true)
	if err != nil {
		return nil, indexErr("search", table.String(), err)
	}

	hits, err := rankByDistance(s.metric, query, docs, k)
	if err != nil {
		return nil, indexErr("search", table.String(), err)
	}
	return hits, nil
}

func (s *SQLiteIndex) Rows(ctx context.Context, table TableName) ([]Document, error) {
	docs, err := s.rows(ctx, table, false)
	if err != nil {
		return nil, indexErr("rows", table.String(), err)
	}
	return docs, nil
}

func (s *SQLiteIndex) DeleteByID(ctx context.Context, table TableName, id string) (int, error) {
	ref, err := s.lookup(ctx, s.db, table)
	if err != nil {
		return 0, indexErr("delete", table.String(), err)
	}

	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, ref.physical()), id)
	if err != nil {
		return 0, indexErr("delete", table.String(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, indexErr("delete", table.String(), err)
	}
	return int(n), nil
}

func (s *SQLiteIndex) Clear(ctx context.Context, table TableName) error {
	ref, err := s.lookup(ctx, s.db, table)
	if err != nil {
		return indexErr("clear", table.String(), err)
	}

	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, ref.physical())); err != nil {
		return indexErr("clear", table.String(), err)
	}
	return nil
}

func (s *SQLiteIndex) Drop(ctx context.Context, table TableName) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return indexErr("drop", table.String(), err)
	}
	defer func() { _ = tx.Rollback() }()

	ref, err := s.lookup(ctx, tx, table)
	if err != nil {
		return indexErr("drop", table.String(), err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE %s`, ref.physical())); err != nil {
		return indexErr("drop", table.String(), err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM rag_tables WHERE tid = ?`, ref.tid); err != nil {
		return indexErr("drop", table.String(), err)
	}

	if err := tx.Commit(); err != nil {
		return indexErr("drop", table.String(), err)
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// tableRef is a catalog entry. tid names the physical objects.
type tableRef struct {
	tid int64
	dim int
}

func (r tableRef) physical() string {
	return fmt.Sprintf(`"vt_%d"`, r.tid)
}

func (r tableRef) idIndex() string {
	return fmt.Sprintf(`"vi_%d"`, r.tid)
}

func (s *SQLiteIndex) lookup(ctx context.Context, q queryer, table TableName) (tableRef, error) {
	var ref tableRef
	err := q.QueryRowContext(ctx, `SELECT tid, dim FROM rag_tables WHERE name = ?`, table.String()).Scan(&ref.tid, &ref.dim)
	if errors.Is(err, sql.ErrNoRows) {
		return tableRef{}, ErrTableNotFound
	}
	if err != nil {
		return tableRef{}, err
	}
	return ref, nil
}

func (s *SQLiteIndex) rows(ctx context.Context, table TableName, withVectors bool) ([]Document, error) {
	ref, err := s.lookup(ctx, s.db, table)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT id, name, text, vector FROM %s ORDER BY seq`, ref.physical()))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		var blob []byte
		if err := rows.Scan(&doc.ID, &doc.Name, &doc.Text, &blob); err != nil {
			return nil, err
		}
		if withVectors {
			if doc.Vector, err = decodeVector(blob); err != nil {
				return nil, err
			}
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func insertDocs(ctx context.Context, tx *sql.Tx, ref tableRef, docs []Document) error {
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s (id, name, text, vector) VALUES (?, ?, ?, ?)`, ref.physical()))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, doc := range docs {
		if _, err := stmt.ExecContext(ctx, doc.ID, doc.Name, doc.Text, encodeVector(doc.Vector)); err != nil {
			return err
		}
	}
	return nil
}

// encodeVector writes little-endian IEEE 754 float32 values with no length
// prefix; the length comes from the blob size.
func encodeVector(vec []float32) []byte {
	b := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}

func decodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid vector blob length %d", len(b))
	}
	vec := make([]float32, len(b)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return vec, nil
}
