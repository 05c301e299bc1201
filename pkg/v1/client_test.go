package v1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
)

type vectorTable map[string][]float32

func (v vectorTable) Embed(_ context.Context, _, text string) ([]float32, error) {
	if vec, ok := v[text]; ok {
		return vec, nil
	}
	return []float32{0, 0, 1}, nil
}

func setupClientTest(t *testing.T, opts ...Option) *Client {
	t.Helper()
	t.Setenv("RAG_DB", "")
	t.Setenv("RAG_API_URL", "")
	t.Setenv("RAG_API_KEY", "")

	base := []Option{
		WithDB(filepath.Join(t.TempDir(), "rag_data")),
		WithEmbedder(vectorTable{
			"cats": {1, 0, 0},
			"dogs": {0, 1, 0},
		}),
	}
	client, err := New(append(base, opts...)...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestClientIngestAndQuery(t *testing.T) {
	client := setupClientTest(t)
	ctx := context.Background()

	if err := client.DeclareTable(ctx, "pets", 3, "m"); err != nil {
		t.Fatalf("declare: %v", err)
	}

	cat, err := client.Ingest(ctx, "pets", "cats", "a.txt")
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if _, err := client.Ingest(ctx, "pets", "dogs", "b.txt"); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	results, err := client.Query(ctx, "pets", "cats", 5)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != cat.ID || results[0].Score != 1 {
		t.Errorf("first result = %+v, want id %s score 1", results[0], cat.ID)
	}
	// squared distance between orthogonal unit vectors is 2
	if results[1].Score != -1 {
		t.Errorf("second score = %v, want -1", results[1].Score)
	}
}

func TestClientTablesAndInfo(t *testing.T) {
	client := setupClientTest(t)
	ctx := context.Background()

	if err := client.DeclareTable(ctx, "pets", 3, "m"); err != nil {
		t.Fatalf("declare: %v", err)
	}

	info, err := client.Info(ctx, "pets")
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.Dim != 3 || info.Model != "m" || info.Rows != 0 || info.State != "declared" {
		t.Errorf("info = %+v", info)
	}

	tables, err := client.Tables(ctx, false)
	if err != nil {
		t.Fatalf("tables: %v", err)
	}
	if len(tables) != 0 {
		t.Errorf("expected no materialized tables, got %+v", tables)
	}

	tables, err = client.Tables(ctx, true)
	if err != nil {
		t.Fatalf("tables all: %v", err)
	}
	if len(tables) != 1 || tables[0].Name != "pets" {
		t.Errorf("tables = %+v", tables)
	}
}

func TestClientFindDeleteClear(t *testing.T) {
	client := setupClientTest(t, WithInMemoryIndex())
	ctx := context.Background()

	if err := client.DeclareTable(ctx, "pets", 3, "m"); err != nil {
		t.Fatalf("declare: %v", err)
	}
	rec, err := client.Ingest(ctx, "pets", "cats", "a.txt")
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if _, err := client.Ingest(ctx, "pets", "cats", "a.txt"); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if _, err := client.Ingest(ctx, "pets", "dogs", "b.txt"); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	found, err := client.FindByLabel(ctx, "pets", "a.txt")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(found) != 2 {
		t.Errorf("expected 2 matches, got %+v", found)
	}

	n, err := client.DeleteRecord(ctx, "pets", rec.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n != 2 {
		t.Errorf("removed = %d, want 2", n)
	}

	if err := client.Clear(ctx, "pets"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	info, err := client.Info(ctx, "pets")
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.Rows != 0 || info.State != "materialized" {
		t.Errorf("info after clear = %+v", info)
	}

	if err := client.DeleteTable(ctx, "pets"); err != nil {
		t.Fatalf("delete table: %v", err)
	}
	if _, err := client.Info(ctx, "pets"); !errors.Is(err, ErrTableNotFound) {
		t.Errorf("expected ErrTableNotFound, got %v", err)
	}
}

func TestClientErrors(t *testing.T) {
	client := setupClientTest(t)
	ctx := context.Background()

	if _, err := client.Ingest(ctx, "pets", "cats", "a.txt"); !errors.Is(err, ErrNotDeclared) {
		t.Errorf("expected ErrNotDeclared, got %v", err)
	}
	if err := client.DeclareTable(ctx, "bad name", 3, "m"); !errors.Is(err, ErrInvalidTableName) {
		t.Errorf("expected ErrInvalidTableName, got %v", err)
	}
	if err := client.DeclareTable(ctx, "pets", 0, "m"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestClientWithoutEndpoint(t *testing.T) {
	t.Setenv("RAG_API_URL", "")
	client, err := New(WithDB(t.TempDir()))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer client.Close()

	if _, err := client.Query(context.Background(), "pets", "x", 1); !errors.Is(err, ErrEndpointMissing) {
		t.Errorf("expected ErrEndpointMissing, got %v", err)
	}
}

func TestClientHTTPEmbedder(t *testing.T) {
	var gotModel, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string `json:"model"`
			Input string `json:"input"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotModel = req.Model
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"embedding": []float32{1, 2, 3}}},
		})
	}))
	defer srv.Close()

	t.Setenv("RAG_API_URL", "")
	t.Setenv("RAG_API_KEY", "")
	client, err := New(WithDB(t.TempDir()), WithEmbeddingURL(srv.URL), WithAPIKey("secret"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer client.Close()

	ctx := context.Background()
	if err := client.DeclareTable(ctx, "docs", 3, "embed-small"); err != nil {
		t.Fatalf("declare: %v", err)
	}
	if _, err := client.Ingest(ctx, "docs", "hello", "src"); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	if gotModel != "embed-small" {
		t.Errorf("model = %q", gotModel)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("authorization = %q", gotAuth)
	}
}

func TestClientInvalidMetric(t *testing.T) {
	if _, err := New(WithDB(t.TempDir()), WithMetric("manhattan")); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}
