package v1

import (
	"context"
	"fmt"
	"sync"

	"github.com/YhVgYe98/clawrag-core/internal"
)

// Client provides programmatic access to a document store.
type Client struct {
	uc *internal.UseCases

	ws     internal.Workspace
	metric internal.Metric

	mu       sync.Mutex
	index    internal.VectorIndex
	inMemory bool
}

// New creates a new Client with the given options. Options take precedence
// over the environment, which takes precedence over the database's
// config.yaml.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	ws := internal.ResolveWorkspace(cfg.db)
	fileCfg, err := internal.LoadConfig(ws)
	if err != nil {
		return nil, err
	}
	fileCfg.ApplyEnv()

	if cfg.url != "" {
		fileCfg.Embedding.URL = cfg.url
	}
	if cfg.apiKey != "" {
		fileCfg.Embedding.APIKey = cfg.apiKey
	}
	if cfg.timeout > 0 {
		fileCfg.Embedding.Timeout = cfg.timeout
	}
	if cfg.metric != "" {
		fileCfg.Index.Metric = internal.Metric(cfg.metric)
	}
	if err := fileCfg.Validate(); err != nil {
		return nil, err
	}

	var embedder internal.Embedder
	switch {
	case cfg.embedder != nil:
		embedder = cfg.embedder
	case fileCfg.Embedding.URL != "":
		embedder = internal.NewHTTPEmbedder(internal.HTTPEmbedderConfig{
			URL:     fileCfg.Embedding.URL,
			APIKey:  fileCfg.Embedding.APIKey,
			Timeout: fileCfg.Embedding.Timeout,
		}, cfg.logger)
	}

	c := &Client{
		ws:       ws,
		metric:   fileCfg.Index.Metric,
		inMemory: cfg.inMemory,
	}
	c.uc = internal.NewUseCases(internal.NewFileMetadataStore(ws), c.indexFor, embedder, cfg.logger)
	return c, nil
}

func (c *Client) indexFor(ctx context.Context) (internal.VectorIndex, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.index != nil {
		return c.index, nil
	}

	if c.inMemory {
		c.index = internal.NewMemoryIndex(c.metric)
		return c.index, nil
	}

	idx, err := internal.OpenSQLiteIndex(ctx, c.ws.IndexPath(), c.metric)
	if err != nil {
		return nil, err
	}
	c.index = idx
	return idx, nil
}

// DeclareTable saves a table's dimensionality and embedding model. The table
// holds no documents until the first Ingest.
func (c *Client) DeclareTable(ctx context.Context, table string, dim int, model string) error {
	if err := c.uc.DeclareTable.Execute(ctx, internal.DeclareTableInput{
		Table: table, Dim: dim, Model: model,
	}); err != nil {
		return fmt.Errorf("declare table: %w", err)
	}
	return nil
}

// Tables lists tables that hold documents. With all set, declared tables
// without documents are included.
func (c *Client) Tables(ctx context.Context, all bool) ([]Table, error) {
	out, err := c.uc.ListTables.Execute(ctx, internal.ListTablesInput{All: all})
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	tables := make([]Table, 0, len(out.Tables))
	for _, t := range out.Tables {
		tables = append(tables, Table{Name: t.Name, Rows: t.Rows, State: t.State.String()})
	}
	return tables, nil
}

// Info describes one table.
func (c *Client) Info(ctx context.Context, table string) (*TableInfo, error) {
	out, err := c.uc.TableInfo.Execute(ctx, internal.TableInput{Table: table})
	if err != nil {
		return nil, fmt.Errorf("table info: %w", err)
	}

	info := &TableInfo{Name: out.Table, Rows: out.Rows, State: out.State.String()}
	if out.Config != nil {
		info.Dim = out.Config.Dim
		info.Model = out.Config.Model
	}
	return info, nil
}

// DeleteTable drops a table and forgets its configuration.
func (c *Client) DeleteTable(ctx context.Context, table string) error {
	if _, err := c.uc.DeleteTable.Execute(ctx, internal.TableInput{Table: table}); err != nil {
		return fmt.Errorf("delete table: %w", err)
	}
	return nil
}

// Ingest embeds text and appends it to the table under the source label name.
func (c *Client) Ingest(ctx context.Context, table, text, name string) (*Record, error) {
	out, err := c.uc.Ingest.Execute(ctx, internal.IngestInput{
		Table: table, Text: text, Name: name,
	})
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}
	return &Record{ID: out.ID, Name: out.Name}, nil
}

// Query returns up to limit documents closest to text, best first.
func (c *Client) Query(ctx context.Context, table, text string, limit int) ([]QueryResult, error) {
	out, err := c.uc.Query.Execute(ctx, internal.QueryInput{
		Table: table, Text: text, Limit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	results := make([]QueryResult, 0, len(out.Results))
	for _, r := range out.Results {
		results = append(results, QueryResult{Score: r.Score, ID: r.ID, Name: r.Name, Text: r.Text})
	}
	return results, nil
}

// FindByLabel returns every document whose source label equals name.
func (c *Client) FindByLabel(ctx context.Context, table, name string) ([]Record, error) {
	out, err := c.uc.FindByLabel.Execute(ctx, internal.FindByLabelInput{Table: table, Name: name})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	records := make([]Record, 0, len(out.Matches))
	for _, m := range out.Matches {
		records = append(records, Record{ID: m.ID, Name: m.Name})
	}
	return records, nil
}

// DeleteRecord removes every document with the id and reports how many went.
func (c *Client) DeleteRecord(ctx context.Context, table, id string) (int, error) {
	out, err := c.uc.DeleteRecord.Execute(ctx, internal.DeleteRecordInput{Table: table, ID: id})
	if err != nil {
		return 0, fmt.Errorf("delete: %w", err)
	}
	return out.Removed, nil
}

// Clear removes every document but keeps the table and its configuration.
func (c *Client) Clear(ctx context.Context, table string) error {
	if err := c.uc.ClearTable.Execute(ctx, internal.TableInput{Table: table}); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	return nil
}

// Close releases the index.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.index == nil {
		return nil
	}
	err := c.index.Close()
	c.index = nil
	return err
}
