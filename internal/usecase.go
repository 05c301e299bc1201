package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
)

// IndexOpener hands out the vector index for the current invocation.
type IndexOpener func(ctx context.Context) (VectorIndex, error)

// Use case input/output DTOs

type ListTablesInput struct {
	// All also lists tables that are declared but not yet materialized.
	All bool
}

type TableSummary struct {
	Name  string
	Rows  int
	State TableState
}

type ListTablesOutput struct {
	Tables []TableSummary
}

type DeclareTableInput struct {
	Table string `validate:"required"`
	Dim   int    `validate:"gt=0"`
	Model string `validate:"required"`
}

type TableInput struct {
	Table string `validate:"required"`
}

type DeleteTableOutput struct {
	// State is the state the table was in before deletion.
	State TableState
}

type TableInfoOutput struct {
	Table  string
	Config *TableConfig
	Rows   int
	State  TableState
}

type IngestInput struct {
	Table string `validate:"required"`
	Text  string
	Name  string `validate:"required"`
}

type IngestOutput struct {
	ID   string
	Name string
	// Created is true when this ingest materialized the table.
	Created bool
}

type QueryInput struct {
	Table string `validate:"required"`
	Text  string
	Limit int `validate:"gt=0"`
}

type QueryResult struct {
	Score float64
	ID    string
	Name  string
	Text  string
}

type QueryOutput struct {
	Results []QueryResult
}

type FindByLabelInput struct {
	Table string `validate:"required"`
	Name  string `validate:"required"`
}

type RecordRef struct {
	ID   string
	Name string
}

type FindByLabelOutput struct {
	Matches []RecordRef
}

type DeleteRecordInput struct {
	Table string `validate:"required"`
	ID    string `validate:"required"`
}

type DeleteRecordOutput struct {
	Removed int
}

func parseTable(in any, table string) (TableName, error) {
	if err := validateInput(in); err != nil {
		return "", err
	}
	name, err := NewTableName(table)
	if err != nil {
		return "", fmt.Errorf("%w: %q", err, table)
	}
	return name, nil
}

func nopLogger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l
}

// Use cases

type ListTablesUseCase struct {
	meta     MetadataStore
	indexFor IndexOpener
}

func NewListTablesUseCase(meta MetadataStore, indexFor IndexOpener) *ListTablesUseCase {
	return &ListTablesUseCase{meta: meta, indexFor: indexFor}
}

func (uc *ListTablesUseCase) Execute(ctx context.Context, input ListTablesInput) (*ListTablesOutput, error) {
	index, err := uc.indexFor(ctx)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	stats, err := index.Tables(ctx)
	if err != nil {
		return nil, err
	}

	out := &ListTablesOutput{Tables: make([]TableSummary, 0, len(stats))}
	if !input.All {
		for _, st := range stats {
			out.Tables = append(out.Tables, TableSummary{Name: st.Name.String(), Rows: st.Rows, State: TableMaterialized})
		}
		return out, nil
	}

	declared, err := uc.meta.List(ctx)
	if err != nil {
		return nil, err
	}
	isDeclared := make(map[TableName]bool, len(declared))
	for _, name := range declared {
		isDeclared[name] = true
	}

	physical := make(map[TableName]bool, len(stats))
	for _, st := range stats {
		physical[st.Name] = true
		state := TableOrphaned
		if isDeclared[st.Name] {
			state = TableMaterialized
		}
		out.Tables = append(out.Tables, TableSummary{Name: st.Name.String(), Rows: st.Rows, State: state})
	}
	for _, name := range declared {
		if !physical[name] {
			out.Tables = append(out.Tables, TableSummary{Name: name.String(), State: TableDeclared})
		}
	}

	sort.Slice(out.Tables, func(i, j int) bool { return out.Tables[i].Name < out.Tables[j].Name })
	return out, nil
}

type DeclareTableUseCase struct {
	meta   MetadataStore
	logger *slog.Logger
}

func NewDeclareTableUseCase(meta MetadataStore, logger *slog.Logger) *DeclareTableUseCase {
	return &DeclareTableUseCase{meta: meta, logger: nopLogger(logger)}
}

// Execute writes configuration only. The index is not consulted, so a
// physical table with another dimensionality is not detected here.
func (uc *DeclareTableUseCase) Execute(ctx context.Context, input DeclareTableInput) error {
	name, err := parseTable(input, input.Table)
	if err != nil {
		return err
	}

	if prev, err := uc.meta.Get(ctx, name); err == nil {
		uc.logger.Warn("overwriting table declaration",
			"table", name, "old_dim", prev.Dim, "old_model", prev.Model)
	}

	if err := uc.meta.Declare(ctx, name, TableConfig{Dim: input.Dim, Model: input.Model}); err != nil {
		return fmt.Errorf("declare table: %w", err)
	}

	uc.logger.Info("table metadata saved; table is created on first ingest",
		"table", name, "dim", input.Dim, "model", input.Model)
	return nil
}

type DeleteTableUseCase struct {
	meta     MetadataStore
	indexFor IndexOpener
	logger   *slog.Logger
}

func NewDeleteTableUseCase(meta MetadataStore, indexFor IndexOpener, logger *slog.Logger) *DeleteTableUseCase {
	return &DeleteTableUseCase{meta: meta, indexFor: indexFor, logger: nopLogger(logger)}
}

// Execute drops the physical table first and removes configuration only
// after the drop succeeded. A declared-only table just loses its
// configuration.
func (uc *DeleteTableUseCase) Execute(ctx context.Context, input TableInput) (*DeleteTableOutput, error) {
	name, err := parseTable(input, input.Table)
	if err != nil {
		return nil, err
	}

	index, err := uc.indexFor(ctx)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	status, err := ResolveTable(ctx, uc.meta, index, name)
	if err != nil {
		return nil, err
	}

	switch status.State {
	case TableUnknown:
		return nil, indexErr("drop", name.String(), ErrTableNotFound)
	case TableMaterialized, TableOrphaned:
		if err := index.Drop(ctx, name); err != nil {
			return nil, err
		}
	}

	if err := uc.meta.Delete(ctx, name); err != nil {
		uc.logger.Error("physical table dropped but configuration remains", "table", name, "err", err)
		return nil, fmt.Errorf("delete table configuration: %w", err)
	}

	uc.logger.Info("table deleted", "table", name, "was", status.State)
	return &DeleteTableOutput{State: status.State}, nil
}

type TableInfoUseCase struct {
	meta     MetadataStore
	indexFor IndexOpener
}

func NewTableInfoUseCase(meta MetadataStore, indexFor IndexOpener) *TableInfoUseCase {
	return &TableInfoUseCase{meta: meta, indexFor: indexFor}
}

// Execute succeeds whenever either store knows the table. Missing
// configuration leaves Config nil; a declared-only table reports zero rows.
func (uc *TableInfoUseCase) Execute(ctx context.Context, input TableInput) (*TableInfoOutput, error) {
	name, err := parseTable(input, input.Table)
	if err != nil {
		return nil, err
	}

	index, err := uc.indexFor(ctx)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	status, err := ResolveTable(ctx, uc.meta, index, name)
	if err != nil {
		return nil, err
	}

	out := &TableInfoOutput{Table: name.String(), Config: status.Config, State: status.State}
	switch status.State {
	case TableUnknown:
		return nil, indexErr("info", name.String(), ErrTableNotFound)
	case TableMaterialized, TableOrphaned:
		if out.Rows, err = index.Count(ctx, name); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type IngestUseCase struct {
	meta     MetadataStore
	indexFor IndexOpener
	embedder Embedder
	logger   *slog.Logger
}

func NewIngestUseCase(meta MetadataStore, indexFor IndexOpener, embedder Embedder, logger *slog.Logger) *IngestUseCase {
	return &IngestUseCase{meta: meta, indexFor: indexFor, embedder: embedder, logger: nopLogger(logger)}
}

// Execute embeds the text with the table's model and appends one row. There
// is no existence check: identical input ingested twice yields two rows with
// the same id.
func (uc *IngestUseCase) Execute(ctx context.Context, input IngestInput) (*IngestOutput, error) {
	if uc.embedder == nil {
		return nil, ErrEndpointMissing
	}
	name, err := parseTable(input, input.Table)
	if err != nil {
		return nil, err
	}

	cfg, err := uc.meta.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	vec, err := uc.embedder.Embed(ctx, cfg.Model, input.Text)
	if err != nil {
		return nil, err
	}
	if len(vec) != cfg.Dim {
		uc.logger.Warn("embedding length differs from declared dimensionality",
			"table", name, "declared", cfg.Dim, "got", len(vec))
	}

	doc := NewDocument(input.Text, input.Name, vec)

	index, err := uc.indexFor(ctx)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	exists, err := index.Exists(ctx, name)
	if err != nil {
		return nil, err
	}

	if exists {
		err = index.Append(ctx, name, doc)
	} else {
		err = index.Create(ctx, name, doc)
	}
	if err != nil {
		return nil, err
	}

	uc.logger.Debug("document ingested", "table", name, "id", doc.ID, "created", !exists)
	return &IngestOutput{ID: doc.ID, Name: doc.Name, Created: !exists}, nil
}

type QueryUseCase struct {
	meta     MetadataStore
	indexFor IndexOpener
	embedder Embedder
}

func NewQueryUseCase(meta MetadataStore, indexFor IndexOpener, embedder Embedder) *QueryUseCase {
	return &QueryUseCase{meta: meta, indexFor: indexFor, embedder: embedder}
}

// Execute returns up to Limit documents closest first, scored 1 - distance.
func (uc *QueryUseCase) Execute(ctx context.Context, input QueryInput) (*QueryOutput, error) {
	if uc.embedder == nil {
		return nil, ErrEndpointMissing
	}
	name, err := parseTable(input, input.Table)
	if err != nil {
		return nil, err
	}

	cfg, err := uc.meta.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	vec, err := uc.embedder.Embed(ctx, cfg.Model, input.Text)
	if err != nil {
		return nil, err
	}

	index, err := uc.indexFor(ctx)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	hits, err := index.Search(ctx, name, vec, input.Limit)
	if err != nil {
		return nil, err
	}

	out := &QueryOutput{Results: make([]QueryResult, len(hits))}
	for i, h := range hits {
		out.Results[i] = QueryResult{
			Score: h.Score(),
			ID:    h.ID,
			Name:  h.Name,
			Text:  h.Text,
		}
	}
	return out, nil
}

type FindByLabelUseCase struct {
	indexFor IndexOpener
}

func NewFindByLabelUseCase(indexFor IndexOpener) *FindByLabelUseCase {
	return &FindByLabelUseCase{indexFor: indexFor}
}

// Execute scans the whole table for rows whose label equals Name exactly.
func (uc *FindByLabelUseCase) Execute(ctx context.Context, input FindByLabelInput) (*FindByLabelOutput, error) {
	name, err := parseTable(input, input.Table)
	if err != nil {
		return nil, err
	}

	index, err := uc.indexFor(ctx)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	rows, err := index.Rows(ctx, name)
	if err != nil {
		return nil, err
	}

	out := &FindByLabelOutput{}
	for _, doc := range rows {
		if doc.Name == input.Name {
			out.Matches = append(out.Matches, RecordRef{ID: doc.ID, Name: doc.Name})
		}
	}
	return out, nil
}

type DeleteRecordUseCase struct {
	indexFor IndexOpener
	logger   *slog.Logger
}

func NewDeleteRecordUseCase(indexFor IndexOpener, logger *slog.Logger) *DeleteRecordUseCase {
	return &DeleteRecordUseCase{indexFor: indexFor, logger: nopLogger(logger)}
}

// Execute removes every row with the id. No match is not an error.
func (uc *DeleteRecordUseCase) Execute(ctx context.Context, input DeleteRecordInput) (*DeleteRecordOutput, error) {
	name, err := parseTable(input, input.Table)
	if err != nil {
		return nil, err
	}

	index, err := uc.indexFor(ctx)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	n, err := index.DeleteByID(ctx, name, input.ID)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("record deleted", "table", name, "id", input.ID, "rows", n)
	return &DeleteRecordOutput{Removed: n}, nil
}

type ClearTableUseCase struct {
	indexFor IndexOpener
	logger   *slog.Logger
}

func NewClearTableUseCase(indexFor IndexOpener, logger *slog.Logger) *ClearTableUseCase {
	return &ClearTableUseCase{indexFor: indexFor, logger: nopLogger(logger)}
}

// Execute empties the physical table. The table and its configuration stay.
func (uc *ClearTableUseCase) Execute(ctx context.Context, input TableInput) error {
	name, err := parseTable(input, input.Table)
	if err != nil {
		return err
	}

	index, err := uc.indexFor(ctx)
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}

	if err := index.Clear(ctx, name); err != nil {
		return err
	}

	uc.logger.Info("table cleared", "table", name)
	return nil
}

// UseCases bundles every operation for one workspace.
type UseCases struct {
	ListTables   *ListTablesUseCase
	DeclareTable *DeclareTableUseCase
	DeleteTable  *DeleteTableUseCase
	TableInfo    *TableInfoUseCase
	Ingest       *IngestUseCase
	Query        *QueryUseCase
	FindByLabel  *FindByLabelUseCase
	DeleteRecord *DeleteRecordUseCase
	ClearTable   *ClearTableUseCase
}

// NewUseCases wires the use cases around shared stores. embedder may be nil;
// ingest and query then fail with ErrEndpointMissing.
func NewUseCases(meta MetadataStore, indexFor IndexOpener, embedder Embedder, logger *slog.Logger) *UseCases {
	return &UseCases{
		ListTables:   NewListTablesUseCase(meta, indexFor),
		DeclareTable: NewDeclareTableUseCase(meta, logger),
		DeleteTable:  NewDeleteTableUseCase(meta, indexFor, logger),
		TableInfo:    NewTableInfoUseCase(meta, indexFor),
		Ingest:       NewIngestUseCase(meta, indexFor, embedder, logger),
		Query:        NewQueryUseCase(meta, indexFor, embedder),
		FindByLabel:  NewFindByLabelUseCase(indexFor),
		DeleteRecord: NewDeleteRecordUseCase(indexFor, logger),
		ClearTable:   NewClearTableUseCase(indexFor, logger),
	}
}

// IsUsageError reports whether err came from argument validation rather than
// from I/O.
func IsUsageError(err error) bool {
	return errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrInvalidTableName) ||
		errors.Is(err, ErrEndpointMissing)
}
