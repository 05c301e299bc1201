package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// TableConfig is the declared configuration of a table.
type TableConfig struct {
	Dim   int    `json:"dim" validate:"gt=0"`
	Model string `json:"model" validate:"required"`
}

// MetadataStore keeps table configuration outside the vector index.
type MetadataStore interface {
	Declare(ctx context.Context, table TableName, cfg TableConfig) error
	Get(ctx context.Context, table TableName) (TableConfig, error)
	Delete(ctx context.Context, table TableName) error
	List(ctx context.Context) ([]TableName, error)
}

var _ MetadataStore = (*FileMetadataStore)(nil)

// FileMetadataStore writes one <table>.meta.json sidecar per table.
type FileMetadataStore struct {
	ws Workspace
}

func NewFileMetadataStore(ws Workspace) *FileMetadataStore {
	return &FileMetadataStore{ws: ws}
}

// Declare overwrites any previous declaration. The write goes through a temp
// file and a rename so readers never see a partial sidecar.
func (s *FileMetadataStore) Declare(ctx context.Context, table TableName, cfg TableConfig) error {
	if err := validateInput(cfg); err != nil {
		return err
	}
	if err := s.ws.Init(); err != nil {
		return err
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal table config: %w", err)
	}

	tmp, err := os.CreateTemp(s.ws.Root, "."+table.String()+".meta-*")
	if err != nil {
		return fmt.Errorf("create temp sidecar: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write sidecar: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close sidecar: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.ws.MetaPath(table)); err != nil {
		return fmt.Errorf("rename sidecar: %w", err)
	}
	return nil
}

func (s *FileMetadataStore) Get(ctx context.Context, table TableName) (TableConfig, error) {
	data, err := os.ReadFile(s.ws.MetaPath(table))
	if errors.Is(err, os.ErrNotExist) {
		return TableConfig{}, fmt.Errorf("%w: %s", ErrNotDeclared, table)
	}
	if err != nil {
		return TableConfig{}, fmt.Errorf("read sidecar: %w", err)
	}

	var cfg TableConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return TableConfig{}, fmt.Errorf("parse sidecar %s: %w", table, err)
	}
	return cfg, nil
}

// Delete is idempotent.
func (s *FileMetadataStore) Delete(ctx context.Context, table TableName) error {
	err := os.Remove(s.ws.MetaPath(table))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove sidecar: %w", err)
	}
	return nil
}

// List returns every declared table name in sorted order. Files whose stem
// is not a valid table name are skipped.
func (s *FileMetadataStore) List(ctx context.Context) ([]TableName, error) {
	matches, err := filepath.Glob(filepath.Join(s.ws.Root, "*"+MetaFileSuffix))
	if err != nil {
		return nil, fmt.Errorf("list sidecars: %w", err)
	}

	names := make([]TableName, 0, len(matches))
	for _, m := range matches {
		name, err := NewTableName(strings.TrimSuffix(filepath.Base(m), MetaFileSuffix))
		if err != nil {
			continue
		}
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names, nil
}
