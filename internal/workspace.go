package internal

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	DefaultRoot      = "./rag_data"
	IndexFilename    = "index.db"
	ConfigFilename   = "config.yaml"
	MetaFileSuffix   = ".meta.json"
	EnvDB            = "RAG_DB"
	workspaceDirPerm = 0755
)

// Workspace is the database directory: sidecars, config and the index file.
type Workspace struct {
	Root string
}

func (w Workspace) IndexPath() string {
	return filepath.Join(w.Root, IndexFilename)
}

func (w Workspace) ConfigPath() string {
	return filepath.Join(w.Root, ConfigFilename)
}

func (w Workspace) MetaPath(table TableName) string {
	return filepath.Join(w.Root, table.String()+MetaFileSuffix)
}

// Exists reports whether the root directory is present.
func (w Workspace) Exists() bool {
	info, err := os.Stat(w.Root)
	return err == nil && info.IsDir()
}

// Init creates the root directory. It is idempotent.
func (w Workspace) Init() error {
	if err := os.MkdirAll(w.Root, workspaceDirPerm); err != nil {
		return fmt.Errorf("create database directory: %w", err)
	}
	return nil
}

// ResolveWorkspace picks the root from the explicit flag, then $RAG_DB, then
// the default.
func ResolveWorkspace(explicit string) Workspace {
	if explicit != "" {
		return Workspace{Root: explicit}
	}
	if env := os.Getenv(EnvDB); env != "" {
		return Workspace{Root: env}
	}
	return Workspace{Root: DefaultRoot}
}
