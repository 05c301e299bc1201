package internal

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	EnvAPIURL = "RAG_API_URL"
	EnvAPIKey = "RAG_API_KEY"

	DefaultTimeout = 30 * time.Second
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type EmbeddingConfig struct {
	URL     string        `yaml:"url" validate:"omitempty,url"`
	APIKey  string        `yaml:"api_key,omitempty"`
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
}

type IndexConfig struct {
	Metric Metric `yaml:"metric" validate:"oneof=l2 cosine"`
}

type Config struct {
	Embedding EmbeddingConfig `yaml:"embedding"`
	Index     IndexConfig     `yaml:"index"`
}

func DefaultConfig() *Config {
	return &Config{
		Embedding: EmbeddingConfig{
			Timeout: DefaultTimeout,
		},
		Index: IndexConfig{
			Metric: MetricL2,
		},
	}
}

// LoadConfig reads config.yaml from the workspace. A missing file yields the
// defaults; fields left empty in the file keep their defaults too.
func LoadConfig(ws Workspace) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ws.ConfigPath())
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = DefaultTimeout
	}
	if cfg.Index.Metric == "" {
		cfg.Index.Metric = MetricL2
	}

	return cfg, nil
}

func SaveConfig(ws Workspace, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(ws.ConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// ApplyEnv overrides the embedding endpoint from $RAG_API_URL and $RAG_API_KEY.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.Embedding.URL = v
	}
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.Embedding.APIKey = v
	}
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: config: %v", ErrInvalidArgument, err)
	}
	return nil
}

func validateInput(in any) error {
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return nil
}
