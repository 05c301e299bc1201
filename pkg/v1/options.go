package v1

import (
	"log/slog"
	"time"
)

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	db       string
	url      string
	apiKey   string
	timeout  time.Duration
	metric   string
	embedder Embedder
	inMemory bool
	logger   *slog.Logger
}

// WithDB sets the database directory. Without it $RAG_DB or ./rag_data is used.
func WithDB(dir string) Option {
	return func(c *clientConfig) {
		c.db = dir
	}
}

// WithEmbeddingURL sets the embedding endpoint, overriding config.yaml and
// $RAG_API_URL.
func WithEmbeddingURL(url string) Option {
	return func(c *clientConfig) {
		c.url = url
	}
}

// WithAPIKey sets the bearer token sent to the embedding endpoint.
func WithAPIKey(key string) Option {
	return func(c *clientConfig) {
		c.apiKey = key
	}
}

// WithTimeout bounds each embedding request.
func WithTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = d
	}
}

// WithMetric selects "l2" or "cosine" distance.
func WithMetric(metric string) Option {
	return func(c *clientConfig) {
		c.metric = metric
	}
}

// WithEmbedder replaces the HTTP embedding client.
func WithEmbedder(e Embedder) Option {
	return func(c *clientConfig) {
		c.embedder = e
	}
}

// WithInMemoryIndex keeps documents in process memory instead of index.db.
// Table configuration is still written to the database directory.
func WithInMemoryIndex() Option {
	return func(c *clientConfig) {
		c.inMemory = true
	}
}

// WithLogger sets the logger for status records. Logging is discarded by default.
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}
