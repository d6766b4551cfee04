package testsupport

import (
	"path/filepath"
	"testing"

	"cinema/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	cfg *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.BackupDir = filepath.Join(base, "backup")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Store.MovieDB = filepath.Join(cfgVal.Paths.DataDir, "movie.db")
	cfgVal.Store.TVShowDB = filepath.Join(cfgVal.Paths.DataDir, "tvshow.db")
	cfgVal.Store.AcquireTimeoutSeconds = 5
	cfgVal.Ingest.RetryBackoffMillis = 1
	cfgVal.API.Bind = "127.0.0.1:0"

	builder := &configBuilder{cfg: &cfgVal}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithPoolSize overrides the per-database connection count.
func WithPoolSize(size int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Store.PoolSize = size
	}
}

// WithDedupSource overrides the lower-priority source tag.
func WithDedupSource(source string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Dedup.Source = source
	}
}

// WithWorkers overrides the ingest worker count.
func WithWorkers(workers int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Ingest.Workers = workers
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
