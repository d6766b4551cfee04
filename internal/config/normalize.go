package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeStore(); err != nil {
		return err
	}
	c.normalizeIngest()
	c.normalizeDedup()
	c.normalizeAPI()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("CINEMA_DATA_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.DataDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.BackupDir) == "" {
		c.Paths.BackupDir = filepath.Join(c.Paths.DataDir, "backup")
	}
	if c.Paths.BackupDir, err = expandPath(c.Paths.BackupDir); err != nil {
		return fmt.Errorf("paths.backup_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.DataDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeStore() error {
	var err error
	if c.Store.MovieDB, err = c.resolveDatabase(c.Store.MovieDB, defaultMovieDB); err != nil {
		return fmt.Errorf("store.movie_db: %w", err)
	}
	if c.Store.TVShowDB, err = c.resolveDatabase(c.Store.TVShowDB, defaultTVShowDB); err != nil {
		return fmt.Errorf("store.tvshow_db: %w", err)
	}
	if c.Store.PoolSize <= 0 {
		c.Store.PoolSize = defaultPoolSize
	}
	if c.Store.AcquireTimeoutSeconds <= 0 {
		c.Store.AcquireTimeoutSeconds = defaultAcquireTimeoutSeconds
	}
	return nil
}

// resolveDatabase places bare or relative database names inside the data
// directory; absolute and tilde paths are kept.
func (c *Config) resolveDatabase(value, fallback string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		value = fallback
	}
	if !strings.HasPrefix(value, "~") && !filepath.IsAbs(value) {
		value = filepath.Join(c.Paths.DataDir, value)
	}
	return expandPath(value)
}

func (c *Config) normalizeIngest() {
	if c.Ingest.Workers <= 0 {
		c.Ingest.Workers = defaultIngestWorkers
	}
	if c.Ingest.RetryAttempts < 0 {
		c.Ingest.RetryAttempts = 0
	}
	if c.Ingest.RetryBackoffMillis <= 0 {
		c.Ingest.RetryBackoffMillis = defaultIngestRetryBackoffMS
	}
}

func (c *Config) normalizeDedup() {
	c.Dedup.Source = strings.TrimSpace(c.Dedup.Source)
	if c.Dedup.Source == "" {
		c.Dedup.Source = defaultDedupSource
	}
}

func (c *Config) normalizeAPI() {
	if value, ok := os.LookupEnv("CINEMA_API_BIND"); ok && strings.TrimSpace(value) != "" {
		c.API.Bind = value
	}
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	if c.API.Bind == "" {
		c.API.Bind = defaultAPIBind
	}
	origins := make([]string, 0, len(c.API.AllowedOrigins))
	seen := make(map[string]struct{}, len(c.API.AllowedOrigins))
	for _, origin := range c.API.AllowedOrigins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin == "" {
			continue
		}
		if _, exists := seen[origin]; exists {
			continue
		}
		seen[origin] = struct{}{}
		origins = append(origins, origin)
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c.API.AllowedOrigins = origins
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
