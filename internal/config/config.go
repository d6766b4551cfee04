package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir   string `toml:"data_dir"`
	BackupDir string `toml:"backup_dir"`
	LogDir    string `toml:"log_dir"`
}

// Store contains catalog database and connection pool settings.
type Store struct {
	MovieDB               string `toml:"movie_db"`
	TVShowDB              string `toml:"tvshow_db"`
	PoolSize              int    `toml:"pool_size"`
	AcquireTimeoutSeconds int    `toml:"acquire_timeout_seconds"`
}

// Ingest contains settings for the candidate ingestion runner.
type Ingest struct {
	Workers            int `toml:"workers"`
	RetryAttempts      int `toml:"retry_attempts"`
	RetryBackoffMillis int `toml:"retry_backoff_ms"`
}

// Dedup contains settings for the duplicate cleanup job.
type Dedup struct {
	// Source is the lower-priority source tag whose duplicate rows are removed.
	Source string `toml:"source"`
}

// API contains settings for the read API.
type API struct {
	Bind           string   `toml:"bind"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for cinema.
//
// Configuration sections by subsystem:
//   - Paths: data, backup, and log directories
//   - Store: per-domain database files and pool sizing
//   - Ingest: worker count and caller-side retry policy
//   - Dedup: lower-priority source tag
//   - API: bind address and CORS origins
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Store   Store   `toml:"store"`
	Ingest  Ingest  `toml:"ingest"`
	Dedup   Dedup   `toml:"dedup"`
	API     API     `toml:"api"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/cinema/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("cinema.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories plus the parents of
// both database files. The backup directory is created on demand by the
// backup command.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.DataDir,
		c.Paths.LogDir,
		filepath.Dir(c.Store.MovieDB),
		filepath.Dir(c.Store.TVShowDB),
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// AcquireTimeout returns the pool acquire timeout as a duration.
func (c *Config) AcquireTimeout() time.Duration {
	return time.Duration(c.Store.AcquireTimeoutSeconds) * time.Second
}

// RetryBackoff returns the initial ingest retry delay.
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.Ingest.RetryBackoffMillis) * time.Millisecond
}

// DatabasePath returns the database file for a catalog domain ("movie" or
// "tvshow").
func (c *Config) DatabasePath(domain string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(domain)) {
	case "movie":
		return c.Store.MovieDB, nil
	case "tvshow":
		return c.Store.TVShowDB, nil
	default:
		return "", fmt.Errorf("unknown catalog domain %q (want movie or tvshow)", domain)
	}
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
