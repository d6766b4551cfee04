package config

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateIngest(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateStore() error {
	if c.Store.MovieDB == "" || c.Store.TVShowDB == "" {
		return errors.New("store.movie_db and store.tvshow_db must be set")
	}
	if filepath.Clean(c.Store.MovieDB) == filepath.Clean(c.Store.TVShowDB) {
		return errors.New("store.movie_db and store.tvshow_db must point to different files")
	}
	if err := ensurePositiveMap(map[string]int{
		"store.pool_size":               c.Store.PoolSize,
		"store.acquire_timeout_seconds": c.Store.AcquireTimeoutSeconds,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateIngest() error {
	if c.Ingest.Workers <= 0 {
		return errors.New("ingest.workers must be positive")
	}
	if c.Ingest.Workers > c.Store.PoolSize*4 {
		return fmt.Errorf("ingest.workers (%d) should not exceed four times store.pool_size (%d)", c.Ingest.Workers, c.Store.PoolSize)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
