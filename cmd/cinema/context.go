package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"cinema/internal/catalog"
	"cinema/internal/config"
	"cinema/internal/logging"
	"cinema/internal/pool"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.ToLower(strings.TrimSpace(*c.logLevelFlag))
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// loggerValue returns the configured logger, falling back to stderr console
// output when the log file cannot be opened.
func (c *commandContext) loggerValue() *slog.Logger {
	c.loggerOnce.Do(func() {
		logger, err := logging.NewFromConfig(c.configValue())
		if err != nil {
			fmt.Fprintf(os.Stderr, "warn: unable to initialize logger: %v\n", err)
			logger, _ = logging.New(logging.Options{Level: "info", Format: "console"})
		}
		c.logger = logger
	})
	return c.logger
}

// storeSet holds the stores one command opened and the registry that owns
// their pools.
type storeSet struct {
	registry *pool.Registry
	stores   map[catalog.Domain]*catalog.Store
}

func (s *storeSet) get(domain catalog.Domain) *catalog.Store { return s.stores[domain] }

// withStores opens the requested domains, runs fn under a context cancelled by
// SIGINT or SIGTERM, and closes every pool before returning.
func (c *commandContext) withStores(cmd *cobra.Command, domains []catalog.Domain, fn func(context.Context, *storeSet) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := c.loggerValue()

	signalCtx, cancel := signal.NotifyContext(commandCtx(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	registry := pool.NewRegistry(catalog.OpenDB, pool.Options{
		Size:    cfg.Store.PoolSize,
		Timeout: cfg.AcquireTimeout(),
		Logger:  logging.NewComponentLogger(logger, "pool"),
	})
	defer func() {
		if closeErr := registry.Close(); closeErr != nil {
			logger.Warn("close connection pools", logging.Error(closeErr))
		}
	}()

	set := &storeSet{registry: registry, stores: make(map[catalog.Domain]*catalog.Store, len(domains))}
	for _, domain := range domains {
		path, err := cfg.DatabasePath(string(domain))
		if err != nil {
			return err
		}
		store, err := catalog.Open(signalCtx, registry, domain, path, catalog.Options{
			AcquireTimeout: cfg.AcquireTimeout(),
			Logger:         logging.NewComponentLogger(logger, "catalog"),
		})
		if err != nil {
			return fmt.Errorf("open %s catalog: %w", domain, err)
		}
		set.stores[domain] = store
	}
	return fn(signalCtx, set)
}

func commandCtx(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

// parseDomains accepts "movie", "tvshow" or "all".
func parseDomains(value string) ([]catalog.Domain, error) {
	if strings.EqualFold(strings.TrimSpace(value), "all") {
		return append([]catalog.Domain(nil), catalog.Domains...), nil
	}
	domain, err := catalog.ParseDomain(value)
	if err != nil {
		return nil, err
	}
	return []catalog.Domain{domain}, nil
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
