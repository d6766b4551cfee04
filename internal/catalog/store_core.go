package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"cinema/internal/logging"
	"cinema/internal/pool"
)

// Store is one domain's catalog table accessed through a connection pool.
type Store struct {
	domain  Domain
	path    string
	pool    *pool.Pool
	timeout time.Duration
	logger  *slog.Logger
}

// Options tunes a Store.
type Options struct {
	// AcquireTimeout bounds every pool acquisition. Zero uses the pool default.
	AcquireTimeout time.Duration
	Logger         *slog.Logger
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

// dsn builds the modernc connection string. Every pooled connection gets the
// same pragmas, and _txlock=immediate makes each write transaction take the
// database write lock at BEGIN, which serializes reconcile lookups with their
// inserts.
func dsn(path string) string {
	params := url.Values{}
	params.Add("_pragma", "busy_timeout(5000)")
	params.Add("_pragma", "journal_mode(WAL)")
	params.Add("_pragma", "foreign_keys(1)")
	params.Set("_txlock", "immediate")
	return path + "?" + params.Encode()
}

// OpenDB opens the SQLite database at path and makes sure the media schema
// exists. It matches pool.OpenFunc so a Registry can use it directly.
func OpenDB(ctx context.Context, path string) (*sql.DB, error) {
	ctx = ensureContext(ctx)
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("open sqlite db: empty path")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := initSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Open binds a Store to the pool the registry holds for path.
func Open(ctx context.Context, registry *pool.Registry, domain Domain, path string, opts Options) (*Store, error) {
	if registry == nil {
		return nil, fmt.Errorf("open %s store: registry is nil", domain)
	}
	if _, err := ParseDomain(string(domain)); err != nil {
		return nil, err
	}
	p, err := registry.Get(ensureContext(ctx), path)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", domain, err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Store{
		domain:  domain,
		path:    filepath.Clean(strings.TrimSpace(path)),
		pool:    p,
		timeout: opts.AcquireTimeout,
		logger:  logger.With(logging.String(logging.FieldDomain, string(domain))),
	}, nil
}

// Domain returns the catalog domain the store serves.
func (s *Store) Domain() Domain { return s.domain }

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// PoolStats reports occupancy of the store's connection pool.
func (s *Store) PoolStats() pool.Stats { return s.pool.Stats() }

// withConn runs fn on a pooled connection and always releases it.
func (s *Store) withConn(ctx context.Context, op string, fn func(*pool.Conn) error) error {
	ctx = ensureContext(ctx)
	conn, err := s.pool.Acquire(ctx, s.timeout)
	if err != nil {
		return fmt.Errorf("%s: acquire connection: %w", op, err)
	}
	defer func() {
		if relErr := conn.Release(); relErr != nil {
			s.logger.Debug("release connection failed", logging.String("op", op), logging.Error(relErr))
		}
	}()
	return fn(conn)
}

// withTx runs fn inside one write transaction. The transaction commits only
// when fn returns nil.
func (s *Store) withTx(ctx context.Context, op string, fn func(*sql.Tx) error) error {
	ctx = ensureContext(ctx)
	return s.withConn(ctx, op, func(conn *pool.Conn) error {
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			return storeErr(op+": begin", err)
		}
		defer func() { _ = tx.Rollback() }()

		if err := fn(tx); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return storeErr(op+": commit", err)
		}
		return nil
	})
}
