package pool

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// OpenFunc opens the database behind a store path.
type OpenFunc func(ctx context.Context, path string) (*sql.DB, error)

// Registry maps store paths to pools. Pools are created on first request and
// closed together by Close.
type Registry struct {
	open OpenFunc
	opts Options

	mu     sync.Mutex
	pools  map[string]*Pool
	closed bool
}

// NewRegistry builds a registry that opens stores with open and sizes every
// pool with opts.
func NewRegistry(open OpenFunc, opts Options) *Registry {
	return &Registry{
		open:  open,
		opts:  opts,
		pools: make(map[string]*Pool),
	}
}

// Get returns the pool for path, creating it if needed.
func (r *Registry) Get(ctx context.Context, path string) (*Pool, error) {
	key := registryKey(path)
	if key == "" {
		return nil, errors.New("pool: store path is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}
	if p, ok := r.pools[key]; ok {
		return p, nil
	}
	if r.open == nil {
		return nil, errors.New("pool: registry has no open function")
	}

	db, err := r.open(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", key, err)
	}
	p, err := New(ctx, db, r.opts)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("build pool for %s: %w", key, err)
	}
	r.pools[key] = p
	return p, nil
}

// Paths lists the store paths with live pools, sorted.
func (r *Registry) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	paths := make([]string, 0, len(r.pools))
	for path := range r.pools {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Close shuts every pool down. Subsequent Get calls return ErrClosed.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	pools := r.pools
	r.pools = make(map[string]*Pool)
	r.mu.Unlock()

	var errs []error
	for path, p := range pools {
		if err := p.CloseAll(); err != nil {
			errs = append(errs, fmt.Errorf("close pool %s: %w", path, err))
		}
	}
	return errors.Join(errs...)
}

func registryKey(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	return filepath.Clean(path)
}
