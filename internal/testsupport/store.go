package testsupport

import (
	"context"
	"testing"

	"cinema/internal/catalog"
	"cinema/internal/config"
	"cinema/internal/pool"
)

// NewRegistry builds a pool registry sized from cfg and closes it on cleanup.
func NewRegistry(t testing.TB, cfg *config.Config) *pool.Registry {
	t.Helper()

	reg := pool.NewRegistry(catalog.OpenDB, pool.Options{
		Size:    cfg.Store.PoolSize,
		Timeout: cfg.AcquireTimeout(),
	})
	t.Cleanup(func() {
		_ = reg.Close()
	})
	return reg
}

// MustOpenStore opens the catalog store for domain through reg.
func MustOpenStore(t testing.TB, reg *pool.Registry, cfg *config.Config, domain catalog.Domain) *catalog.Store {
	t.Helper()

	path, err := cfg.DatabasePath(string(domain))
	if err != nil {
		t.Fatalf("DatabasePath: %v", err)
	}
	store, err := catalog.Open(context.Background(), reg, domain, path, catalog.Options{
		AcquireTimeout: cfg.AcquireTimeout(),
	})
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	return store
}

// MustReconcile reconciles cand and fails the test on error.
func MustReconcile(t testing.TB, store *catalog.Store, cand catalog.Candidate) catalog.ReconcileResult {
	t.Helper()

	result, err := store.Reconcile(context.Background(), cand)
	if err != nil {
		t.Fatalf("Reconcile(%s): %v", cand.Key(), err)
	}
	return result
}

// MovieCandidate builds a minimal movie candidate with a single link.
func MovieCandidate(name, director, source, link string) catalog.Candidate {
	return catalog.Candidate{
		Name:     name,
		Director: director,
		Source:   source,
		Link:     catalog.SingleLink(link),
	}
}
