package pool

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingOpener(opens *atomic.Int32) OpenFunc {
	return func(_ context.Context, path string) (*sql.DB, error) {
		opens.Add(1)
		return sql.Open("sqlite", path)
	}
}

func TestRegistryReturnsOnePoolPerPath(t *testing.T) {
	var opens atomic.Int32
	reg := NewRegistry(countingOpener(&opens), Options{Size: 2, Timeout: time.Second})
	t.Cleanup(func() { _ = reg.Close() })

	dir := t.TempDir()
	path := filepath.Join(dir, "movie.db")
	ctx := context.Background()

	pools := make([]*Pool, 8)
	var wg sync.WaitGroup
	for i := range pools {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := reg.Get(ctx, path)
			if err != nil {
				t.Errorf("Get: %v", err)
				return
			}
			pools[i] = p
		}(i)
	}
	wg.Wait()

	for _, p := range pools[1:] {
		assert.Same(t, pools[0], p)
	}
	assert.Equal(t, int32(1), opens.Load())

	other, err := reg.Get(ctx, filepath.Join(dir, "tvshow.db"))
	require.NoError(t, err)
	assert.NotSame(t, pools[0], other)
	assert.Equal(t, []string{filepath.Join(dir, "movie.db"), filepath.Join(dir, "tvshow.db")}, reg.Paths())
}

func TestRegistryCloseShutsDownPools(t *testing.T) {
	var opens atomic.Int32
	reg := NewRegistry(countingOpener(&opens), Options{Size: 1, Timeout: time.Second})
	ctx := context.Background()

	p, err := reg.Get(ctx, filepath.Join(t.TempDir(), "movie.db"))
	require.NoError(t, err)

	require.NoError(t, reg.Close())
	require.NoError(t, reg.Close())

	_, err = p.Acquire(ctx, 0)
	require.ErrorIs(t, err, ErrClosed)
	_, err = reg.Get(ctx, "anything.db")
	require.ErrorIs(t, err, ErrClosed)
}

func TestRegistryPropagatesOpenFailure(t *testing.T) {
	boom := errors.New("boom")
	reg := NewRegistry(func(context.Context, string) (*sql.DB, error) { return nil, boom }, Options{})
	defer reg.Close()

	_, err := reg.Get(context.Background(), "movie.db")
	require.ErrorIs(t, err, boom)

	_, err = reg.Get(context.Background(), "  ")
	require.Error(t, err)
}
