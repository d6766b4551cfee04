package pool

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cinema/internal/logging"
)

const (
	// DefaultSize matches the per-database connection count of the catalog.
	DefaultSize = 5
	// DefaultTimeout bounds Acquire when the caller passes no timeout.
	DefaultTimeout = 30 * time.Second
)

// Options configures a Pool.
type Options struct {
	Size    int
	Timeout time.Duration
	Logger  *slog.Logger
}

// Stats is a point-in-time view of pool occupancy.
type Stats struct {
	Size    int  `json:"size"`
	Free    int  `json:"free"`
	InUse   int  `json:"inUse"`
	Waiters int  `json:"waiters"`
	Closed  bool `json:"closed"`
}

// Pool is a fixed-size set of dedicated connections.
type Pool struct {
	db      *sql.DB
	size    int
	timeout time.Duration
	logger  *slog.Logger

	// free carries idle connections; capacity equals size so a release never
	// blocks and each send is received by at most one waiter.
	free chan *sql.Conn
	done chan struct{}

	mu      sync.Mutex
	inUse   map[*Conn]struct{}
	waiters int
	closed  bool
}

// New pins opts.Size connections from db. The pool takes ownership of db and
// closes it in CloseAll.
func New(ctx context.Context, db *sql.DB, opts Options) (*Pool, error) {
	if db == nil {
		return nil, errors.New("pool: db is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	size := opts.Size
	if size <= 0 {
		size = DefaultSize
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	db.SetMaxOpenConns(size)
	db.SetMaxIdleConns(size)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	p := &Pool{
		db:      db,
		size:    size,
		timeout: timeout,
		logger:  logger,
		free:    make(chan *sql.Conn, size),
		done:    make(chan struct{}),
		inUse:   make(map[*Conn]struct{}, size),
	}
	for i := 0; i < size; i++ {
		conn, err := db.Conn(ctx)
		if err != nil {
			for _, raw := range p.drainFree() {
				_ = raw.Close()
			}
			return nil, fmt.Errorf("pool: open connection %d/%d: %w", i+1, size, err)
		}
		p.free <- conn
	}
	return p, nil
}

// Size returns the fixed number of connections.
func (p *Pool) Size() int {
	return p.size
}

// Acquire blocks until a connection is free, timeout elapses, ctx is done, or
// the pool is closed. A non-positive timeout uses the pool default.
func (p *Pool) Acquire(ctx context.Context, timeout time.Duration) (*Conn, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout <= 0 {
		timeout = p.timeout
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	p.waiters++
	p.mu.Unlock()

	raw, err := p.wait(ctx, timeout)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.waiters--
	if err != nil {
		return nil, err
	}
	if p.closed {
		// CloseAll ran between the receive and now; the connection is ours to close.
		_ = raw.Close()
		return nil, ErrClosed
	}
	conn := &Conn{raw: raw, pool: p}
	p.inUse[conn] = struct{}{}
	return conn, nil
}

func (p *Pool) wait(ctx context.Context, timeout time.Duration) (*sql.Conn, error) {
	select {
	case raw := <-p.free:
		return raw, nil
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case raw := <-p.free:
		return raw, nil
	case <-p.done:
		return nil, ErrClosed
	case <-timer.C:
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns conn to the free set. It never blocks.
func (p *Pool) Release(conn *Conn) error {
	if conn == nil {
		return ErrNotOwned
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.inUse[conn]; !ok {
		if p.closed {
			return ErrClosed
		}
		return ErrNotOwned
	}
	delete(p.inUse, conn)
	p.free <- conn.raw
	return nil
}

// CloseAll closes every connection, free or checked out, and the underlying
// database. Individual close failures are logged and otherwise ignored.
func (p *Pool) CloseAll() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.done)
	conns := p.drainFree()
	for conn := range p.inUse {
		conns = append(conns, conn.raw)
		delete(p.inUse, conn)
	}
	p.mu.Unlock()

	for _, raw := range conns {
		if err := raw.Close(); err != nil {
			p.logger.Debug("pool connection close failed", logging.Error(err))
		}
	}
	if err := p.db.Close(); err != nil {
		p.logger.Debug("pool database close failed", logging.Error(err))
	}
	return nil
}

// Stats reports current occupancy.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Size:    p.size,
		Free:    len(p.free),
		InUse:   len(p.inUse),
		Waiters: p.waiters,
		Closed:  p.closed,
	}
}

func (p *Pool) drainFree() []*sql.Conn {
	var conns []*sql.Conn
	for {
		select {
		case raw := <-p.free:
			conns = append(conns, raw)
		default:
			return conns
		}
	}
}
