package ingest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"cinema/internal/catalog"
	"cinema/internal/logging"
	"cinema/internal/pool"
)

const (
	defaultWorkers     = 4
	defaultAttempts    = 3
	defaultBackoff     = 50 * time.Millisecond
	defaultMaxBackoff  = 2 * time.Second
	maxLineBytes       = 8 << 20
	initialLineBufSize = 64 << 10
)

// Reconciler is the catalog write the runner drives.
type Reconciler interface {
	Reconcile(ctx context.Context, cand catalog.Candidate) (catalog.ReconcileResult, error)
}

// RetryPolicy bounds caller-side retries of transient catalog failures.
type RetryPolicy struct {
	Attempts   int
	Backoff    time.Duration
	MaxBackoff time.Duration
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.Attempts <= 0 {
		p.Attempts = defaultAttempts
	}
	if p.Backoff <= 0 {
		p.Backoff = defaultBackoff
	}
	if p.MaxBackoff < p.Backoff {
		p.MaxBackoff = max(defaultMaxBackoff, p.Backoff)
	}
	return p
}

// Do runs op until it succeeds, fails with a non-retryable error, or the
// attempts are spent. It returns the number of retries taken.
func (p RetryPolicy) Do(ctx context.Context, op func() error) (int, error) {
	p = p.withDefaults()
	delay := p.Backoff
	var lastErr error
	for attempt := 0; attempt < p.Attempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return attempt, nil
		}
		if !catalog.Retryable(lastErr) || attempt == p.Attempts-1 {
			return attempt, lastErr
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return attempt, ctx.Err()
		}
		if next := delay * 2; next <= p.MaxBackoff {
			delay = next
		}
	}
	return p.Attempts - 1, lastErr
}

// Failure describes one candidate that could not be ingested.
type Failure struct {
	Line  int    `json:"line"`
	Name  string `json:"name,omitempty"`
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// Summary reports what one ingestion run did.
type Summary struct {
	Read     int       `json:"read"`
	Created  int       `json:"created"`
	Updated  int       `json:"updated"`
	Skipped  int       `json:"skipped"`
	Failed   int       `json:"failed"`
	Retries  int       `json:"retries"`
	Failures []Failure `json:"failures,omitempty"`
}

// Runner reconciles a stream of candidates with a bounded worker set.
type Runner struct {
	Store   Reconciler
	Workers int
	Retry   RetryPolicy
	Logger  *slog.Logger
}

type job struct {
	line int
	cand catalog.Candidate
}

// Run reads JSON Lines candidates from r and reconciles each one. Per-record
// failures are counted, not returned; the error reports a broken input stream,
// a closed pool, or cancellation.
func (r *Runner) Run(ctx context.Context, input io.Reader) (Summary, error) {
	if r == nil || r.Store == nil {
		return Summary{}, errors.New("ingest runner requires a store")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	logger := r.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	workers := r.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	var (
		mu      sync.Mutex
		summary Summary
	)
	record := func(fn func(*Summary)) {
		mu.Lock()
		fn(&summary)
		mu.Unlock()
	}

	jobs := make(chan job, workers)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		return r.scan(gctx, input, logger, jobs, record)
	})

	for range workers {
		g.Go(func() error {
			for j := range jobs {
				if err := r.reconcile(gctx, j, logger, record); err != nil {
					return err
				}
			}
			return nil
		})
	}

	err := g.Wait()
	mu.Lock()
	defer mu.Unlock()
	logger.Info("ingest finished",
		logging.String(logging.FieldEventType, "ingest_summary"),
		logging.Int("read", summary.Read),
		logging.Int("created", summary.Created),
		logging.Int("updated", summary.Updated),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
		logging.Int("retries", summary.Retries),
	)
	return summary, err
}

func (r *Runner) scan(ctx context.Context, input io.Reader, logger *slog.Logger, jobs chan<- job, record func(func(*Summary))) error {
	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 0, initialLineBufSize), maxLineBytes)
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		record(func(s *Summary) { s.Read++ })

		var wire Candidate
		if err := json.Unmarshal(raw, &wire); err != nil {
			r.skip(logger, line, "", fmt.Errorf("decode line %d: %w", line, err), record)
			continue
		}
		cand, err := Normalize(wire)
		if err != nil {
			r.skip(logger, line, wire.Name, err, record)
			continue
		}
		select {
		case jobs <- job{line: line, cand: cand}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read candidates: %w", err)
	}
	return nil
}

func (r *Runner) skip(logger *slog.Logger, line int, name string, err error, record func(func(*Summary))) {
	record(func(s *Summary) { s.Skipped++ })
	logger.Debug("candidate skipped",
		logging.Int("line", line),
		logging.String("name", name),
		logging.Error(err),
	)
}

func (r *Runner) reconcile(ctx context.Context, j job, logger *slog.Logger, record func(func(*Summary))) error {
	var result catalog.ReconcileResult
	retries, err := r.Retry.Do(ctx, func() error {
		var opErr error
		result, opErr = r.Store.Reconcile(ctx, j.cand)
		return opErr
	})
	record(func(s *Summary) { s.Retries += retries })

	switch {
	case err == nil:
		record(func(s *Summary) {
			if result.Created {
				s.Created++
			} else {
				s.Updated++
			}
		})
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, pool.ErrClosed):
		return fmt.Errorf("reconcile line %d: %w", j.line, err)
	}

	record(func(s *Summary) {
		s.Failed++
		s.Failures = append(s.Failures, Failure{
			Line:  j.line,
			Name:  j.cand.Name,
			Error: err.Error(),
			Kind:  catalog.Kind(err),
		})
	})
	logging.WarnWithContext(logger, "candidate not ingested", "ingest_failed",
		logging.Int("line", j.line),
		logging.String("name", j.cand.Name),
		logging.String("source", j.cand.Source),
		logging.String("error_kind", catalog.Kind(err)),
		logging.Error(err),
	)
	return nil
}
