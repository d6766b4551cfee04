package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"cinema/internal/logging"
)

// dedupFlight collapses concurrent runs against the same table and source
// within this process; the file lock covers other processes.
var dedupFlight singleflight.Group

// DedupOptions tunes a DedupJob.
type DedupOptions struct {
	// LockPath is the cross-process lock file. Defaults to <db>.dedup.lock.
	LockPath string
	// Logger receives the dedup component and domain attrs. Defaults to the store logger.
	Logger   *slog.Logger
}

// DedupJob removes rows tagged with a lower-priority source whenever another
// row shares their natural key.
type DedupJob struct {
	store    *Store
	source   string
	lockPath string
	logger   *slog.Logger
}

// NewDedupJob builds a job that strips source from duplicated keys in store.
func NewDedupJob(store *Store, source string, opts DedupOptions) (*DedupJob, error) {
	if store == nil {
		return nil, errors.New("dedup: store is nil")
	}
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, fmt.Errorf("dedup: %w: source tag is required", ErrInvalidCandidate)
	}
	lockPath := strings.TrimSpace(opts.LockPath)
	if lockPath == "" {
		lockPath = store.Path() + ".dedup.lock"
	}
	// The store logger already carries its component and domain.
	logger := store.logger
	if opts.Logger != nil {
		logger = logging.NewComponentLogger(opts.Logger, "dedup").
			With(logging.String(logging.FieldDomain, string(store.domain)))
	}
	return &DedupJob{
		store:    store,
		source:   source,
		lockPath: lockPath,
		logger:   logger,
	}, nil
}

// Source returns the source tag the job removes.
func (j *DedupJob) Source() string { return j.source }

// Run executes one dedup pass. Callers that overlap with a run already in
// flight in this process share its result. A run held by another process
// fails with ErrDedupRunning. Any failure rolls the whole batch back and
// returns no audit entries.
//
// A joined caller runs under the context of the caller that started the
// run: cancelling that context fails every caller sharing it, and a
// joined caller's own cancellation does not detach it. Failed runs are not
// cached, so the next Run starts fresh.
func (j *DedupJob) Run(ctx context.Context) ([]AuditEntry, error) {
	ctx = ensureContext(ctx)
	key := j.store.Path() + "\x00" + j.source
	value, err, shared := dedupFlight.Do(key, func() (any, error) {
		return j.run(ctx)
	})
	if err != nil {
		return nil, err
	}
	entries := value.([]AuditEntry)
	if shared {
		entries = append([]AuditEntry(nil), entries...)
	}
	return entries, nil
}

func (j *DedupJob) run(ctx context.Context) ([]AuditEntry, error) {
	lock := flock.New(j.lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("dedup: acquire lock %s: %w", j.lockPath, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: lock %s is held", ErrDedupRunning, j.lockPath)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			j.logger.Debug("dedup lock release failed", logging.Error(err))
		}
	}()

	runID := uuid.NewString()
	logger := j.logger.With(logging.String("run_id", runID), logging.String("source", j.source))
	started := time.Now()
	logger.Info("dedup started")

	var entries []AuditEntry
	err = j.store.withTx(ctx, "dedup", func(tx *sql.Tx) error {
		selected, err := selectDuplicates(ctx, tx, j.source)
		if err != nil {
			return err
		}
		for _, entry := range selected {
			if _, err := tx.ExecContext(ctx, "DELETE FROM media WHERE id = ?", entry.ID); err != nil {
				return storeErr("dedup: delete", err, entry.ID)
			}
		}
		entries = selected
		return nil
	})
	if err != nil {
		logging.ErrorWithContext(logger, "dedup rolled back", "dedup_failed",
			logging.String(logging.FieldErrorHint, "no rows were deleted; fix the error and rerun"),
			logging.Error(err),
		)
		return nil, err
	}

	logger.Info("dedup finished",
		logging.Int("deleted", len(entries)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return entries, nil
}

// selectDuplicates fixes the delete scope: rows carrying source that share
// their natural key with at least one other row.
func selectDuplicates(ctx context.Context, tx *sql.Tx, source string) ([]AuditEntry, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT m1.id, m1.name, m1.director, m1.source
		FROM media m1
		WHERE m1.source = ?
		  AND EXISTS (
			SELECT 1 FROM media m2
			WHERE m2.name = m1.name AND m2.director = m1.director AND m2.id != m1.id
		  )
		ORDER BY m1.id`, source)
	if err != nil {
		return nil, storeErr("dedup: select", err, source)
	}
	defer rows.Close()

	entries := []AuditEntry{}
	for rows.Next() {
		var entry AuditEntry
		if err := rows.Scan(&entry.ID, &entry.Name, &entry.Director, &entry.Source); err != nil {
			return nil, storeErr("dedup: scan", err, source)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("dedup: select", err, source)
	}
	return entries, nil
}

// AuditReport groups the audit entries of one domain for WriteAuditLog.
type AuditReport struct {
	Domain  Domain
	Entries []AuditEntry
}

// WriteAuditLog renders the deleted rows of every report as a plain-text log.
func WriteAuditLog(w io.Writer, reports ...AuditReport) error {
	total := 0
	for _, report := range reports {
		total += len(report.Entries)
	}
	if _, err := fmt.Fprintf(w, "dedup audit log - %d duplicate records removed\n", total); err != nil {
		return err
	}
	for _, report := range reports {
		if _, err := fmt.Fprintf(w, "\nremoved %s records (%d):\n", report.Domain, len(report.Entries)); err != nil {
			return err
		}
		for i, entry := range report.Entries {
			if _, err := fmt.Fprintf(w, "%d. ID: %d, name: %s, director: %s, source: %s\n",
				i+1, entry.ID, entry.Name, entry.Director, entry.Source); err != nil {
				return err
			}
		}
	}
	return nil
}
