package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cinema/internal/pool"
)

// ErrorClassifier allows errors to declare their classification. The read API
// maps kinds to HTTP status codes and the ingest runner uses them to decide
// whether a failure is worth retrying.
type ErrorClassifier interface {
	ErrorKind() string
}

// Error kinds reported by Kind.
const (
	KindNotFound   = "not_found"
	KindValidation = "validation"
	KindTimeout    = "timeout"
	KindBusy       = "busy"
	KindCorrupt    = "corrupt"
	KindConflict   = "conflict"
	KindClosed     = "closed"
	KindInternal   = "internal"
)

var (
	// ErrNotFound reports a detail lookup for an id that does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidCandidate reports a candidate missing its name or source tag.
	ErrInvalidCandidate = errors.New("invalid candidate")
	// ErrInvalidField reports a distinct-value request for an unsupported column.
	ErrInvalidField = errors.New("invalid field")
	// ErrDedupRunning reports that another process holds the dedup lock.
	ErrDedupRunning = errors.New("dedup already running")
	// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
	ErrSchemaMismatch = errors.New("schema version mismatch")
)

const sqliteBusyCode = 5

// ParseError reports a stored download_link payload that could not be
// decoded. The reconciliation that hit it is rolled back.
type ParseError struct {
	ID      int64
	Payload string
	Err     error
}

func (e *ParseError) Error() string {
	payload := e.Payload
	if len(payload) > 64 {
		payload = payload[:64] + "..."
	}
	return fmt.Sprintf("parse download_link of record %d (%q): %v", e.ID, payload, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) ErrorKind() string { return KindCorrupt }

// StoreError wraps a failure of the underlying store with the operation and
// the parameters that were in flight.
type StoreError struct {
	Op   string
	Args []any
	Err  error
}

func (e *StoreError) Error() string {
	if len(e.Args) == 0 {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	parts := make([]string, 0, len(e.Args))
	for _, arg := range e.Args {
		parts = append(parts, fmt.Sprint(arg))
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, strings.Join(parts, ", "), e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Busy reports whether the store rejected the operation with SQLITE_BUSY.
func (e *StoreError) Busy() bool { return isSQLiteBusy(e.Err) }

func (e *StoreError) ErrorKind() string {
	if e.Busy() {
		return KindBusy
	}
	return KindInternal
}

func storeErr(op string, err error, args ...any) error {
	if err == nil {
		return nil
	}
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return err
	}
	return &StoreError{Op: op, Args: args, Err: err}
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// Kind classifies err for callers that map failures onto transport codes.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	var classifier ErrorClassifier
	if errors.As(err, &classifier) {
		return classifier.ErrorKind()
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidCandidate), errors.Is(err, ErrInvalidField):
		return KindValidation
	case errors.Is(err, ErrDedupRunning):
		return KindConflict
	case errors.Is(err, pool.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, pool.ErrClosed):
		return KindClosed
	case errors.Is(err, ErrSchemaMismatch):
		return KindCorrupt
	}
	return KindInternal
}

// Retryable reports whether a caller may retry the operation that produced
// err. The store itself never retries.
func Retryable(err error) bool {
	if errors.Is(err, pool.ErrTimeout) {
		return true
	}
	var se *StoreError
	return errors.As(err, &se) && se.Busy()
}
