package pool

import "errors"

var (
	// ErrTimeout reports that no connection became free within the caller's
	// timeout. The pool never retries; callers decide.
	ErrTimeout = errors.New("pool: timed out waiting for a free connection")
	// ErrClosed reports an operation attempted after CloseAll (or after the
	// owning Registry was closed).
	ErrClosed = errors.New("pool: closed")
	// ErrNotOwned reports a Release of a handle the pool does not consider
	// checked out, such as a double release or a handle from another pool.
	ErrNotOwned = errors.New("pool: connection not checked out from this pool")
)
