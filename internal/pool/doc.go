// Package pool hands out a fixed set of dedicated store connections to
// concurrent callers.
//
// A Pool pins Size connections from a *sql.DB when it is built and never grows
// or shrinks. Acquire blocks until a connection is free, the caller's timeout
// elapses, or the pool is closed; the returned *Conn is an owned handle that the
// caller passes back to Release. Ownership travels with the handle value, so a
// connection may be acquired in one goroutine and released in another.
//
// Registry maps store paths to pools, creating them lazily and tearing them all
// down on Close. Build one Registry per process and inject it wherever storage
// access is needed.
package pool
