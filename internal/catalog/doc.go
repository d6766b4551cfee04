// Package catalog owns the per-domain media tables: reconciliation of
// incoming candidates into canonical rows, the dedup maintenance job, the
// paginated read queries, and health checks and backups.
//
// Every operation borrows a connection from the store's pool for its
// duration and returns it before the call completes. Write paths run in
// immediate transactions so a lookup and the insert or update that follows it
// cannot interleave with another writer. Nothing in this package retries;
// callers inspect Kind or Retryable and decide.
package catalog
