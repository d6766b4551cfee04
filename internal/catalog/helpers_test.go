package catalog_test

import (
	"context"
	"database/sql"
	"testing"

	"cinema/internal/catalog"
	"cinema/internal/testsupport"
)

func newMovieStore(t *testing.T) *catalog.Store {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	reg := testsupport.NewRegistry(t, cfg)
	return testsupport.MustOpenStore(t, reg, cfg, catalog.DomainMovie)
}

// rawDB opens a second handle on the store file for fixtures the public API
// cannot produce, such as legacy duplicates or corrupt payloads.
func rawDB(t *testing.T, store *catalog.Store) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", store.Path()+"?_pragma=busy_timeout(5000)")
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func insertRaw(t *testing.T, db *sql.DB, name, director, source string) int64 {
	t.Helper()
	res, err := db.ExecContext(context.Background(),
		`INSERT INTO media (name, director, source, download_link) VALUES (?, ?, ?, ?)`,
		name, director, source, `{"`+source+`":"magnet:?xt=`+name+`"}`,
	)
	if err != nil {
		t.Fatalf("insert raw row: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("last insert id: %v", err)
	}
	return id
}

func countRows(t *testing.T, db *sql.DB, where string, args ...any) int {
	t.Helper()
	var n int
	query := "SELECT COUNT(*) FROM media"
	if where != "" {
		query += " WHERE " + where
	}
	if err := db.QueryRowContext(context.Background(), query, args...).Scan(&n); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return n
}

func mustDetail(t *testing.T, store *catalog.Store, id int64) *catalog.Record {
	t.Helper()
	rec, err := store.Detail(context.Background(), id)
	if err != nil {
		t.Fatalf("Detail(%d): %v", id, err)
	}
	return rec
}
