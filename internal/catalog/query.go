package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"cinema/internal/pool"
)

const (
	SortByTime  = "time"
	SortByScore = "score"

	SortAsc  = "asc"
	SortDesc = "desc"

	DefaultPerPage = 10
	MaxPerPage     = 100
)

// PageQuery selects one page of the catalog.
type PageQuery struct {
	Page      int
	PerPage   int
	SortBy    string
	SortOrder string
	Area      string
	Category  string
}

// Normalize coerces out-of-range values to their defaults. Unknown sort
// fields become time and unknown orders become desc.
func (q PageQuery) Normalize() PageQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	switch {
	case q.PerPage < 1:
		q.PerPage = DefaultPerPage
	case q.PerPage > MaxPerPage:
		q.PerPage = MaxPerPage
	}
	q.SortBy = strings.ToLower(strings.TrimSpace(q.SortBy))
	if q.SortBy != SortByScore {
		q.SortBy = SortByTime
	}
	q.SortOrder = strings.ToLower(strings.TrimSpace(q.SortOrder))
	if q.SortOrder != SortAsc {
		q.SortOrder = SortDesc
	}
	q.Area = strings.TrimSpace(q.Area)
	q.Category = strings.TrimSpace(q.Category)
	return q
}

// Offset is the number of rows skipped before the page.
func (q PageQuery) Offset() int {
	return (q.Page - 1) * q.PerPage
}

func (q PageQuery) orderClause() string {
	column := "release_date"
	if q.SortBy == SortByScore {
		column = "score"
	}
	direction := "DESC"
	if q.SortOrder == SortAsc {
		direction = "ASC"
	}
	return fmt.Sprintf("ORDER BY %s %s, id %s", column, direction, direction)
}

// ListPage returns one page of records. No matches yields an empty slice.
// A row whose stored download links cannot be decoded fails the whole page
// with a *ParseError naming that row.
func (s *Store) ListPage(ctx context.Context, q PageQuery) ([]Record, error) {
	ctx = ensureContext(ctx)
	q = q.Normalize()

	var (
		conditions []string
		args       []any
	)
	if q.Area != "" {
		conditions = append(conditions, `area LIKE ? ESCAPE '\'`)
		args = append(args, containsPattern(q.Area))
	}
	if q.Category != "" {
		conditions = append(conditions, `category LIKE ? ESCAPE '\'`)
		args = append(args, containsPattern(q.Category))
	}

	query := "SELECT " + recordColumns + " FROM media"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " " + q.orderClause() + " LIMIT ? OFFSET ?"
	args = append(args, q.PerPage, q.Offset())

	var records []Record
	err := s.withConn(ctx, "list page", func(conn *pool.Conn) error {
		rows, err := conn.QueryContext(ctx, query, args...)
		if err != nil {
			return storeErr("list page", err, q.Page, q.PerPage, q.SortBy, q.SortOrder, q.Area, q.Category)
		}
		defer rows.Close()
		records, err = collectRecords(rows)
		return storeErr("list page", err, q.Page, q.PerPage)
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Search returns records whose name contains pattern. A blank pattern
// matches nothing. Like ListPage, one undecodable row fails the result.
func (s *Store) Search(ctx context.Context, pattern string) ([]Record, error) {
	ctx = ensureContext(ctx)
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return []Record{}, nil
	}

	var records []Record
	err := s.withConn(ctx, "search", func(conn *pool.Conn) error {
		rows, err := conn.QueryContext(ctx,
			"SELECT "+recordColumns+` FROM media WHERE name LIKE ? ESCAPE '\' ORDER BY id`,
			containsPattern(pattern),
		)
		if err != nil {
			return storeErr("search", err, pattern)
		}
		defer rows.Close()
		records, err = collectRecords(rows)
		return storeErr("search", err, pattern)
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Detail returns the record with id, or ErrNotFound.
func (s *Store) Detail(ctx context.Context, id int64) (*Record, error) {
	ctx = ensureContext(ctx)
	var rec *Record
	err := s.withConn(ctx, "detail", func(conn *pool.Conn) error {
		row := conn.QueryRowContext(ctx, "SELECT "+recordColumns+" FROM media WHERE id = ?", id)
		var scanErr error
		rec, scanErr = scanRecord(row)
		if errors.Is(scanErr, sql.ErrNoRows) {
			return fmt.Errorf("detail %d: %w", id, ErrNotFound)
		}
		return storeErr("detail", scanErr, id)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// DistinctValues returns the sorted set of atomic values stored in a
// composite column.
func (s *Store) DistinctValues(ctx context.Context, field Field) ([]string, error) {
	ctx = ensureContext(ctx)
	if _, err := ParseField(string(field)); err != nil {
		return nil, err
	}
	column := string(field)

	seen := make(map[string]struct{})
	err := s.withConn(ctx, "distinct values", func(conn *pool.Conn) error {
		rows, err := conn.QueryContext(ctx,
			fmt.Sprintf("SELECT DISTINCT %[1]s FROM media WHERE %[1]s IS NOT NULL AND %[1]s != ''", column),
		)
		if err != nil {
			return storeErr("distinct values", err, column)
		}
		defer rows.Close()
		for rows.Next() {
			var value string
			if err := rows.Scan(&value); err != nil {
				return storeErr("distinct values", err, column)
			}
			for _, part := range SplitComposite(value) {
				seen[part] = struct{}{}
			}
		}
		return storeErr("distinct values", rows.Err(), column)
	})
	if err != nil {
		return nil, err
	}

	values := make([]string, 0, len(seen))
	for value := range seen {
		values = append(values, value)
	}
	sort.Strings(values)
	return values, nil
}

// SplitComposite splits a stored composite value such as "China, Singapore"
// into trimmed atomic values. ASCII and full-width commas both separate.
func SplitComposite(value string) []string {
	fields := strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == '，' })
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		if trimmed := strings.TrimSpace(field); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

// JoinComposite joins atomic values into the stored composite form.
func JoinComposite(values []string) string {
	return strings.Join(values, ", ")
}
