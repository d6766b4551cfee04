package catalog_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"cinema/internal/catalog"
	"cinema/internal/testsupport"
)

func seedListing(t *testing.T, store *catalog.Store) {
	t.Helper()
	rows := []struct {
		name, date, area, category string
		score                      float64
	}{
		{"Alpha", "2001-01-01", "China, Singapore", "剧情, 动作", 6.1},
		{"Bravo", "2003-03-03", "China", "喜剧", 8.4},
		{"Charlie", "2002-02-02", "USA", "动作", 7.0},
		{"Delta", "2004-04-04", "100% Japan", "动画", 0},
	}
	for _, row := range rows {
		cand := testsupport.MovieCandidate(row.name, "", "A", "magnet:"+row.name)
		cand.ReleaseDate = row.date
		cand.Area = row.area
		cand.Category = row.category
		cand.Score = row.score
		testsupport.MustReconcile(t, store, cand)
	}
}

func names(records []catalog.Record) []string {
	out := make([]string, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.Name)
	}
	return out
}

func TestListPageSortsAndPaginates(t *testing.T) {
	store := newMovieStore(t)
	seedListing(t, store)
	ctx := context.Background()

	cases := []struct {
		name  string
		query catalog.PageQuery
		want  []string
	}{
		{"default is newest first", catalog.PageQuery{Page: 1, PerPage: 10}, []string{"Delta", "Bravo", "Charlie", "Alpha"}},
		{"time ascending", catalog.PageQuery{Page: 1, PerPage: 10, SortOrder: "asc"}, []string{"Alpha", "Charlie", "Bravo", "Delta"}},
		{"score descending", catalog.PageQuery{Page: 1, PerPage: 10, SortBy: "score"}, []string{"Bravo", "Charlie", "Alpha", "Delta"}},
		{"second page", catalog.PageQuery{Page: 2, PerPage: 3}, []string{"Alpha"}},
		{"past the end", catalog.PageQuery{Page: 5, PerPage: 3}, []string{}},
		{"page zero is first page", catalog.PageQuery{Page: 0, PerPage: 2}, []string{"Delta", "Bravo"}},
		{"area filter", catalog.PageQuery{Page: 1, PerPage: 10, Area: "China"}, []string{"Bravo", "Alpha"}},
		{"category filter", catalog.PageQuery{Page: 1, PerPage: 10, Category: "动作"}, []string{"Charlie", "Alpha"}},
		{"both filters", catalog.PageQuery{Page: 1, PerPage: 10, Area: "China", Category: "动作"}, []string{"Alpha"}},
		{"wildcards are literal", catalog.PageQuery{Page: 1, PerPage: 10, Area: "%"}, []string{"Delta"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			records, err := store.ListPage(ctx, tc.query)
			if err != nil {
				t.Fatalf("ListPage: %v", err)
			}
			if got := names(records); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("ListPage(%+v) = %v, want %v", tc.query, got, tc.want)
			}
		})
	}
}

func TestListPageCoercesInvalidSort(t *testing.T) {
	store := newMovieStore(t)
	seedListing(t, store)
	ctx := context.Background()

	byTime, err := store.ListPage(ctx, catalog.PageQuery{Page: 1, PerPage: 10, SortBy: "time", SortOrder: "desc"})
	if err != nil {
		t.Fatalf("ListPage time: %v", err)
	}
	bogus, err := store.ListPage(ctx, catalog.PageQuery{Page: 1, PerPage: 10, SortBy: "bogus", SortOrder: "sideways"})
	if err != nil {
		t.Fatalf("ListPage bogus: %v", err)
	}
	if !reflect.DeepEqual(names(byTime), names(bogus)) {
		t.Fatalf("bogus sort %v differs from time sort %v", names(bogus), names(byTime))
	}
}

func TestPageQueryNormalize(t *testing.T) {
	q := catalog.PageQuery{Page: -3, PerPage: 1000, SortBy: " SCORE ", SortOrder: "ASC"}.Normalize()
	if q.Page != 1 || q.PerPage != catalog.MaxPerPage || q.SortBy != catalog.SortByScore || q.SortOrder != catalog.SortAsc {
		t.Fatalf("unexpected normalized query: %+v", q)
	}
	if got := (catalog.PageQuery{Page: 3, PerPage: 20}).Offset(); got != 40 {
		t.Fatalf("offset = %d, want 40", got)
	}
	if q := (catalog.PageQuery{}).Normalize(); q.PerPage != catalog.DefaultPerPage || q.SortBy != catalog.SortByTime || q.SortOrder != catalog.SortDesc {
		t.Fatalf("unexpected defaults: %+v", q)
	}
}

func TestSearchMatchesSubstring(t *testing.T) {
	store := newMovieStore(t)
	seedListing(t, store)
	ctx := context.Background()

	records, err := store.Search(ctx, "ha")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got := names(records); !reflect.DeepEqual(got, []string{"Alpha", "Charlie"}) {
		t.Fatalf("Search(ha) = %v", got)
	}

	for _, pattern := range []string{"", "   ", "zzz", "_"} {
		records, err := store.Search(ctx, pattern)
		if err != nil {
			t.Fatalf("Search(%q): %v", pattern, err)
		}
		if records == nil || len(records) != 0 {
			t.Fatalf("Search(%q) should be an empty slice, got %#v", pattern, records)
		}
	}
}

func TestDetailDistinguishesNotFound(t *testing.T) {
	store := newMovieStore(t)

	_, err := store.Detail(context.Background(), 4242)
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if catalog.Kind(err) != catalog.KindNotFound {
		t.Fatalf("unexpected kind %q", catalog.Kind(err))
	}
}

func TestDistinctValuesSplitsAndSorts(t *testing.T) {
	store := newMovieStore(t)
	ctx := context.Background()

	for i, area := range []string{"China, Singapore", "China", "", "Singapore，China"} {
		cand := testsupport.MovieCandidate("t"+string(rune('a'+i)), "", "A", "magnet:x")
		cand.Area = area
		cand.Language = "English"
		testsupport.MustReconcile(t, store, cand)
	}

	areas, err := store.DistinctValues(ctx, catalog.FieldArea)
	if err != nil {
		t.Fatalf("DistinctValues: %v", err)
	}
	if !reflect.DeepEqual(areas, []string{"China", "Singapore"}) {
		t.Fatalf("areas = %v", areas)
	}

	categories, err := store.DistinctValues(ctx, catalog.FieldCategory)
	if err != nil {
		t.Fatalf("DistinctValues category: %v", err)
	}
	if categories == nil || len(categories) != 0 {
		t.Fatalf("expected empty categories, got %#v", categories)
	}

	languages, err := store.DistinctValues(ctx, catalog.FieldLanguage)
	if err != nil || !reflect.DeepEqual(languages, []string{"English"}) {
		t.Fatalf("languages = %v, err %v", languages, err)
	}

	if _, err := store.DistinctValues(ctx, catalog.Field("name; DROP TABLE media")); !errors.Is(err, catalog.ErrInvalidField) {
		t.Fatalf("expected ErrInvalidField, got %v", err)
	}
}

func TestSplitComposite(t *testing.T) {
	cases := map[string][]string{
		"China, Singapore": {"China", "Singapore"},
		"剧情，动作":            {"剧情", "动作"},
		" , ,":             {},
		"USA":              {"USA"},
	}
	for input, want := range cases {
		if got := catalog.SplitComposite(input); !reflect.DeepEqual(got, want) {
			t.Fatalf("SplitComposite(%q) = %#v, want %#v", input, got, want)
		}
	}
}

func TestListPageFailsOnCorruptRow(t *testing.T) {
	store := newMovieStore(t)
	seedListing(t, store)
	db := rawDB(t, store)
	bad := insertRaw(t, db, "Echo", "", "A")
	if _, err := db.Exec("UPDATE media SET download_link = ? WHERE id = ?", `{"A":`, bad); err != nil {
		t.Fatalf("corrupt row: %v", err)
	}

	_, err := store.ListPage(context.Background(), catalog.PageQuery{Page: 1, PerPage: 10})
	var parseErr *catalog.ParseError
	if !errors.As(err, &parseErr) || parseErr.ID != bad {
		t.Fatalf("expected ParseError for row %d, got %v", bad, err)
	}
	if _, err := store.Search(context.Background(), "Echo"); !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError from search, got %v", err)
	}

	// Rows outside the page are unaffected.
	records, err := store.Search(context.Background(), "Alpha")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got := names(records); !reflect.DeepEqual(got, []string{"Alpha"}) {
		t.Fatalf("search = %v", got)
	}
}

func TestSingleConnectionServesConcurrentCallers(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPoolSize(1))
	reg := testsupport.NewRegistry(t, cfg)
	store := testsupport.MustOpenStore(t, reg, cfg, catalog.DomainMovie)

	const callers = 10
	var wg sync.WaitGroup
	errs := make(chan error, callers*2)
	for i := 0; i < callers; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			cand := testsupport.MovieCandidate(fmt.Sprintf("Title %02d", i), "D", "A", fmt.Sprintf("magnet:%d", i))
			if _, err := store.Reconcile(context.Background(), cand); err != nil {
				errs <- err
			}
		}(i)
		go func() {
			defer wg.Done()
			if _, err := store.ListPage(context.Background(), catalog.PageQuery{Page: 1, PerPage: 5}); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("caller failed: %v", err)
	}

	stats := store.PoolStats()
	if stats.Size != 1 || stats.InUse != 0 || stats.Free != 1 {
		t.Fatalf("unexpected pool stats %+v", stats)
	}
	records, err := store.Search(context.Background(), "Title")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(records) != callers {
		t.Fatalf("expected %d rows, got %d", callers, len(records))
	}
}
