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

func TestReconcileInsertsNewRow(t *testing.T) {
	store := newMovieStore(t)

	cand := testsupport.MovieCandidate("两杆大烟枪", "盖·里奇", "电影天堂", "magnet:?xt=urn:btih:aaa")
	cand.Score = 8.1
	cand.Area = "英国"
	cand.Cover = "https://img.example.com/a.jpg"

	result := testsupport.MustReconcile(t, store, cand)
	if !result.Created || result.ID == 0 {
		t.Fatalf("expected created row, got %+v", result)
	}
	if !reflect.DeepEqual(result.Sources, []string{"电影天堂"}) {
		t.Fatalf("unexpected sources: %v", result.Sources)
	}

	rec := mustDetail(t, store, result.ID)
	if rec.Source != "电影天堂" || rec.Score != 8.1 || rec.Area != "英国" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	want := catalog.DownloadLinks{"电影天堂": catalog.SingleLink("magnet:?xt=urn:btih:aaa")}
	if !reflect.DeepEqual(rec.DownloadLinks, want) {
		t.Fatalf("download links = %v, want %v", rec.DownloadLinks, want)
	}
}

func TestReconcileSameKeyKeepsOneRow(t *testing.T) {
	store := newMovieStore(t)
	db := rawDB(t, store)

	var firstID int64
	for i, source := range []string{"A", "B", "A", "C", "B"} {
		result := testsupport.MustReconcile(t, store, testsupport.MovieCandidate("Heat", "Michael Mann", source, fmt.Sprintf("magnet:%d", i)))
		if i == 0 {
			firstID = result.ID
			continue
		}
		if result.Created || result.ID != firstID {
			t.Fatalf("call %d: expected update of %d, got %+v", i, firstID, result)
		}
	}

	if n := countRows(t, db, "name = ? AND director = ?", "Heat", "Michael Mann"); n != 1 {
		t.Fatalf("expected exactly one row for the key, got %d", n)
	}
}

func TestReconcileKeepsPositiveScore(t *testing.T) {
	store := newMovieStore(t)

	cases := []struct {
		name     string
		existing float64
		incoming float64
		want     float64
	}{
		{"positive existing wins", 7.5, 9.0, 7.5},
		{"unknown existing adopts incoming", 0, 8.2, 8.2},
		{"both unknown", 0, 0, 0},
	}
	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			title := fmt.Sprintf("score-%d", i)
			first := testsupport.MovieCandidate(title, "", "A", "magnet:a")
			first.Score = tc.existing
			created := testsupport.MustReconcile(t, store, first)

			second := testsupport.MovieCandidate(title, "", "B", "magnet:b")
			second.Score = tc.incoming
			testsupport.MustReconcile(t, store, second)

			if got := mustDetail(t, store, created.ID).Score; got != tc.want {
				t.Fatalf("score = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestReconcileCoverPolicy(t *testing.T) {
	store := newMovieStore(t)

	cases := []struct {
		name     string
		existing string
		incoming string
		want     string
	}{
		{"cdn cover is sticky", "https://cdn.example.com/a.jpg", "https://other.example.com/b.jpg", "https://cdn.example.com/a.jpg"},
		{"non-cdn cover is replaced", "https://slow.example.com/a.jpg", "https://other.example.com/b.jpg", "https://other.example.com/b.jpg"},
		{"empty incoming keeps existing", "https://slow.example.com/a.jpg", "", "https://slow.example.com/a.jpg"},
		{"empty existing adopts incoming", "", "https://cdn.example.com/c.jpg", "https://cdn.example.com/c.jpg"},
	}
	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			title := fmt.Sprintf("cover-%d", i)
			first := testsupport.MovieCandidate(title, "", "A", "magnet:a")
			first.Cover = tc.existing
			created := testsupport.MustReconcile(t, store, first)

			second := testsupport.MovieCandidate(title, "", "B", "magnet:b")
			second.Cover = tc.incoming
			testsupport.MustReconcile(t, store, second)

			if got := mustDetail(t, store, created.ID).Cover; got != tc.want {
				t.Fatalf("cover = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestReconcileLocalCoverFirstWriterWins(t *testing.T) {
	store := newMovieStore(t)

	first := testsupport.MovieCandidate("Alien", "Ridley Scott", "A", "magnet:a")
	created := testsupport.MustReconcile(t, store, first)

	second := testsupport.MovieCandidate("Alien", "Ridley Scott", "B", "magnet:b")
	second.LocalCover = "covers/alien-b.jpg"
	testsupport.MustReconcile(t, store, second)

	third := testsupport.MovieCandidate("Alien", "Ridley Scott", "C", "magnet:c")
	third.LocalCover = "covers/alien-c.jpg"
	testsupport.MustReconcile(t, store, third)

	if got := mustDetail(t, store, created.ID).LocalCover; got != "covers/alien-b.jpg" {
		t.Fatalf("local cover = %q, want first non-empty value", got)
	}
}

func TestReconcileDownloadLinksAreAdditive(t *testing.T) {
	store := newMovieStore(t)

	created := testsupport.MustReconcile(t, store, testsupport.MovieCandidate("Ran", "Akira Kurosawa", "A", "x"))
	result := testsupport.MustReconcile(t, store, testsupport.MovieCandidate("Ran", "Akira Kurosawa", "B", "y"))
	if !reflect.DeepEqual(result.Sources, []string{"A", "B"}) {
		t.Fatalf("unexpected sources after merge: %v", result.Sources)
	}

	want := catalog.DownloadLinks{"A": catalog.SingleLink("x"), "B": catalog.SingleLink("y")}
	if got := mustDetail(t, store, created.ID).DownloadLinks; !reflect.DeepEqual(got, want) {
		t.Fatalf("download links = %v, want %v", got, want)
	}

	testsupport.MustReconcile(t, store, testsupport.MovieCandidate("Ran", "Akira Kurosawa", "A", "z"))
	want["A"] = catalog.SingleLink("z")
	if got := mustDetail(t, store, created.ID).DownloadLinks; !reflect.DeepEqual(got, want) {
		t.Fatalf("download links after overwrite = %v, want %v", got, want)
	}
}

func TestReconcileNeverRevisitsDescriptiveFields(t *testing.T) {
	store := newMovieStore(t)

	first := testsupport.MovieCandidate("Yi Yi", "Edward Yang", "A", "magnet:a")
	first.Area = "中国台湾"
	first.Summary = "first summary"
	first.ReleaseDate = "2000-05-14"
	created := testsupport.MustReconcile(t, store, first)

	second := testsupport.MovieCandidate("Yi Yi", "Edward Yang", "B", "magnet:b")
	second.Area = "日本"
	second.Summary = "second summary"
	second.ReleaseDate = "2001-01-01"
	testsupport.MustReconcile(t, store, second)

	rec := mustDetail(t, store, created.ID)
	if rec.Area != "中国台湾" || rec.Summary != "first summary" || rec.ReleaseDate != "2000-05-14" {
		t.Fatalf("descriptive fields changed: %+v", rec)
	}
	if rec.Source != "A" {
		t.Fatalf("creating source should be kept, got %q", rec.Source)
	}
}

func TestReconcileMalformedLinksFailsWithoutWriting(t *testing.T) {
	store := newMovieStore(t)
	db := rawDB(t, store)

	first := testsupport.MovieCandidate("Stalker", "Andrei Tarkovsky", "A", "magnet:a")
	created := testsupport.MustReconcile(t, store, first)

	const corrupt = `{"A": "magnet:a"`
	if _, err := db.Exec("UPDATE media SET download_link = ?, score = 0 WHERE id = ?", corrupt, created.ID); err != nil {
		t.Fatalf("corrupt row: %v", err)
	}

	second := testsupport.MovieCandidate("Stalker", "Andrei Tarkovsky", "B", "magnet:b")
	second.Score = 9.9
	_, err := store.Reconcile(context.Background(), second)
	var parseErr *catalog.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if parseErr.ID != created.ID {
		t.Fatalf("parse error id = %d, want %d", parseErr.ID, created.ID)
	}
	if catalog.Kind(err) != catalog.KindCorrupt {
		t.Fatalf("unexpected kind %q", catalog.Kind(err))
	}

	var (
		payload string
		score   float64
	)
	if err := db.QueryRow("SELECT download_link, score FROM media WHERE id = ?", created.ID).Scan(&payload, &score); err != nil {
		t.Fatalf("read row: %v", err)
	}
	if payload != corrupt || score != 0 {
		t.Fatalf("row was modified: payload=%q score=%v", payload, score)
	}
}

func TestReconcileConcurrentSameKeyProducesOneRow(t *testing.T) {
	store := newMovieStore(t)
	db := rawDB(t, store)

	const writers = 12
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cand := testsupport.MovieCandidate("Solaris", "Andrei Tarkovsky", fmt.Sprintf("src-%02d", i), fmt.Sprintf("magnet:%d", i))
			if _, err := store.Reconcile(context.Background(), cand); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent reconcile failed: %v", err)
	}

	if n := countRows(t, db, "name = ?", "Solaris"); n != 1 {
		t.Fatalf("expected one row, got %d", n)
	}
	records, err := store.Search(context.Background(), "Solaris")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(records) != 1 || len(records[0].DownloadLinks) != writers {
		t.Fatalf("expected %d merged sources, got %+v", writers, records)
	}
}

func TestReconcileTVShowEpisodes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	reg := testsupport.NewRegistry(t, cfg)
	store := testsupport.MustOpenStore(t, reg, cfg, catalog.DomainTVShow)

	cand := catalog.Candidate{
		Name:   "漫长的季节",
		Source: "迅雷电影天堂",
		Link: catalog.EpisodeLinks(
			catalog.Episode{Name: "第01集", Link: "magnet:?xt=1"},
			catalog.Episode{Name: "第02集", Link: "magnet:?xt=2"},
		),
	}
	result := testsupport.MustReconcile(t, store, cand)

	rec := mustDetail(t, store, result.ID)
	got := rec.DownloadLinks["迅雷电影天堂"]
	if !got.IsList() || len(got.Episodes) != 2 || got.Episodes[1].Link != "magnet:?xt=2" {
		t.Fatalf("unexpected episodes: %+v", got)
	}
	if rec.Director != "" {
		t.Fatalf("absent director should be stored empty, got %q", rec.Director)
	}
}

func TestReconcileRejectsInvalidCandidate(t *testing.T) {
	store := newMovieStore(t)

	cases := []catalog.Candidate{
		{Source: "A", Link: catalog.SingleLink("magnet:a")},
		{Name: "No Source", Link: catalog.SingleLink("magnet:a")},
		{Name: "No Link", Source: "A"},
	}
	for _, cand := range cases {
		_, err := store.Reconcile(context.Background(), cand)
		if !errors.Is(err, catalog.ErrInvalidCandidate) {
			t.Fatalf("candidate %+v: expected ErrInvalidCandidate, got %v", cand, err)
		}
		if catalog.Kind(err) != catalog.KindValidation {
			t.Fatalf("unexpected kind %q", catalog.Kind(err))
		}
	}
}

func TestMergeHelpers(t *testing.T) {
	if catalog.MergeScore(7.5, 9) != 7.5 || catalog.MergeScore(0, 9) != 9 || catalog.MergeScore(-1, 3) != 3 {
		t.Fatal("MergeScore policy broken")
	}
	if catalog.MergeLocalCover("a", "b") != "a" || catalog.MergeLocalCover("", "b") != "b" {
		t.Fatal("MergeLocalCover policy broken")
	}
	if catalog.MergeCover("http://x/cdn/a", "http://y/b") != "http://x/cdn/a" {
		t.Fatal("MergeCover should keep cdn covers")
	}
}
