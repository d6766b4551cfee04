package catalog_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"cinema/internal/catalog"
	"cinema/internal/pool"
)

func TestDownloadLinksJSONShapes(t *testing.T) {
	links := catalog.DownloadLinks{
		"电影天堂":   catalog.SingleLink("magnet:?xt=1"),
		"迅雷电影天堂": catalog.EpisodeLinks(catalog.Episode{Name: "第01集", Link: "magnet:?xt=2"}),
		"empty":  catalog.EpisodeLinks(),
	}
	payload, err := links.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"empty":[],"迅雷电影天堂":[{"name":"第01集","link":"magnet:?xt=2"}],"电影天堂":"magnet:?xt=1"}`
	var gotAny, wantAny any
	_ = json.Unmarshal([]byte(payload), &gotAny)
	_ = json.Unmarshal([]byte(want), &wantAny)
	if !reflect.DeepEqual(gotAny, wantAny) {
		t.Fatalf("payload = %s, want %s", payload, want)
	}

	parsed, err := catalog.ParseDownloadLinks(payload)
	if err != nil {
		t.Fatalf("ParseDownloadLinks: %v", err)
	}
	if !reflect.DeepEqual(parsed, links) {
		t.Fatalf("parsed = %#v, want %#v", parsed, links)
	}
	if !parsed["empty"].IsList() || parsed["电影天堂"].IsList() {
		t.Fatal("list/single distinction lost")
	}
}

func TestParseDownloadLinksRejectsMalformed(t *testing.T) {
	for _, payload := range []string{`{"a":`, `[]`, `null`, `{"a": 12}`, `"magnet:x"`} {
		if _, err := catalog.ParseDownloadLinks(payload); err == nil {
			t.Fatalf("expected error for %q", payload)
		}
	}
	links, err := catalog.ParseDownloadLinks("  ")
	if err != nil || links == nil || len(links) != 0 {
		t.Fatalf("blank payload should be empty mapping, got %v err %v", links, err)
	}
}

func TestKindAndRetryable(t *testing.T) {
	busy := &catalog.StoreError{Op: "reconcile: insert", Err: errors.New("database is locked (5) (SQLITE_BUSY)")}
	cases := []struct {
		err       error
		kind      string
		retryable bool
	}{
		{fmt.Errorf("list: acquire connection: %w", pool.ErrTimeout), catalog.KindTimeout, true},
		{busy, catalog.KindBusy, true},
		{&catalog.StoreError{Op: "x", Err: errors.New("disk I/O error")}, catalog.KindInternal, false},
		{fmt.Errorf("detail 4: %w", catalog.ErrNotFound), catalog.KindNotFound, false},
		{pool.ErrClosed, catalog.KindClosed, false},
		{&catalog.ParseError{ID: 1, Err: errors.New("bad")}, catalog.KindCorrupt, false},
		{errors.New("other"), catalog.KindInternal, false},
	}
	for _, tc := range cases {
		if got := catalog.Kind(tc.err); got != tc.kind {
			t.Fatalf("Kind(%v) = %q, want %q", tc.err, got, tc.kind)
		}
		if got := catalog.Retryable(tc.err); got != tc.retryable {
			t.Fatalf("Retryable(%v) = %v, want %v", tc.err, got, tc.retryable)
		}
	}
	if !busy.Busy() {
		t.Fatal("expected busy store error")
	}
}
