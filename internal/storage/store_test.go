package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/nukumizu/webtori/internal/fetch"
	"github.com/nukumizu/webtori/internal/traverse"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSaveAndListTraversal(t *testing.T) {
	store := newTestStore(t)

	started := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	result := &traverse.Result{
		RunID:           "run-1",
		StartURL:        "http://example.com/",
		PagesFetched:    2,
		TotalAttempts:   3,
		UniqueLinks:     5,
		MaxDepthReached: 1,
		StartedAt:       started,
		Duration:        1500 * time.Millisecond,
		Pages: []traverse.Page{
			{URL: "http://example.com/", Title: "Home", Content: "<html>home</html>", Depth: 0, LinksFound: []string{"http://example.com/a"}, Success: true, FetchedAt: started},
			{URL: "http://example.com/a", Title: "A", Content: "<html>a</html>", Depth: 1, Success: true, FetchedAt: started},
			{URL: "http://example.com/b", Depth: 1, Error: "server returned 404 Not Found", FetchedAt: started},
		},
	}

	if err := store.SaveTraversal(result); err != nil {
		t.Fatalf("SaveTraversal() error = %v", err)
	}

	runs, err := store.ListRuns(10)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("len(runs) = %d, want 1", len(runs))
	}
	run := runs[0]
	if run.RunID != "run-1" || run.PagesFetched != 2 || run.TotalAttempts != 3 {
		t.Errorf("unexpected run summary: %+v", run)
	}
	if run.Duration != 1500*time.Millisecond {
		t.Errorf("Duration = %v, want 1.5s", run.Duration)
	}

	pages, err := store.RunPages("run-1")
	if err != nil {
		t.Fatalf("RunPages() error = %v", err)
	}
	if len(pages) != 3 {
		t.Fatalf("len(pages) = %d, want 3", len(pages))
	}
	if pages[0].Title != "Home" || pages[0].Depth != 0 || !pages[0].Success {
		t.Errorf("unexpected first page: %+v", pages[0])
	}
	if pages[2].Success || pages[2].Error == "" {
		t.Errorf("failed page not preserved: %+v", pages[2])
	}

	lastRun, err := store.GetMeta("last_run_id")
	if err != nil {
		t.Fatalf("GetMeta() error = %v", err)
	}
	if lastRun != "run-1" {
		t.Errorf("last_run_id = %q, want %q", lastRun, "run-1")
	}
}

func TestSaveFetchResults(t *testing.T) {
	store := newTestStore(t)

	now := time.Now().UTC()
	results := []fetch.Result{
		{URL: "http://example.com/a", Content: "hello", Success: true, FetchedAt: now},
		{URL: "http://example.com/b", Error: "server returned 503 Service Unavailable", FetchedAt: now},
		{URL: "http://example.com/c", Content: "mirror", Success: true, FromMirror: true, FetchedAt: now},
	}
	if err := store.SaveFetchResults(results); err != nil {
		t.Fatalf("SaveFetchResults() error = %v", err)
	}

	var count int
	if err := store.db.QueryRow("SELECT COUNT(*) FROM fetches").Scan(&count); err != nil {
		t.Fatalf("count query error = %v", err)
	}
	if count != 3 {
		t.Errorf("fetches count = %d, want 3", count)
	}

	var fromMirror bool
	err := store.db.QueryRow("SELECT from_mirror FROM fetches WHERE url = ?", "http://example.com/c").Scan(&fromMirror)
	if err != nil {
		t.Fatalf("mirror query error = %v", err)
	}
	if !fromMirror {
		t.Error("from_mirror not stored")
	}
}

func TestSaveFetchResultsEmpty(t *testing.T) {
	store := newTestStore(t)
	if err := store.SaveFetchResults(nil); err != nil {
		t.Errorf("SaveFetchResults(nil) error = %v", err)
	}
}

func TestMetaRoundTrip(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetMeta("missing")
	if err != nil {
		t.Fatalf("GetMeta() error = %v", err)
	}
	if got != "" {
		t.Errorf("GetMeta(missing) = %q, want empty", got)
	}

	if err := store.SetMeta("schema_version", "1"); err != nil {
		t.Fatalf("SetMeta() error = %v", err)
	}
	if err := store.SetMeta("schema_version", "2"); err != nil {
		t.Fatalf("SetMeta() overwrite error = %v", err)
	}
	got, err = store.GetMeta("schema_version")
	if err != nil {
		t.Fatalf("GetMeta() error = %v", err)
	}
	if got != "2" {
		t.Errorf("GetMeta = %q, want %q", got, "2")
	}
}
