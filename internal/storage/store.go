// Package storage persists fetch and traversal history to SQLite so
// past runs can be inspected after the process exits.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	// SQLite database driver (CGO-free)
	_ "modernc.org/sqlite"

	"github.com/nukumizu/webtori/internal/fetch"
	"github.com/nukumizu/webtori/internal/traverse"
)

// Store is a SQLite-backed history sink.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at dbPath and applies the
// schema.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection prevents lock conflicts
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initSchema() error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
	}
	for _, pragma := range pragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute pragma %s: %w", pragma, err)
		}
	}
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveFetchResults appends fetch history rows for standalone fetch and
// batch operations.
func (s *Store) SaveFetchResults(results []fetch.Result) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO fetches (url, success, from_mirror, error, content_bytes, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range results {
		if _, err := stmt.Exec(r.URL, r.Success, r.FromMirror, r.Error, len(r.Content), r.FetchedAt); err != nil {
			return fmt.Errorf("failed to insert fetch for %s: %w", r.URL, err)
		}
	}
	return tx.Commit()
}

// SaveTraversal persists one completed traversal run with all its
// pages in a single transaction.
func (s *Store) SaveTraversal(result *traverse.Result) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`
		INSERT INTO runs (run_id, start_url, pages_fetched, total_attempts,
			unique_links, max_depth_reached, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, result.RunID, result.StartURL, result.PagesFetched, result.TotalAttempts,
		result.UniqueLinks, result.MaxDepthReached, result.StartedAt,
		result.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", result.RunID, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO pages (run_id, url, title, content, depth, links_found,
			success, error, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, p := range result.Pages {
		if _, err := stmt.Exec(result.RunID, p.URL, p.Title, p.Content,
			p.Depth, len(p.LinksFound), p.Success, p.Error, p.FetchedAt); err != nil {
			return fmt.Errorf("failed to insert page %s: %w", p.URL, err)
		}
	}

	if err := setMetaTx(tx, "last_run_id", result.RunID); err != nil {
		return err
	}
	return tx.Commit()
}

// RunSummary is one traversal run's stored metadata.
type RunSummary struct {
	RunID           string
	StartURL        string
	PagesFetched    int
	TotalAttempts   int
	UniqueLinks     int
	MaxDepthReached int
	StartedAt       time.Time
	Duration        time.Duration
}

// ListRuns returns stored runs, newest first.
func (s *Store) ListRuns(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(`
		SELECT run_id, start_url, pages_fetched, total_attempts,
			unique_links, max_depth_reached, started_at, duration_ms
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var durationMS int64
		if err := rows.Scan(&r.RunID, &r.StartURL, &r.PagesFetched, &r.TotalAttempts,
			&r.UniqueLinks, &r.MaxDepthReached, &r.StartedAt, &durationMS); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunPages returns the pages recorded for one run in fetch order.
func (s *Store) RunPages(runID string) ([]traverse.Page, error) {
	rows, err := s.db.Query(`
		SELECT url, title, content, depth, success, error, fetched_at
		FROM pages
		WHERE run_id = ?
		ORDER BY id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pages for run %s: %w", runID, err)
	}
	defer func() { _ = rows.Close() }()

	var pages []traverse.Page
	for rows.Next() {
		var p traverse.Page
		var title, content, pageErr sql.NullString
		var fetchedAt sql.NullTime
		if err := rows.Scan(&p.URL, &title, &content, &p.Depth, &p.Success, &pageErr, &fetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		p.Title = title.String
		p.Content = content.String
		p.Error = pageErr.String
		p.FetchedAt = fetchedAt.Time
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// GetMeta retrieves a metadata value, empty when absent.
func (s *Store) GetMeta(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get meta: %w", err)
	}
	return value, nil
}

// SetMeta stores a metadata value.
func (s *Store) SetMeta(key, value string) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to set meta: %w", err)
	}
	return nil
}

func setMetaTx(tx *sql.Tx, key, value string) error {
	if _, err := tx.Exec(
		"INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)",
		key, value,
	); err != nil {
		return fmt.Errorf("failed to set meta: %w", err)
	}
	return nil
}
