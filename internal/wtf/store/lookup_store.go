package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Lookup outcomes recorded per keyword
const (
	OutcomeResolved = "resolved"
	OutcomeNotFound = "not_found"
)

// ErrInvalidOutcome is returned when recording an unknown outcome
var ErrInvalidOutcome = errors.New("invalid outcome")

// KeywordLookup is the hit count of one keyword for one outcome
type KeywordLookup struct {
	Keyword    string    `json:"keyword"`
	Outcome    string    `json:"outcome"`
	Count      int64     `json:"count"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// LookupStore records how often acronyms are queried
type LookupStore interface {
	Record(ctx context.Context, keyword, outcome string) error
	Top(ctx context.Context, outcome string, limit int) ([]KeywordLookup, error)
	Totals(ctx context.Context) (map[string]int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// SQLiteConfig holds configuration for the SQLite store
type SQLiteConfig struct {
	Path string
}

// DefaultSQLiteConfig returns default configuration
func DefaultSQLiteConfig() SQLiteConfig {
	return SQLiteConfig{
		Path: "./data/stats.db",
	}
}

// SQLiteStore implements LookupStore using SQLite
type SQLiteStore struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

// NewSQLiteStore opens (and creates if needed) the stats database
func NewSQLiteStore(cfg SQLiteConfig) (*SQLiteStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	// Open database with WAL mode
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLiteStore{db: db, now: time.Now}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// initSchema creates the necessary tables
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS keyword_lookups (
		keyword TEXT NOT NULL,
		outcome TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		last_seen_at DATETIME NOT NULL,
		PRIMARY KEY (keyword, outcome)
	);

	CREATE INDEX IF NOT EXISTS idx_keyword_lookups_outcome_count
		ON keyword_lookups(outcome, count DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Record increments the counter of keyword for outcome
func (s *SQLiteStore) Record(ctx context.Context, keyword, outcome string) error {
	if outcome != OutcomeResolved && outcome != OutcomeNotFound {
		return fmt.Errorf("%w: %q", ErrInvalidOutcome, outcome)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO keyword_lookups (keyword, outcome, count, last_seen_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(keyword, outcome) DO UPDATE SET
			count = count + 1,
			last_seen_at = excluded.last_seen_at`,
		keyword, outcome, s.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record lookup: %w", err)
	}
	return nil
}

// Top returns the most frequent keywords for outcome, or across all outcomes
// when outcome is empty. Ties are ordered by keyword.
func (s *SQLiteStore) Top(ctx context.Context, outcome string, limit int) ([]KeywordLookup, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `SELECT keyword, outcome, count, last_seen_at FROM keyword_lookups`
	args := []interface{}{}
	if outcome != "" {
		query += ` WHERE outcome = ?`
		args = append(args, outcome)
	}
	query += ` ORDER BY count DESC, keyword ASC, outcome ASC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query lookups: %w", err)
	}
	defer rows.Close()

	var lookups []KeywordLookup
	for rows.Next() {
		var l KeywordLookup
		if err := rows.Scan(&l.Keyword, &l.Outcome, &l.Count, &l.LastSeenAt); err != nil {
			return nil, fmt.Errorf("failed to scan lookup: %w", err)
		}
		lookups = append(lookups, l)
	}
	return lookups, rows.Err()
}

// Totals returns the summed counts per outcome
func (s *SQLiteStore) Totals(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT outcome, SUM(count) FROM keyword_lookups GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("failed to query totals: %w", err)
	}
	defer rows.Close()

	totals := map[string]int64{
		OutcomeResolved: 0,
		OutcomeNotFound: 0,
	}
	for rows.Next() {
		var (
			outcome string
			count   int64
		)
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, fmt.Errorf("failed to scan totals: %w", err)
		}
		totals[outcome] = count
	}
	return totals, rows.Err()
}

// Ping verifies the database is reachable
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
