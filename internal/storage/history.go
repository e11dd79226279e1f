package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultHistoryLimit is how many entries LimitHistory keeps when no
// explicit limit is configured.
const DefaultHistoryLimit = 50

// tsLayout is fixed-width so that lexical order in SQLite equals time order.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

// HistoryStore defines the search-history operations.
type HistoryStore interface {
	AddSearch(ctx context.Context, entry *HistoryEntry) error
	GetSearch(ctx context.Context, id int64) (*HistoryEntry, error)
	ListHistory(ctx context.Context, q HistoryQuery) ([]HistoryEntry, error)
	UpdateSearch(ctx context.Context, entry *HistoryEntry) error
	DeleteSearch(ctx context.Context, id int64) error
	ClearHistory(ctx context.Context) (int64, error)
	LimitHistory(ctx context.Context, maxEntries int) (int64, error)
	GetStats(ctx context.Context) (*Stats, error)
	Close() error
}

// SQLiteStore implements HistoryStore on the search_history table and owns
// whole-database operations (stats, purge).
type SQLiteStore struct {
	db *sql.DB

	insertSearch *sql.Stmt
	getSearch    *sql.Stmt
	updateSearch *sql.Stmt
	deleteSearch *sql.Stmt
}

// NewSQLiteStore creates a SQLiteStore from an already-opened and migrated database.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}

	if err := s.prepareStatements(); err != nil {
		s.Close()
		return nil, fmt.Errorf("prepare statements: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.insertSearch, err = s.db.Prepare(`
		INSERT INTO search_history (query, source, result_count, ts)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}

	s.getSearch, err = s.db.Prepare(`
		SELECT id, query, source, result_count, ts
		FROM search_history WHERE id = ?
	`)
	if err != nil {
		return err
	}

	s.updateSearch, err = s.db.Prepare(`
		UPDATE search_history SET query = ?, source = ?, result_count = ?, ts = ?
		WHERE id = ?
	`)
	if err != nil {
		return err
	}

	s.deleteSearch, err = s.db.Prepare(`DELETE FROM search_history WHERE id = ?`)
	if err != nil {
		return err
	}

	return nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(tsLayout)
}

// parseTimestamp tries several common SQLite timestamp formats.
func parseTimestamp(s string) (time.Time, error) {
	formats := []string{
		tsLayout,
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp: %s", s)
}

// escapeLike escapes LIKE wildcards so user text matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// AddSearch records a search. ID is populated from the database; a zero
// Timestamp is set to now.
func (s *SQLiteStore) AddSearch(ctx context.Context, entry *HistoryEntry) error {
	entry.Query = strings.TrimSpace(entry.Query)
	if entry.Query == "" {
		return fmt.Errorf("add search: empty query")
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	res, err := s.insertSearch.ExecContext(ctx,
		entry.Query, entry.Source, entry.ResultCount, formatTimestamp(entry.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("insert search: %w", err)
	}

	entry.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert search id: %w", err)
	}
	return nil
}

// GetSearch retrieves a single history entry by ID.
func (s *SQLiteStore) GetSearch(ctx context.Context, id int64) (*HistoryEntry, error) {
	var e HistoryEntry
	var tsStr string

	err := s.getSearch.QueryRowContext(ctx, id).Scan(
		&e.ID, &e.Query, &e.Source, &e.ResultCount, &tsStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("search %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get search: %w", err)
	}

	e.Timestamp, _ = parseTimestamp(tsStr)
	return &e, nil
}

// ListHistory returns entries newest first, filtered by q.
func (s *SQLiteStore) ListHistory(ctx context.Context, q HistoryQuery) ([]HistoryEntry, error) {
	if q.Limit <= 0 {
		q.Limit = DefaultHistoryLimit
	}

	var clauses []string
	var args []interface{}

	if q.Query != "" {
		clauses = append(clauses, `query LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(q.Query)+"%")
	}
	if q.Source != "" {
		clauses = append(clauses, "source = ?")
		args = append(args, q.Source)
	}
	if !q.Since.IsZero() {
		clauses = append(clauses, "ts >= ?")
		args = append(args, formatTimestamp(q.Since))
	}
	if !q.Until.IsZero() {
		clauses = append(clauses, "ts <= ?")
		args = append(args, formatTimestamp(q.Until))
	}

	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	fullQuery := `SELECT id, query, source, result_count, ts FROM search_history` +
		where + " ORDER BY ts DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, q.Limit, q.Offset)

	return s.scanEntries(ctx, fullQuery, args...)
}

func (s *SQLiteStore) scanEntries(ctx context.Context, query string, args ...interface{}) ([]HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	entries := []HistoryEntry{}
	for rows.Next() {
		var e HistoryEntry
		var tsStr string
		if err := rows.Scan(&e.ID, &e.Query, &e.Source, &e.ResultCount, &tsStr); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		e.Timestamp, _ = parseTimestamp(tsStr)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// UpdateSearch overwrites an existing entry identified by entry.ID.
func (s *SQLiteStore) UpdateSearch(ctx context.Context, entry *HistoryEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	res, err := s.updateSearch.ExecContext(ctx,
		entry.Query, entry.Source, entry.ResultCount, formatTimestamp(entry.Timestamp), entry.ID,
	)
	if err != nil {
		return fmt.Errorf("update search: %w", err)
	}
	return expectOneRow(res, fmt.Sprintf("search %d", entry.ID))
}

// DeleteSearch removes one entry by ID.
func (s *SQLiteStore) DeleteSearch(ctx context.Context, id int64) error {
	res, err := s.deleteSearch.ExecContext(ctx, id)
	if err != nil {
		return fmt.Errorf("delete search: %w", err)
	}
	return expectOneRow(res, fmt.Sprintf("search %d", id))
}

func expectOneRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}

// ClearHistory deletes every history entry and returns how many were removed.
func (s *SQLiteStore) ClearHistory(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM search_history")
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	return res.RowsAffected()
}

// LimitHistory keeps only the maxEntries newest entries and returns how many
// older ones were deleted.
func (s *SQLiteStore) LimitHistory(ctx context.Context, maxEntries int) (int64, error) {
	if maxEntries < 0 {
		return 0, fmt.Errorf("limit history: negative limit %d", maxEntries)
	}

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM search_history WHERE id NOT IN (
			SELECT id FROM search_history ORDER BY ts DESC, id DESC LIMIT ?
		)`, maxEntries,
	)
	if err != nil {
		return 0, fmt.Errorf("limit history: %w", err)
	}
	return res.RowsAffected()
}

// CountOlder reports how many entries LimitHistory(maxEntries) would delete.
func (s *SQLiteStore) CountOlder(ctx context.Context, maxEntries int) (int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM search_history").Scan(&total); err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	if total <= int64(maxEntries) {
		return 0, nil
	}
	return total - int64(maxEntries), nil
}

// PurgeAll deletes all history and every key-value entry.
func (s *SQLiteStore) PurgeAll(ctx context.Context) error {
	stmts := []string{
		"DELETE FROM search_history",
		"DELETE FROM kv",
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("purge (%s): %w", stmt, err)
		}
	}
	return nil
}

// GetStats returns aggregate statistics about the database.
func (s *SQLiteStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM search_history").Scan(&stats.TotalSearches)
	if err != nil {
		return nil, fmt.Errorf("count searches: %w", err)
	}

	if stats.TotalSearches > 0 {
		var oldestStr, newestStr string
		err = s.db.QueryRowContext(ctx, "SELECT MIN(ts), MAX(ts) FROM search_history").Scan(&oldestStr, &newestStr)
		if err != nil {
			return nil, fmt.Errorf("history time range: %w", err)
		}
		stats.OldestSearch, _ = parseTimestamp(oldestStr)
		stats.NewestSearch, _ = parseTimestamp(newestStr)
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(length(CAST(key AS BLOB)) + length(CAST(value AS BLOB))), 0) FROM kv`,
	).Scan(&stats.KVKeys, &stats.KVBytes)
	if err != nil {
		return nil, fmt.Errorf("kv usage: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT source, COUNT(*) AS cnt FROM search_history
		 WHERE source <> '' GROUP BY source ORDER BY cnt DESC, source LIMIT 10`,
	)
	if err != nil {
		return nil, fmt.Errorf("top sources: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sc SourceCount
		if err := rows.Scan(&sc.Source, &sc.Count); err != nil {
			return nil, err
		}
		stats.TopSources = append(stats.TopSources, sc)
	}

	return stats, rows.Err()
}

// Close releases all prepared statements. The underlying *sql.DB is NOT
// closed; that is the caller's responsibility.
func (s *SQLiteStore) Close() error {
	stmts := []*sql.Stmt{
		s.insertSearch, s.getSearch, s.updateSearch, s.deleteSearch,
	}
	for _, stmt := range stmts {
		if stmt != nil {
			stmt.Close()
		}
	}
	return nil
}
