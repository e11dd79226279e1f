package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
)

// DefaultQuotaBytes mirrors the per-origin budget browsers give local storage.
const DefaultQuotaBytes int64 = 5 << 20

var (
	// ErrQuotaExceeded is returned when a write would push the store past its
	// byte quota. Nothing is written.
	ErrQuotaExceeded = errors.New("storage quota exceeded")

	// ErrNotFound is returned when a key does not exist.
	ErrNotFound = errors.New("not found")
)

// usage counts key and value bytes, the way local storage charges an origin.
func usage(key, value string) int64 {
	return int64(len(key) + len(value))
}

// SQLiteKV is a string key-value store in the kv table with a byte quota
// across all keys. A quota <= 0 disables the check.
type SQLiteKV struct {
	db    *sql.DB
	quota int64

	get    *sql.Stmt
	upsert *sql.Stmt
	del    *sql.Stmt
}

// NewSQLiteKV creates a SQLiteKV on an already-migrated database.
func NewSQLiteKV(db *sql.DB, quota int64) (*SQLiteKV, error) {
	kv := &SQLiteKV{db: db, quota: quota}

	var err error
	kv.get, err = db.Prepare(`SELECT value FROM kv WHERE key = ?`)
	if err != nil {
		return nil, fmt.Errorf("prepare kv get: %w", err)
	}
	kv.upsert, err = db.Prepare(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		kv.Close()
		return nil, fmt.Errorf("prepare kv upsert: %w", err)
	}
	kv.del, err = db.Prepare(`DELETE FROM kv WHERE key = ?`)
	if err != nil {
		kv.Close()
		return nil, fmt.Errorf("prepare kv delete: %w", err)
	}

	return kv, nil
}

// Get returns the value for key. A missing key is reported with ok=false
// and a nil error.
func (kv *SQLiteKV) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := kv.get.QueryRowContext(ctx, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value. The quota check
// and the write share one transaction.
func (kv *SQLiteKV) Set(ctx context.Context, key, value string) error {
	tx, err := kv.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if kv.quota > 0 {
		var others int64
		err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(SUM(length(CAST(key AS BLOB)) + length(CAST(value AS BLOB))), 0)
			 FROM kv WHERE key <> ?`, key,
		).Scan(&others)
		if err != nil {
			return fmt.Errorf("measure kv usage: %w", err)
		}
		if others+usage(key, value) > kv.quota {
			return fmt.Errorf("set %q (%d bytes, quota %d): %w", key, usage(key, value), kv.quota, ErrQuotaExceeded)
		}
	}

	if _, err := tx.StmtContext(ctx, kv.upsert).ExecContext(ctx, key, value); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}

	return tx.Commit()
}

// Delete removes key. Deleting a missing key returns ErrNotFound.
func (kv *SQLiteKV) Delete(ctx context.Context, key string) error {
	res, err := kv.del.ExecContext(ctx, key)
	if err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("key %q: %w", key, ErrNotFound)
	}
	return nil
}

// Usage returns the number of keys and the bytes they are charged.
func (kv *SQLiteKV) Usage(ctx context.Context) (keys, bytes int64, err error) {
	err = kv.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(length(CAST(key AS BLOB)) + length(CAST(value AS BLOB))), 0) FROM kv`,
	).Scan(&keys, &bytes)
	if err != nil {
		return 0, 0, fmt.Errorf("kv usage: %w", err)
	}
	return keys, bytes, nil
}

// Quota returns the configured byte quota.
func (kv *SQLiteKV) Quota() int64 { return kv.quota }

// Close releases the prepared statements. The *sql.DB stays open.
func (kv *SQLiteKV) Close() error {
	for _, stmt := range []*sql.Stmt{kv.get, kv.upsert, kv.del} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return nil
}

// MemoryKV is an in-memory KV with the same quota semantics as SQLiteKV.
// It is safe for concurrent use.
type MemoryKV struct {
	mu     sync.Mutex
	quota  int64
	values map[string]string

	// FailWith, when set, is returned by every Set call.
	FailWith error
}

// NewMemoryKV creates an empty MemoryKV. A quota <= 0 disables the check.
func NewMemoryKV(quota int64) *MemoryKV {
	return &MemoryKV{quota: quota, values: make(map[string]string)}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWith != nil {
		return m.FailWith
	}

	if m.quota > 0 {
		var others int64
		for k, v := range m.values {
			if k != key {
				others += usage(k, v)
			}
		}
		if others+usage(key, value) > m.quota {
			return fmt.Errorf("set %q (%d bytes, quota %d): %w", key, usage(key, value), m.quota, ErrQuotaExceeded)
		}
	}

	m.values[key] = value
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; !ok {
		return fmt.Errorf("key %q: %w", key, ErrNotFound)
	}
	delete(m.values, key)
	return nil
}

// Usage returns the number of keys and the bytes they are charged.
func (m *MemoryKV) Usage(_ context.Context) (keys, bytes int64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range m.values {
		keys++
		bytes += usage(k, v)
	}
	return keys, bytes, nil
}

// Quota returns the configured byte quota.
func (m *MemoryKV) Quota() int64 { return m.quota }
