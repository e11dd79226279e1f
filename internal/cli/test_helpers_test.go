package cli

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"os"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/stacks/internal/config"
	"github.com/runnerr0/stacks/internal/storage"
)

// captureOutput captures stdout during fn execution and returns it as a string.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	copied := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		copied <- buf.String()
	}()

	fn()

	w.Close()
	os.Stdout = old
	return <-copied
}

// openTestDB creates a migrated in-memory SQLite database for testing.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, storage.NewMigrationRunner(db).WithJournalMode("").Run())
	return db
}

// newTestEnv returns an environment over an in-memory database with default
// config. mutate, if non-nil, adjusts the config first.
func newTestEnv(t *testing.T, mutate func(cfg *config.Config)) *environment {
	t.Helper()
	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}

	env, err := newEnvironment(context.Background(), cfg, openTestDB(t), nil)
	require.NoError(t, err)
	env.stderr = io.Discard
	t.Cleanup(env.Close)
	return env
}
