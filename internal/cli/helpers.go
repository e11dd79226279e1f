package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/runnerr0/stacks/internal/collection"
	"github.com/runnerr0/stacks/internal/config"
	"github.com/runnerr0/stacks/internal/logging"
	"github.com/runnerr0/stacks/internal/stacks"
	"github.com/runnerr0/stacks/internal/storage"
)

const memoryDSN = ":memory:"

// kvBackend is what the CLI needs from the collections key-value storage.
type kvBackend interface {
	collection.KV
	Delete(ctx context.Context, key string) error
	Usage(ctx context.Context) (keys, bytes int64, err error)
	Quota() int64
}

// environment bundles everything a command works against.
type environment struct {
	ctx         context.Context
	cfg         *config.Config
	dbPath      string
	db          *sql.DB
	kv          kvBackend
	history     *storage.SQLiteStore
	collections *collection.Store
	stderr      io.Writer

	closers []func() error
}

// openEnvironment loads config, sets up logging and opens storage.
func openEnvironment(globals *GlobalFlags) (*environment, error) {
	cfg, err := loadConfig(globals)
	if err != nil {
		return nil, err
	}

	ctx := newLoggerContext(cfg, globals.Verbose, os.Stderr)

	dbPath, err := resolveDBPath(globals, cfg)
	if err != nil {
		return nil, err
	}

	db, err := openDB(ctx, dbPath, cfg.Storage.SQLiteJournalMode)
	if err != nil {
		return nil, err
	}

	var kv kvBackend
	if globals.Memory {
		kv = storage.NewMemoryKV(cfg.Collections.QuotaBytes)
	}

	env, err := newEnvironment(ctx, cfg, db, kv)
	if err != nil {
		db.Close()
		return nil, err
	}
	env.dbPath = dbPath
	env.closers = append(env.closers, db.Close)
	return env, nil
}

// newEnvironment wires stores over an already-migrated db. A nil kv stores
// collections in the db's kv table.
func newEnvironment(ctx context.Context, cfg *config.Config, db *sql.DB, kv kvBackend) (*environment, error) {
	env := &environment{ctx: ctx, cfg: cfg, db: db, stderr: os.Stderr}

	history, err := storage.NewSQLiteStore(db)
	if err != nil {
		return nil, fmt.Errorf("init history store: %w", err)
	}
	env.history = history

	if kv == nil {
		sqliteKV, err := storage.NewSQLiteKV(db, cfg.Collections.QuotaBytes)
		if err != nil {
			history.Close()
			return nil, fmt.Errorf("init kv store: %w", err)
		}
		kv = sqliteKV
		env.closers = append(env.closers, sqliteKV.Close)
	}
	env.kv = kv
	env.closers = append([]func() error{history.Close}, env.closers...)

	env.collections = collection.NewStore(kv, collection.Options{
		Key:             cfg.Collections.StorageKey,
		DefaultName:     cfg.Collections.DefaultName,
		MaxItems:        cfg.Collections.MaxItems,
		MaxResultChars:  cfg.Collections.MaxResultChars,
		MaxSourcesChars: cfg.Collections.MaxSourcesChars,
	})
	return env, nil
}

// Close releases the stores and, when the environment opened it, the db.
func (e *environment) Close() {
	for _, c := range e.closers {
		c()
	}
	e.closers = nil
}

// service builds the save service, printing alerts to stderr.
func (e *environment) service() *stacks.Service {
	alert := stacks.AlertFunc(func(msg string) {
		fmt.Fprintf(e.stderr, "✗ %s\n", msg)
	})
	delay := time.Duration(e.cfg.Collections.ConfirmSeconds) * time.Second
	return stacks.New(e.collections, nil, alert, delay)
}

// autoTrim applies history.max_entries when auto_trim is on.
func (e *environment) autoTrim() (int64, error) {
	if !e.cfg.History.AutoTrim || e.cfg.History.MaxEntries <= 0 {
		return 0, nil
	}
	return e.history.LimitHistory(e.ctx, e.cfg.History.MaxEntries)
}

// useEnvironment returns the injected environment, or opens one that the
// returned func closes.
func useEnvironment(globals *GlobalFlags, injected *environment) (*environment, func(), error) {
	if injected != nil {
		return injected, func() {}, nil
	}
	if globals == nil {
		globals = &GlobalFlags{}
	}
	env, err := openEnvironment(globals)
	if err != nil {
		return nil, nil, err
	}
	return env, env.Close, nil
}

func loadConfig(globals *GlobalFlags) (*config.Config, error) {
	if globals.Config != "" {
		return config.LoadOrCreateAt(globals.Config)
	}
	return config.LoadOrCreate()
}

func newLoggerContext(cfg *config.Config, verbose bool, out io.Writer) context.Context {
	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.ParseLevel(cfg.Logging.Level)
	if verbose {
		logCfg.Level = zerolog.DebugLevel
	}
	logCfg.Format = cfg.Logging.Format
	logCfg.Out = out

	return logging.WithComponent(logging.WithContext(context.Background(), logging.New(logCfg)), "cli")
}

// resolveDBPath picks --memory, then --db-path, then the configured path.
func resolveDBPath(globals *GlobalFlags, cfg *config.Config) (string, error) {
	switch {
	case globals.Memory:
		return memoryDSN, nil
	case globals.DBPath != "":
		return globals.DBPath, nil
	default:
		return cfg.DBPath()
	}
}

// openDB opens the sqlite database at path and runs migrations.
func openDB(ctx context.Context, path, journalMode string) (*sql.DB, error) {
	if path == memoryDSN {
		journalMode = ""
	} else if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == memoryDSN {
		// Every pooled connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}

	if err := storage.NewMigrationRunner(db).WithJournalMode(journalMode).RunContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}

// readContent returns inline text or the contents of file; both set is an
// error.
func readContent(inline, file, name string) (string, error) {
	if inline != "" && file != "" {
		return "", fmt.Errorf("--%s and --%s-file are mutually exclusive", name, name)
	}
	if file == "" {
		return inline, nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("reading %s file: %w", name, err)
	}
	return string(data), nil
}

// parseDuration parses a human-friendly duration string like "30d", "7d", "24h", "2w".
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("invalid duration: empty string")
	}

	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]

	n, err := strconv.Atoi(numStr)
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	switch suffix {
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	case 'm':
		return time.Duration(n) * time.Minute, nil
	default:
		return 0, fmt.Errorf("invalid duration: %q (use d, h, w, or m suffix)", s)
	}
}

// formatDurationHuman formats a duration into a human-readable string like "30 days".
func formatDurationHuman(d time.Duration) string {
	days := int(d.Hours() / 24)
	if days > 0 {
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	}
	hours := int(d.Hours())
	if hours > 0 {
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	return d.String()
}
