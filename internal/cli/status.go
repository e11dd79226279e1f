package cli

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/runnerr0/stacks/internal/storage"
)

// statusJSON is the JSON output structure for the status command.
type statusJSON struct {
	Version           string            `json:"version"`
	DatabasePath      string            `json:"database_path"`
	DatabaseSizeBytes int64             `json:"database_size_bytes"`
	Collections       int               `json:"collections"`
	SavedResults      int               `json:"saved_results"`
	StorageKey        string            `json:"storage_key"`
	StorageUsedBytes  int64             `json:"storage_used_bytes"`
	StorageQuotaBytes int64             `json:"storage_quota_bytes"`
	TotalSearches     int64             `json:"total_searches"`
	OldestSearch      string            `json:"oldest_search,omitempty"`
	NewestSearch      string            `json:"newest_search,omitempty"`
	HistoryLimit      int               `json:"history_limit"`
	TopSources        []sourceCountJSON `json:"top_sources"`
}

type sourceCountJSON struct {
	Source string `json:"source"`
	Count  int64  `json:"count"`
}

// statusReport gathers everything status prints.
type statusReport struct {
	stats       *storage.Stats
	dbPath      string
	dbSize      int64
	collections int
	saved       int
	usedBytes   int64
	quotaBytes  int64
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
	env, done, err := useEnvironment(c.globals, c.env)
	if err != nil {
		return err
	}
	defer done()

	return c.executeWithEnv(env)
}

// executeWithEnv runs status against a prepared environment.
func (c *StatusCommand) executeWithEnv(env *environment) error {
	stats, err := env.history.GetStats(env.ctx)
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}

	_, used, err := env.kv.Usage(env.ctx)
	if err != nil {
		return fmt.Errorf("get storage usage: %w", err)
	}

	cols := env.collections.Load(env.ctx)
	r := statusReport{
		stats:       stats,
		dbPath:      env.dbPath,
		dbSize:      getDatabaseSize(env.db, env.dbPath),
		collections: len(cols),
		saved:       cols.Len(),
		usedBytes:   used,
		quotaBytes:  env.kv.Quota(),
	}

	if c.globals != nil && c.globals.JSON {
		return c.printStatusJSON(env, r)
	}
	return c.printStatusHuman(env, r)
}

func (c *StatusCommand) printStatusHuman(env *environment, r statusReport) error {
	dbPath := r.dbPath
	if dbPath == "" || dbPath == memoryDSN {
		dbPath = "in-memory"
	}

	fmt.Println("Stacks Status")
	fmt.Println("=============")
	fmt.Printf("Version:       %s\n", c.version)
	fmt.Printf("Database:      %s (%s)\n", dbPath, formatBytes(r.dbSize))
	fmt.Printf("Collections:   %s\n", formatNumber(int64(r.collections)))
	fmt.Printf("Saved:         %s\n", formatNumber(int64(r.saved)))

	if r.quotaBytes > 0 {
		pct := float64(r.usedBytes) / float64(r.quotaBytes) * 100
		fmt.Printf("Storage:       %s of %s (%.1f%%)\n", formatBytes(r.usedBytes), formatBytes(r.quotaBytes), pct)
	} else {
		fmt.Printf("Storage:       %s (no quota)\n", formatBytes(r.usedBytes))
	}

	fmt.Println()
	fmt.Printf("Searches:      %s\n", formatNumber(r.stats.TotalSearches))
	if r.stats.TotalSearches > 0 {
		fmt.Printf("Oldest:        %s\n", r.stats.OldestSearch.Local().Format("2006-01-02"))
		fmt.Printf("Newest:        %s\n", r.stats.NewestSearch.Local().Format("2006-01-02"))
	}
	fmt.Printf("History limit: %d\n", env.cfg.History.MaxEntries)

	if len(r.stats.TopSources) > 0 {
		fmt.Println()
		fmt.Println("Top Sources:")
		for _, s := range r.stats.TopSources {
			fmt.Printf("  %-20s %s\n", s.Source, formatNumber(s.Count))
		}
	}

	return nil
}

func (c *StatusCommand) printStatusJSON(env *environment, r statusReport) error {
	out := statusJSON{
		Version:           c.version,
		DatabasePath:      r.dbPath,
		DatabaseSizeBytes: r.dbSize,
		Collections:       r.collections,
		SavedResults:      r.saved,
		StorageKey:        env.collections.Options().Key,
		StorageUsedBytes:  r.usedBytes,
		StorageQuotaBytes: r.quotaBytes,
		TotalSearches:     r.stats.TotalSearches,
		HistoryLimit:      env.cfg.History.MaxEntries,
		TopSources:        make([]sourceCountJSON, len(r.stats.TopSources)),
	}

	if r.stats.TotalSearches > 0 {
		out.OldestSearch = r.stats.OldestSearch.UTC().Format(time.RFC3339)
		out.NewestSearch = r.stats.NewestSearch.UTC().Format(time.RFC3339)
	}

	for i, s := range r.stats.TopSources {
		out.TopSources[i] = sourceCountJSON{Source: s.Source, Count: s.Count}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// getDatabaseSize returns the database file size in bytes.
// For on-disk databases, it uses os.Stat. For in-memory databases,
// it queries page_count * page_size.
func getDatabaseSize(db *sql.DB, dbPath string) int64 {
	// Try file stat first
	if dbPath != "" && dbPath != memoryDSN {
		if info, err := os.Stat(dbPath); err == nil {
			return info.Size()
		}
	}

	// Fallback: query SQLite for in-memory or unavailable file
	var pageCount, pageSize int64
	if err := db.QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return 0
	}
	if err := db.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0
	}
	return pageCount * pageSize
}

// formatBytes formats a byte count into a human-readable string.
func formatBytes(b int64) string {
	switch {
	case b >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// formatNumber formats an int64 with comma separators.
func formatNumber(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
		if len(s) > remainder {
			result.WriteString(",")
		}
	}
	for i := remainder; i < len(s); i += 3 {
		if i > remainder {
			result.WriteString(",")
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}
