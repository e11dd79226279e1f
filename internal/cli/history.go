package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/runnerr0/stacks/internal/storage"
)

// historyEntryJSON is the JSON output structure for a history entry.
type historyEntryJSON struct {
	ID          int64  `json:"id"`
	Query       string `json:"query"`
	Source      string `json:"source,omitempty"`
	ResultCount int    `json:"result_count"`
	Timestamp   string `json:"ts"`
}

func toHistoryJSON(e storage.HistoryEntry) historyEntryJSON {
	return historyEntryJSON{
		ID:          e.ID,
		Query:       e.Query,
		Source:      e.Source,
		ResultCount: e.ResultCount,
		Timestamp:   e.Timestamp.UTC().Format(time.RFC3339),
	}
}

// Execute implements the go-flags Commander interface for HistoryAddCommand.
func (c *HistoryAddCommand) Execute(args []string) error {
	if strings.TrimSpace(c.Args.Query) == "" {
		return fmt.Errorf("a non-empty query is required for history add")
	}
	if c.Results < 0 {
		return fmt.Errorf("--results must not be negative")
	}

	env, done, err := useEnvironment(c.globals, c.env)
	if err != nil {
		return err
	}
	defer done()

	return c.executeWithEnv(env)
}

func (c *HistoryAddCommand) executeWithEnv(env *environment) error {
	entry := &storage.HistoryEntry{
		Query:       c.Args.Query,
		Source:      c.Source,
		ResultCount: c.Results,
	}
	if err := env.history.AddSearch(env.ctx, entry); err != nil {
		return fmt.Errorf("record search: %w", err)
	}

	trimmed, err := env.autoTrim()
	if err != nil {
		return fmt.Errorf("trim history: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(toHistoryJSON(*entry))
	}

	fmt.Printf("Recorded search %d (%s)\n", entry.ID, entry.Timestamp.Local().Format("2006-01-02 15:04:05"))
	if trimmed > 0 {
		fmt.Printf("  Trimmed %d older searches (keeping %d)\n", trimmed, env.cfg.History.MaxEntries)
	}
	return nil
}

// Execute implements the go-flags Commander interface for HistoryListCommand.
func (c *HistoryListCommand) Execute(args []string) error {
	env, done, err := useEnvironment(c.globals, c.env)
	if err != nil {
		return err
	}
	defer done()

	return c.executeWithEnv(env)
}

func (c *HistoryListCommand) executeWithEnv(env *environment) error {
	q := storage.HistoryQuery{
		Query:  c.Query,
		Source: c.Source,
		Limit:  c.Limit,
		Offset: c.Offset,
	}

	var window time.Duration
	if c.Since != "" {
		d, err := parseDuration(c.Since)
		if err != nil {
			return err
		}
		window = d
		q.Since = time.Now().Add(-d)
	}

	entries, err := env.history.ListHistory(env.ctx, q)
	if err != nil {
		return fmt.Errorf("list history: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		out := make([]historyEntryJSON, len(entries))
		for i, e := range entries {
			out[i] = toHistoryJSON(e)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(entries) == 0 {
		fmt.Println("No searches found.")
		return nil
	}

	if window > 0 {
		fmt.Printf("Searches in the last %s:\n\n", formatDurationHuman(window))
	}
	for _, e := range entries {
		source := e.Source
		if source == "" {
			source = "-"
		}
		fmt.Printf("%5d  %s  %-10s %4d  %s\n",
			e.ID, e.Timestamp.Local().Format("2006-01-02 15:04"), source, e.ResultCount, e.Query)
	}
	return nil
}

// Execute implements the go-flags Commander interface for HistoryTrimCommand.
func (c *HistoryTrimCommand) Execute(args []string) error {
	env, done, err := useEnvironment(c.globals, c.env)
	if err != nil {
		return err
	}
	defer done()

	return c.executeWithEnv(env)
}

func (c *HistoryTrimCommand) executeWithEnv(env *environment) error {
	keep := c.Keep
	if keep < 0 {
		keep = env.cfg.History.MaxEntries
	}

	var (
		n   int64
		err error
	)
	if c.DryRun {
		n, err = env.history.CountOlder(env.ctx, keep)
	} else {
		n, err = env.history.LimitHistory(env.ctx, keep)
	}
	if err != nil {
		return fmt.Errorf("trim history: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		out := map[string]interface{}{
			"keep":    keep,
			"dry_run": c.DryRun,
		}
		if c.DryRun {
			out["would_delete"] = n
		} else {
			out["deleted"] = n
		}
		return json.NewEncoder(os.Stdout).Encode(out)
	}

	if c.DryRun {
		fmt.Printf("Would trim %d searches (keeping newest %d).\n", n, keep)
		return nil
	}
	fmt.Printf("Trimmed %d searches (kept newest %d).\n", n, keep)
	return nil
}

// Execute implements the go-flags Commander interface for HistoryClearCommand.
func (c *HistoryClearCommand) Execute(args []string) error {
	if !c.Force {
		return fmt.Errorf("history clear requires --force")
	}

	env, done, err := useEnvironment(c.globals, c.env)
	if err != nil {
		return err
	}
	defer done()

	return c.executeWithEnv(env)
}

func (c *HistoryClearCommand) executeWithEnv(env *environment) error {
	n, err := env.history.ClearHistory(env.ctx)
	if err != nil {
		return fmt.Errorf("clear history: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		return json.NewEncoder(os.Stdout).Encode(map[string]int64{"deleted": n})
	}
	fmt.Printf("Cleared %d searches.\n", n)
	return nil
}
