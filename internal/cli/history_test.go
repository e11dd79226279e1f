package cli

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/stacks/internal/config"
	"github.com/runnerr0/stacks/internal/storage"
)

func seedHistory(t *testing.T, env *environment, entries ...storage.HistoryEntry) {
	t.Helper()
	for i := range entries {
		require.NoError(t, env.history.AddSearch(env.ctx, &entries[i]))
	}
}

func TestHistoryAdd_RecordsAndTrims(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) { cfg.History.MaxEntries = 2 })

	for i := 0; i < 3; i++ {
		cmd := &HistoryAddCommand{Source: "reddit", Results: i, globals: &GlobalFlags{}, env: env}
		cmd.Args.Query = fmt.Sprintf("query %d", i)
		out := captureOutput(t, func() { require.NoError(t, cmd.Execute(nil)) })
		assert.Contains(t, out, "Recorded search")
		if i == 2 {
			assert.Contains(t, out, "Trimmed 1 older searches (keeping 2)")
		}
	}

	entries, err := env.history.ListHistory(env.ctx, storage.HistoryQuery{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "query 2", entries[0].Query)
	assert.Equal(t, "query 1", entries[1].Query)
}

func TestHistoryAdd_AutoTrimOff(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.History.MaxEntries = 1
		cfg.History.AutoTrim = false
	})

	for _, q := range []string{"a", "b"} {
		cmd := &HistoryAddCommand{globals: &GlobalFlags{}, env: env}
		cmd.Args.Query = q
		captureOutput(t, func() { require.NoError(t, cmd.Execute(nil)) })
	}

	stats, err := env.history.GetStats(env.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalSearches)
}

func TestHistoryAdd_Validation(t *testing.T) {
	env := newTestEnv(t, nil)

	cmd := &HistoryAddCommand{globals: &GlobalFlags{}, env: env}
	cmd.Args.Query = "  "
	assert.Error(t, cmd.Execute(nil))

	cmd = &HistoryAddCommand{Results: -1, globals: &GlobalFlags{}, env: env}
	cmd.Args.Query = "q"
	assert.ErrorContains(t, cmd.Execute(nil), "--results")
}

func TestHistoryAdd_JSON(t *testing.T) {
	env := newTestEnv(t, nil)
	cmd := &HistoryAddCommand{Source: "hn", Results: 7, globals: &GlobalFlags{JSON: true}, env: env}
	cmd.Args.Query = " rust async "

	out := captureOutput(t, func() { require.NoError(t, cmd.Execute(nil)) })

	var got historyEntryJSON
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "rust async", got.Query)
	assert.Equal(t, "hn", got.Source)
	assert.Equal(t, 7, got.ResultCount)
	assert.NotZero(t, got.ID)
}

func TestHistoryList_Filters(t *testing.T) {
	env := newTestEnv(t, nil)
	now := time.Now()
	seedHistory(t, env,
		storage.HistoryEntry{Query: "old ramen", Source: "reddit", Timestamp: now.Add(-72 * time.Hour)},
		storage.HistoryEntry{Query: "new ramen", Source: "reddit", Timestamp: now.Add(-time.Hour)},
		storage.HistoryEntry{Query: "go generics", Source: "hn", Timestamp: now.Add(-30 * time.Minute)},
	)

	cmd := &HistoryListCommand{Limit: 50, globals: &GlobalFlags{}, env: env}
	out := captureOutput(t, func() { require.NoError(t, cmd.Execute(nil)) })
	assert.Contains(t, out, "old ramen")
	assert.Contains(t, out, "go generics")

	cmd = &HistoryListCommand{Query: "RAMEN", Limit: 50, globals: &GlobalFlags{}, env: env}
	out = captureOutput(t, func() { require.NoError(t, cmd.Execute(nil)) })
	assert.Contains(t, out, "new ramen")
	assert.NotContains(t, out, "go generics")

	cmd = &HistoryListCommand{Source: "hn", Limit: 50, globals: &GlobalFlags{}, env: env}
	out = captureOutput(t, func() { require.NoError(t, cmd.Execute(nil)) })
	assert.Contains(t, out, "go generics")
	assert.NotContains(t, out, "ramen")

	cmd = &HistoryListCommand{Since: "1d", Limit: 50, globals: &GlobalFlags{}, env: env}
	out = captureOutput(t, func() { require.NoError(t, cmd.Execute(nil)) })
	assert.Contains(t, out, "Searches in the last 1 day:")
	assert.Contains(t, out, "new ramen")
	assert.NotContains(t, out, "old ramen")

	cmd = &HistoryListCommand{Limit: 1, globals: &GlobalFlags{JSON: true}, env: env}
	out = captureOutput(t, func() { require.NoError(t, cmd.Execute(nil)) })
	var got []historyEntryJSON
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "go generics", got[0].Query)
}

func TestHistoryList_EmptyAndBadSince(t *testing.T) {
	env := newTestEnv(t, nil)

	cmd := &HistoryListCommand{Limit: 50, globals: &GlobalFlags{}, env: env}
	out := captureOutput(t, func() { require.NoError(t, cmd.Execute(nil)) })
	assert.Equal(t, "No searches found.\n", out)

	cmd = &HistoryListCommand{Since: "soon", Limit: 50, globals: &GlobalFlags{}, env: env}
	assert.Error(t, cmd.Execute(nil))
}

func TestHistoryList_EmptySourceShowsDash(t *testing.T) {
	env := newTestEnv(t, nil)
	seedHistory(t, env, storage.HistoryEntry{Query: "plain"})

	cmd := &HistoryListCommand{Limit: 50, globals: &GlobalFlags{}, env: env}
	out := captureOutput(t, func() { require.NoError(t, cmd.Execute(nil)) })
	assert.Contains(t, out, " -  ")
}

func TestHistoryTrim_DryRunThenReal(t *testing.T) {
	env := newTestEnv(t, nil)
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		seedHistory(t, env, storage.HistoryEntry{Query: fmt.Sprintf("q%d", i), Timestamp: base.Add(time.Duration(i) * time.Minute)})
	}

	cmd := &HistoryTrimCommand{Keep: 2, DryRun: true, globals: &GlobalFlags{}, env: env}
	out := captureOutput(t, func() { require.NoError(t, cmd.Execute(nil)) })
	assert.Equal(t, "Would trim 3 searches (keeping newest 2).\n", out)

	stats, err := env.history.GetStats(env.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), stats.TotalSearches, "dry run must not delete")

	cmd = &HistoryTrimCommand{Keep: 2, globals: &GlobalFlags{}, env: env}
	out = captureOutput(t, func() { require.NoError(t, cmd.Execute(nil)) })
	assert.Equal(t, "Trimmed 3 searches (kept newest 2).\n", out)

	entries, err := env.history.ListHistory(env.ctx, storage.HistoryQuery{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "q4", entries[0].Query)
	assert.Equal(t, "q3", entries[1].Query)
}

func TestHistoryTrim_DefaultsToConfiguredLimit(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) { cfg.History.MaxEntries = 1 })
	seedHistory(t, env, storage.HistoryEntry{Query: "a"}, storage.HistoryEntry{Query: "b"})

	cmd := &HistoryTrimCommand{Keep: -1, globals: &GlobalFlags{JSON: true}, env: env}
	out := captureOutput(t, func() { require.NoError(t, cmd.Execute(nil)) })
	assert.JSONEq(t, `{"keep": 1, "dry_run": false, "deleted": 1}`, out)
}

func TestHistoryClear(t *testing.T) {
	env := newTestEnv(t, nil)
	seedHistory(t, env, storage.HistoryEntry{Query: "a"}, storage.HistoryEntry{Query: "b"})

	cmd := &HistoryClearCommand{globals: &GlobalFlags{}, env: env}
	assert.ErrorContains(t, cmd.Execute(nil), "requires --force")

	cmd = &HistoryClearCommand{Force: true, globals: &GlobalFlags{}, env: env}
	out := captureOutput(t, func() { require.NoError(t, cmd.Execute(nil)) })
	assert.Equal(t, "Cleared 2 searches.\n", out)

	stats, err := env.history.GetStats(env.ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalSearches)
}
