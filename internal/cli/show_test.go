package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/stacks/internal/collection"
)

// seedCollection saves recs into name, oldest first, and returns them as
// stored.
func seedCollection(t *testing.T, env *environment, name string, recs ...collection.Record) []collection.Record {
	t.Helper()
	out := make([]collection.Record, 0, len(recs))
	for _, r := range recs {
		saved, err := env.collections.Save(env.ctx, name, r)
		require.NoError(t, err)
		out = append(out, saved)
	}
	return out
}

func TestShow_FullFormat(t *testing.T) {
	env := newTestEnv(t, nil)
	seedCollection(t, env, "Food",
		collection.Record{ID: "saved_1", Query: "ramen", HTML: "<p>Ichiran</p>", SourcesHTML: "<a href=\"https://x\">x</a>"},
	)

	cmd := &ShowCommand{Format: "full", globals: &GlobalFlags{}, env: env}
	cmd.Args.Collection = "Food"

	out := captureOutput(t, func() { require.NoError(t, cmd.Execute(nil)) })
	assert.Contains(t, out, "saved_1")
	assert.Contains(t, out, "Query:     ramen")
	assert.Contains(t, out, "--- Result ---\n<p>Ichiran</p>")
	assert.Contains(t, out, "--- Sources ---")
}

func TestShow_MarkdownFormat(t *testing.T) {
	env := newTestEnv(t, nil)
	seedCollection(t, env, "Food",
		collection.Record{Query: "ramen", HTML: "<h2>Best</h2><p>Try <strong>Ichiran</strong></p>", SourcesHTML: "<a href=\"https://example.com\">example</a>"},
	)

	cmd := &ShowCommand{Format: "md", globals: &GlobalFlags{}, env: env}
	cmd.Args.Collection = "Food"

	out := captureOutput(t, func() { require.NoError(t, cmd.Execute(nil)) })
	assert.Contains(t, out, "# ramen")
	assert.Contains(t, out, "## Best")
	assert.Contains(t, out, "**Ichiran**")
	assert.Contains(t, out, "## Sources")
	assert.Contains(t, out, "[example](https://example.com)")
	assert.NotContains(t, out, "<strong>")
}

func TestShow_RawFormat(t *testing.T) {
	env := newTestEnv(t, nil)
	seedCollection(t, env, "Food", collection.Record{Query: "ramen", HTML: "<p>raw</p>"})

	cmd := &ShowCommand{Format: "raw", globals: &GlobalFlags{}, env: env}
	cmd.Args.Collection = "Food"

	out := captureOutput(t, func() { require.NoError(t, cmd.Execute(nil)) })
	assert.Equal(t, "<p>raw</p>\n", out)
}

func TestShow_JSONKeepsMarkup(t *testing.T) {
	env := newTestEnv(t, nil)
	seedCollection(t, env, "Food",
		collection.Record{ID: "a", Query: "first", HTML: "<b>1</b>"},
		collection.Record{ID: "b", Query: "second", HTML: "<b>2</b>"},
	)

	cmd := &ShowCommand{Format: "json", globals: &GlobalFlags{}, env: env}
	cmd.Args.Collection = "Food"

	out := captureOutput(t, func() { require.NoError(t, cmd.Execute(nil)) })
	assert.Contains(t, out, "<b>2</b>")

	var recs []collection.Record
	require.NoError(t, json.Unmarshal([]byte(out), &recs))
	require.Len(t, recs, 2)
	assert.Equal(t, "b", recs[0].ID, "newest first")
	assert.Equal(t, "a", recs[1].ID)
}

func TestShow_FilterByIDAndLimit(t *testing.T) {
	env := newTestEnv(t, nil)
	seedCollection(t, env, "Food",
		collection.Record{ID: "a", Query: "first"},
		collection.Record{ID: "b", Query: "second"},
		collection.Record{ID: "c", Query: "third"},
	)

	cmd := &ShowCommand{Format: "full", ID: "b", globals: &GlobalFlags{}, env: env}
	cmd.Args.Collection = "Food"
	out := captureOutput(t, func() { require.NoError(t, cmd.Execute(nil)) })
	assert.Contains(t, out, "second")
	assert.NotContains(t, out, "first")

	cmd = &ShowCommand{Format: "full", Limit: 1, globals: &GlobalFlags{}, env: env}
	cmd.Args.Collection = "Food"
	out = captureOutput(t, func() { require.NoError(t, cmd.Execute(nil)) })
	assert.Contains(t, out, "third")
	assert.Equal(t, 1, strings.Count(out, "--- Result ---"))
}

func TestShow_Errors(t *testing.T) {
	env := newTestEnv(t, nil)
	seedCollection(t, env, "Food", collection.Record{ID: "a", Query: "q"})

	cmd := &ShowCommand{Format: "full", globals: &GlobalFlags{}, env: env}
	cmd.Args.Collection = "Nope"
	assert.ErrorContains(t, cmd.Execute(nil), "collection not found: Nope")

	cmd = &ShowCommand{Format: "full", ID: "zzz", globals: &GlobalFlags{}, env: env}
	cmd.Args.Collection = "Food"
	assert.ErrorContains(t, cmd.Execute(nil), "record zzz not found in Food")

	cmd = &ShowCommand{Format: "pdf", globals: &GlobalFlags{}, env: env}
	cmd.Args.Collection = "Food"
	assert.ErrorContains(t, cmd.Execute(nil), "invalid format")
}

func TestShow_EmptyCollection(t *testing.T) {
	env := newTestEnv(t, nil)
	seedCollection(t, env, "Food", collection.Record{ID: "a", Query: "q"})
	require.NoError(t, env.collections.Remove(env.ctx, "Food", "a"))

	cmd := &ShowCommand{Format: "full", globals: &GlobalFlags{}, env: env}
	cmd.Args.Collection = "Food"
	out := captureOutput(t, func() { require.NoError(t, cmd.Execute(nil)) })
	assert.Equal(t, "Food is empty.\n", out)
}

func TestToMarkdown_Table(t *testing.T) {
	conv := newMarkdownConverter()
	md := toMarkdown(conv, "<table><tr><th>Name</th></tr><tr><td>Ichiran</td></tr></table>")
	assert.Contains(t, md, "| Name")
	assert.Contains(t, md, "Ichiran")
}

func TestRemove_RecordAndDrop(t *testing.T) {
	env := newTestEnv(t, nil)
	seedCollection(t, env, "Food",
		collection.Record{ID: "a", Query: "first"},
		collection.Record{ID: "b", Query: "second"},
	)

	cmd := &RemoveCommand{ID: "a", globals: &GlobalFlags{}, env: env}
	cmd.Args.Collection = "Food"
	out := captureOutput(t, func() { require.NoError(t, cmd.Execute(nil)) })
	assert.Contains(t, out, "Removed a from Food.")

	recs, ok := env.collections.Get(env.ctx, "Food")
	require.True(t, ok)
	require.Len(t, recs, 1)
	assert.Equal(t, "b", recs[0].ID)

	cmd = &RemoveCommand{Drop: true, globals: &GlobalFlags{JSON: true}, env: env}
	cmd.Args.Collection = " Food "
	out = captureOutput(t, func() { require.NoError(t, cmd.Execute(nil)) })
	assert.JSONEq(t, `{"collection": "Food", "removed": true}`, out)

	_, ok = env.collections.Get(env.ctx, "Food")
	assert.False(t, ok)
}

func TestRemove_Errors(t *testing.T) {
	env := newTestEnv(t, nil)
	seedCollection(t, env, "Food", collection.Record{ID: "a", Query: "q"})

	cmd := &RemoveCommand{globals: &GlobalFlags{}, env: env}
	cmd.Args.Collection = "Food"
	assert.ErrorContains(t, cmd.Execute(nil), "requires --id or --drop")

	cmd = &RemoveCommand{ID: "a", Drop: true, globals: &GlobalFlags{}, env: env}
	cmd.Args.Collection = "Food"
	assert.ErrorContains(t, cmd.Execute(nil), "mutually exclusive")

	cmd = &RemoveCommand{ID: "zzz", globals: &GlobalFlags{}, env: env}
	cmd.Args.Collection = "Food"
	assert.ErrorContains(t, cmd.Execute(nil), "record zzz not found in Food")

	cmd = &RemoveCommand{Drop: true, globals: &GlobalFlags{}, env: env}
	cmd.Args.Collection = "Nope"
	assert.ErrorContains(t, cmd.Execute(nil), "collection not found: Nope")
}

func TestCollections_ListAndJSON(t *testing.T) {
	env := newTestEnv(t, nil)

	cmd := &CollectionsCommand{globals: &GlobalFlags{}, env: env}
	out := captureOutput(t, func() { require.NoError(t, cmd.Execute(nil)) })
	assert.Equal(t, "No collections yet.\n", out)

	seedCollection(t, env, "travel", collection.Record{Query: "a"})
	seedCollection(t, env, "Food", collection.Record{Query: "b"}, collection.Record{Query: "c"})

	out = captureOutput(t, func() { require.NoError(t, cmd.Execute(nil)) })
	assert.Less(t, strings.Index(out, "Food"), strings.Index(out, "travel"))
	assert.Contains(t, out, "2 collections, 3 saved results")

	cmd = &CollectionsCommand{globals: &GlobalFlags{JSON: true}, env: env}
	out = captureOutput(t, func() { require.NoError(t, cmd.Execute(nil)) })
	assert.JSONEq(t, `[{"name":"Food","count":2},{"name":"travel","count":1}]`, out)
}
