package cli

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionFlag(t *testing.T) {
	var err error
	output := captureOutput(t, func() {
		err = RunWithArgs("0.1.0-test", []string{"--version"})
	})

	assert.NoError(t, err)
	assert.Contains(t, output, "stacks 0.1.0-test")
}

func TestVersionOutputFormat(t *testing.T) {
	output := captureOutput(t, func() {
		_ = RunWithArgs("1.2.3", []string{"--version"})
	})

	assert.Equal(t, "stacks 1.2.3", strings.TrimSpace(output))
}

func TestAllSubcommandsRegistered(t *testing.T) {
	parser, _, _ := buildParser("test")
	for _, name := range []string{"save", "pick", "collections", "show", "remove", "history", "status", "purge"} {
		assert.NotNil(t, parser.Find(name), name)
	}

	history := parser.Find("history")
	require.NotNil(t, history)
	for _, name := range []string{"add", "list", "trim", "clear"} {
		assert.NotNil(t, history.Find(name), "history "+name)
	}
}

func TestUnknownSubcommandErrors(t *testing.T) {
	err := RunWithArgs("test", []string{"bogus"})
	assert.Error(t, err)
}

func TestSaveRequiresQueryArgument(t *testing.T) {
	err := RunWithArgs("test", []string{"save"})
	assert.Error(t, err)
}

// TestEndToEnd_FileDatabase drives the parser against a temporary config
// and database file.
func TestEndToEnd_FileDatabase(t *testing.T) {
	dir := t.TempDir()
	base := []string{"--config", filepath.Join(dir, "config.yaml"), "--db-path", filepath.Join(dir, "stacks.db")}
	run := func(args ...string) (string, error) {
		var err error
		out := captureOutput(t, func() {
			err = RunWithArgs("test", append(append([]string{}, base...), args...))
		})
		return out, err
	}

	out, err := run("save", "--collection", "Food", "--result", "<p>Ichiran</p>", "ramen near me")
	require.NoError(t, err)
	assert.Contains(t, out, `"ramen near me" to Food`)

	out, err = run("collections")
	require.NoError(t, err)
	assert.Contains(t, out, "Food")
	assert.Contains(t, out, "1 collections, 1 saved results")

	out, err = run("show", "--format", "md", "Food")
	require.NoError(t, err)
	assert.Contains(t, out, "# ramen near me")
	assert.Contains(t, out, "Ichiran")
	assert.NotContains(t, out, "<p>")

	_, err = run("history", "add", "--source", "reddit", "ramen near me")
	require.NoError(t, err)

	out, err = run("history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "ramen near me")
	assert.Contains(t, out, "reddit")

	out, err = run("status")
	require.NoError(t, err)
	assert.Contains(t, out, "Collections:   1")
	assert.Contains(t, out, "Searches:      1")
}

func TestEndToEnd_MemoryIsThrowaway(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	var err error
	out := captureOutput(t, func() {
		err = RunWithArgs("test", []string{"--config", cfgPath, "--memory", "save", "q"})
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Default Collection")

	out = captureOutput(t, func() {
		err = RunWithArgs("test", []string{"--config", cfgPath, "--memory", "collections"})
	})
	require.NoError(t, err)
	assert.Contains(t, out, "No collections yet.")
}

func TestParseDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"30d": 30 * 24 * time.Hour,
		"24h": 24 * time.Hour,
		"2w":  14 * 24 * time.Hour,
		"15m": 15 * time.Minute,
	}
	for in, want := range cases {
		got, err := parseDuration(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "d", "xd", "10y"} {
		_, err := parseDuration(bad)
		assert.Error(t, err, bad)
	}
}

func TestFormatDurationHuman(t *testing.T) {
	assert.Equal(t, "1 day", formatDurationHuman(24*time.Hour))
	assert.Equal(t, "7 days", formatDurationHuman(7*24*time.Hour))
	assert.Equal(t, "3 hours", formatDurationHuman(3*time.Hour))
	assert.Equal(t, "1 hour", formatDurationHuman(time.Hour))
	assert.Equal(t, "30m0s", formatDurationHuman(30*time.Minute))
}

func TestReadContent(t *testing.T) {
	got, err := readContent("inline", "", "result")
	require.NoError(t, err)
	assert.Equal(t, "inline", got)

	_, err = readContent("inline", "file.html", "result")
	assert.ErrorContains(t, err, "mutually exclusive")

	_, err = readContent("", filepath.Join(t.TempDir(), "missing.html"), "result")
	assert.Error(t, err)
}
