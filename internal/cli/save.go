package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/runnerr0/stacks/internal/collection"
	"github.com/runnerr0/stacks/internal/picker"
)

var errSaveFailed = errors.New("save failed")

// savedRecordJSON is the JSON output for save and pick.
type savedRecordJSON struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
	Query      string `json:"query"`
	HTMLChars  int    `json:"html_chars"`
	Size       int    `json:"collection_size"`
}

// Execute implements the go-flags Commander interface for SaveCommand.
func (c *SaveCommand) Execute(args []string) error {
	if strings.TrimSpace(c.Args.Query) == "" {
		return fmt.Errorf("a non-empty query is required for save command")
	}

	result, err := readContent(c.Result, c.ResultFile, "result")
	if err != nil {
		return err
	}
	sources, err := readContent(c.Sources, c.SourcesFile, "sources")
	if err != nil {
		return err
	}

	env, done, err := useEnvironment(c.globals, c.env)
	if err != nil {
		return err
	}
	defer done()

	return c.executeWithEnv(env, result, sources)
}

// executeWithEnv runs the save against a prepared environment.
func (c *SaveCommand) executeWithEnv(env *environment, result, sources string) error {
	trigger := picker.NewButton("save", picker.SaveLabel)
	if !env.service().SaveToCollection(env.ctx, c.Args.Query, result, trigger, sources, c.Collection) {
		return errSaveFailed
	}

	name := resolveCollectionName(env, c.Collection)
	return printSaved(env, name, c.globals != nil && c.globals.JSON)
}

// resolveCollectionName mirrors how the store names a save target.
func resolveCollectionName(env *environment, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return env.collections.Options().DefaultName
	}
	return name
}

// printSaved reports the newest record of the collection just saved into.
func printSaved(env *environment, name string, asJSON bool) error {
	recs, ok := env.collections.Get(env.ctx, name)
	if !ok || len(recs) == 0 {
		return fmt.Errorf("collection %q: %w", name, collection.ErrNotFound)
	}
	rec := recs[0]

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(savedRecordJSON{
			Collection: name,
			ID:         rec.ID,
			Query:      rec.Query,
			HTMLChars:  len([]rune(rec.HTML)),
			Size:       len(recs),
		})
	}

	fmt.Printf("%s %q to %s\n", picker.SavedLabel, rec.Query, name)
	fmt.Printf("  ID: %s\n", rec.ID)
	fmt.Printf("  Items in collection: %d\n", len(recs))
	return nil
}
