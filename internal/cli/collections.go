package cli

import (
	"encoding/json"
	"fmt"
	"os"
)

type collectionJSON struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Execute implements the go-flags Commander interface for CollectionsCommand.
func (c *CollectionsCommand) Execute(args []string) error {
	env, done, err := useEnvironment(c.globals, c.env)
	if err != nil {
		return err
	}
	defer done()

	return c.executeWithEnv(env)
}

func (c *CollectionsCommand) executeWithEnv(env *environment) error {
	cols := env.collections.Load(env.ctx)
	names := cols.Names()

	if c.globals != nil && c.globals.JSON {
		out := make([]collectionJSON, len(names))
		for i, name := range names {
			out[i] = collectionJSON{Name: name, Count: len(cols[name])}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(names) == 0 {
		fmt.Println("No collections yet.")
		return nil
	}

	for _, name := range names {
		fmt.Printf("  %-30s %d\n", name, len(cols[name]))
	}
	fmt.Printf("\n%d collections, %d saved results\n", len(names), cols.Len())
	return nil
}
