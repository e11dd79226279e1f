package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/runnerr0/stacks/internal/collection"
)

// Execute implements the go-flags Commander interface for RemoveCommand.
func (c *RemoveCommand) Execute(args []string) error {
	if c.ID == "" && !c.Drop {
		return fmt.Errorf("remove requires --id or --drop")
	}
	if c.ID != "" && c.Drop {
		return fmt.Errorf("--id and --drop are mutually exclusive")
	}

	env, done, err := useEnvironment(c.globals, c.env)
	if err != nil {
		return err
	}
	defer done()

	return c.executeWithEnv(env)
}

func (c *RemoveCommand) executeWithEnv(env *environment) error {
	name := strings.TrimSpace(c.Args.Collection)

	var err error
	if c.Drop {
		err = env.collections.Drop(env.ctx, name)
	} else {
		err = env.collections.Remove(env.ctx, name, c.ID)
	}
	if errors.Is(err, collection.ErrNotFound) {
		if c.Drop {
			return fmt.Errorf("collection not found: %s", name)
		}
		return fmt.Errorf("record %s not found in %s", c.ID, name)
	}
	if err != nil {
		return fmt.Errorf("remove failed: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		out := map[string]interface{}{
			"collection": name,
			"removed":    true,
		}
		if !c.Drop {
			out["id"] = c.ID
		}
		return json.NewEncoder(os.Stdout).Encode(out)
	}

	if c.Drop {
		fmt.Printf("Deleted collection %s.\n", name)
	} else {
		fmt.Printf("Removed %s from %s.\n", c.ID, name)
	}
	return nil
}
