package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/runnerr0/stacks/internal/storage"
)

// Execute implements the go-flags Commander interface for PurgeCommand.
func (c *PurgeCommand) Execute(args []string) error {
	if !c.All {
		return fmt.Errorf("purge requires --all flag for safety")
	}

	// Confirmation prompt unless --force
	if !c.Force {
		if err := c.confirm(); err != nil {
			return err
		}
	}

	env, done, err := useEnvironment(c.globals, c.env)
	if err != nil {
		return err
	}
	defer done()

	return c.executeWithEnv(env)
}

func (c *PurgeCommand) confirm() error {
	fmt.Println("⚠ WARNING: This will permanently delete ALL stacks data.")
	fmt.Println("  - All collections and saved results")
	fmt.Println("  - All search history")
	fmt.Println()
	fmt.Println("This action cannot be undone.")
	fmt.Println()
	fmt.Print(`Type "PURGE" to confirm: `)

	var in io.Reader = os.Stdin
	if c.in != nil {
		in = c.in
	}
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return fmt.Errorf("aborted: no input received")
	}
	input := strings.TrimSpace(scanner.Text())
	if input != "PURGE" {
		return fmt.Errorf("aborted: confirmation text did not match")
	}
	return nil
}

func (c *PurgeCommand) executeWithEnv(env *environment) error {
	if err := env.history.PurgeAll(env.ctx); err != nil {
		return fmt.Errorf("purge failed: %w", err)
	}
	// PurgeAll empties the kv table; a memory-backed kv needs its own delete.
	err := env.kv.Delete(env.ctx, env.collections.Options().Key)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("purge failed: %w", err)
	}

	// Output
	if c.globals != nil && c.globals.JSON {
		out := map[string]interface{}{
			"purged":  true,
			"message": "all data deleted",
		}
		enc := json.NewEncoder(os.Stdout)
		return enc.Encode(out)
	}

	fmt.Println("Purged all data. Stacks is empty.")
	return nil
}
