package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/runnerr0/stacks/internal/picker"
	"github.com/runnerr0/stacks/internal/tui"
)

// pickerRunner drives an open picker until it leaves the open state.
type pickerRunner func(ctx context.Context, p *picker.Picker, pointer *picker.Pointer) error

func runTerminalPicker(ctx context.Context, p *picker.Picker, pointer *picker.Pointer) error {
	return tui.RunPicker(ctx, p, pointer, tui.NewTheme())
}

// Execute implements the go-flags Commander interface for PickCommand.
func (c *PickCommand) Execute(args []string) error {
	if strings.TrimSpace(c.Args.Query) == "" {
		return fmt.Errorf("a non-empty query is required for pick command")
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

// executeWithEnv opens the picker, runs it, and reports the outcome.
func (c *PickCommand) executeWithEnv(env *environment, result, sources string) error {
	run := c.run
	if run == nil {
		run = runTerminalPicker
	}

	svc := env.service()
	trigger := picker.NewButton("pick", picker.SaveLabel).WithSaveID(c.SaveID)
	p := svc.SaveViaPicker(env.ctx, c.Args.Query, result, trigger, sources)
	if p == nil {
		return errSaveFailed
	}

	if err := run(env.ctx, p, svc.Host().Pointer()); err != nil {
		return err
	}
	// A runner that returns early leaves no picker behind.
	p.Close()

	switch {
	case p.State() == picker.StateDismissed:
		if c.globals != nil && c.globals.JSON {
			fmt.Println(`{"saved": false}`)
			return nil
		}
		fmt.Println("Closed without saving.")
		return nil
	case !trigger.Saved():
		return errSaveFailed
	}

	return printSaved(env, p.Selection(), c.globals != nil && c.globals.JSON)
}
