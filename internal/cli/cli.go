package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Save         *SaveCommand
	Pick         *PickCommand
	Collections  *CollectionsCommand
	Show         *ShowCommand
	Remove       *RemoveCommand
	History      *HistoryCommand
	HistoryAdd   *HistoryAddCommand
	HistoryList  *HistoryListCommand
	HistoryTrim  *HistoryTrimCommand
	HistoryClear *HistoryClearCommand
	Status       *StatusCommand
	Purge        *PurgeCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "stacks"
	parser.LongDescription = "Save search results into named collections and keep a local search history."

	cmds := &commands{
		Save:         &SaveCommand{globals: &globals},
		Pick:         &PickCommand{globals: &globals},
		Collections:  &CollectionsCommand{globals: &globals},
		Show:         &ShowCommand{globals: &globals},
		Remove:       &RemoveCommand{globals: &globals},
		History:      &HistoryCommand{},
		HistoryAdd:   &HistoryAddCommand{globals: &globals},
		HistoryList:  &HistoryListCommand{globals: &globals},
		HistoryTrim:  &HistoryTrimCommand{globals: &globals},
		HistoryClear: &HistoryClearCommand{globals: &globals},
		Status:       &StatusCommand{globals: &globals, version: version},
		Purge:        &PurgeCommand{globals: &globals},
	}

	parser.AddCommand("save", "Save a query result to a collection", "Save a query and its rendered result straight into a collection.", cmds.Save)
	parser.AddCommand("pick", "Choose a collection interactively", "Open the collection picker and save the query into the chosen or newly created collection.", cmds.Pick)
	parser.AddCommand("collections", "List collections", "List every collection with its number of saved results.", cmds.Collections)
	parser.AddCommand("show", "Print the saved results of a collection", "Print the saved results of a collection, newest first.", cmds.Show)
	parser.AddCommand("remove", "Remove a saved result or collection", "Remove one saved result by id, or a whole collection with --drop.", cmds.Remove)

	history, _ := parser.AddCommand("history", "Manage search history", "Record, list and trim the local search history.", cmds.History)
	history.AddCommand("add", "Record a search", "Record a search in the history.", cmds.HistoryAdd)
	history.AddCommand("list", "List searches", "List recorded searches, newest first, with optional filters.", cmds.HistoryList)
	history.AddCommand("trim", "Keep only the newest searches", "Delete all but the newest searches.", cmds.HistoryTrim)
	history.AddCommand("clear", "Delete all searches", "Delete every recorded search.", cmds.HistoryClear)

	parser.AddCommand("status", "Show storage usage and statistics", "Show collection and history statistics, storage quota usage and configuration summary.", cmds.Status)
	parser.AddCommand("purge", "Delete ALL stacks data", "Delete ALL stacks data. Destructive operation with safety prompt.", cmds.Purge)

	return parser, &globals, cmds
}

// Run is the main entry point for the stacks CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// Handle --version before parser (go-flags requires a subcommand, but
	// --version is valid without one).
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("stacks %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
