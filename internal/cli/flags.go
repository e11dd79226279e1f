package cli

import "io"

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file" default:""`
	DBPath  string `long:"db-path" description:"Override database path"`
	Memory  bool   `long:"memory" description:"Use throwaway in-memory storage"`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable verbose output"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// SaveCommand saves a query result straight into a collection.
type SaveCommand struct {
	Collection  string `long:"collection" short:"c" description:"Collection name (default collection when empty)"`
	Result      string `long:"result" description:"Inline result HTML"`
	ResultFile  string `long:"result-file" description:"Path to file containing result HTML"`
	Sources     string `long:"sources" description:"Inline sources HTML"`
	SourcesFile string `long:"sources-file" description:"Path to file containing sources HTML"`

	Args struct {
		Query string `positional-arg-name:"query" required:"yes"`
	} `positional-args:"yes"`

	globals *GlobalFlags
	env     *environment // injectable for testing; nil means open from config
}

// PickCommand opens the interactive collection picker and saves into the
// chosen collection.
type PickCommand struct {
	Result      string `long:"result" description:"Inline result HTML"`
	ResultFile  string `long:"result-file" description:"Path to file containing result HTML"`
	Sources     string `long:"sources" description:"Inline sources HTML"`
	SourcesFile string `long:"sources-file" description:"Path to file containing sources HTML"`
	SaveID      string `long:"save-id" description:"Record id to save under and match against"`

	Args struct {
		Query string `positional-arg-name:"query" required:"yes"`
	} `positional-args:"yes"`

	globals *GlobalFlags
	env     *environment
	run     pickerRunner // injectable for testing; nil runs the terminal UI
}

// CollectionsCommand lists collection names with their record counts.
type CollectionsCommand struct {
	globals *GlobalFlags
	env     *environment
}

// ShowCommand prints the records of one collection.
type ShowCommand struct {
	ID     string `long:"id" description:"Only the record with this id"`
	Format string `long:"format" description:"Output format: full | md | raw | json" default:"full"`
	Limit  int    `long:"limit" description:"Maximum records (0 = all)" default:"0"`

	Args struct {
		Collection string `positional-arg-name:"collection" required:"yes"`
	} `positional-args:"yes"`

	globals *GlobalFlags
	env     *environment
}

// RemoveCommand deletes one record, or with --drop a whole collection.
type RemoveCommand struct {
	ID   string `long:"id" description:"Record id to remove"`
	Drop bool   `long:"drop" description:"Delete the whole collection"`

	Args struct {
		Collection string `positional-arg-name:"collection" required:"yes"`
	} `positional-args:"yes"`

	globals *GlobalFlags
	env     *environment
}

// HistoryCommand groups the search-history subcommands.
type HistoryCommand struct{}

// HistoryAddCommand records a search.
type HistoryAddCommand struct {
	Source  string `long:"source" description:"Where the search ran"`
	Results int    `long:"results" description:"Number of results returned" default:"0"`

	Args struct {
		Query string `positional-arg-name:"query" required:"yes"`
	} `positional-args:"yes"`

	globals *GlobalFlags
	env     *environment
}

// HistoryListCommand lists searches, newest first.
type HistoryListCommand struct {
	Query  string `long:"query" short:"q" description:"Only searches containing this text"`
	Source string `long:"source" description:"Only searches from this source"`
	Since  string `long:"since" description:"Only searches newer than duration (e.g., 7d, 24h, 2w)"`
	Limit  int    `long:"limit" description:"Maximum results" default:"50"`
	Offset int    `long:"offset" description:"Skip first N results" default:"0"`

	globals *GlobalFlags
	env     *environment
}

// HistoryTrimCommand keeps only the newest searches.
type HistoryTrimCommand struct {
	Keep   int  `long:"keep" description:"Searches to keep (default from config)" default:"-1"`
	DryRun bool `long:"dry-run" description:"Show what would be trimmed without deleting"`

	globals *GlobalFlags
	env     *environment
}

// HistoryClearCommand deletes every search.
type HistoryClearCommand struct {
	Force bool `long:"force" description:"Required to confirm clearing"`

	globals *GlobalFlags
	env     *environment
}

// StatusCommand shows storage usage and statistics.
type StatusCommand struct {
	globals *GlobalFlags
	version string
	env     *environment
}

// PurgeCommand deletes ALL stacks data with safety confirmation.
type PurgeCommand struct {
	All   bool `long:"all" description:"Required flag to confirm purge intent"`
	Force bool `long:"force" description:"Skip safety confirmation prompt"`

	globals *GlobalFlags
	env     *environment
	in      io.Reader // injectable for testing; nil means os.Stdin
}
