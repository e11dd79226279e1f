package storage

import "time"

// HistoryEntry is one search recorded in the local history log.
type HistoryEntry struct {
	ID          int64
	Query       string
	Source      string // data source the search ran against, e.g. "reddit"
	ResultCount int
	Timestamp   time.Time
}

// HistoryQuery defines filters for listing history entries.
type HistoryQuery struct {
	Query  string // substring match, case-insensitive for ASCII
	Source string
	Since  time.Time
	Until  time.Time
	Limit  int
	Offset int
}

// Stats holds aggregate statistics about the stacks database.
type Stats struct {
	TotalSearches int64
	OldestSearch  time.Time
	NewestSearch  time.Time
	TopSources    []SourceCount
	KVKeys        int64
	KVBytes       int64
}

// SourceCount pairs a history source with its entry count.
type SourceCount struct {
	Source string
	Count  int64
}
