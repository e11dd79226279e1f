package config

// DefaultConfig returns a Config populated with all default values.
//
// The collection limits (max_items, max_result_chars, max_sources_chars)
// must be at least 1; there is no unlimited setting. quota_bytes and
// history.max_entries accept 0 to turn the limit off.
func DefaultConfig() *Config {
	return &Config{
		Collections: CollectionsConfig{
			StorageKey:      "radargpt_saved_queries",
			DefaultName:     "Default Collection",
			MaxItems:        20,
			MaxResultChars:  10000,
			MaxSourcesChars: 5000,
			ConfirmSeconds:  3,
			QuotaBytes:      5 << 20,
		},
		History: HistoryConfig{
			MaxEntries: 50,
			AutoTrim:   true,
		},
		Storage: StorageConfig{
			Path:              "~/.config/stacks",
			SQLiteFile:        "stacks.db",
			SQLiteJournalMode: "wal",
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}
