// Package collection persists user-curated collections of saved search
// results as a single JSON blob in a key-value store.
package collection

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Record is one saved query result. The JSON names are the persisted schema.
type Record struct {
	ID          string `json:"id"`
	Query       string `json:"query"`
	HTML        string `json:"html"`
	SourcesHTML string `json:"sourcesHtml"`
}

// QueryRef identifies a query for membership checks. Either field may be
// empty; an empty field never matches.
type QueryRef struct {
	ID    string `json:"id,omitempty"`
	Query string `json:"query,omitempty"`
}

// Matches reports whether rec is the query ref points at, by id or by exact
// query text.
func (ref QueryRef) Matches(rec Record) bool {
	return (ref.ID != "" && rec.ID == ref.ID) ||
		(ref.Query != "" && rec.Query == ref.Query)
}

// Collections maps a collection name to its records, newest first.
type Collections map[string][]Record

// Names returns the collection names sorted case-insensitively.
func (c Collections) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		if n := strings.Compare(strings.ToLower(a), strings.ToLower(b)); n != 0 {
			return n
		}
		return strings.Compare(a, b)
	})
	return names
}

// Contains reports whether the named collection holds a record matching ref.
func (c Collections) Contains(name string, ref QueryRef) bool {
	return slices.ContainsFunc(c[name], ref.Matches)
}

// Len returns the total number of records across all collections.
func (c Collections) Len() int {
	n := 0
	for _, recs := range c {
		n += len(recs)
	}
	return n
}

// NewID returns a time-ordered record id.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return "saved_" + uuid.NewString()
	}
	return "saved_" + id.String()
}

// truncate cuts s to at most max characters. max <= 0 means no limit.
func truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
