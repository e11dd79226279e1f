// Package picker models the "choose a collection" popup as plain data: a
// view built from the stored collections, a state machine that decides
// what the selection callback receives, and an explicit pointer
// subscription for outside-click dismissal. Rendering is left to a host
// (see internal/tui).
package picker

import "github.com/runnerr0/stacks/internal/collection"

// Popup text.
const (
	Title       = "📁 Choose a collection:"
	Placeholder = "New collection name"
	CreateLabel = "➕ Create & Save"
	CloseLabel  = "×"
	AddedLabel  = "Added"
)

// Row is one existing collection in the popup.
type Row struct {
	Name string
	// Added marks a collection that already holds the current query. Added
	// rows are disabled.
	Added    bool
	Disabled bool
}

// View describes everything the popup shows.
type View struct {
	Title       string
	Rows        []Row
	Placeholder string
	CreateLabel string
	CloseLabel  string
}

// BuildView lists every collection in cols, marking those that already
// contain ref. A nil ref marks nothing.
func BuildView(cols collection.Collections, ref *collection.QueryRef) View {
	names := cols.Names()
	rows := make([]Row, 0, len(names))
	for _, name := range names {
		added := ref != nil && cols.Contains(name, *ref)
		rows = append(rows, Row{Name: name, Added: added, Disabled: added})
	}
	return View{
		Title:       Title,
		Rows:        rows,
		Placeholder: Placeholder,
		CreateLabel: CreateLabel,
		CloseLabel:  CloseLabel,
	}
}

// Row looks up a row by collection name.
func (v View) Row(name string) (Row, bool) {
	for _, r := range v.Rows {
		if r.Name == name {
			return r, true
		}
	}
	return Row{}, false
}

// Enabled returns the indexes of rows that can be chosen.
func (v View) Enabled() []int {
	var idx []int
	for i, r := range v.Rows {
		if !r.Disabled {
			idx = append(idx, i)
		}
	}
	return idx
}
