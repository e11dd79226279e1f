package picker

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrClosed is returned when acting on a picker that is no longer open.
	ErrClosed = errors.New("picker closed")
	// ErrRowDisabled is returned when choosing a collection that already
	// holds the query.
	ErrRowDisabled = errors.New("collection already contains this query")
	// ErrUnknownRow is returned when choosing a name the popup does not list.
	ErrUnknownRow = errors.New("no such collection in picker")
)

// State is the lifecycle position of a Picker.
type State int

const (
	StateOpen State = iota
	StateChosen
	StateSubmitted
	StateDismissed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateChosen:
		return "chosen"
	case StateSubmitted:
		return "submitted"
	case StateDismissed:
		return "dismissed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Picker is one open popup. Every state other than StateOpen is terminal.
// A Picker is driven from a single goroutine.
type Picker struct {
	id       string
	trigger  *Button
	view     View
	onSelect func(name string)

	state     State
	selection string
	sub       *Subscription
	host      *Host
}

// ID identifies the popup in pointer targets.
func (p *Picker) ID() string { return p.id }

// View returns what the popup shows.
func (p *Picker) View() View { return p.view }

// Trigger returns the button the popup is anchored to, possibly nil.
func (p *Picker) Trigger() *Button { return p.trigger }

// State returns the current state.
func (p *Picker) State() State { return p.state }

// IsOpen reports whether the popup is still showing.
func (p *Picker) IsOpen() bool { return p.state == StateOpen }

// Selection returns the collection name handed to the callback, empty if
// the picker was dismissed or is still open.
func (p *Picker) Selection() string { return p.selection }

// Choose selects an existing, enabled collection row.
func (p *Picker) Choose(name string) error {
	if !p.IsOpen() {
		return ErrClosed
	}
	row, ok := p.view.Row(name)
	if !ok {
		return fmt.Errorf("%q: %w", name, ErrUnknownRow)
	}
	if row.Disabled {
		return fmt.Errorf("%q: %w", name, ErrRowDisabled)
	}
	p.finish(StateChosen, name)
	return nil
}

// Submit handles the create action. The input is trimmed; blank input is
// ignored and the picker stays open. Submitting an existing name selects
// that collection.
func (p *Picker) Submit(input string) bool {
	name := strings.TrimSpace(input)
	if name == "" || !p.IsOpen() {
		return false
	}
	p.finish(StateSubmitted, name)
	return true
}

// Close dismisses the picker without a selection.
func (p *Picker) Close() {
	if p.IsOpen() {
		p.finish(StateDismissed, "")
	}
}

// PointerDown dismisses on a pointer-down outside the popup that is not
// on the trigger.
func (p *Picker) PointerDown(t Target) {
	if !p.IsOpen() {
		return
	}
	if t.Popup == p.id {
		return
	}
	if p.trigger != nil && t.Element != "" && t.Element == p.trigger.ID() {
		return
	}
	p.Close()
}

// finish closes the popup before the callback runs, so a callback that
// reopens the picker starts from a clean host.
func (p *Picker) finish(state State, selection string) {
	p.state = state
	p.selection = selection
	p.sub.Unsubscribe()
	p.host.release(p)

	if selection != "" && p.onSelect != nil {
		p.onSelect(selection)
	}
}

// Host owns the single open picker and the pointer source it listens to.
// It is driven from a single goroutine.
type Host struct {
	pointer *Pointer
	current *Picker
	seq     int
}

// NewHost creates a Host. A nil pointer gets a private Pointer.
func NewHost(pointer *Pointer) *Host {
	if pointer == nil {
		pointer = NewPointer()
	}
	return &Host{pointer: pointer}
}

// Pointer returns the event source pickers subscribe to.
func (h *Host) Pointer() *Pointer { return h.pointer }

// Current returns the open picker, or nil.
func (h *Host) Current() *Picker { return h.current }

// Open shows a new picker anchored to trigger, dismissing any picker that
// is already open. onSelect receives the chosen or created name.
func (h *Host) Open(trigger *Button, view View, onSelect func(name string)) *Picker {
	if h.current != nil {
		h.current.Close()
	}

	h.seq++
	p := &Picker{
		id:       fmt.Sprintf("collection-picker-%d", h.seq),
		trigger:  trigger,
		view:     view,
		onSelect: onSelect,
		state:    StateOpen,
		host:     h,
	}
	p.sub = h.pointer.Subscribe(p.PointerDown)
	h.current = p
	return p
}

func (h *Host) release(p *Picker) {
	if h.current == p {
		h.current = nil
	}
}
