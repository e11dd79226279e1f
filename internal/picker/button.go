package picker

import (
	"sync"
	"time"
)

// Trigger labels.
const (
	SavedLabel = "✅ Saved"
	SaveLabel  = "🔖 Save to Stacks"

	// DefaultConfirmDelay is how long a trigger shows the saved state.
	DefaultConfirmDelay = 3 * time.Second
)

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

type timerScheduler struct{}

func (timerScheduler) AfterFunc(d time.Duration, f func()) { time.AfterFunc(d, f) }

// Button is the trigger element a picker is anchored to. Its state may be
// read from any goroutine; the revert runs on the scheduler's goroutine.
type Button struct {
	mu       sync.Mutex
	id       string
	label    string
	original string
	saveID   string
	disabled bool
	saved    bool
	detached bool
	sched    Scheduler
}

// NewButton creates an enabled trigger with the given id and label.
func NewButton(id, label string) *Button {
	return &Button{id: id, label: label, sched: timerScheduler{}}
}

// WithSaveID attaches the id of an already-saved record, used for
// membership checks.
func (b *Button) WithSaveID(id string) *Button {
	b.saveID = id
	return b
}

// WithScheduler replaces the timer used for the revert.
func (b *Button) WithScheduler(s Scheduler) *Button {
	b.sched = s
	return b
}

// ID returns the element id pointer targets use to name the button.
func (b *Button) ID() string { return b.id }

// SaveID returns the id of the record the button saves, empty if unset.
func (b *Button) SaveID() string { return b.saveID }

// Label returns the text the button currently shows.
func (b *Button) Label() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.label
}

// Disabled reports whether the button rejects saves, which it does while
// showing the saved confirmation.
func (b *Button) Disabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.disabled
}

// Saved reports whether the button currently shows the saved confirmation.
func (b *Button) Saved() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.saved
}

// Confirm shows the saved state and disables the button, then restores the
// original label after delay. Callers check Disabled first; a second Confirm
// while saved keeps the original label and schedules another revert.
func (b *Button) Confirm(delay time.Duration) {
	if delay <= 0 {
		delay = DefaultConfirmDelay
	}

	b.mu.Lock()
	if !b.saved {
		b.original = b.label
	}
	b.label = SavedLabel
	b.disabled = true
	b.saved = true
	sched := b.sched
	b.mu.Unlock()

	sched.AfterFunc(delay, b.revert)
}

// Detach marks the button as removed from the page; a pending revert
// becomes a no-op.
func (b *Button) Detach() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.detached = true
}

func (b *Button) revert() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.detached || !b.saved {
		return
	}
	b.label = b.original
	b.disabled = false
	b.saved = false
}
