package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/runnerr0/stacks/internal/picker"
)

// OutsideElement is the pointer target used for presses that land outside
// the popup and for esc.
const OutsideElement = "screen"

// PickerModel is the Bubble Tea model that renders a picker.Picker and
// feeds it key and mouse input. It quits once the picker leaves the open
// state.
type PickerModel struct {
	ctx     context.Context
	picker  *picker.Picker
	pointer *picker.Pointer

	input        textinput.Model
	inputFocused bool
	enabled      []int
	cursor       int

	keys  KeyMap
	help  help.Model
	theme *Theme
}

// NewPickerModel wraps p. Presses outside the popup are dispatched through
// pointer so every subscriber sees them; a nil pointer delivers straight
// to p.
func NewPickerModel(p *picker.Picker, pointer *picker.Pointer, theme *Theme) PickerModel {
	if theme == nil {
		theme = NewTheme()
	}
	view := p.View()

	m := PickerModel{
		ctx:     context.Background(),
		picker:  p,
		pointer: pointer,
		input:   NewNameInput(theme, view.Placeholder),
		enabled: view.Enabled(),
		keys:    DefaultKeyMap(),
		help:    NewStyledHelp(theme),
		theme:   theme,
	}
	if len(m.enabled) == 0 {
		m.focusInput()
	}
	return m
}

// Picker returns the wrapped picker.
func (m PickerModel) Picker() *picker.Picker { return m.picker }

// InputFocused reports whether keystrokes go to the name input.
func (m PickerModel) InputFocused() bool { return m.inputFocused }

// Highlighted returns the collection the cursor is on, empty when the list
// is not focused or has no enabled rows.
func (m PickerModel) Highlighted() string {
	if m.inputFocused || len(m.enabled) == 0 {
		return ""
	}
	return m.picker.View().Rows[m.enabled[m.cursor]].Name
}

// Init implements tea.Model.
func (m PickerModel) Init() tea.Cmd {
	if m.inputFocused {
		return textinput.Blink
	}
	return nil
}

// Update implements tea.Model.
func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if !m.picker.IsOpen() {
		return m, tea.Quit
	}

	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			cmd = m.handlePress(msg.X, msg.Y)
		}

	case tea.KeyMsg:
		cmd = m.handleKey(msg)
	}

	if !m.picker.IsOpen() {
		return m, tea.Quit
	}
	return m, cmd
}

func (m *PickerModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.pointerDown(picker.Target{Element: OutsideElement})
		return nil

	case key.Matches(msg, m.keys.Focus):
		if m.inputFocused && len(m.enabled) > 0 {
			m.input.Blur()
			m.inputFocused = false
			return nil
		}
		return m.focusInput()

	case key.Matches(msg, m.keys.Select):
		if m.inputFocused {
			m.picker.Submit(m.input.Value())
			return nil
		}
		if name := m.Highlighted(); name != "" {
			m.choose(name)
		}
		return nil
	}

	if m.inputFocused {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return cmd
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.enabled)-1 {
			m.cursor++
		}
	}
	return nil
}

func (m *PickerModel) focusInput() tea.Cmd {
	m.inputFocused = true
	return m.input.Focus()
}

// handlePress acts on a left press at terminal cell (x, y). The popup is
// drawn at the top-left corner, so anything past its rendered box is
// outside.
func (m *PickerModel) handlePress(x, y int) tea.Cmd {
	l := m.layout()
	switch {
	case !l.contains(x, y):
		m.pointerDown(picker.Target{Element: OutsideElement})
	case y == l.closeY && x >= l.closeX && x < l.closeX+l.closeW:
		m.picker.Close()
	case y >= l.rowsY && y < l.rowsY+len(l.rows):
		m.choose(l.rows[y-l.rowsY])
	case y == l.createY && x >= l.left && x < l.left+l.createW:
		if !m.picker.Submit(m.input.Value()) {
			return m.focusInput()
		}
	default:
		m.pointerDown(picker.Target{Popup: m.picker.ID()})
	}
	return nil
}

// choose selects name, logging a rejected row instead of failing.
func (m *PickerModel) choose(name string) {
	if err := m.picker.Choose(name); err != nil {
		zerolog.Ctx(m.ctx).Debug().Err(err).Str("collection", name).Msg("collection not chosen")
	}
}

func (m PickerModel) pointerDown(t picker.Target) {
	if m.pointer != nil {
		m.pointer.Dispatch(t)
		return
	}
	m.picker.PointerDown(t)
}

// layout records where the clickable parts of a rendered popup sit, in
// terminal cells.
type layout struct {
	box string

	left, top     int
	width, height int

	closeX, closeY, closeW int

	// rows holds the collection name on each line from rowsY down.
	rows  []string
	rowsY int

	createY, createW int
}

func (l layout) contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < l.width && y < l.height
}

// layout renders the popup and measures it.
func (m PickerModel) layout() layout {
	view := m.picker.View()
	t := m.theme

	title := t.Title.Render(view.Title)
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		title,
		"  ",
		t.Subtle.Render(view.CloseLabel),
	)

	var rows, names []string
	highlighted := -1
	if !m.inputFocused && len(m.enabled) > 0 {
		highlighted = m.enabled[m.cursor]
	}
	for i, row := range view.Rows {
		switch {
		case row.Disabled:
			rows = append(rows, t.ListItemDisabled.Render(row.Name)+" "+t.Badge.Render(picker.AddedLabel))
		case i == highlighted:
			rows = append(rows, t.ListItemSelected.Render(row.Name))
		default:
			rows = append(rows, t.ListItem.Render(row.Name))
		}
		names = append(names, row.Name)
	}
	rowLines := len(rows)
	if rowLines == 0 {
		rows = append(rows, t.Subtle.Render("No collections yet"))
		rowLines = 1
	}

	inputStyle, buttonStyle := t.Input, t.Button
	if m.inputFocused {
		inputStyle, buttonStyle = t.InputFocused, t.ButtonFocused
	}
	input := inputStyle.Render(m.input.View())
	create := buttonStyle.Render(view.CreateLabel)

	body := lipgloss.JoinVertical(lipgloss.Left,
		header,
		strings.Join(rows, "\n"),
		"",
		input,
		create,
		"",
		m.help.View(m.keys),
	)
	box := t.Box.Render(body)

	l := layout{
		box:    box,
		left:   t.Box.GetMarginLeft() + t.Box.GetBorderLeftSize() + t.Box.GetPaddingLeft(),
		top:    t.Box.GetMarginTop() + t.Box.GetBorderTopSize() + t.Box.GetPaddingTop(),
		width:  lipgloss.Width(box),
		height: lipgloss.Height(box),
		closeW: lipgloss.Width(view.CloseLabel),
		rows:   names,
	}
	l.closeX = l.left + lipgloss.Width(title) + 2
	l.closeY = l.top
	l.rowsY = l.top + lipgloss.Height(header)
	l.createY = l.rowsY + rowLines + 1 + lipgloss.Height(input)
	l.createW = lipgloss.Width(create)
	return l
}

// View implements tea.Model.
func (m PickerModel) View() string {
	if !m.picker.IsOpen() {
		return ""
	}
	return m.layout().box
}

// RunPicker runs p as a terminal program until it is chosen, submitted or
// dismissed. A picker still open when the program ends (context cancelled,
// program killed) is closed.
func RunPicker(ctx context.Context, p *picker.Picker, pointer *picker.Pointer, theme *Theme, opts ...tea.ProgramOption) error {
	defer p.Close()

	m := NewPickerModel(p, pointer, theme)
	m.ctx = ctx

	opts = append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithMouseCellMotion()}, opts...)
	if _, err := tea.NewProgram(m, opts...).Run(); err != nil {
		return fmt.Errorf("run picker: %w", err)
	}
	return nil
}
