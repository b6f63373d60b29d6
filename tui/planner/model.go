// Package planner is the terminal plan-trip screen. It has no state of its
// own beyond input buffers: the draft lives in the workflow planner and the
// selection in the store.
package planner

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/grovetools/areatrip/internal/panel"
	"github.com/grovetools/areatrip/internal/store"
	"github.com/grovetools/areatrip/internal/workflow"
	"github.com/grovetools/areatrip/pkg/models"
	"github.com/grovetools/areatrip/tui/theme"
)

// DateLayout is the date format typed into the form.
const DateLayout = "2006-01-02"

const (
	focusAreas = iota
	focusName
	focusDate
	focusNote
	focusCount
)

// Selector picks the area to plan for.
type Selector interface {
	Select(area models.ClickedArea)
}

type stateMsg struct{}

type submittedMsg struct {
	id  string
	err error
}

// Model is the bubbletea model of the plan-trip screen.
type Model struct {
	store   *store.Store
	planner *workflow.Planner
	sel     Selector
	theme   *theme.Theme
	keys    KeyMap
	help    help.Model

	changed     chan struct{}
	stop        chan struct{}
	closeOnce   sync.Once
	unsubscribe func()
	state       store.State

	inputs     [focusCount]textinput.Model
	focus      int
	cursor     int
	menuCursor int
	width      int
	submitting bool
	err        error
	savedID    string
	done       bool
}

// New creates the screen and starts following the store.
func New(st *store.Store, pl *workflow.Planner, sel Selector) *Model {
	m := &Model{
		store:   st,
		planner: pl,
		sel:     sel,
		theme:   theme.DefaultTheme,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		changed: make(chan struct{}, 1),
		stop:    make(chan struct{}),
		state:   st.GetState(),
	}
	m.unsubscribe = st.Subscribe(func(prev, next store.State) {
		select {
		case m.changed <- struct{}{}:
		default:
		}
	})

	form := pl.Form()
	m.inputs[focusName] = newInput("trip name", form.Name)
	m.inputs[focusDate] = newInput(DateLayout, form.Date.Format(DateLayout))
	m.inputs[focusNote] = newInput("note", form.Note)
	return m
}

func newInput(placeholder, value string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 200
	ti.SetValue(value)
	return ti
}

// SavedID is the id of the trip written before the screen closed, if any.
func (m *Model) SavedID() string {
	return m.savedID
}

// Err is the last error shown on the screen.
func (m *Model) Err() error {
	return m.err
}

// Close stops following the store and releases a pending state wait.
func (m *Model) Close() {
	m.closeOnce.Do(func() {
		m.unsubscribe()
		close(m.stop)
	})
}

func (m *Model) waitForState() tea.Cmd {
	changed, stop := m.changed, m.stop
	return func() tea.Msg {
		select {
		case <-changed:
			return stateMsg{}
		case <-stop:
			return nil
		}
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForState())
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		if m.done {
			return m, nil
		}
		m.state = m.store.GetState()
		if n := len(m.areas()); m.cursor >= n && n > 0 {
			m.cursor = n - 1
		}
		return m, m.waitForState()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case submittedMsg:
		m.submitting = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.savedID = msg.id
		return m.quit()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Back):
		if err := m.planner.Close(); err != nil {
			m.err = err
			return m, nil
		}
		return m.quit()

	case key.Matches(msg, m.keys.FocusNext):
		m.setFocus((m.focus + 1) % focusCount)
		return m, nil

	case key.Matches(msg, m.keys.FocusPrev):
		m.setFocus((m.focus + focusCount - 1) % focusCount)
		return m, nil

	case key.Matches(msg, m.keys.Weather):
		m.err = m.planner.OpenWeather()
		return m, nil

	case key.Matches(msg, m.keys.Menu):
		m.planner.TogglePanel()
		m.state = m.store.GetState()
		m.menuCursor = 0
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	}

	if m.menuOpen() {
		return m.handleMenuKey(msg)
	}

	if m.focus == focusAreas {
		switch {
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.areas())-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Select):
			if areas := m.areas(); m.cursor < len(areas) {
				m.sel.Select(areas[m.cursor].Clicked())
				m.state = m.store.GetState()
				m.err = nil
			}
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) menuOpen() bool {
	nav := m.store.GetState().Navigation
	return nav != nil && nav.PanelOpened && nav.PanelContext == store.PanelMenu
}

// handleMenuKey moves through the open menu; selecting an entry leaves the
// screen.
func (m *Model) handleMenuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := panel.MenuItems(m.auth())
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.menuCursor > 0 {
			m.menuCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.menuCursor < len(items)-1 {
			m.menuCursor++
		}
	case key.Matches(msg, m.keys.Select):
		if m.menuCursor >= len(items) {
			return m, nil
		}
		_, err := m.planner.FollowMenu(items[m.menuCursor])
		m.state = m.store.GetState()
		if err != nil {
			m.err = err
			return m, nil
		}
		return m.quit()
	}
	return m, nil
}

func (m *Model) setFocus(focus int) {
	if m.focus != focusAreas {
		m.inputs[m.focus].Blur()
	}
	m.focus = focus
	if m.focus != focusAreas {
		m.inputs[m.focus].Focus()
	}
}

func (m *Model) submit() (tea.Model, tea.Cmd) {
	if m.submitting {
		return m, nil
	}
	if err := m.applyInputs(); err != nil {
		m.err = err
		return m, nil
	}
	if err := m.planner.CanSubmit(); err != nil {
		m.err = err
		return m, nil
	}

	m.submitting = true
	m.err = nil
	planner := m.planner
	return m, func() tea.Msg {
		id, err := planner.Submit(context.Background())
		return submittedMsg{id: id, err: err}
	}
}

// applyInputs copies the text inputs into the draft. An empty date means
// today.
func (m *Model) applyInputs() error {
	m.planner.SetName(strings.TrimSpace(m.inputs[focusName].Value()))
	m.planner.SetNote(m.inputs[focusNote].Value())

	raw := strings.TrimSpace(m.inputs[focusDate].Value())
	if raw == "" {
		m.planner.SetDate(nil)
		return nil
	}
	date, err := time.ParseInLocation(DateLayout, raw, time.Local)
	if err != nil {
		return fmt.Errorf("date must look like %s", DateLayout)
	}
	m.planner.SetDate(&date)
	return nil
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	m.done = true
	m.Close()
	return m, tea.Quit
}

func (m *Model) areas() []models.Area {
	if m.state.Areas == nil || m.state.Areas.BirdAreas == nil {
		return nil
	}
	return m.state.Areas.BirdAreas.Areas
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.done {
		return ""
	}
	t := m.theme
	var b strings.Builder

	b.WriteString(t.Header.Render("Plan trip"))
	b.WriteString("  ")
	b.WriteString(t.Accent.Render(panel.LoginLabel(m.auth())))
	b.WriteString("\n")
	b.WriteString(m.sessionLine())
	b.WriteString("\n\n")

	b.WriteString(m.areaList())
	b.WriteString("\n")

	if m.state.Areas == nil || m.state.Areas.ClickedArea == nil {
		b.WriteString(t.Placeholder.Render(workflow.EmptyText))
		b.WriteString("\n")
	} else {
		area := m.state.Areas.ClickedArea
		b.WriteString(t.Label.Render("Area"))
		b.WriteString(t.Highlight.Render(area.Name))
		b.WriteString(t.Muted.Render(" " + area.Position.String()))
		b.WriteString("\n")
	}

	labels := [focusCount]string{focusName: "Name", focusDate: "Date", focusNote: "Note"}
	for i := focusName; i < focusCount; i++ {
		b.WriteString(t.Label.Render(labels[i]))
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n")
	}

	b.WriteString(m.sidePanel())

	b.WriteString("\n")
	switch {
	case m.submitting:
		b.WriteString(t.Info.Render("Saving trip..."))
		b.WriteString("\n")
	case m.err != nil:
		b.WriteString(t.Error.Render(m.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) auth() store.AuthState {
	if m.state.Auth == nil {
		return store.AuthState{}
	}
	return *m.state.Auth
}

func (m *Model) sidePanel() string {
	nav := m.state.Navigation
	if nav == nil || !nav.PanelOpened {
		return ""
	}
	t := m.theme
	var b strings.Builder
	switch nav.PanelContext {
	case store.PanelWeather:
		if w := m.state.Weather; w != nil && w.Location != nil {
			b.WriteString("\n")
			b.WriteString(t.Info.Render("Weather for " + w.Location.String()))
			b.WriteString("\n")
		}
	default:
		b.WriteString("\n")
		b.WriteString(t.Title.Render("Menu"))
		b.WriteString("\n")
		for i, item := range panel.MenuItems(m.auth()) {
			if i == m.menuCursor {
				b.WriteString(t.Selected.Render("> " + item.Label))
			} else {
				b.WriteString("  " + item.Label)
			}
			b.WriteString(t.Muted.Render(" " + item.Path))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m *Model) sessionLine() string {
	t := m.theme
	auth := m.state.Auth
	switch {
	case auth == nil || !auth.Loaded:
		return t.Muted.Render("Loading session...")
	case !auth.IsAuthenticated():
		return t.Warning.Render("Not signed in")
	default:
		return t.Muted.Render("Signed in as ") + t.Bold.Render(auth.NameToDisplay())
	}
}

func (m *Model) areaList() string {
	t := m.theme
	areas := m.areas()
	if len(areas) == 0 {
		if m.state.Areas != nil && m.state.Areas.IsDownloading {
			return t.Muted.Render("Loading areas...") + "\n"
		}
		return t.Muted.Render("No areas loaded") + "\n"
	}

	selectedID := ""
	if m.state.Areas.ClickedArea != nil {
		selectedID = m.state.Areas.ClickedArea.ID
	}

	var b strings.Builder
	for i, area := range areas {
		marker := "  "
		if area.ID == selectedID {
			marker = "● "
		}
		line := marker + area.Name + t.Muted.Render(" "+area.Type.Label())
		if m.focus == focusAreas && i == m.cursor {
			line = t.Selected.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
