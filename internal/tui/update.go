package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/charliek/tailhub/internal/constants"
	"github.com/charliek/tailhub/internal/store"
)

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.handleWindowSize(msg)

	case LogMsg:
		return m, m.handleLog(msg)

	case scrollToLatestMsg:
		// The view may have been overridden between append and scroll
		if v, ok := m.views[msg.key]; ok && v.follower.State() == store.Following {
			m.render(msg.key)
			v.viewport.GotoBottom()
		}

	case MalformedMsg:
		m.malformed++

	case ConnectedMsg:
		m.connected = true
		m.connErr = nil

	case DisconnectedMsg:
		m.connected = false
		m.closed = true
		m.connErr = msg.Err
	}

	return m, nil
}

// handleWindowSize resizes every view
func (m *Model) handleWindowSize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true

	for key, v := range m.views {
		v.viewport.Width = msg.Width
		v.viewport.Height = m.viewportHeight()
		v.dirty = true
		if key == m.active {
			m.render(key)
			if v.follower.State() == store.Following {
				v.viewport.GotoBottom()
			}
		}
	}
}

// handleLog applies an incoming line to the store. Each bucket that took the
// entry is notified; only a following, visible view schedules a scroll.
func (m *Model) handleLog(msg LogMsg) tea.Cmd {
	receivedAt := msg.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}
	entry := store.Entry{Source: msg.Source, Text: msg.Line, ReceivedAt: receivedAt}

	if !m.store.Apply(entry) {
		return nil
	}

	var cmds []tea.Cmd
	for _, key := range []string{entry.Source, constants.AllSourcesKey} {
		v := m.view(key)
		v.dirty = true
		if v.follower.OnAppend() && key == m.active {
			cmds = append(cmds, scrollToLatest(key))
		}
	}

	// Overridden view keeps its offset; refresh content underneath it
	if m.activeView().follower.ShowJumpControl() {
		m.render(m.active)
	}
	return tea.Batch(cmds...)
}

// handleKey processes keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case ModeSearch:
		return m.handleSearchKey(msg)
	case ModeHelp:
		m.mode = ModeNormal
		return m, nil
	}

	v := m.activeView()

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "tab":
		m.selectOffset(1)
	case "shift+tab":
		m.selectOffset(-1)
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		keys := m.store.Keys()
		idx := int(msg.String()[0] - '1')
		if idx < len(keys) {
			m.selectKey(keys[idx])
		}

	case "p":
		m.store.TogglePause()

	case "c":
		m.store.Clear(m.active)
		v.dirty = true
		m.render(m.active)
		v.viewport.GotoTop()

	case "up", "k":
		v.follower.OnUserScroll()
		v.viewport.LineUp(1)
	case "down", "j":
		v.follower.OnUserScroll()
		v.viewport.LineDown(1)
	case "pgup":
		v.follower.OnUserScroll()
		v.viewport.HalfViewUp()
	case "pgdown":
		v.follower.OnUserScroll()
		v.viewport.HalfViewDown()
	case "home", "g":
		v.follower.OnUserScroll()
		v.viewport.GotoTop()

	case "end", "G":
		v.follower.JumpToLatest()
		m.render(m.active)
		v.viewport.GotoBottom()

	case "/":
		m.mode = ModeSearch
		m.textInput.SetValue(m.filter.Pattern())
		m.textInput.CursorEnd()
		return m, m.textInput.Focus()

	case "esc":
		m.setFilter("")

	case "?":
		m.mode = ModeHelp
	}

	return m, nil
}

// handleSearchKey edits the search filter. The view updates while typing
// whenever the pattern compiles.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = ModeNormal
		m.textInput.Blur()
		m.setFilter("")
		return m, nil

	case "enter":
		m.mode = ModeNormal
		m.textInput.Blur()
		m.setFilter(m.textInput.Value())
		return m, nil
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	m.setFilter(m.textInput.Value())
	return m, cmd
}

// handleMouse treats wheel movement as a user scroll gesture
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress {
		return m, nil
	}
	if msg.Button != tea.MouseButtonWheelUp && msg.Button != tea.MouseButtonWheelDown {
		return m, nil
	}

	v := m.activeView()
	v.follower.OnUserScroll()

	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return m, cmd
}

// setFilter replaces the display filter. A pattern that does not compile
// keeps the previous filter and is reported in the status bar.
func (m *Model) setFilter(pattern string) {
	filter, err := store.NewFilter(strings.TrimSpace(pattern))
	if err != nil {
		m.filterErr = err
		return
	}
	m.filterErr = nil
	m.filter = filter

	for _, v := range m.views {
		v.dirty = true
	}
	m.render(m.active)
	if v := m.activeView(); v.follower.State() == store.Following {
		v.viewport.GotoBottom()
	}
}

// selectOffset moves the tab selection by delta, wrapping around
func (m *Model) selectOffset(delta int) {
	keys := m.store.Keys()
	current := 0
	for i, key := range keys {
		if key == m.active {
			current = i
			break
		}
	}
	next := (current + delta + len(keys)) % len(keys)
	m.selectKey(keys[next])
}

// selectKey shows a bucket. A following view lands on its newest entry.
func (m *Model) selectKey(key string) {
	m.active = key
	v := m.view(key)
	m.render(key)
	if v.follower.State() == store.Following {
		v.viewport.GotoBottom()
	}
}

// render refreshes a view's content if it changed since last shown
func (m *Model) render(key string) {
	v := m.view(key)
	if !v.dirty {
		return
	}
	v.dirty = false

	entries := m.filter.Apply(m.store.Entries(key))
	lines := make([]string, len(entries))
	for i, entry := range entries {
		lines[i] = m.formatEntry(entry, key == constants.AllSourcesKey)
	}
	v.viewport.SetContent(strings.Join(lines, "\n"))
}
