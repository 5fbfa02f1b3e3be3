package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/charliek/tailhub/internal/store"
)

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return "Connecting to tailhub..."
	}
	if m.mode == ModeHelp {
		return m.helpView()
	}

	var sb strings.Builder
	sb.WriteString(m.tabBar())
	sb.WriteString("\n")
	sb.WriteString(m.activeView().viewport.View())
	sb.WriteString("\n")
	sb.WriteString(m.jumpBar())
	sb.WriteString("\n")
	sb.WriteString(m.statusBar())
	return sb.String()
}

// tabBar renders one tab per bucket, All first. Overridden tabs show how
// many entries arrived since the user scrolled away.
func (m Model) tabBar() string {
	var tabs []string
	for i, key := range m.store.Keys() {
		label := key
		if i < 9 {
			label = fmt.Sprintf("%d:%s", i+1, key)
		}
		if v, ok := m.views[key]; ok && v.follower.Unseen() > 0 {
			label += fmt.Sprintf(" +%d", v.follower.Unseen())
		}

		if key == m.active {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	return headerStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
}

// jumpBar renders the jump-to-latest control of the active view, or an
// empty row so the layout does not shift
func (m Model) jumpBar() string {
	f := m.views[m.active].follower
	if !f.ShowJumpControl() {
		return ""
	}
	if n := f.Unseen(); n > 0 {
		return jumpStyle.Render(fmt.Sprintf("↓ %d new messages (G to jump to latest)", n))
	}
	return jumpStyle.Render("Scrolled (G to jump to latest)")
}

// statusBar renders the bottom status bar
func (m Model) statusBar() string {
	var left string
	switch {
	case m.mode == ModeSearch:
		left = "Search: " + m.textInput.View()
		if m.filterErr != nil {
			left += "  " + errorLineStyle.Render(truncate(m.filterErr.Error(), maxErrorDisplayLen))
		}
	case !m.filter.IsEmpty():
		left = fmt.Sprintf("Filter: %s (ESC to clear)", m.filter.Pattern())
	case m.closed:
		left = offlineStyle.Render("Disconnected")
		if m.connErr != nil {
			left += ": " + truncate(m.connErr.Error(), maxErrorDisplayLen)
		}
	case !m.connected:
		left = "Connecting to " + m.address
	default:
		left = m.address + " | ? for help"
	}

	var stream string
	if m.store.Paused() {
		stream = pausedStyle.Render("[PAUSED]")
	} else if m.connected {
		stream = liveStyle.Render("[LIVE]")
	} else {
		stream = offlineStyle.Render("[OFFLINE]")
	}

	follow := "[FOLLOW]"
	if m.views[m.active].follower.State() == store.Overridden {
		follow = "[SCROLL]"
	}

	entries := m.store.Entries(m.active)
	visible := len(m.filter.Apply(entries))
	right := fmt.Sprintf("%s %s %d/%d lines", stream, follow, visible, len(entries))
	if m.malformed > 0 {
		right += fmt.Sprintf(" | %d malformed", m.malformed)
	}

	leftWidth := m.width - lipgloss.Width(right) - 4
	if leftWidth < 0 {
		leftWidth = 0
	}

	leftPart := statusStyle.Width(leftWidth).Render(left)
	rightPart := statusStyle.Render(right)
	return lipgloss.JoinHorizontal(lipgloss.Top, leftPart, "  ", rightPart)
}

// formatEntry renders one line. The aggregate view prefixes the source.
func (m Model) formatEntry(entry store.Entry, withSource bool) string {
	ts := dimStyle.Render(entry.ReceivedAt.Format("15:04:05"))

	text := entry.Text
	switch {
	case entry.IsLifecycle():
		text = lifecycleStyle.Render(text)
	case entry.IsError():
		text = errorLineStyle.Render(text)
	}

	if !withSource {
		return fmt.Sprintf("%s %s", ts, text)
	}
	name := m.sourceStyle(entry.Source).Render(fmt.Sprintf("%-10s", entry.Source))
	return fmt.Sprintf("%s %s %s", ts, name, text)
}

// sourceStyle colors a source by its tab position
func (m Model) sourceStyle(source string) lipgloss.Style {
	for i, key := range m.store.Keys()[1:] {
		if key == source {
			return sourceColors[i%len(sourceColors)]
		}
	}
	return defaultSourceStyle
}

// helpView renders the help overlay
func (m Model) helpView() string {
	help := `
tailhub - live log viewer

Tabs:
  Tab/S-Tab  Next/previous source
  1-9        Jump to tab

Scrolling:
  j/↓  k/↑   Scroll line (stops following)
  PgUp/PgDn  Scroll half page (stops following)
  g/Home     Go to top (stops following)
  G/End      Jump to latest (resumes following)
  Mouse      Wheel scroll (stops following)

Stream:
  p          Pause/resume (lines received while paused are dropped)
  c          Clear current tab
  /          Filter current view (substring or /regex/)
  ESC        Clear filter

Other:
  ?          Toggle help
  q/Ctrl+C   Quit

Press any key to close help...
`
	return helpStyle.Render(help)
}

// truncate shortens s to maxLen characters
func truncate(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen-3] + "..."
	}
	return s
}
