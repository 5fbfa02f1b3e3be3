// Package tui is the terminal viewer: one tab per bucket of the client log
// store, each with its own scroll-follow state.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/charliek/tailhub/internal/constants"
	"github.com/charliek/tailhub/internal/store"
)

// Mode represents the current TUI mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeSearch
	ModeHelp
)

// Layout rows outside the viewport: tab bar with margin, jump bar, status bar
const (
	headerHeight = 2
	footerHeight = 2
)

// maxErrorDisplayLen is the maximum length of error messages in the status bar
const maxErrorDisplayLen = 60

// Options configures a viewer session
type Options struct {
	// Address is shown in the status bar
	Address string
	// Sources pre-creates tabs in this order; others appear when first seen
	Sources []string
	// Capacity of every bucket, constants.MaxLogs when zero
	Capacity int
}

// bucketView is the on-screen state of one bucket
type bucketView struct {
	viewport viewport.Model
	follower *store.Follower
	// dirty views re-render their content when shown
	dirty bool
}

// Model is the bubbletea model of the viewer
type Model struct {
	store  *store.Store
	views  map[string]*bucketView
	active string

	textInput textinput.Model
	mode      Mode
	filter    *store.Filter
	filterErr error

	address   string
	connected bool
	connErr   error
	closed    bool
	malformed int

	width  int
	height int
	ready  bool
}

// NewModel creates the viewer model
func NewModel(opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "substring or /regex/"
	ti.CharLimit = store.MaxPatternLength
	ti.Width = 40

	filter, _ := store.NewFilter("")

	m := Model{
		store:     store.New(opts.Capacity, opts.Sources...),
		views:     make(map[string]*bucketView),
		active:    constants.AllSourcesKey,
		textInput: ti,
		mode:      ModeNormal,
		filter:    filter,
		address:   opts.Address,
	}
	for _, key := range m.store.Keys() {
		m.view(key)
	}
	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// LogMsg is one wire message received from the hub
type LogMsg struct {
	Source     string
	Line       string
	ReceivedAt time.Time
}

// MalformedMsg reports a wire message that could not be decoded
type MalformedMsg struct {
	Err error
}

// ConnectedMsg is sent once the viewer channel is open
type ConnectedMsg struct{}

// DisconnectedMsg is sent when the viewer channel ends. There is no
// reconnection.
type DisconnectedMsg struct {
	Err error
}

// scrollToLatestMsg is the deferred scroll scheduled by an append to a
// following view
type scrollToLatestMsg struct {
	key string
}

func scrollToLatest(key string) tea.Cmd {
	return func() tea.Msg {
		return scrollToLatestMsg{key: key}
	}
}

// view returns the view of a bucket, creating it on first use
func (m *Model) view(key string) *bucketView {
	if v, ok := m.views[key]; ok {
		return v
	}
	v := &bucketView{
		viewport: viewport.New(m.width, m.viewportHeight()),
		follower: store.NewFollower(),
		dirty:    true,
	}
	m.views[key] = v
	return v
}

// activeView returns the view of the selected tab
func (m *Model) activeView() *bucketView {
	return m.view(m.active)
}

func (m *Model) viewportHeight() int {
	h := m.height - headerHeight - footerHeight
	if h < 1 {
		h = 1
	}
	return h
}
