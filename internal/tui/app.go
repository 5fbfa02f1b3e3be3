package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/charliek/tailhub/internal/api"
)

// Streamer opens the hub's viewer channel and blocks until it ends
type Streamer interface {
	StreamLogs(ctx context.Context, handlers api.StreamHandlers) error
}

// Run starts the viewer and blocks until the user quits
func Run(ctx context.Context, streamer Streamer, opts Options) error {
	model := NewModel(opts)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go forwardLogs(ctx, p, streamer)

	_, err := p.Run()
	return err
}

// sender is the part of tea.Program the forwarder needs
type sender interface {
	Send(msg tea.Msg)
}

// forwardLogs turns viewer channel events into program messages. Messages
// are sent in delivery order from this single goroutine.
func forwardLogs(ctx context.Context, p sender, streamer Streamer) {
	err := streamer.StreamLogs(ctx, api.StreamHandlers{
		OnConnect: func() {
			p.Send(ConnectedMsg{})
		},
		OnMessage: func(msg api.LogMessage) {
			p.Send(LogMsg{Source: msg.Container, Line: msg.Line, ReceivedAt: time.Now()})
		},
		OnMalformed: func(_ []byte, err error) {
			p.Send(MalformedMsg{Err: err})
		},
	})
	if ctx.Err() != nil {
		return
	}
	p.Send(DisconnectedMsg{Err: err})
}
