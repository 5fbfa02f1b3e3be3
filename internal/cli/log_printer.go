package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charliek/tailhub/internal/api"
	"github.com/charliek/tailhub/internal/constants"
	"github.com/charliek/tailhub/internal/store"
)

// LogPrinter handles consistent log formatting and color assignment
type LogPrinter struct {
	mu         sync.Mutex
	out        io.Writer
	color      bool
	colors     map[string]string
	colorIndex int
	now        func() time.Time
}

// NewLogPrinter creates a LogPrinter writing to out
func NewLogPrinter(out io.Writer, color bool) *LogPrinter {
	return &LogPrinter{
		out:    out,
		color:  color,
		colors: make(map[string]string),
		now:    time.Now,
	}
}

// PrintMessage prints one wire message stamped with its arrival time.
// Stderr lines are red and lifecycle lines dim.
func (lp *LogPrinter) PrintMessage(msg api.LogMessage) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	ts := lp.now().Format("15:04:05")
	if !lp.color {
		fmt.Fprintf(lp.out, "%s %-12s | %s\n", ts, msg.Container, msg.Line)
		return
	}

	entry := store.Entry{Source: msg.Container, Text: msg.Line}
	lineColor := ""
	switch {
	case entry.IsLifecycle():
		lineColor = constants.ColorDim
	case entry.IsError():
		lineColor = constants.ColorBrightRed
	}

	fmt.Fprintf(lp.out, "%s %s%-12s%s | %s%s%s\n",
		ts,
		lp.getColor(msg.Container), msg.Container, constants.ColorReset,
		lineColor, msg.Line, constants.ColorReset)
}

func (lp *LogPrinter) getColor(source string) string {
	color, ok := lp.colors[source]
	if !ok {
		color = constants.SourceColors[lp.colorIndex%len(constants.SourceColors)]
		lp.colors[source] = color
		lp.colorIndex++
	}
	return color
}
