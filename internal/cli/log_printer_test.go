package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/charliek/tailhub/internal/api"
	"github.com/charliek/tailhub/internal/constants"
)

func fixedPrinter(buf *bytes.Buffer, color bool) *LogPrinter {
	lp := NewLogPrinter(buf, color)
	lp.now = func() time.Time { return time.Date(2024, 5, 1, 14, 3, 9, 0, time.UTC) }
	return lp
}

func TestLogPrinter_Plain(t *testing.T) {
	var buf bytes.Buffer
	lp := fixedPrinter(&buf, false)

	lp.PrintMessage(api.LogMessage{Container: "web", Line: "GET / 200"})
	lp.PrintMessage(api.LogMessage{Container: "db", Line: "ERROR: slow"})

	assert.Equal(t,
		"14:03:09 web          | GET / 200\n"+
			"14:03:09 db           | ERROR: slow\n",
		buf.String())
}

func TestLogPrinter_Colors(t *testing.T) {
	var buf bytes.Buffer
	lp := fixedPrinter(&buf, true)

	lp.PrintMessage(api.LogMessage{Container: "web", Line: "ok"})
	lp.PrintMessage(api.LogMessage{Container: "db", Line: "ERROR: slow"})
	lp.PrintMessage(api.LogMessage{Container: "web", Line: "child process exited with code 0"})

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 3)

	assert.True(t, strings.Contains(lines[0], constants.SourceColors[0]+"web"))
	assert.True(t, strings.Contains(lines[1], constants.SourceColors[1]+"db"))
	assert.Contains(t, lines[1], constants.ColorBrightRed+"ERROR: slow")
	// Same source keeps its color
	assert.True(t, strings.Contains(lines[2], constants.SourceColors[0]+"web"))
	assert.Contains(t, lines[2], constants.ColorDim+"child process exited")
}
