// Package store holds a viewer's local copy of the log stream: one bounded
// bucket per source plus the aggregate bucket, a pause switch and the
// per-view scroll-follow state.
//
// Nothing here is safe for concurrent use. A store belongs to exactly one
// event loop that applies incoming entries in delivery order.
package store

import (
	"strings"
	"time"

	"github.com/charliek/tailhub/internal/constants"
)

// Entry is one received log line
type Entry struct {
	Source     string
	Text       string
	ReceivedAt time.Time
}

// IsError reports whether the line came from the source's stderr
func (e Entry) IsError() bool {
	return strings.HasPrefix(e.Text, constants.StderrPrefix)
}

// IsLifecycle reports whether the line is a source's terminal message
func (e Entry) IsLifecycle() bool {
	return strings.HasPrefix(e.Text, constants.ExitedLinePrefix) ||
		strings.HasPrefix(e.Text, constants.StartFailedLinePrefix)
}
