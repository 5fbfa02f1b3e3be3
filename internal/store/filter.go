package store

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charliek/tailhub/internal/domain"
)

// MaxPatternLength is the maximum allowed length for filter patterns
const MaxPatternLength = 256

// Filter narrows what a view displays. It never changes the store.
type Filter struct {
	pattern string
	regex   *regexp.Regexp
}

// NewFilter parses a search pattern. A pattern wrapped in slashes, like
// /timeout|refused/, is a regular expression; anything else is a substring.
func NewFilter(pattern string) (*Filter, error) {
	if len(pattern) > MaxPatternLength {
		return nil, fmt.Errorf("%w: pattern exceeds maximum length of %d characters", domain.ErrInvalidPattern, MaxPatternLength)
	}

	f := &Filter{pattern: pattern}
	if len(pattern) >= 2 && strings.HasPrefix(pattern, "/") && strings.HasSuffix(pattern, "/") {
		re, err := regexp.Compile(pattern[1 : len(pattern)-1])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPattern, err)
		}
		f.regex = re
	}
	return f, nil
}

// IsEmpty returns true if the filter matches everything
func (f *Filter) IsEmpty() bool {
	return f == nil || f.pattern == ""
}

// Pattern returns the pattern as typed
func (f *Filter) Pattern() string {
	if f == nil {
		return ""
	}
	return f.pattern
}

// Matches returns true if the entry's text matches
func (f *Filter) Matches(entry Entry) bool {
	if f.IsEmpty() {
		return true
	}
	if f.regex != nil {
		return f.regex.MatchString(entry.Text)
	}
	return strings.Contains(entry.Text, f.pattern)
}

// Apply returns the matching entries
func (f *Filter) Apply(entries []Entry) []Entry {
	if f.IsEmpty() {
		return entries
	}
	result := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		if f.Matches(entry) {
			result = append(result, entry)
		}
	}
	return result
}
