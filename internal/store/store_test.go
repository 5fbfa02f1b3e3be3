package store

import (
	"strconv"
	"testing"

	"github.com/charliek/tailhub/internal/constants"
	"github.com/stretchr/testify/assert"
)

const all = constants.AllSourcesKey

func entry(source, text string) Entry {
	return Entry{Source: source, Text: text}
}

func TestStore_LinesInOrder(t *testing.T) {
	s := New(constants.MaxLogs)

	for _, text := range []string{"a", "b", "c"} {
		assert.True(t, s.Apply(entry("X", text)))
	}

	assert.Equal(t, []string{"a", "b", "c"}, texts(s.Entries("X")))
	assert.Equal(t, []string{"a", "b", "c"}, texts(s.Entries(all)))
}

func TestStore_RetainsMostRecent(t *testing.T) {
	s := New(constants.MaxLogs)

	for i := 0; i < 201; i++ {
		s.Apply(entry("X", strconv.Itoa(i)))
	}

	got := s.Entries("X")
	assert.Len(t, got, 200)
	assert.Equal(t, "1", got[0].Text)
	assert.Equal(t, "200", got[199].Text)
	assert.Len(t, s.Entries(all), 200)
}

func TestStore_PauseDiscards(t *testing.T) {
	s := New(constants.MaxLogs)

	s.Pause()
	for i := 0; i < 5; i++ {
		assert.False(t, s.Apply(entry("X", strconv.Itoa(i))))
	}
	s.Resume()
	assert.True(t, s.Apply(entry("X", "d")))

	assert.Equal(t, []string{"d"}, texts(s.Entries("X")))
	assert.Equal(t, []string{"d"}, texts(s.Entries(all)))

	applied, discarded := s.Stats()
	assert.Equal(t, uint64(1), applied)
	assert.Equal(t, uint64(5), discarded)
}

func TestStore_PauseLeavesStoredEntries(t *testing.T) {
	s := New(constants.MaxLogs)
	s.Apply(entry("X", "kept"))

	assert.True(t, s.TogglePause())
	s.Apply(entry("X", "dropped"))
	assert.Equal(t, []string{"kept"}, texts(s.Entries("X")))

	assert.False(t, s.TogglePause())
	assert.False(t, s.Paused())
	assert.Equal(t, []string{"kept"}, texts(s.Entries("X")))
}

func TestStore_ClearOneBucket(t *testing.T) {
	s := New(constants.MaxLogs)
	s.Apply(entry("X", "x1"))
	s.Apply(entry("Y", "y1"))
	s.Apply(entry("X", "x2"))

	s.Clear("X")

	assert.Empty(t, s.Entries("X"))
	assert.Equal(t, []string{"y1"}, texts(s.Entries("Y")))
	assert.Equal(t, []string{"x1", "y1", "x2"}, texts(s.Entries(all)))
}

func TestStore_ClearAggregate(t *testing.T) {
	s := New(constants.MaxLogs)
	s.Apply(entry("X", "x1"))

	s.Clear(all)

	assert.Empty(t, s.Entries(all))
	assert.Equal(t, []string{"x1"}, texts(s.Entries("X")))

	s.Clear("unknown")
}

func TestStore_AggregateInterleaves(t *testing.T) {
	s := New(3)
	s.Apply(entry("X", "x1"))
	s.Apply(entry("Y", "y1"))
	s.Apply(entry("X", "x2"))
	s.Apply(entry("Y", "y2"))

	// The aggregate has its own cap, so it holds less X history than bucket X
	assert.Equal(t, []string{"y1", "x2", "y2"}, texts(s.Entries(all)))
	assert.Equal(t, []string{"x1", "x2"}, texts(s.Entries("X")))
}

func TestStore_Keys(t *testing.T) {
	s := New(constants.MaxLogs, "web")
	assert.Equal(t, []string{all, "web"}, s.Keys())

	s.Apply(entry("worker", "w"))
	s.Apply(entry("api", "a"))
	s.Apply(entry("web", "x"))

	assert.Equal(t, []string{all, "web", "worker", "api"}, s.Keys())
	assert.Equal(t, 0, s.Len("missing"))
	assert.Nil(t, s.Entries("missing"))
}

func TestStore_CapacityInvariant(t *testing.T) {
	s := New(10)
	sources := []string{"a", "b", "c"}
	for i := 0; i < 100; i++ {
		s.Apply(entry(sources[i%len(sources)], strconv.Itoa(i)))
		for _, key := range s.Keys() {
			assert.LessOrEqual(t, s.Len(key), 10)
		}
	}
}

func TestEntry_Classification(t *testing.T) {
	tests := []struct {
		text      string
		isError   bool
		lifecycle bool
	}{
		{"plain", false, false},
		{"ERROR: boom", true, false},
		{"child process exited with code 1", false, true},
		{"child process failed to start: no such file", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			e := Entry{Text: tt.text}
			assert.Equal(t, tt.isError, e.IsError())
			assert.Equal(t, tt.lifecycle, e.IsLifecycle())
		})
	}
}

func TestStore_EntryNamedAfterAggregate(t *testing.T) {
	s := New(constants.MaxLogs)

	assert.True(t, s.Apply(entry(all, "x")))

	assert.Equal(t, []string{"x"}, texts(s.Entries(all)))
	assert.Equal(t, []string{all}, s.Keys())
}
