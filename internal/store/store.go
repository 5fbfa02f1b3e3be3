package store

import "github.com/charliek/tailhub/internal/constants"

// Store is the client log store of one viewer session
type Store struct {
	capacity int
	paused   bool
	buckets  map[string]*Bucket
	// keys lists source buckets in first-seen order
	keys []string

	applied   uint64
	discarded uint64
}

// New creates an empty store whose buckets hold at most capacity entries.
// Known source names may be given to create their buckets up front.
func New(capacity int, sources ...string) *Store {
	if capacity <= 0 {
		capacity = constants.MaxLogs
	}
	s := &Store{
		capacity: capacity,
		buckets: map[string]*Bucket{
			constants.AllSourcesKey: NewBucket(capacity),
		},
	}
	for _, name := range sources {
		s.bucketFor(name)
	}
	return s
}

// Apply stores entry in its source bucket and in the aggregate bucket. While
// paused the entry is discarded and Apply returns false.
func (s *Store) Apply(entry Entry) bool {
	if s.paused {
		s.discarded++
		return false
	}

	// An entry naming the aggregate itself lands there once
	if entry.Source != constants.AllSourcesKey {
		s.bucketFor(entry.Source).Append(entry)
	}
	s.buckets[constants.AllSourcesKey].Append(entry)
	s.applied++
	return true
}

// bucketFor returns the bucket of a source, creating it on first use
func (s *Store) bucketFor(source string) *Bucket {
	if b, ok := s.buckets[source]; ok {
		return b
	}
	b := NewBucket(s.capacity)
	s.buckets[source] = b
	s.keys = append(s.keys, source)
	return b
}

// Pause stops storing incoming entries. Stored entries are untouched.
func (s *Store) Pause() {
	s.paused = true
}

// Resume stores incoming entries again. Entries discarded while paused are
// gone for good.
func (s *Store) Resume() {
	s.paused = false
}

// TogglePause flips the pause switch and returns the new value
func (s *Store) TogglePause() bool {
	s.paused = !s.paused
	return s.paused
}

// Paused reports whether incoming entries are being discarded
func (s *Store) Paused() bool {
	return s.paused
}

// Clear empties exactly one bucket. Unknown keys are ignored.
func (s *Store) Clear(key string) {
	if b, ok := s.buckets[key]; ok {
		b.Clear()
	}
}

// Entries returns the entries of a bucket oldest first
func (s *Store) Entries(key string) []Entry {
	b, ok := s.buckets[key]
	if !ok {
		return nil
	}
	return b.Entries()
}

// Len returns the size of a bucket
func (s *Store) Len(key string) int {
	b, ok := s.buckets[key]
	if !ok {
		return 0
	}
	return b.Len()
}

// Keys returns the aggregate key followed by source keys in first-seen order
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.keys)+1)
	keys = append(keys, constants.AllSourcesKey)
	return append(keys, s.keys...)
}

// Stats returns how many entries were stored and discarded
func (s *Store) Stats() (applied, discarded uint64) {
	return s.applied, s.discarded
}
