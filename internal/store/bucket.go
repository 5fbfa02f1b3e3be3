package store

import "github.com/charliek/tailhub/internal/constants"

// Bucket is a fixed-size FIFO of entries. Appending to a full bucket evicts
// the oldest entry.
type Bucket struct {
	entries  []Entry
	head     int // next write position
	count    int // current number of entries
	capacity int // max entries
}

// NewBucket creates a bucket with the given capacity
func NewBucket(capacity int) *Bucket {
	if capacity <= 0 {
		capacity = constants.MaxLogs
	}
	return &Bucket{
		entries:  make([]Entry, capacity),
		capacity: capacity,
	}
}

// Append adds an entry, evicting the oldest when full
func (b *Bucket) Append(entry Entry) {
	b.entries[b.head] = entry
	b.head = (b.head + 1) % b.capacity

	if b.count < b.capacity {
		b.count++
	}
}

// Entries returns all entries oldest first
func (b *Bucket) Entries() []Entry {
	return b.Last(b.count)
}

// Last returns the newest n entries oldest first
func (b *Bucket) Last(n int) []Entry {
	if b.count == 0 || n <= 0 {
		return nil
	}
	if n > b.count {
		n = b.count
	}

	result := make([]Entry, n)
	start := (b.head - n + b.capacity) % b.capacity
	for i := 0; i < n; i++ {
		result[i] = b.entries[(start+i)%b.capacity]
	}
	return result
}

// Len returns the current number of entries
func (b *Bucket) Len() int {
	return b.count
}

// Cap returns the maximum number of entries
func (b *Bucket) Cap() int {
	return b.capacity
}

// Clear removes all entries
func (b *Bucket) Clear() {
	clear(b.entries)
	b.head = 0
	b.count = 0
}
