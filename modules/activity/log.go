package activity

import (
	"sync"
	"time"
)

// DefaultCapacity is how many entries the log keeps.
const DefaultCapacity = 200

// Entry kinds.
const (
	KindRoomCreated    = "room_created"
	KindRoomUpdated    = "room_updated"
	KindRoomDeleted    = "room_deleted"
	KindMessagePosted  = "message_posted"
	KindMessageDeleted = "message_deleted"
)

// Entry is one recorded forum event.
type Entry struct {
	Kind    string    `json:"kind"`
	RoomID  string    `json:"room_id"`
	ActorID string    `json:"actor_id"`
	Summary string    `json:"summary"`
	At      time.Time `json:"at"`
}

// Log is a fixed-size ring of recent entries, safe for concurrent use.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
	next    int
	full    bool
}

// NewLog creates a log holding at most capacity entries.
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{entries: make([]Entry, capacity)}
}

// Add records an entry, evicting the oldest when full.
func (l *Log) Add(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries[l.next] = e
	l.next = (l.next + 1) % len(l.entries)
	if l.next == 0 {
		l.full = true
	}
}

// Len returns the number of stored entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.full {
		return len(l.entries)
	}
	return l.next
}

// Recent returns up to limit entries, newest first. A non-positive limit
// returns everything.
func (l *Log) Recent(limit int) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := l.next
	if l.full {
		n = len(l.entries)
	}
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]Entry, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (l.next - i + len(l.entries)) % len(l.entries)
		out = append(out, l.entries[idx])
	}
	return out
}
