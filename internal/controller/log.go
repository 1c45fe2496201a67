package controller

import (
	"sync"
	"time"
)

// Kind is the display class of a log entry
type Kind int

const (
	KindUser Kind = iota
	KindBot
	KindError
)

// String returns the class name used by both front ends
func (k Kind) String() string {
	switch k {
	case KindUser:
		return "user-message"
	case KindBot:
		return "bot-message"
	case KindError:
		return "error-message"
	default:
		return "unknown"
	}
}

// EntryID identifies an entry so it can be removed later
type EntryID uint64

// Entry is one line of the conversation log. Text is always plain text.
type Entry struct {
	ID   EntryID
	Kind Kind
	Text string
	Time time.Time
}

// Log is an append-only, goroutine-safe conversation log.
// Remove exists only for transient placeholders.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
	nextID  EntryID
	scrolls int
	now     func() time.Time
}

var _ View = (*Log)(nil)

// NewLog creates an empty log
func NewLog() *Log {
	return &Log{now: time.Now}
}

// Append adds an entry at the end and returns its ID
func (l *Log) Append(kind Kind, text string) EntryID {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	l.entries = append(l.entries, Entry{ID: l.nextID, Kind: kind, Text: text, Time: l.now()})
	return l.nextID
}

// Remove deletes the entry with id. It reports false when the entry is already gone.
func (l *Log) Remove(id EntryID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, e := range l.entries {
		if e.ID == id {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return true
		}
	}
	return false
}

// ScrollToBottom records a request to show the newest entry
func (l *Log) ScrollToBottom() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.scrolls++
}

// TakeScroll reports whether a scroll was requested since the last call and resets the request
func (l *Log) TakeScroll() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	pending := l.scrolls > 0
	l.scrolls = 0
	return pending
}

// Entries returns a snapshot of the log
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Last returns the newest entry of the given kind
func (l *Log) Last(kind Kind) (Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for i := len(l.entries) - 1; i >= 0; i-- {
		if l.entries[i].Kind == kind {
			return l.entries[i], true
		}
	}
	return Entry{}, false
}
