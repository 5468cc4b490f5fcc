// Package activity keeps the append-only, time-ordered record of
// coordination events shown to operators.
package activity

import (
	"sync"
	"time"
)

// Entry is a single activity line. Entries are immutable once appended.
type Entry struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// Sink receives entries as they are appended, for export to an external
// store.
type Sink interface {
	WriteEntry(Entry) error
}

// Log is an insertion-ordered record of coordination events. With a
// positive capacity it behaves as a ring buffer keeping the most recent
// entries; capacity 0 means unbounded.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
	cap     int
	sink    Sink
	now     func() time.Time
}

// Option configures a Log.
type Option func(*Log)

// WithCapacity bounds the log to the n most recent entries.
func WithCapacity(n int) Option {
	return func(l *Log) { l.cap = n }
}

// WithSink forwards every appended entry to the given sink. Sink errors
// are ignored here; the sink is expected to log its own failures.
func WithSink(s Sink) Option {
	return func(l *Log) { l.sink = s }
}

// WithClock overrides the timestamp source, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Log) { l.now = now }
}

// NewLog creates an activity log.
func NewLog(opts ...Option) *Log {
	l := &Log{now: time.Now}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Append records a message with the current timestamp.
func (l *Log) Append(msg string) {
	e := Entry{Time: l.now(), Message: msg}
	l.mu.Lock()
	l.entries = append(l.entries, e)
	if l.cap > 0 && len(l.entries) > l.cap {
		l.entries = l.entries[len(l.entries)-l.cap:]
	}
	sink := l.sink
	l.mu.Unlock()
	if sink != nil {
		_ = sink.WriteEntry(e)
	}
}

// Snapshot returns a copy of the current entries in insertion order.
func (l *Log) Snapshot() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
