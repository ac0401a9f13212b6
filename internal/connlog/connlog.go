// Package connlog records outbound backend requests in a bounded,
// most-recent-first buffer that diagnostic views can subscribe to.
package connlog

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/horizonprm/horizon/internal/logging"
)

// DefaultCap is the number of entries kept when no cap is configured.
const DefaultCap = 50

// Type classifies an entry.
type Type string

const (
	TypeInfo    Type = "info"
	TypeSuccess Type = "success"
	TypeError   Type = "error"
	TypeWarning Type = "warning"
)

// Entry is one recorded request event.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      Type      `json:"type"`
	Method    string    `json:"method"`
	URL       string    `json:"url"`
	Message   string    `json:"message"`
	Details   any       `json:"details,omitempty"`
}

// Listener receives the full current list, most recent first.
type Listener func([]Entry)

type subscription struct {
	id int
	fn Listener
}

// Logger is the connection log. The zero value is not usable; use New.
type Logger struct {
	mu        sync.Mutex
	entries   []Entry
	listeners []subscription
	nextSub   int
	cap       int
	log       *zap.Logger
	entropy   *ulid.MonotonicEntropy
	now       func() time.Time
}

// New creates a Logger holding at most capacity entries (DefaultCap when
// capacity <= 0). Entries are mirrored to log when it is non-nil.
func New(capacity int, log *zap.Logger) *Logger {
	if capacity <= 0 {
		capacity = DefaultCap
	}
	return &Logger{
		cap:     capacity,
		log:     logging.OrNop(log).Named("connlog"),
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// AddLog prepends an entry, trims to the cap and notifies subscribers.
func (l *Logger) AddLog(typ Type, method, url, message string, details any) Entry {
	l.mu.Lock()
	ts := l.now()
	entry := Entry{
		ID:        ulid.MustNew(ulid.Timestamp(ts), l.entropy).String(),
		Timestamp: ts,
		Type:      typ,
		Method:    method,
		URL:       url,
		Message:   message,
		Details:   details,
	}
	next := make([]Entry, 0, min(len(l.entries)+1, l.cap))
	next = append(next, entry)
	for _, e := range l.entries {
		if len(next) == l.cap {
			break
		}
		next = append(next, e)
	}
	l.entries = next
	snapshot, listeners := l.snapshotLocked()
	l.mu.Unlock()

	l.mirror(entry)
	notify(listeners, snapshot)
	return entry
}

// Clear empties the log and notifies subscribers.
func (l *Logger) Clear() {
	l.mu.Lock()
	l.entries = nil
	snapshot, listeners := l.snapshotLocked()
	l.mu.Unlock()

	notify(listeners, snapshot)
}

// Entries returns a copy of the current list, most recent first.
func (l *Logger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Subscribe registers fn and calls it immediately with the current list.
// The returned func removes the subscription; calling it twice is a no-op.
func (l *Logger) Subscribe(fn Listener) (unsubscribe func()) {
	l.mu.Lock()
	id := l.nextSub
	l.nextSub++
	l.listeners = append(l.listeners, subscription{id: id, fn: fn})
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	l.mu.Unlock()

	fn(out)

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			for i, s := range l.listeners {
				if s.id == id {
					l.listeners = append(l.listeners[:i:i], l.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// Cap returns the configured capacity.
func (l *Logger) Cap() int { return l.cap }

func (l *Logger) snapshotLocked() ([]Entry, []Listener) {
	listeners := make([]Listener, len(l.listeners))
	for i, s := range l.listeners {
		listeners[i] = s.fn
	}
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out, listeners
}

// notify runs outside the lock so listeners may call back into the Logger.
// Each listener gets its own copy.
func notify(listeners []Listener, entries []Entry) {
	for i, fn := range listeners {
		list := entries
		if i > 0 {
			list = make([]Entry, len(entries))
			copy(list, entries)
		}
		fn(list)
	}
}

func (l *Logger) mirror(e Entry) {
	fields := []zap.Field{
		zap.String("method", e.Method),
		zap.String("url", e.URL),
		zap.String("entry_id", e.ID),
	}
	if e.Details != nil {
		fields = append(fields, zap.Any("details", e.Details))
	}
	switch e.Type {
	case TypeError:
		l.log.Error(e.Message, fields...)
	case TypeWarning:
		l.log.Warn(e.Message, fields...)
	case TypeSuccess:
		l.log.Info(e.Message, fields...)
	default:
		l.log.Debug(e.Message, fields...)
	}
}
