// Package history keeps the session-only audit log of user actions and the
// callbacks that undo them.
package history

import (
	"fmt"
	"sync"
	"time"

	"github.com/horizonprm/horizon/internal/errors"
)

// BootstrapID is the id of the entry every log starts with.
const BootstrapID = "init-1"

// Item is one recorded action.
type Item struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Label       string    `json:"label"`
	Description string    `json:"description"`
	Pinned      bool      `json:"pinned"`
	Revertable  bool      `json:"revertable"`
}

// Log is an in-memory, most-recent-first list of items.
type Log struct {
	mu      sync.Mutex
	items   []Item
	reverts map[string]func() error
	now     func() time.Time
	lastID  int64
}

// New returns a log holding only the bootstrap entry.
func New() *Log {
	l := &Log{now: time.Now}
	l.reset()
	return l
}

func (l *Log) reset() {
	l.items = []Item{{
		ID:          BootstrapID,
		Timestamp:   l.now(),
		Label:       "System Initialization",
		Description: "Project Horizon PRM initialized v1.0.4",
		Pinned:      true,
	}}
	l.reverts = make(map[string]func() error)
}

// Add records an action. A non-nil onRevert makes the item revertable.
func (l *Log) Add(label, description string, onRevert func() error) Item {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.addLocked(label, description, onRevert)
}

func (l *Log) addLocked(label, description string, onRevert func() error) Item {
	ts := l.now()
	// ids are millisecond stamps; bump on collision within one millisecond
	ms := ts.UnixMilli()
	if ms <= l.lastID {
		ms = l.lastID + 1
	}
	l.lastID = ms

	item := Item{
		ID:          fmt.Sprintf("act-%d", ms),
		Timestamp:   ts,
		Label:       label,
		Description: description,
		Revertable:  onRevert != nil,
	}
	if onRevert != nil {
		l.reverts[item.ID] = onRevert
	}
	l.items = append([]Item{item}, l.items...)
	return item
}

// TogglePin flips the pinned flag of id.
func (l *Log) TogglePin(id string) (Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	idx := l.indexLocked(id)
	if idx < 0 {
		return Item{}, errors.NewNotFound("history item", id)
	}
	l.items[idx].Pinned = !l.items[idx].Pinned
	return l.items[idx], nil
}

// Revert runs the item's undo callback once and records the reversal. The
// item stays in the log but is no longer revertable. If the callback fails
// the item is left untouched.
func (l *Log) Revert(id string) (Item, error) {
	l.mu.Lock()
	idx := l.indexLocked(id)
	if idx < 0 {
		l.mu.Unlock()
		return Item{}, errors.NewNotFound("history item", id)
	}
	fn, ok := l.reverts[id]
	if !l.items[idx].Revertable || !ok {
		l.mu.Unlock()
		return Item{}, errors.NewInvalidRequest("history item is not revertable: " + id)
	}
	delete(l.reverts, id)
	label := l.items[idx].Label
	l.mu.Unlock()

	// callback runs unlocked; it usually mutates the datastore
	if err := fn(); err != nil {
		l.mu.Lock()
		l.reverts[id] = fn
		l.mu.Unlock()
		return Item{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if idx := l.indexLocked(id); idx >= 0 {
		l.items[idx].Revertable = false
	}
	return l.addLocked("Reverted: "+label, "Undid action "+id, nil), nil
}

// Clear drops everything but a fresh bootstrap entry.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reset()
}

// Items returns a copy of the log, most recent first.
func (l *Log) Items() []Item {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Item, len(l.items))
	copy(out, l.items)
	return out
}

func (l *Log) indexLocked(id string) int {
	for i, it := range l.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}
