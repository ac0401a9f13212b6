// Package datastore owns the in-memory call and contact collections and
// keeps them in sync with the backend and the local cache. Local state is
// authoritative for the session; the backend is a best-effort mirror.
package datastore

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/horizonprm/horizon/internal/backend"
	"github.com/horizonprm/horizon/internal/errors"
	"github.com/horizonprm/horizon/internal/logging"
	"github.com/horizonprm/horizon/internal/metrics"
	"github.com/horizonprm/horizon/internal/record"
)

// ConnectionStatus describes the last interaction with the backend.
type ConnectionStatus string

const (
	StatusConnected ConnectionStatus = "connected"
	StatusOffline   ConnectionStatus = "offline"
	StatusError     ConnectionStatus = "error"
)

// SyncWarning is surfaced when a locally saved call could not be mirrored.
const SyncWarning = "Data saved locally. Cloud sync failed - check connection."

// Remote is the backend surface the controller needs.
type Remote interface {
	FetchAll(ctx context.Context) (*backend.Dataset, error)
	PostCall(ctx context.Context, call record.CallRecord) error
}

// Cache persists the call collection between runs.
type Cache interface {
	LoadCalls(ctx context.Context) ([]record.CallRecord, error)
	SaveCalls(ctx context.Context, calls []record.CallRecord) error
}

// Snapshot is an immutable copy of the controller state.
type Snapshot struct {
	Calls            []record.CallRecord `json:"calls"`
	Contacts         []record.Contact    `json:"contacts"`
	ConnectionStatus ConnectionStatus    `json:"connectionStatus"`
	Loading          bool                `json:"loading"`
	Error            string              `json:"error,omitempty"`
	Warning          string              `json:"warning,omitempty"`
	RefreshedAt      time.Time           `json:"refreshedAt"`
}

// Controller coordinates refresh, fallback and optimistic mutation.
type Controller struct {
	remote Remote
	cache  Cache
	log    *zap.Logger

	mu          sync.Mutex
	calls       []record.CallRecord
	contacts    []record.Contact
	status      ConnectionStatus
	loading     bool
	errMsg      string
	warning     string
	refreshedAt time.Time

	// token is the newest refresh issued; responses carrying an older
	// token are discarded.
	token uint64

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int

	syncs     sync.WaitGroup
	startOnce sync.Once
}

// New creates a controller. It holds no data until Start or Refresh runs.
func New(remote Remote, cache Cache, log *zap.Logger) *Controller {
	return &Controller{
		remote:   remote,
		cache:    cache,
		log:      logging.OrNop(log).Named("datastore"),
		calls:    []record.CallRecord{},
		contacts: []record.Contact{},
		status:   StatusOffline,
		subs:     make(map[int]func(Snapshot)),
	}
}

// Start performs the initial refresh. Later calls are no-ops; there is no
// polling, every subsequent refresh is caller-initiated.
func (c *Controller) Start(ctx context.Context) error {
	var err error
	c.startOnce.Do(func() {
		err = c.Refresh(ctx)
	})
	return err
}

// Refresh replaces both collections from the backend. When the backend is
// not configured or fails, the controller goes offline and falls back to
// cached calls or the mock dataset, so the state is always renderable. The
// fetch error, if any, is returned for reporting only.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.token++
	token := c.token
	c.loading = true
	c.errMsg = ""
	c.mu.Unlock()
	c.publish()

	ds, fetchErr := c.remote.FetchAll(ctx)

	c.mu.Lock()
	if token != c.token {
		c.mu.Unlock()
		metrics.Refreshes.WithLabelValues("stale").Inc()
		c.log.Debug("discarding stale refresh", zap.Uint64("token", token))
		return fetchErr
	}
	defer func() {
		c.loading = false
		c.refreshedAt = time.Now()
		metrics.SetConnectionStatus(string(c.status))
		metrics.CallsLoaded.Set(float64(len(c.calls)))
		c.mu.Unlock()
		c.publish()
	}()

	switch {
	case fetchErr != nil:
		c.errMsg = errors.As(fetchErr).Message
		c.status = StatusOffline
		c.log.Warn("refresh failed, using fallback data", zap.Error(fetchErr))
		c.fallbackLocked(ctx)
		metrics.Refreshes.WithLabelValues("offline").Inc()
	case ds == nil:
		c.status = StatusOffline
		c.log.Warn("backend not configured, using fallback data")
		c.fallbackLocked(ctx)
		metrics.Refreshes.WithLabelValues("offline").Inc()
	default:
		c.calls = record.CloneCalls(ds.Calls)
		c.contacts = record.CloneContacts(ds.Contacts)
		if c.calls == nil {
			c.calls = []record.CallRecord{}
		}
		if c.contacts == nil {
			c.contacts = []record.Contact{}
		}
		c.status = StatusConnected
		c.persistLocked(ctx)
		metrics.Refreshes.WithLabelValues("connected").Inc()
	}
	return fetchErr
}

// fallbackLocked loads cached calls with mock contacts, or the full mock
// dataset when nothing usable is cached. An empty cached list counts as
// nothing cached.
func (c *Controller) fallbackLocked(ctx context.Context) {
	cached, err := c.cache.LoadCalls(ctx)
	if err != nil {
		c.log.Warn("ignoring unreadable call cache", zap.Error(err))
	}
	if len(cached) > 0 {
		c.calls = cached
	} else {
		c.calls = record.MockCalls()
	}
	c.contacts = record.MockContacts()
}

func (c *Controller) persistLocked(ctx context.Context) {
	if err := c.cache.SaveCalls(ctx, c.calls); err != nil {
		c.log.Error("failed to cache calls", zap.Error(err))
	}
}

// AddCall prepends call and caches the collection before mirroring it to
// the backend in the background. A failed mirror sets SyncWarning and keeps
// the local copy. Use Wait to block until background syncs finish.
func (c *Controller) AddCall(ctx context.Context, call record.CallRecord) {
	c.mu.Lock()
	next := make([]record.CallRecord, 0, len(c.calls)+1)
	next = append(next, call.Clone())
	next = append(next, c.calls...)
	c.calls = next
	c.persistLocked(ctx)
	metrics.CallsLoaded.Set(float64(len(c.calls)))
	c.mu.Unlock()
	c.publish()

	syncCtx := context.WithoutCancel(ctx)
	c.syncs.Add(1)
	go func() {
		defer c.syncs.Done()
		err := c.remote.PostCall(syncCtx, call)

		c.mu.Lock()
		if err != nil {
			c.warning = SyncWarning
			metrics.SyncFailures.Inc()
			c.log.Warn("call saved locally but sync failed", zap.String("call_id", call.ID), zap.Error(err))
		} else {
			c.status = StatusConnected
			metrics.SetConnectionStatus(string(c.status))
		}
		c.mu.Unlock()
		c.publish()
	}()
}

// Wait blocks until every background sync started by AddCall has finished.
func (c *Controller) Wait() {
	c.syncs.Wait()
}

// UpdateCalls replaces the call collection wholesale and re-caches it.
func (c *Controller) UpdateCalls(ctx context.Context, calls []record.CallRecord) {
	c.mu.Lock()
	c.calls = record.CloneCalls(calls)
	if c.calls == nil {
		c.calls = []record.CallRecord{}
	}
	c.persistLocked(ctx)
	metrics.CallsLoaded.Set(float64(len(c.calls)))
	c.mu.Unlock()
	c.publish()
}

// UpdateCall replaces the record with the same id and re-caches. The change
// is local only; single-record edits are not mirrored to the backend.
func (c *Controller) UpdateCall(ctx context.Context, updated record.CallRecord) error {
	c.mu.Lock()
	idx := indexOf(c.calls, updated.ID)
	if idx < 0 {
		c.mu.Unlock()
		return errors.NewNotFound("call", updated.ID)
	}
	next := record.CloneCalls(c.calls)
	next[idx] = updated.Clone()
	c.calls = next
	c.persistLocked(ctx)
	c.mu.Unlock()
	c.publish()
	return nil
}

// ArchiveCalls removes the given ids and returns the removed records in
// their original order. Unknown ids are ignored.
func (c *Controller) ArchiveCalls(ctx context.Context, ids []string) []record.CallRecord {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	c.mu.Lock()
	kept := make([]record.CallRecord, 0, len(c.calls))
	var archived []record.CallRecord
	for _, call := range c.calls {
		if drop[call.ID] {
			archived = append(archived, call)
			continue
		}
		kept = append(kept, call)
	}
	c.mu.Unlock()

	if len(archived) == 0 {
		return nil
	}
	c.UpdateCalls(ctx, kept)
	return archived
}

// RestoreCalls puts previously archived records back at the front of the
// collection, skipping any id already present.
func (c *Controller) RestoreCalls(ctx context.Context, restored []record.CallRecord) {
	c.mu.Lock()
	next := make([]record.CallRecord, 0, len(c.calls)+len(restored))
	for _, call := range restored {
		if indexOf(c.calls, call.ID) < 0 {
			next = append(next, call.Clone())
		}
	}
	next = append(next, c.calls...)
	c.mu.Unlock()

	c.UpdateCalls(ctx, next)
}

// Call returns the record with id.
func (c *Controller) Call(id string) (record.CallRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := indexOf(c.calls, id)
	if idx < 0 {
		return record.CallRecord{}, errors.NewNotFound("call", id)
	}
	return c.calls[idx].Clone(), nil
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// ClearWarning dismisses the sync warning.
func (c *Controller) ClearWarning() {
	c.mu.Lock()
	c.warning = ""
	c.mu.Unlock()
	c.publish()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		Calls:            record.CloneCalls(c.calls),
		Contacts:         record.CloneContacts(c.contacts),
		ConnectionStatus: c.status,
		Loading:          c.loading,
		Error:            c.errMsg,
		Warning:          c.warning,
		RefreshedAt:      c.refreshedAt,
	}
}

// Subscribe registers fn for state changes and calls it immediately with
// the current state. Listeners run synchronously on the mutating goroutine.
func (c *Controller) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	fn(c.Snapshot())

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

func (c *Controller) publish() {
	c.subMu.Lock()
	if len(c.subs) == 0 {
		c.subMu.Unlock()
		return
	}
	fns := make([]func(Snapshot), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	snap := c.Snapshot()
	for _, fn := range fns {
		fn(snap)
	}
}

func indexOf(calls []record.CallRecord, id string) int {
	for i, call := range calls {
		if call.ID == id {
			return i
		}
	}
	return -1
}
