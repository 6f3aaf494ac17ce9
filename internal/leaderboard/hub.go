package leaderboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dccc/clubhouse/internal/cache"
	"github.com/dccc/clubhouse/pkg/logging"
)

const changedChannel = "leaderboard:changed"

// Snapshot is one delivery of the live leaderboard. Versions increase
// strictly for the lifetime of a Hub.
type Snapshot struct {
	Version     uint64    `json:"version"`
	GeneratedAt time.Time `json:"generatedAt"`
	Entries     []Entry   `json:"users"`
}

// Hub pushes fresh standings to subscribers whenever a ledger changes.
// Subscribers may miss intermediate snapshots under churn but never receive
// an older snapshot after a newer one.
type Hub struct {
	view     *View
	redis    *cache.Cache
	instance string
	logger   *zap.Logger

	dirty chan struct{}

	mu      sync.Mutex
	subs    map[uint64]chan *Snapshot
	nextID  uint64
	latest  *Snapshot
	version uint64
	closed  bool
}

// NewHub creates a hub over view. With a non-nil redis, changes are fanned
// out to every instance sharing it.
func NewHub(view *View, redis *cache.Cache) *Hub {
	return &Hub{
		view:     view,
		redis:    redis,
		instance: uuid.NewString(),
		logger:   logging.WithComponent("leaderboard-hub"),
		dirty:    make(chan struct{}, 1),
		subs:     make(map[uint64]chan *Snapshot),
	}
}

// Subscribe registers a subscriber. The channel holds at most one pending
// snapshot and is closed when cancel is called or the hub stops.
func (h *Hub) Subscribe() (<-chan *Snapshot, func()) {
	ch := make(chan *Snapshot, 1)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	latest := h.latest
	if latest != nil {
		ch <- latest
	}
	h.mu.Unlock()

	if latest == nil {
		h.markDirty()
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if c, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(c)
			}
		})
	}
	return ch, cancel
}

// Notify signals that some ledger changed
func (h *Hub) Notify(ctx context.Context) {
	h.view.Invalidate()
	h.markDirty()
	if err := h.redis.Publish(ctx, changedChannel, h.instance); err != nil && !errors.Is(err, cache.ErrCacheDisabled) {
		h.logger.Warn("Failed to publish leaderboard change", zap.Error(err))
	}
}

func (h *Hub) markDirty() {
	select {
	case h.dirty <- struct{}{}:
	default:
	}
}

// Latest returns the most recently broadcast snapshot, or nil
func (h *Hub) Latest() *Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest
}

// Subscribers returns the number of live subscribers
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Run refreshes and broadcasts until ctx is done, then closes every
// subscriber channel.
func (h *Hub) Run(ctx context.Context) error {
	defer h.shutdown()

	remote, err := h.redis.Subscribe(ctx, changedChannel)
	switch {
	case err == nil:
		h.logger.Info("Leaderboard changes fanned out over Redis")
	case errors.Is(err, cache.ErrCacheDisabled):
		remote = nil
	default:
		h.logger.Warn("Leaderboard fan-out unavailable", zap.Error(err))
		remote = nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-h.dirty:
			h.refresh(ctx)
		case from, ok := <-remote:
			if !ok {
				remote = nil
				continue
			}
			if from != h.instance {
				h.view.Invalidate()
				h.markDirty()
			}
		}
	}
}

func (h *Hub) refresh(ctx context.Context) {
	entries, err := h.view.Refresh(ctx)
	if err != nil {
		h.logger.Error("Failed to refresh leaderboard", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.version++
	snap := &Snapshot{Version: h.version, GeneratedAt: time.Now().UTC(), Entries: entries}
	h.latest = snap

	for _, ch := range h.subs {
		// Latest wins: drop an undelivered older snapshot
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
