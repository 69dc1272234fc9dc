// Package dedupe tracks trigger IDs so each trigger is enqueued at most
// once, no matter how many times a client retries delivery.
package dedupe

import (
	"context"
	"sync"
)

// Tracker records trigger IDs for at-most-once intake.
type Tracker interface {
	// SeenAndRecord atomically checks whether id was seen before and
	// records it if not. Returns true when id was already present.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets an id so it may be retried. Intended for the
	// narrow window where an id was recorded but its trigger could not
	// be enqueued, e.g. queue backpressure.
	Unrecord(ctx context.Context, id string)

	// Size reports the number of tracked ids.
	Size() int64
}

// memoryTracker keeps tracked ids in a map, with an optional circular
// buffer providing FIFO eviction when a capacity is set. An unrecorded
// id leaves a stale slot in the ring that is reclaimed when the write
// cursor comes back around.
type memoryTracker struct {
	mu   sync.Mutex
	seen map[string]struct{}

	// ring is nil in unbounded mode. cursor points at the next slot to
	// overwrite, which in a full ring is also the oldest entry.
	ring   []string
	cursor int
	filled bool
}

// NewMemoryTracker builds a tracker. Without options it is bounded at
// defaultMaxEntries.
func NewMemoryTracker(opts ...Option) Tracker {
	cfg := settings{maxEntries: defaultMaxEntries}
	for _, opt := range opts {
		opt(&cfg)
	}

	t := &memoryTracker{
		seen: make(map[string]struct{}),
	}
	if cfg.maxEntries > 0 {
		t.ring = make([]string, cfg.maxEntries)
	}
	return t
}

func (t *memoryTracker) SeenAndRecord(_ context.Context, id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.seen[id]; ok {
		return true
	}

	if t.ring != nil {
		if t.filled {
			// Oldest slot is about to be overwritten; drop its id if it
			// is still tracked. Unrecord may have removed it already.
			delete(t.seen, t.ring[t.cursor])
		}
		t.ring[t.cursor] = id
		t.cursor++
		if t.cursor == len(t.ring) {
			t.cursor = 0
			t.filled = true
		}
	}

	t.seen[id] = struct{}{}
	return false
}

func (t *memoryTracker) Unrecord(_ context.Context, id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.seen, id)
}

func (t *memoryTracker) Size() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return int64(len(t.seen))
}
