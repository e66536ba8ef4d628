package rank

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/reunite-labs/reunite/internal/domain/match"
)

// HandleStore keeps recent ranking results retrievable by an opaque
// handle, so a client can re-fetch a result page without re-running the
// pipeline. Entries expire after a TTL; expired entries are swept lazily
// on access.
type HandleStore struct {
	mu      sync.Mutex
	entries map[string]handleEntry
	ttl     time.Duration
	now     func() time.Time
}

type handleEntry struct {
	result    match.Result
	expiresAt time.Time
}

// NewHandleStore creates a handle store with the given TTL.
func NewHandleStore(ttl time.Duration) *HandleStore {
	return &HandleStore{
		entries: make(map[string]handleEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Put stores a result and returns its handle.
func (h *HandleStore) Put(result match.Result) string {
	handle := uuid.NewString()

	h.mu.Lock()
	defer h.mu.Unlock()

	h.sweep()
	h.entries[handle] = handleEntry{
		result:    result,
		expiresAt: h.now().Add(h.ttl),
	}
	return handle
}

// Get returns a stored result, or false when the handle is unknown or
// expired.
func (h *HandleStore) Get(handle string) (match.Result, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	e, ok := h.entries[handle]
	if !ok {
		return match.Result{}, false
	}
	if h.now().After(e.expiresAt) {
		delete(h.entries, handle)
		return match.Result{}, false
	}
	return e.result, true
}

// sweep removes expired entries. Caller must hold the lock.
func (h *HandleStore) sweep() {
	now := h.now()
	for k, e := range h.entries {
		if now.After(e.expiresAt) {
			delete(h.entries, k)
		}
	}
}
