package watch

import (
	"sync"
)

// Hub fans change notifications out to live-list subscribers, partitioned by
// owner scope. Writers call Notify after every successful mutation; each
// subscriber re-reads the full product list when its channel ticks, so a
// later tick always supersedes an earlier one and ticks may be coalesced.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[*subscription]struct{}
}

type subscription struct {
	ch   chan struct{}
	once sync.Once
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*subscription]struct{})}
}

// Subscribe registers a listener for the owner's products. The returned
// cancel func must be called when the consumer goes away; it is safe to call
// more than once and closes the channel so ranging consumers terminate.
func (h *Hub) Subscribe(ownerID string) (<-chan struct{}, func()) {
	sub := &subscription{
		// Buffer of one: only the fact that something changed matters,
		// not how many times.
		ch: make(chan struct{}, 1),
	}

	h.mu.Lock()
	if h.subs[ownerID] == nil {
		h.subs[ownerID] = make(map[*subscription]struct{})
	}
	h.subs[ownerID][sub] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		sub.once.Do(func() {
			h.mu.Lock()
			delete(h.subs[ownerID], sub)
			if len(h.subs[ownerID]) == 0 {
				delete(h.subs, ownerID)
			}
			h.mu.Unlock()
			close(sub.ch)
		})
	}

	return sub.ch, cancel
}

// Notify wakes every subscriber of the owner scope. The send never blocks; a
// subscriber that already has a pending tick needs no second one.
func (h *Hub) Notify(ownerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[ownerID] {
		select {
		case sub.ch <- struct{}{}:
		default:
		}
	}
}

// SubscriberCount reports how many listeners an owner scope currently has.
func (h *Hub) SubscriberCount(ownerID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[ownerID])
}
