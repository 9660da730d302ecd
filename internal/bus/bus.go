package bus

import (
	"sync"

	"github.com/openverse/campus-api/internal/models"
)

// ContentListener receives the full post-mutation content collection.
type ContentListener func(items []models.ContentItem)

// ContentBus broadcasts full content snapshots to registered listeners.
// Delivery runs synchronously in registration order, so every listener
// observes snapshots in the order mutations were applied. Unsubscribing
// during delivery is safe; the listener may still receive the snapshot
// currently in flight.
type ContentBus struct {
	mu     sync.Mutex
	nextID int
	order  []int
	subs   map[int]ContentListener
	last   []models.ContentItem
}

// NewContentBus constructs an empty bus.
func NewContentBus() *ContentBus {
	return &ContentBus{subs: make(map[int]ContentListener)}
}

// Subscribe registers a listener and immediately delivers the current
// snapshot. The returned function unregisters the listener and is safe
// to call more than once.
func (b *ContentBus) Subscribe(fn ContentListener) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.order = append(b.order, id)
	current := b.last
	b.mu.Unlock()

	fn(current)

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[id]; !ok {
			return
		}
		delete(b.subs, id)
		for i, v := range b.order {
			if v == id {
				b.order = append(b.order[:i], b.order[i+1:]...)
				break
			}
		}
	}
}

// Publish records the snapshot as current and delivers it to every
// registered listener.
func (b *ContentBus) Publish(items []models.ContentItem) {
	b.mu.Lock()
	b.last = items
	ids := append([]int(nil), b.order...)
	listeners := make([]ContentListener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, b.subs[id])
	}
	b.mu.Unlock()

	for _, fn := range listeners {
		fn(items)
	}
}

// Subscribers reports the current listener count.
func (b *ContentBus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// UserListener receives an updated user record after a ledger mutation.
type UserListener func(user models.User)

// UserBus fans updated user records out to live sessions so a client
// sees its karma and level move without refetching.
type UserBus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]UserListener
}

// NewUserBus constructs an empty user bus.
func NewUserBus() *UserBus {
	return &UserBus{subs: make(map[int]UserListener)}
}

// Subscribe registers a listener; the returned function unregisters it.
func (b *UserBus) Subscribe(fn UserListener) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Publish delivers the updated record to every listener.
func (b *UserBus) Publish(user models.User) {
	b.mu.Lock()
	listeners := make([]UserListener, 0, len(b.subs))
	for _, fn := range b.subs {
		listeners = append(listeners, fn)
	}
	b.mu.Unlock()

	for _, fn := range listeners {
		fn(user)
	}
}
