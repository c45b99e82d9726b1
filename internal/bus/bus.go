package bus

import (
	"sync"

	"main/internal/schema"
)

// SubscriptionID identifies one subscriber on one bus. Ids are never
// reused within a bus's lifetime and are only meaningful on the bus
// that issued them.
type SubscriptionID uint64

type subscriber struct {
	id SubscriptionID
	fn func(schema.Event)
}

// Bus is an in-process publish/subscribe dispatcher. Publish invokes
// subscribers in registration order; components depend on that order.
type Bus struct {
	mu     sync.Mutex
	nextID SubscriptionID
	subs   []subscriber
}

// NewBus creates an empty bus.
func NewBus() *Bus { return &Bus{} }

// SubscribeAny registers a callback invoked for every published event.
func (b *Bus) SubscribeAny(fn func(schema.Event)) SubscriptionID {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.subs = append(b.subs, subscriber{id: b.nextID, fn: fn})
	return b.nextID
}

// Subscribe registers a callback invoked only for events of variant T.
func Subscribe[T schema.Event](b *Bus, fn func(T)) SubscriptionID {
	return b.SubscribeAny(func(e schema.Event) {
		if v, ok := e.(T); ok {
			fn(v)
		}
	})
}

// Unsubscribe removes the matching subscriber. Unknown ids are ignored.
// An in-flight publish may still invoke the removed callback once.
func (b *Bus) Unsubscribe(id SubscriptionID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.id == id {
			// Three-index slice forces the append to copy, so a list
			// snapshot taken by an in-flight Publish stays intact.
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish invokes every current subscriber in registration order. The
// subscriber list is snapshotted under the lock and callbacks run
// unlocked, so they may call back into the bus without deadlock.
func (b *Bus) Publish(e schema.Event) {
	b.mu.Lock()
	subs := b.subs
	b.mu.Unlock()

	for _, s := range subs {
		s.fn(e)
	}
}

// SubscriberCount reports the current number of subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
