package bus

import (
	"testing"

	"main/internal/schema"
)

func TestBusPublishesInRegistrationOrder(t *testing.T) {
	b := NewBus()

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		b.SubscribeAny(func(schema.Event) { order = append(order, i) })
	}

	b.Publish(schema.HeartbeatEvent{Source: "test"})

	if len(order) != 5 {
		t.Fatalf("got %d invocations, want 5", len(order))
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("invocation order %v, want ascending", order)
		}
	}
}

func TestBusTypedSubscriptionFilters(t *testing.T) {
	b := NewBus()

	var signals, all int
	Subscribe(b, func(schema.SignalEvent) { signals++ })
	b.SubscribeAny(func(schema.Event) { all++ })

	b.Publish(schema.SignalEvent{Symbol: "AAPL"})
	b.Publish(schema.MarketDataEvent{Symbol: "AAPL"})

	if signals != 1 {
		t.Fatalf("typed subscriber invoked %d times, want 1", signals)
	}
	if all != 2 {
		t.Fatalf("generic subscriber invoked %d times, want 2", all)
	}
}

func TestBusUnsubscribeRestoresCount(t *testing.T) {
	b := NewBus()

	var count int
	b.SubscribeAny(func(schema.Event) { count++ })
	id := b.SubscribeAny(func(schema.Event) { count++ })

	b.Unsubscribe(id)
	b.Publish(schema.HeartbeatEvent{})

	if count != 1 {
		t.Fatalf("got %d invocations after unsubscribe, want 1", count)
	}
}

func TestBusUnsubscribeUnknownIDIsIgnored(t *testing.T) {
	b := NewBus()
	b.SubscribeAny(func(schema.Event) {})
	b.Unsubscribe(SubscriptionID(999))

	if n := b.SubscriberCount(); n != 1 {
		t.Fatalf("subscriber count %d, want 1", n)
	}
}

func TestBusHandlesAreNeverReused(t *testing.T) {
	b := NewBus()

	seen := make(map[SubscriptionID]bool)
	for i := 0; i < 100; i++ {
		id := b.SubscribeAny(func(schema.Event) {})
		if seen[id] {
			t.Fatalf("handle %d reused", id)
		}
		seen[id] = true
		b.Unsubscribe(id)
	}
}

func TestBusReentrantPublish(t *testing.T) {
	b := NewBus()

	var got []schema.EventKind
	Subscribe(b, func(e schema.SignalEvent) {
		b.Publish(schema.OrderEvent{Order: schema.Order{Symbol: e.Symbol}})
	})
	b.SubscribeAny(func(e schema.Event) { got = append(got, e.Kind()) })

	b.Publish(schema.SignalEvent{Symbol: "AAPL"})

	// The nested publish completes before the outer dispatch reaches the
	// recording subscriber.
	if len(got) != 2 || got[0] != schema.KindOrder || got[1] != schema.KindSignal {
		t.Fatalf("got kinds %v", got)
	}
}

func TestBusSubscribeDuringPublishDoesNotDeadlock(t *testing.T) {
	b := NewBus()

	var added SubscriptionID
	b.SubscribeAny(func(schema.Event) {
		added = b.SubscribeAny(func(schema.Event) {})
	})
	b.Publish(schema.HeartbeatEvent{})

	if added == 0 {
		t.Fatal("nested subscribe did not run")
	}
	if n := b.SubscriberCount(); n != 2 {
		t.Fatalf("subscriber count %d, want 2", n)
	}
}

func TestBusUnsubscribeDuringPublishAffectsNextPublish(t *testing.T) {
	b := NewBus()

	var second int
	var id SubscriptionID
	b.SubscribeAny(func(schema.Event) { b.Unsubscribe(id) })
	id = b.SubscribeAny(func(schema.Event) { second++ })

	// The in-flight publish may still reach the removed subscriber.
	b.Publish(schema.HeartbeatEvent{})
	first := second

	b.Publish(schema.HeartbeatEvent{})
	if second != first {
		t.Fatalf("unsubscribed callback invoked on a later publish")
	}
}
