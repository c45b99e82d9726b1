package schema

import "testing"

func TestOrderStatusSpellings(t *testing.T) {
	want := map[OrderStatus]string{
		OrderStatusNew:             "New",
		OrderStatusPendingNew:      "PendingNew",
		OrderStatusAccepted:        "Accepted",
		OrderStatusPartiallyFilled: "PartiallyFilled",
		OrderStatusFilled:          "Filled",
		OrderStatusCanceled:        "Canceled",
		OrderStatusRejected:        "Rejected",
		OrderStatusExpired:         "Expired",
	}
	for status, s := range want {
		if status.String() != s {
			t.Errorf("%d renders %q, want %q", status, status.String(), s)
		}
		parsed, ok := ParseOrderStatus(s)
		if !ok || parsed != status {
			t.Errorf("%q parses to %v/%v", s, parsed, ok)
		}
	}
	if _, ok := ParseOrderStatus("Unknown"); ok {
		t.Error("Unknown should not parse")
	}
}

func TestTerminalStatuses(t *testing.T) {
	terminal := []OrderStatus{OrderStatusFilled, OrderStatusCanceled, OrderStatusRejected, OrderStatusExpired}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	open := []OrderStatus{OrderStatusNew, OrderStatusPendingNew, OrderStatusAccepted, OrderStatusPartiallyFilled}
	for _, s := range open {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestSideRoundTrip(t *testing.T) {
	for _, side := range []Side{SideBuy, SideSell} {
		parsed, ok := ParseSide(side.String())
		if !ok || parsed != side {
			t.Errorf("%v round trips to %v/%v", side, parsed, ok)
		}
	}
	if _, ok := ParseSide("Hold"); ok {
		t.Error("Hold should not parse")
	}
}

func TestEventKindsAreDistinct(t *testing.T) {
	events := []Event{
		MarketDataEvent{},
		SignalEvent{},
		OrderEvent{},
		OrderUpdateEvent{},
		ExecutionReportEvent{},
		PositionUpdateEvent{},
		RiskViolationEvent{},
		FillEvent{},
		HeartbeatEvent{},
		RiskRejectEvent{},
	}
	seen := make(map[EventKind]bool)
	for _, e := range events {
		k := e.Kind()
		if k == KindUnknown {
			t.Errorf("%T reports unknown kind", e)
		}
		if seen[k] {
			t.Errorf("kind %v reused", k)
		}
		seen[k] = true
	}
}

func TestEventMetaPromotion(t *testing.T) {
	e := OrderUpdateEvent{EventMeta: EventMeta{SequenceID: 42}}
	if e.Meta().SequenceID != 42 {
		t.Fatal("embedded meta not promoted")
	}
}
