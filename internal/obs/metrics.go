package obs

import (
	"fmt"
	"strings"
	"sync/atomic"

	"main/internal/schema"
)

const maxEventKind = int(schema.KindRiskReject)

// Counters collects per-kind event counts for one bus. Attached as a
// generic subscriber, so every published event is observed. Lock-free;
// safe to snapshot from any goroutine.
type Counters struct {
	counts [maxEventKind + 1]atomic.Uint64
}

// NewCounters creates a zeroed counter set.
func NewCounters() *Counters { return &Counters{} }

// Observe records one event. Shaped to satisfy the bus's generic
// subscriber signature.
func (c *Counters) Observe(e schema.Event) {
	k := int(e.Kind())
	if k < 0 || k > maxEventKind {
		return
	}
	c.counts[k].Add(1)
}

// Count returns the number of observed events of one kind.
func (c *Counters) Count(k schema.EventKind) uint64 {
	i := int(k)
	if i < 0 || i > maxEventKind {
		return 0
	}
	return c.counts[i].Load()
}

// String renders the non-zero counters, for shutdown logs.
func (c *Counters) String() string {
	var b strings.Builder
	for k := 1; k <= maxEventKind; k++ {
		n := c.counts[k].Load()
		if n == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%d", schema.EventKind(k), n)
	}
	if b.Len() == 0 {
		return "none"
	}
	return b.String()
}
