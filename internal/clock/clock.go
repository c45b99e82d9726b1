package clock

import (
	"sync/atomic"
	"time"
)

// ToMillis converts a timestamp to integer epoch milliseconds.
func ToMillis(t time.Time) int64 { return t.UnixMilli() }

// FromMillis converts integer epoch milliseconds to a timestamp.
func FromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

// TimeProvider reads the current time in epoch milliseconds.
type TimeProvider interface {
	NowMillis() int64
}

// Wall reads the operating system clock.
type Wall struct{}

func (Wall) NowMillis() int64 { return time.Now().UnixMilli() }

// Simulated is an externally driven clock used during backtests. The
// market-data ingress is the single writer; any goroutine may read.
type Simulated struct {
	ms atomic.Int64
}

// NewSimulated creates a simulated clock at the given epoch-millisecond
// instant.
func NewSimulated(startMillis int64) *Simulated {
	c := &Simulated{}
	c.ms.Store(startMillis)
	return c
}

func (c *Simulated) NowMillis() int64 { return c.ms.Load() }

// Advance moves the clock to the given epoch-millisecond instant.
func (c *Simulated) Advance(ms int64) { c.ms.Store(ms) }
