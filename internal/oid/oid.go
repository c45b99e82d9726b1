package oid

import "sync/atomic"

// Generator issues unique, strictly increasing 64-bit order ids starting
// at 1. Safe for concurrent callers; ordering between callers is
// unspecified, uniqueness is the only contract.
type Generator struct {
	last atomic.Uint64
}

// Next returns the next unused id.
func (g *Generator) Next() uint64 { return g.last.Add(1) }
