package broadcast

import (
	"sync/atomic"

	"spotfeed/spot"
)

// ring is a lock-free circular buffer of recently published spots. Each slot
// is an atomic pointer paired with a monotonic sequence counter, so readers
// either see a complete spot or the previous one, never a partially written
// slot.
type ring struct {
	slots    []atomic.Pointer[ringEntry]
	capacity int
	total    atomic.Uint64 // total spots published (may exceed capacity)
}

type ringEntry struct {
	seq  uint64
	spot *spot.Spot
}

func newRing(capacity int) *ring {
	return &ring{
		slots:    make([]atomic.Pointer[ringEntry], capacity),
		capacity: capacity,
	}
}

// add publishes a spot into the next slot. The sequence number lets readers
// skip slots that were overwritten after wraparound.
func (r *ring) add(s *spot.Spot) {
	seq := r.total.Add(1)
	idx := (seq - 1) % uint64(r.capacity)
	r.slots[idx].Store(&ringEntry{seq: seq, spot: s})
}

// recent returns up to n of the newest spots, newest first. Readers walk the
// sequence-ordered ring backward without taking locks or disturbing writers.
func (r *ring) recent(n int) []*spot.Spot {
	if n <= 0 {
		return nil
	}
	total := r.total.Load()
	available := int(total)
	if available > r.capacity {
		available = r.capacity
	}
	if n > available {
		n = available
	}
	result := make([]*spot.Spot, 0, n)
	minSeq := total - uint64(available)
	for seq := total; seq > minSeq && len(result) < n; seq-- {
		idx := (seq - 1) % uint64(r.capacity)
		if entry := r.slots[idx].Load(); entry != nil && entry.seq == seq {
			result = append(result, entry.spot)
		}
	}
	return result
}
