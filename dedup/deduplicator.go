// Package dedup implements a shard-locked deduplication cache that suppresses
// repeat reports of the same station/frequency pair within a time window.
package dedup

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"spotfeed/spot"
)

const (
	// DefaultWindow is how long a station/frequency pair suppresses repeats.
	DefaultWindow = 60 * time.Second
	// DefaultSweepInterval is the minimum gap between full cache sweeps.
	// Sweeping is opportunistic: it piggybacks on Check calls rather than
	// running on its own timer.
	DefaultSweepInterval = 2 * time.Minute
)

// shardCount must remain a power of two so shard selection can bit-mask the hash.
const shardCount = 64

// Deduplicator answers "have I seen this key recently?" with self-pruning
// state. A zero or negative window never flags duplicates, keeping the
// pipeline topology intact while disabling suppression.
type Deduplicator struct {
	window        time.Duration
	sweepInterval time.Duration
	clock         clockwork.Clock
	shards        []cacheShard
	lastSweep     atomic.Int64 // unix nanos of the last full sweep

	processed  atomic.Uint64
	duplicates atomic.Uint64
}

// cacheShard keeps a portion of the dedup cache guarded by its own lock.
// Sharding the map eliminates a single global mutex on the hot path.
type cacheShard struct {
	mu    sync.Mutex
	cache map[uint64]time.Time
}

// New creates a deduplicator with the given window and sweep interval.
// Non-positive arguments fall back to the defaults.
func New(window, sweepInterval time.Duration, clock clockwork.Clock) *Deduplicator {
	if window <= 0 {
		window = DefaultWindow
	}
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	shards := make([]cacheShard, shardCount)
	for i := range shards {
		shards[i].cache = make(map[uint64]time.Time)
	}
	d := &Deduplicator{
		window:        window,
		sweepInterval: sweepInterval,
		clock:         clock,
		shards:        shards,
	}
	d.lastSweep.Store(clock.Now().UnixNano())
	return d
}

// Check reports whether the spot duplicates one seen within the window.
// A fresh key (or one last seen outside the window) is accepted and its
// last-seen time updated; duplicates do not refresh the window. Safe for
// concurrent callers.
func (d *Deduplicator) Check(s *spot.Spot) bool {
	d.processed.Add(1)
	d.maybeSweep()

	hash := s.DedupHash()
	shard := &d.shards[hash&(shardCount-1)]
	now := d.clock.Now()

	shard.mu.Lock()
	last, seen := shard.cache[hash]
	if seen && now.Sub(last) < d.window {
		shard.mu.Unlock()
		d.duplicates.Add(1)
		return true
	}
	shard.cache[hash] = now
	shard.mu.Unlock()
	return false
}

// maybeSweep runs a full expiry sweep when enough time has passed since the
// last one. CompareAndSwap elects a single sweeper under concurrency.
func (d *Deduplicator) maybeSweep() {
	now := d.clock.Now()
	last := d.lastSweep.Load()
	if now.Sub(time.Unix(0, last)) < d.sweepInterval {
		return
	}
	if !d.lastSweep.CompareAndSwap(last, now.UnixNano()) {
		return
	}
	d.sweep(now)
}

func (d *Deduplicator) sweep(now time.Time) {
	for i := range d.shards {
		shard := &d.shards[i]
		shard.mu.Lock()
		for hash, last := range shard.cache {
			if now.Sub(last) > d.window {
				delete(shard.cache, hash)
			}
		}
		shard.mu.Unlock()
	}
}

// Stats returns processed/duplicate counters and the current cache size.
func (d *Deduplicator) Stats() (processed, duplicates uint64, cacheSize int) {
	for i := range d.shards {
		shard := &d.shards[i]
		shard.mu.Lock()
		cacheSize += len(shard.cache)
		shard.mu.Unlock()
	}
	return d.processed.Load(), d.duplicates.Load(), cacheSize
}
