// Package location holds the mutable user reference location read by the
// enrich stage. Reads observe a consistent snapshot: the pair is published
// atomically as a single immutable value, never as two separate fields.
package location

import "sync/atomic"

type point struct {
	lat float64
	lon float64
}

// Provider exposes the current reference location with snapshot-read
// semantics. The zero value has no location set.
type Provider struct {
	p atomic.Pointer[point]
}

// New returns a provider with no location set.
func New() *Provider {
	return &Provider{}
}

// NewAt returns a provider pre-set to the given coordinates.
func NewAt(lat, lon float64) *Provider {
	p := New()
	p.Set(lat, lon)
	return p
}

// Set publishes a new reference location.
func (p *Provider) Set(lat, lon float64) {
	p.p.Store(&point{lat: lat, lon: lon})
}

// Clear removes the reference location; subsequent reads report none.
func (p *Provider) Clear() {
	p.p.Store(nil)
}

// Current returns the reference location, or ok=false when none is set.
func (p *Provider) Current() (lat, lon float64, ok bool) {
	if p == nil {
		return 0, 0, false
	}
	pt := p.p.Load()
	if pt == nil {
		return 0, 0, false
	}
	return pt.lat, pt.lon, true
}
