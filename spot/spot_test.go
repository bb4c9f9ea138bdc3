package spot

import (
	"strings"
	"testing"
)

func TestDedupHashToleratesFrequencyJitter(t *testing.T) {
	a := NewSpot("JA1ABC", "W1AW", 14024.9, "CW")
	b := NewSpot("JA1ABC", "K3LR", 14025.8, "CW") // same bucket, different spotter
	if a.DedupHash() != b.DedupHash() {
		t.Error("spots in the same 3 kHz bucket should hash identically")
	}
}

func TestDedupHashDistinguishes(t *testing.T) {
	base := NewSpot("JA1ABC", "W1AW", 14025, "CW")
	otherCall := NewSpot("JA1ABD", "W1AW", 14025, "CW")
	if base.DedupHash() == otherCall.DedupHash() {
		t.Error("different callsigns must hash differently")
	}
	farFreq := NewSpot("JA1ABC", "W1AW", 14035, "CW")
	if base.DedupHash() == farFreq.DedupHash() {
		t.Error("frequencies in different buckets must hash differently")
	}
}

func TestDedupHashLongCallsign(t *testing.T) {
	// Calls longer than the fixed-width field truncate; the hash must still
	// be stable and not panic.
	long := NewSpot(strings.Repeat("A", 20), "W1AW", 7000, "CW")
	if long.DedupHash() == 0 {
		t.Error("hash of long callsign should be nonzero")
	}
}

func TestNewSpotNormalizes(t *testing.T) {
	s := NewSpot(" ja1abc ", "w1aw", 14025, "cw")
	if s.DXCall != "JA1ABC" || s.DECall != "W1AW" || s.Mode != "CW" {
		t.Errorf("NewSpot did not normalize: %+v", s)
	}
	if s.Time.IsZero() {
		t.Error("NewSpot should stamp a default time")
	}
}

func TestSetPath(t *testing.T) {
	s := NewSpot("JA1ABC", "W1AW", 14025, "CW")
	if s.Distance != nil || s.Bearing != nil {
		t.Fatal("path fields should start unset")
	}
	s.SetPath(10801, 333)
	if s.Distance == nil || *s.Distance != 10801 {
		t.Errorf("Distance = %v, want 10801", s.Distance)
	}
	if s.Bearing == nil || *s.Bearing != 333 {
		t.Errorf("Bearing = %v, want 333", s.Bearing)
	}
}
