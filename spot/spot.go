// Package spot defines the canonical spot record and helpers used across the
// ingest pipeline: creation, normalization, band mapping, and hashing for
// deduplication.
package spot

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/zeebo/xxh3"
)

// SourceType identifies which feed sub-topic a spot came from.
type SourceType string

const (
	SourceCluster SourceType = "CLUSTER" // raw DX-cluster spots
	SourceSkimmer SourceType = "SKIMMER" // skimmer/RBN reports
	SourceDigital SourceType = "DIGITAL" // digital-mode reception reports
)

// Spot represents a single spot report in canonical form. ProtocolClient
// creates it from a decoded payload; the pipeline mutates it in place through
// the normalize and enrich stages and it becomes effectively immutable once
// handed to storage.
type Spot struct {
	DXCall    string     `json:"dxCall"`             // station being spotted, uppercase after normalize
	DECall    string     `json:"spotter"`            // station reporting the spot; "unknown" when absent
	Frequency float64    `json:"frequencyKHz"`       // frequency in kHz, strictly positive
	Band      string     `json:"band"`               // derived band label or "unknown"
	Mode      string     `json:"mode"`               // reported or inferred mode, "unknown" otherwise
	Report    int        `json:"report,omitempty"`   // signal report in dB
	HasReport bool       `json:"hasReport"`          // distinguishes a real 0 dB from "absent"
	Time      time.Time  `json:"time"`               // UTC; ingestion time when the source omitted it
	Source    SourceType `json:"source"`             // feed sub-topic tag
	Country   string     `json:"country,omitempty"`  // DXCC entity name, when resolved
	Grid      string     `json:"grid,omitempty"`     // Maidenhead locator from the payload (4-6 chars)
	Latitude  *float64   `json:"latitude,omitempty"` // resolved DX coordinates
	Longitude *float64   `json:"longitude,omitempty"`
	Distance  *int       `json:"distanceKm,omitempty"` // great-circle km from the user reference location
	Bearing   *int       `json:"bearingDeg,omitempty"` // initial bearing in whole degrees
	Comment   string     `json:"comment,omitempty"`
}

// NewSpot creates a spot with the fields every decoder shape can supply.
func NewSpot(dxCall, deCall string, freqKHz float64, mode string) *Spot {
	return &Spot{
		DXCall:    strings.ToUpper(strings.TrimSpace(dxCall)),
		DECall:    strings.ToUpper(strings.TrimSpace(deCall)),
		Frequency: freqKHz,
		Mode:      strings.ToUpper(strings.TrimSpace(mode)),
		Time:      time.Now().UTC(),
	}
}

// SetLocation fills the resolved DX coordinates.
func (s *Spot) SetLocation(lat, lon float64) {
	s.Latitude = &lat
	s.Longitude = &lon
}

// SetPath fills distance/bearing as a pair; they are computed together from
// the same location pair and must never be set independently.
func (s *Spot) SetPath(distanceKm, bearingDeg int) {
	s.Distance = &distanceKm
	s.Bearing = &bearingDeg
}

// dedupBucketKHz is the frequency quantization for duplicate detection.
// Skimmers disagree by a kHz or two on the same transmission.
const dedupBucketKHz = 3.0

// DedupHash returns the 64-bit hash keying the dedup window: the normalized
// DX call (fixed-width 12 bytes) plus the frequency rounded to the nearest
// 3 kHz bucket. Little-endian encoding keeps the value deterministic across
// platforms.
func (s *Spot) DedupHash() uint64 {
	var buf [16]byte
	bucket := int64(math.Round(s.Frequency / dedupBucketKHz))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(bucket))
	writeFixedCall(buf[4:16], s.DXCall)
	return xxh3.Hash(buf[:])
}

// writeFixedCall assumes call is already normalized/uppercased ASCII.
func writeFixedCall(dst []byte, call string) {
	const maxLen = 12
	n := 0
	for i := 0; i < len(call) && n < maxLen; i++ {
		dst[n] = call[i]
		n++
	}
	for n < maxLen {
		dst[n] = 0
		n++
	}
}

// String returns a human-readable representation for logs.
func (s *Spot) String() string {
	return fmt.Sprintf("[%s] %s spotted %s on %.1f kHz (%s %s)",
		s.Time.Format("15:04:05"),
		s.DECall,
		s.DXCall,
		s.Frequency,
		s.Band,
		s.Mode)
}
