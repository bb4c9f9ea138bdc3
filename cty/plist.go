package cty

import (
	"fmt"
	"io"
	"strings"

	"howett.net/plist"
)

// plistPrefix mirrors the cty.plist schema. The plist variant of the database
// carries the same entity metadata keyed directly by prefix or exact call.
type plistPrefix struct {
	Country       string  `plist:"Country"`
	Prefix        string  `plist:"Prefix"`
	ADIF          int     `plist:"ADIF"`
	CQZone        int     `plist:"CQZone"`
	ITUZone       int     `plist:"ITUZone"`
	Continent     string  `plist:"Continent"`
	Latitude      float64 `plist:"Latitude"`
	Longitude     float64 `plist:"Longitude"`
	GMTOffset     float64 `plist:"GMTOffset"`
	ExactCallsign bool    `plist:"ExactCallsign"`
}

// LoadPlistFromReader decodes a cty.plist database into the same lookup
// tables as the flat-file parser. Keys flagged ExactCallsign land in the
// exact-match table; everything else is a prefix entry.
func LoadPlistFromReader(r io.ReadSeeker) (*Database, error) {
	var raw map[string]plistPrefix
	if err := plist.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode plist: %w", err)
	}

	db := emptyDatabase()
	seen := make(map[string]bool, len(raw))
	for key, info := range raw {
		norm := strings.ToUpper(strings.TrimSpace(key))
		if norm == "" {
			continue
		}
		entry := Entry{
			Name:      info.Country,
			Latitude:  info.Latitude,
			Longitude: info.Longitude,
		}
		if info.ExactCallsign {
			db.exact[norm] = entry
		} else {
			db.prefixes[norm] = entry
		}
		// One Entity per country; plist rows repeat entity metadata per key.
		if !seen[info.Country] {
			seen[info.Country] = true
			db.Entities = append(db.Entities, Entity{
				Name:          info.Country,
				CQZone:        info.CQZone,
				ITUZone:       info.ITUZone,
				Continent:     info.Continent,
				Latitude:      info.Latitude,
				Longitude:     info.Longitude,
				GMTOffset:     info.GMTOffset,
				PrimaryPrefix: info.Prefix,
			})
		}
	}
	db.buildTrie()
	return db, nil
}
