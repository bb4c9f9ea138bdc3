package cty

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const samplePlist = `<?xml version="1.0" encoding="UTF-8"?>
<plist version="1.0">
<dict>
<key>W1AW</key>
	<dict>
		<key>Country</key>
		<string>United States</string>
		<key>Prefix</key>
		<string>K</string>
		<key>Continent</key>
		<string>NA</string>
		<key>CQZone</key>
		<integer>5</integer>
		<key>ITUZone</key>
		<integer>8</integer>
		<key>Latitude</key>
		<real>41.7</real>
		<key>Longitude</key>
		<real>-72.7</real>
		<key>ExactCallsign</key>
		<true/>
	</dict>
<key>K</key>
	<dict>
		<key>Country</key>
		<string>United States</string>
		<key>Prefix</key>
		<string>K</string>
		<key>Continent</key>
		<string>NA</string>
		<key>CQZone</key>
		<integer>5</integer>
		<key>ITUZone</key>
		<integer>8</integer>
		<key>Latitude</key>
		<real>37.53</real>
		<key>Longitude</key>
		<real>-91.67</real>
		<key>ExactCallsign</key>
		<false/>
	</dict>
<key>KH6</key>
	<dict>
		<key>Country</key>
		<string>Hawaii</string>
		<key>Prefix</key>
		<string>KH6</string>
		<key>Continent</key>
		<string>OC</string>
		<key>CQZone</key>
		<integer>31</integer>
		<key>ITUZone</key>
		<integer>61</integer>
		<key>Latitude</key>
		<real>21.32</real>
		<key>Longitude</key>
		<real>-157.92</real>
		<key>ExactCallsign</key>
		<false/>
	</dict>
<key>ja</key>
	<dict>
		<key>Country</key>
		<string>Japan</string>
		<key>Prefix</key>
		<string>JA</string>
		<key>Continent</key>
		<string>AS</string>
		<key>CQZone</key>
		<integer>25</integer>
		<key>ITUZone</key>
		<integer>45</integer>
		<key>Latitude</key>
		<real>36.4</real>
		<key>Longitude</key>
		<real>138.38</real>
		<key>ExactCallsign</key>
		<false/>
	</dict>
</dict>
</plist>`

func loadSamplePlist(t *testing.T) *Database {
	t.Helper()
	db, err := LoadPlistFromReader(strings.NewReader(samplePlist))
	if err != nil {
		t.Fatalf("load sample plist: %v", err)
	}
	return db
}

func TestPlistExactAndPrefixRouting(t *testing.T) {
	db := loadSamplePlist(t)

	// W1AW is flagged ExactCallsign and must land in the exact table with
	// its own coordinates, not the K prefix entry's.
	entry, ok := db.LookupCallsign("W1AW")
	if !ok {
		t.Fatal("expected exact match for W1AW")
	}
	if entry.Name != "United States" || entry.Latitude != 41.7 || entry.Longitude != -72.7 {
		t.Errorf("W1AW = %+v, want United States at 41.7/-72.7", entry)
	}

	// Any other W call falls through to the K prefix entry.
	entry, ok = db.LookupCallsign("K1XYZ")
	if !ok {
		t.Fatal("expected prefix match for K1XYZ")
	}
	if entry.Latitude != 37.53 {
		t.Errorf("K1XYZ latitude = %v, want 37.53 (prefix entry)", entry.Latitude)
	}

	// Longer prefix still wins over the shorter one.
	entry, ok = db.LookupCallsign("KH6ABC")
	if !ok {
		t.Fatal("expected prefix match for KH6ABC")
	}
	if entry.Name != "Hawaii" {
		t.Errorf("KH6ABC country = %q, want Hawaii", entry.Name)
	}
}

func TestPlistNormalizesKeys(t *testing.T) {
	db := loadSamplePlist(t)
	entry, ok := db.LookupCallsign("JA1ABC")
	if !ok {
		t.Fatal("expected lowercase plist key ja to register as JA")
	}
	if entry.Name != "Japan" {
		t.Errorf("JA1ABC country = %q, want Japan", entry.Name)
	}
}

func TestPlistEntityDedup(t *testing.T) {
	db := loadSamplePlist(t)

	// W1AW and K both carry United States metadata; one Entity each for
	// United States, Hawaii and Japan.
	if got := db.EntityCount(); got != 3 {
		t.Errorf("EntityCount() = %d, want 3", got)
	}
	names := make(map[string]int)
	for _, e := range db.Entities {
		names[e.Name]++
	}
	for _, name := range []string{"United States", "Hawaii", "Japan"} {
		if names[name] != 1 {
			t.Errorf("entity %q appears %d times, want 1", name, names[name])
		}
	}
	if got := db.PrefixCount(); got != 4 {
		t.Errorf("PrefixCount() = %d, want 4", got)
	}
}

func TestPlistRejectsMalformedInput(t *testing.T) {
	if _, err := LoadPlistFromReader(strings.NewReader("not a plist")); err == nil {
		t.Fatal("expected error for malformed plist input")
	}
}

func TestLoadSelectsPlistLoaderByExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cty.plist")
	if err := os.WriteFile(path, []byte(samplePlist), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	db, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := db.LookupCallsign("W1AW"); !ok {
		t.Error("expected Load on a .plist path to use the plist loader")
	}
}
