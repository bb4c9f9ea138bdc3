// Package cty loads and queries the CTY prefix database so spots can be
// enriched with country metadata and approximate coordinates using a
// longest-prefix lookup, plus the Maidenhead and great-circle geometry used
// by the enrich stage.
package cty

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Entity describes one DXCC entity parsed from a database header line.
// Entities are immutable once loaded.
type Entity struct {
	Name          string
	CQZone        int
	ITUZone       int
	Continent     string
	Latitude      float64
	Longitude     float64 // east-positive; negated from the file's convention
	GMTOffset     float64
	PrimaryPrefix string
}

// Entry is the value resolved per prefix or exact-match key. Only the
// coordinates (possibly overridden per token) and the entity name are kept;
// zone/continent/offset overrides affect entity metadata the lookup API does
// not expose.
type Entry struct {
	Name      string
	Latitude  float64
	Longitude float64
}

// Database holds the parsed entity list and the exact/prefix lookup tables.
// All tables are built once at load time and never mutated afterward, so
// concurrent reads need no synchronization.
type Database struct {
	Entities []Entity
	exact    map[string]Entry
	prefixes map[string]Entry
	trie     ctyTrie
}

// Load reads a CTY database from path. A missing file is a configuration
// warning, not an error: the returned database is empty and every lookup
// misses. Files ending in .plist use the plist loader; anything else is
// parsed as the flat cty.dat format.
func Load(path string) (*Database, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return emptyDatabase(), nil
		}
		return nil, fmt.Errorf("open cty database: %w", err)
	}
	defer f.Close()
	if strings.HasSuffix(strings.ToLower(path), ".plist") {
		return LoadPlistFromReader(f)
	}
	return LoadFromReader(f)
}

func emptyDatabase() *Database {
	return &Database{
		exact:    make(map[string]Entry),
		prefixes: make(map[string]Entry),
	}
}

// LoadFromReader parses the flat cty.dat format (exposed for testing).
//
// A line whose first character is non-blank starts a new entity header of
// eight colon-separated fields. Indented continuation lines accumulate
// comma-separated prefix tokens until a terminating semicolon; the
// accumulated text is flushed at the next header or end of input. A header
// that fails to parse skips the whole entity, continuation lines included.
func LoadFromReader(r io.Reader) (*Database, error) {
	db := emptyDatabase()

	var (
		current    *Entity
		pending    strings.Builder
		skipEntity bool
	)

	flush := func() {
		if current != nil && !skipEntity {
			db.registerTokens(*current, pending.String())
		}
		pending.Reset()
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if line[0] != ' ' && line[0] != '\t' {
			flush()
			entity, err := parseHeader(line)
			if err != nil {
				// Skip the whole entity; no partial registration.
				current = nil
				skipEntity = true
				continue
			}
			db.Entities = append(db.Entities, entity)
			current = &db.Entities[len(db.Entities)-1]
			skipEntity = false
			continue
		}
		if skipEntity {
			continue
		}
		pending.WriteString(line)
	}
	flush()
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read cty database: %w", err)
	}

	db.buildTrie()
	return db, nil
}

// parseHeader parses one entity header line of eight colon-separated fields:
// name, CQ zone, ITU zone, continent, latitude, longitude (west-positive in
// the file), UTC offset, primary prefix.
func parseHeader(line string) (Entity, error) {
	parts := strings.Split(line, ":")
	if len(parts) < 8 {
		return Entity{}, fmt.Errorf("header has %d fields, want 8", len(parts))
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	cq, err := strconv.Atoi(parts[1])
	if err != nil {
		return Entity{}, fmt.Errorf("cq zone: %w", err)
	}
	itu, err := strconv.Atoi(parts[2])
	if err != nil {
		return Entity{}, fmt.Errorf("itu zone: %w", err)
	}
	lat, err := strconv.ParseFloat(parts[4], 64)
	if err != nil {
		return Entity{}, fmt.Errorf("latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(parts[5], 64)
	if err != nil {
		return Entity{}, fmt.Errorf("longitude: %w", err)
	}
	offset, err := strconv.ParseFloat(parts[6], 64)
	if err != nil {
		return Entity{}, fmt.Errorf("utc offset: %w", err)
	}
	return Entity{
		Name:      parts[0],
		CQZone:    cq,
		ITUZone:   itu,
		Continent: parts[3],
		Latitude:  lat,
		// The file stores longitude west-positive.
		Longitude:     -lon,
		GMTOffset:     offset,
		PrimaryPrefix: strings.TrimPrefix(parts[7], "*"),
	}, nil
}

// registerTokens splits accumulated continuation text into prefix tokens and
// registers each under first-wins semantics.
func (db *Database) registerTokens(entity Entity, raw string) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimSuffix(raw, ";")
	if raw == "" {
		return
	}
	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		token = strings.TrimSuffix(token, ";")
		if token == "" {
			continue
		}
		db.registerToken(entity, token)
	}
}

func (db *Database) registerToken(entity Entity, token string) {
	bare, entry, ok := resolveToken(entity, token)
	if !ok {
		return
	}
	if exactCall, isExact := strings.CutPrefix(bare, "="); isExact {
		if exactCall == "" {
			return
		}
		if _, dup := db.exact[exactCall]; !dup {
			db.exact[exactCall] = entry
		}
		return
	}
	if _, dup := db.prefixes[bare]; !dup {
		db.prefixes[bare] = entry
	}
}

// resolveToken strips bracketed override annotations from a token and applies
// the ones the lookup tables retain. Supported overrides:
//
//	(N)       CQ-zone override (stripped, metadata only)
//	[N]       ITU-zone override (stripped, metadata only)
//	<lat/lon> coordinate override (longitude west-positive, negated)
//	{XX}      continent override (stripped, metadata only)
//	~N~       UTC-offset override (stripped, metadata only)
func resolveToken(entity Entity, token string) (string, Entry, bool) {
	entry := Entry{
		Name:      entity.Name,
		Latitude:  entity.Latitude,
		Longitude: entity.Longitude,
	}
	var bare strings.Builder
	i := 0
	for i < len(token) {
		ch := token[i]
		var closer byte
		switch ch {
		case '(':
			closer = ')'
		case '[':
			closer = ']'
		case '{':
			closer = '}'
		case '<':
			closer = '>'
		case '~':
			closer = '~'
		default:
			bare.WriteByte(ch)
			i++
			continue
		}
		end := strings.IndexByte(token[i+1:], closer)
		if end < 0 {
			// Unterminated annotation; drop the malformed token.
			return "", Entry{}, false
		}
		inner := token[i+1 : i+1+end]
		if ch == '<' {
			if lat, lon, ok := parseCoordOverride(inner); ok {
				entry.Latitude = lat
				entry.Longitude = lon
			}
		}
		i += end + 2
	}
	call := strings.ToUpper(strings.TrimSpace(bare.String()))
	if call == "" {
		return "", Entry{}, false
	}
	return call, entry, true
}

func parseCoordOverride(inner string) (lat, lon float64, ok bool) {
	parts := strings.Split(inner, "/")
	if len(parts) != 2 {
		return 0, 0, false
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lon, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	// Coordinate overrides are west-positive like header longitudes.
	return lat, -lon, true
}

func (db *Database) buildTrie() {
	keys := make([]string, 0, len(db.prefixes))
	for k := range db.prefixes {
		keys = append(keys, k)
	}
	db.trie = buildCTYTrie(keys)
}

// EntityCount returns the number of successfully parsed entities.
func (db *Database) EntityCount() int {
	if db == nil {
		return 0
	}
	return len(db.Entities)
}

// PrefixCount returns the number of registered prefix and exact-match entries.
func (db *Database) PrefixCount() int {
	if db == nil {
		return 0
	}
	return len(db.prefixes) + len(db.exact)
}
