// Package gridstore persists observed callsign-to-grid associations in a
// Pebble key/value store. The enrich stage consults it for stations whose
// payload carries no locator: a grid seen for the same call recently is a
// far better estimate than the country-center approximation.
package gridstore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/bloom"
)

const (
	callPrefix = "c|"

	defaultCacheSizeBytes  = int64(16 << 20) // shared block cache for hot reads
	defaultBloomFilterBits = 10              // bits per key for SSTable bloom filters
)

var errStoreClosed = errors.New("gridstore: store is closed")

// Store manages the Pebble database mapping callsigns to last-seen grids.
// A nil *Store is valid and behaves as an always-missing, write-discarding
// store so the enrichment tier stays optional.
type Store struct {
	db    *pebble.DB
	cache *pebble.Cache // owned cache; unref'd on Close

	mu     sync.Mutex
	closed bool
	count  atomic.Int64
}

// Open opens or creates the grid memory at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("gridstore: database path is empty")
	}
	if info, err := os.Stat(path); err == nil {
		if !info.IsDir() {
			return nil, fmt.Errorf("gridstore: %s exists and is not a directory", path)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("gridstore: stat path: %w", err)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("gridstore: ensure directory: %w", err)
	}

	filter := bloom.FilterPolicy(defaultBloomFilterBits)
	level := pebble.LevelOptions{
		FilterPolicy: filter,
		FilterType:   pebble.TableFilter,
	}
	opts := &pebble.Options{
		Cache: pebble.NewCache(defaultCacheSizeBytes),
		// Apply the same table filter policy to all default levels.
		Levels: make([]pebble.LevelOptions, 7),
	}
	for i := range opts.Levels {
		opts.Levels[i] = level
	}

	db, err := pebble.Open(path, opts)
	if err != nil {
		opts.Cache.Unref()
		return nil, fmt.Errorf("gridstore: open: %w", err)
	}

	s := &Store{db: db, cache: opts.Cache}
	if err := s.loadCount(); err != nil {
		_ = db.Close()
		opts.Cache.Unref()
		return nil, err
	}
	return s, nil
}

// Remember records that call was observed at grid. The newest observation
// wins; the stored timestamp drives Prune.
func (s *Store) Remember(call, grid string, seen time.Time) error {
	if s == nil {
		return nil
	}
	call = strings.ToUpper(strings.TrimSpace(call))
	grid = strings.ToUpper(strings.TrimSpace(grid))
	if call == "" || len(grid) < 4 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errStoreClosed
	}
	key := callKey(call)
	_, closer, err := s.db.Get(key)
	fresh := errors.Is(err, pebble.ErrNotFound)
	if err == nil {
		_ = closer.Close()
	} else if !fresh {
		return fmt.Errorf("gridstore: read before write: %w", err)
	}
	if err := s.db.Set(key, encodeValue(grid, seen), pebble.NoSync); err != nil {
		return fmt.Errorf("gridstore: set %s: %w", call, err)
	}
	if fresh {
		s.count.Add(1)
	}
	return nil
}

// Grid returns the last remembered grid for call.
func (s *Store) Grid(call string) (string, bool) {
	if s == nil {
		return "", false
	}
	call = strings.ToUpper(strings.TrimSpace(call))
	if call == "" {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", false
	}
	val, closer, err := s.db.Get(callKey(call))
	if err != nil {
		return "", false
	}
	grid, _, ok := decodeValue(val)
	_ = closer.Close()
	if !ok {
		return "", false
	}
	return grid, true
}

// Prune deletes associations last observed before cutoff and returns how
// many were removed.
func (s *Store) Prune(cutoff time.Time) (int, error) {
	if s == nil {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errStoreClosed
	}
	iter, err := s.db.NewIter(prefixIterOptions(callPrefix))
	if err != nil {
		return 0, fmt.Errorf("gridstore: prune iterator: %w", err)
	}
	batch := s.db.NewBatch()
	removed := 0
	for iter.First(); iter.Valid(); iter.Next() {
		_, seen, ok := decodeValue(iter.Value())
		if ok && !seen.Before(cutoff) {
			continue
		}
		key := append([]byte(nil), iter.Key()...)
		if err := batch.Delete(key, nil); err != nil {
			_ = iter.Close()
			_ = batch.Close()
			return removed, fmt.Errorf("gridstore: prune delete: %w", err)
		}
		removed++
	}
	if err := iter.Close(); err != nil {
		_ = batch.Close()
		return removed, fmt.Errorf("gridstore: prune iterate: %w", err)
	}
	if err := s.db.Apply(batch, pebble.Sync); err != nil {
		_ = batch.Close()
		return removed, fmt.Errorf("gridstore: prune apply: %w", err)
	}
	_ = batch.Close()
	s.count.Add(int64(-removed))
	return removed, nil
}

// Count returns the number of remembered callsigns.
func (s *Store) Count() int64 {
	if s == nil {
		return 0
	}
	return s.count.Load()
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	err := s.db.Close()
	if s.cache != nil {
		s.cache.Unref()
		s.cache = nil
	}
	return err
}

func (s *Store) loadCount() error {
	iter, err := s.db.NewIter(prefixIterOptions(callPrefix))
	if err != nil {
		return fmt.Errorf("gridstore: count iterator: %w", err)
	}
	var n int64
	for iter.First(); iter.Valid(); iter.Next() {
		n++
	}
	if err := iter.Close(); err != nil {
		return fmt.Errorf("gridstore: count iterate: %w", err)
	}
	s.count.Store(n)
	return nil
}

func callKey(call string) []byte {
	return []byte(callPrefix + call)
}

func prefixIterOptions(prefix string) *pebble.IterOptions {
	upper := []byte(prefix)
	upper = append(upper[:len(upper)-1:len(upper)-1], upper[len(upper)-1]+1)
	return &pebble.IterOptions{
		LowerBound: []byte(prefix),
		UpperBound: upper,
	}
}

// Value layout: 8 bytes little-endian unix seconds, then the grid bytes.
func encodeValue(grid string, seen time.Time) []byte {
	buf := make([]byte, 8+len(grid))
	binary.LittleEndian.PutUint64(buf[:8], uint64(seen.UTC().Unix()))
	copy(buf[8:], grid)
	return buf
}

func decodeValue(val []byte) (grid string, seen time.Time, ok bool) {
	if len(val) < 8 {
		return "", time.Time{}, false
	}
	secs := int64(binary.LittleEndian.Uint64(val[:8]))
	return string(val[8:]), time.Unix(secs, 0).UTC(), true
}
