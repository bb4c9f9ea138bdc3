package gridstore

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "grids"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRememberAndGrid(t *testing.T) {
	s := openTestStore(t)

	if err := s.Remember("ja1abc", "pm95", time.Now()); err != nil {
		t.Fatalf("Remember failed: %v", err)
	}
	grid, ok := s.Grid("JA1ABC")
	if !ok {
		t.Fatal("expected remembered grid")
	}
	if grid != "PM95" {
		t.Errorf("Grid = %q, want PM95 (normalized)", grid)
	}
	// Lookup normalizes too.
	if _, ok := s.Grid(" ja1abc "); !ok {
		t.Error("lookup should normalize the callsign")
	}
}

func TestRememberNewestWins(t *testing.T) {
	s := openTestStore(t)

	s.Remember("JA1ABC", "PM95", time.Now().Add(-time.Hour))
	s.Remember("JA1ABC", "QM05", time.Now())
	grid, ok := s.Grid("JA1ABC")
	if !ok || grid != "QM05" {
		t.Errorf("Grid = %q, %v, want QM05", grid, ok)
	}
	if s.Count() != 1 {
		t.Errorf("Count = %d, want 1 (overwrite, not insert)", s.Count())
	}
}

func TestRememberIgnoresJunk(t *testing.T) {
	s := openTestStore(t)

	if err := s.Remember("", "PM95", time.Now()); err != nil {
		t.Errorf("empty call should be a no-op, got %v", err)
	}
	if err := s.Remember("JA1ABC", "PM", time.Now()); err != nil {
		t.Errorf("short grid should be a no-op, got %v", err)
	}
	if s.Count() != 0 {
		t.Errorf("Count = %d, want 0", s.Count())
	}
}

func TestGridMiss(t *testing.T) {
	s := openTestStore(t)
	if _, ok := s.Grid("NOTSEEN"); ok {
		t.Error("expected miss for unknown callsign")
	}
}

func TestPrune(t *testing.T) {
	s := openTestStore(t)

	old := time.Now().Add(-48 * time.Hour)
	for i := 0; i < 5; i++ {
		s.Remember(fmt.Sprintf("OLD%dAA", i), "PM95", old)
	}
	s.Remember("NEW1AA", "FN31", time.Now())

	removed, err := s.Prune(time.Now().Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 5 {
		t.Errorf("Prune removed %d, want 5", removed)
	}
	if s.Count() != 1 {
		t.Errorf("Count after prune = %d, want 1", s.Count())
	}
	if _, ok := s.Grid("OLD0AA"); ok {
		t.Error("pruned callsign still resolves")
	}
	if _, ok := s.Grid("NEW1AA"); !ok {
		t.Error("recent callsign lost by prune")
	}
}

func TestCountSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grids")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	s.Remember("JA1ABC", "PM95", time.Now())
	s.Remember("DL1XYZ", "JO62", time.Now())
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()
	if reopened.Count() != 2 {
		t.Errorf("Count after reopen = %d, want 2", reopened.Count())
	}
	if grid, ok := reopened.Grid("JA1ABC"); !ok || grid != "PM95" {
		t.Errorf("Grid after reopen = %q, %v", grid, ok)
	}
}

// The nil store is the disabled configuration; every method must be safe.
func TestNilStore(t *testing.T) {
	var s *Store
	if err := s.Remember("JA1ABC", "PM95", time.Now()); err != nil {
		t.Errorf("nil Remember = %v", err)
	}
	if _, ok := s.Grid("JA1ABC"); ok {
		t.Error("nil Grid should miss")
	}
	if n, err := s.Prune(time.Now()); n != 0 || err != nil {
		t.Errorf("nil Prune = %d, %v", n, err)
	}
	if s.Count() != 0 {
		t.Error("nil Count should be 0")
	}
	if err := s.Close(); err != nil {
		t.Errorf("nil Close = %v", err)
	}
}
