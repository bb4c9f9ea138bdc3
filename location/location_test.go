package location

import (
	"sync"
	"testing"
)

func TestProviderLifecycle(t *testing.T) {
	p := New()
	if _, _, ok := p.Current(); ok {
		t.Error("fresh provider should report no location")
	}

	p.Set(41.7, -72.7)
	lat, lon, ok := p.Current()
	if !ok || lat != 41.7 || lon != -72.7 {
		t.Errorf("Current = %v, %v, %v", lat, lon, ok)
	}

	p.Clear()
	if _, _, ok := p.Current(); ok {
		t.Error("cleared provider should report no location")
	}
}

func TestNewAt(t *testing.T) {
	p := NewAt(35.5, 139.0)
	lat, lon, ok := p.Current()
	if !ok || lat != 35.5 || lon != 139.0 {
		t.Errorf("Current = %v, %v, %v", lat, lon, ok)
	}
}

func TestNilProvider(t *testing.T) {
	var p *Provider
	if _, _, ok := p.Current(); ok {
		t.Error("nil provider should report no location")
	}
}

// Concurrent writers must never let a reader see a torn pair.
func TestConcurrentSnapshot(t *testing.T) {
	p := New()
	pairs := [][2]float64{{1, 10}, {2, 20}, {3, 30}}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
				pair := pairs[i%len(pairs)]
				p.Set(pair[0], pair[1])
			}
		}
	}()

	for i := 0; i < 10000; i++ {
		lat, lon, ok := p.Current()
		if !ok {
			continue
		}
		if lon != lat*10 {
			t.Fatalf("torn read: %v, %v", lat, lon)
		}
	}
	close(stop)
	wg.Wait()
}
