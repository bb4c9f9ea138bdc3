// Package pipeline owns the bounded, lossy inbound spot queue and the single
// background consumer that pushes each accepted record through the
// validate, normalize, enrich, dedup, persist, and publish stages in order.
package pipeline

import (
	"context"
	"log"
	"math"
	"strings"

	"github.com/jonboulle/clockwork"

	"spotfeed/cty"
	"spotfeed/dedup"
	"spotfeed/gridstore"
	"spotfeed/metrics"
	"spotfeed/spot"
)

// DefaultQueueCapacity bounds the inbound queue. When full, the oldest queued
// spot is evicted to make room; producers are never blocked.
const DefaultQueueCapacity = 1000

// UnknownSpotter is assigned when the source supplied no spotter callsign.
const UnknownSpotter = "unknown"

// Store is the persistence collaborator. Failures are logged and the record
// lost; the pipeline never retries.
type Store interface {
	Store(ctx context.Context, s *spot.Spot) error
}

// Publisher is the broadcast collaborator, fire-and-forget from the
// pipeline's perspective.
type Publisher interface {
	Publish(s *spot.Spot)
}

// LocationProvider supplies the user reference location for distance/bearing
// enrichment. Implementations must return a consistent snapshot.
type LocationProvider interface {
	Current() (lat, lon float64, ok bool)
}

// Pipeline drains the bounded queue with exactly one consumer, so per-item
// ordering is arrival order into the queue.
type Pipeline struct {
	queue   chan *spot.Spot
	geo     *cty.Database
	deduper *dedup.Deduplicator
	grids   *gridstore.Store // optional remembered-grid tier
	store   Store
	pub     Publisher
	loc     LocationProvider
	clock   clockwork.Clock
	metrics *metrics.Metrics
}

// Options configures optional collaborators; zero values disable them.
type Options struct {
	QueueCapacity int
	Grids         *gridstore.Store
	Location      LocationProvider
	Clock         clockwork.Clock
	Metrics       *metrics.Metrics
}

// New builds a pipeline over the required collaborators.
func New(geo *cty.Database, deduper *dedup.Deduplicator, store Store, pub Publisher, opts Options) *Pipeline {
	capacity := opts.QueueCapacity
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Pipeline{
		queue:   make(chan *spot.Spot, capacity),
		geo:     geo,
		deduper: deduper,
		grids:   opts.Grids,
		store:   store,
		pub:     pub,
		loc:     opts.Location,
		clock:   clock,
		metrics: opts.Metrics,
	}
}

// Submit enqueues a spot without blocking. When the queue is at capacity the
// oldest queued spot is evicted (newest-favored policy) and a warning names
// the dropped callsign. Safe for concurrent producers.
func (p *Pipeline) Submit(s *spot.Spot) {
	if s == nil {
		return
	}
	if p.metrics != nil {
		p.metrics.SpotsSubmitted.Inc()
	}
	select {
	case p.queue <- s:
	default:
		// Full: evict the oldest unprocessed spot, then retry once. The
		// retry can still lose to a concurrent producer; favor dropping the
		// newcomer over blocking.
		select {
		case old := <-p.queue:
			log.Printf("Pipeline: queue full, evicting oldest spot %s", old.DXCall)
			if p.metrics != nil {
				p.metrics.SpotsEvicted.Inc()
			}
		default:
		}
		select {
		case p.queue <- s:
		default:
			log.Printf("Pipeline: queue full, dropping spot %s", s.DXCall)
			if p.metrics != nil {
				p.metrics.SpotsEvicted.Inc()
			}
		}
	}
	if p.metrics != nil {
		p.metrics.QueueDepth.Set(float64(len(p.queue)))
	}
}

// Run starts the single consumer and blocks until ctx is cancelled. The item
// being processed when cancellation arrives is finished, never abandoned
// half-stored.
func (p *Pipeline) Run(ctx context.Context) {
	if p.metrics != nil {
		p.metrics.PipelineRunning.Set(1)
		defer p.metrics.PipelineRunning.Set(0)
	}
	log.Println("Pipeline: consumer started")
	for {
		select {
		case <-ctx.Done():
			log.Printf("Pipeline: consumer stopped (%d spots left unprocessed)", len(p.queue))
			return
		case s := <-p.queue:
			p.processOne(ctx, s)
			if p.metrics != nil {
				p.metrics.QueueDepth.Set(float64(len(p.queue)))
			}
		}
	}
}

// processOne runs the stage chain for a single spot. A panic from any stage
// is contained so one pathological record never halts the consumer.
func (p *Pipeline) processOne(ctx context.Context, s *spot.Spot) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Pipeline: panic processing %s @ %.1f kHz: %v", s.DXCall, s.Frequency, r)
		}
	}()

	if !p.validate(s) {
		if p.metrics != nil {
			p.metrics.SpotsRejected.Inc()
		}
		return
	}
	p.normalize(s)
	p.enrich(s)
	if p.deduper != nil && p.deduper.Check(s) {
		if p.metrics != nil {
			p.metrics.SpotsDuplicate.Inc()
		}
		return
	}
	// The persist is detached from the run context so cancellation cannot
	// abandon the in-flight item half-stored.
	if err := p.store.Store(context.WithoutCancel(ctx), s); err != nil {
		log.Printf("Pipeline: store failed for %s @ %.1f kHz: %v", s.DXCall, s.Frequency, err)
		if p.metrics != nil {
			p.metrics.StoreErrors.Inc()
		}
		return
	}
	if p.metrics != nil {
		p.metrics.SpotsStored.Inc()
	}
	if p.pub != nil {
		p.pub.Publish(s)
	}
}

// validate rejects structurally unusable records. Rejections are silent; the
// feed is full of junk and logging each one would be noise.
func (p *Pipeline) validate(s *spot.Spot) bool {
	call := strings.TrimSpace(s.DXCall)
	if call == "" {
		return false
	}
	if s.Frequency <= 0 {
		return false
	}
	if len(call) < spot.MinCallsignLen || len(call) > spot.MaxCallsignLen {
		return false
	}
	return true
}

// normalize settles callsigns, band, mode, and timestamp.
func (p *Pipeline) normalize(s *spot.Spot) {
	s.DXCall = spot.NormalizeCallsign(s.DXCall)
	s.DECall = spot.NormalizeCallsign(s.DECall)
	if s.DECall == "" {
		s.DECall = UnknownSpotter
	}
	s.Band = spot.FreqToBand(s.Frequency)
	if s.Mode == "" || strings.EqualFold(s.Mode, spot.BandUnknown) {
		s.Mode = spot.InferMode(s.Frequency)
	}
	if s.Time.IsZero() {
		s.Time = p.clock.Now().UTC()
	}
}

// enrich resolves DX coordinates with three-tier priority: explicit grid
// locator from the payload, then a grid previously remembered for the same
// call, then the country-center approximation from the prefix database. The
// prefix lookup also backfills the entity name when the payload had none.
func (p *Pipeline) enrich(s *spot.Spot) {
	if entry, ok := p.geo.LookupCallsign(s.DXCall); ok {
		if s.Country == "" {
			s.Country = entry.Name
		}
		if s.Latitude == nil {
			s.SetLocation(entry.Latitude, entry.Longitude)
		}
	}
	if grid := strings.TrimSpace(s.Grid); grid != "" {
		if lat, lon, ok := cty.LatLonFromGrid(grid); ok {
			s.SetLocation(lat, lon)
			if err := p.grids.Remember(s.DXCall, grid, s.Time); err != nil {
				log.Printf("Pipeline: grid memory write failed for %s: %v", s.DXCall, err)
			}
		}
	} else if remembered, ok := p.grids.Grid(s.DXCall); ok {
		if lat, lon, ok := cty.LatLonFromGrid(remembered); ok {
			s.SetLocation(lat, lon)
		}
	}

	if s.Latitude == nil || p.loc == nil {
		return
	}
	userLat, userLon, ok := p.loc.Current()
	if !ok {
		return
	}
	dist := cty.HaversineKm(userLat, userLon, *s.Latitude, *s.Longitude)
	bearing := cty.InitialBearing(userLat, userLon, *s.Latitude, *s.Longitude)
	s.SetPath(int(math.Round(dist)), int(math.Round(bearing))%360)
}

// QueueDepth reports the current queue occupancy.
func (p *Pipeline) QueueDepth() int {
	return len(p.queue)
}
