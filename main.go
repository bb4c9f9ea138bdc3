// Program spotfeed ingests live spot reports from a remote aggregation feed,
// cleans and deduplicates them, geolocates the reported station, and hands
// each accepted record to the SQLite store and the broadcast fan-out.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"spotfeed/broadcast"
	"spotfeed/config"
	"spotfeed/cty"
	"spotfeed/dedup"
	"spotfeed/feed"
	"spotfeed/gridstore"
	"spotfeed/location"
	"spotfeed/metrics"
	"spotfeed/pipeline"
	"spotfeed/spot"
	"spotfeed/store"
)

func main() {
	configPath := flag.String("config", "data/config/spotfeed.yaml", "path to YAML configuration")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Config: %v", err)
	}
	cfg.Print()

	closeLog, err := setupLogging(cfg.Logging.File)
	if err != nil {
		log.Fatalf("Logging: %v", err)
	}
	defer closeLog()

	geo, err := cty.Load(cfg.CTY.Path)
	if err != nil {
		log.Fatalf("CTY: %v", err)
	}
	if geo.EntityCount() == 0 {
		log.Printf("CTY: no database loaded from %q, prefix enrichment disabled", cfg.CTY.Path)
	} else {
		log.Printf("CTY: loaded %s entities, %s prefixes",
			humanize.Comma(int64(geo.EntityCount())), humanize.Comma(int64(geo.PrefixCount())))
	}

	var grids *gridstore.Store
	if cfg.GridStore.Enabled {
		grids, err = gridstore.Open(cfg.GridStore.Path)
		if err != nil {
			log.Fatalf("Gridstore: %v", err)
		}
		defer grids.Close()
		log.Printf("Gridstore: %s callsigns remembered", humanize.Comma(grids.Count()))
	}

	spotStore, err := store.Open(cfg.Store.Path)
	if err != nil {
		log.Fatalf("Store: %v", err)
	}
	defer spotStore.Close()
	if cfg.Location.Enabled {
		// Rows stored before the reference location was configured carry no
		// distance/bearing; backfill them against the current location.
		go func() {
			n, err := spotStore.RecomputeDistances(context.Background(),
				cfg.Location.Latitude, cfg.Location.Longitude)
			if err != nil {
				log.Printf("Store: distance backfill failed: %v", err)
				return
			}
			if n > 0 {
				log.Printf("Store: recomputed distance/bearing for %s spots", humanize.Comma(n))
			}
		}()
	}

	hub := broadcast.NewHub(cfg.Broadcast.RecentBuffer)
	publishers := []pipeline.Publisher{hub}
	if cfg.Broadcast.MQTT.Enabled {
		mq := broadcast.NewMQTTPublisher(
			cfg.Broadcast.MQTT.Broker, cfg.Broadcast.MQTT.Port, cfg.Broadcast.MQTT.TopicPrefix)
		if err := mq.Connect(); err != nil {
			// The MQTT library reconnects on its own once the first dial
			// succeeds; a cold broker at startup should not kill ingest.
			log.Printf("MQTT: initial connect failed: %v", err)
		}
		defer mq.Close()
		publishers = append(publishers, mq)
	}

	var loc *location.Provider
	if cfg.Location.Enabled {
		loc = location.NewAt(cfg.Location.Latitude, cfg.Location.Longitude)
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := http.ListenAndServe(cfg.Metrics.BindAddress, mux); err != nil {
				log.Printf("Metrics: server stopped: %v", err)
			}
		}()
	}

	deduper := dedup.New(cfg.DedupWindow(), cfg.DedupSweepInterval(), nil)
	pipe := pipeline.New(geo, deduper, spotStore, fanPublisher(publishers), pipeline.Options{
		QueueCapacity: cfg.Pipeline.QueueCapacity,
		Grids:         grids,
		Location:      loc,
		Metrics:       m,
	})
	client := feed.NewClient(cfg.Feed.Endpoint, cfg.Feed.Host, cfg.Feed.Topics, pipe, m)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		pipe.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		client.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		spotStore.RunRetention(ctx,
			time.Duration(cfg.Store.PruneIntervalMinutes)*time.Minute,
			time.Duration(cfg.Store.RetentionHours)*time.Hour)
	}()
	if grids != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runGridRetention(ctx, grids, time.Duration(cfg.GridStore.RetentionDays)*24*time.Hour)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		runStatsLogger(ctx, pipe, deduper, hub, spotStore)
	}()

	<-ctx.Done()
	log.Println("Shutdown: signal received, draining...")
	wg.Wait()

	processed, duplicates, cacheSize := deduper.Stats()
	log.Printf("Shutdown: %s spots processed, %s duplicates suppressed, %s dedup keys resident",
		humanize.Comma(int64(processed)), humanize.Comma(int64(duplicates)), humanize.Comma(int64(cacheSize)))
	if n, err := spotStore.Count(context.Background()); err == nil {
		log.Printf("Shutdown: %s spots in store", humanize.Comma(n))
	}
}

const (
	gridPruneInterval = 6 * time.Hour
	statsInterval     = 5 * time.Minute
)

// runStatsLogger periodically logs a one-line ingest summary.
func runStatsLogger(ctx context.Context, pipe *pipeline.Pipeline, deduper *dedup.Deduplicator, hub *broadcast.Hub, spotStore *store.Store) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			processed, duplicates, cacheSize := deduper.Stats()
			stored, err := spotStore.Count(ctx)
			if err != nil {
				stored = -1
			}
			log.Printf("Stats: processed=%s duplicates=%s stored=%s queue=%d dedupKeys=%d subscribers=%d",
				humanize.Comma(int64(processed)), humanize.Comma(int64(duplicates)),
				humanize.Comma(stored), pipe.QueueDepth(), cacheSize, hub.SubscriberCount())
		}
	}
}

// runGridRetention ages out grid memory entries not observed within maxAge.
func runGridRetention(ctx context.Context, grids *gridstore.Store, maxAge time.Duration) {
	ticker := time.NewTicker(gridPruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := grids.Prune(time.Now().UTC().Add(-maxAge))
			if err != nil {
				log.Printf("Gridstore: prune failed: %v", err)
				continue
			}
			if removed > 0 {
				log.Printf("Gridstore: pruned %d stale grid entries", removed)
			}
		}
	}
}

// fanPublisher delivers each stored spot to every configured publisher.
type fanPublisher []pipeline.Publisher

func (f fanPublisher) Publish(s *spot.Spot) {
	for _, p := range f {
		p.Publish(s)
	}
}
