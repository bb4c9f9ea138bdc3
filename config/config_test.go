package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spotfeed.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
feed:
  endpoint: wss://feed.example.net/spots
  host: feed.example.net
  topics:
    - /topic/cluster
    - /topic/skimmer
pipeline:
  queue_capacity: 500
dedup:
  window_seconds: 90
  sweep_interval_seconds: 300
cty:
  path: data/cty/cty.dat
gridstore:
  enabled: true
  path: data/grids
store:
  path: data/spots.db
  retention_hours: 48
broadcast:
  recent_buffer: 128
  mqtt:
    enabled: true
    broker: mqtt.example.net
    port: 1883
    topic_prefix: spots
location:
  enabled: true
  latitude: 41.7
  longitude: -72.7
metrics:
  enabled: true
  bind_address: 127.0.0.1:9191
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Feed.Endpoint != "wss://feed.example.net/spots" {
		t.Errorf("endpoint = %q", cfg.Feed.Endpoint)
	}
	if len(cfg.Feed.Topics) != 2 {
		t.Errorf("topics = %v", cfg.Feed.Topics)
	}
	if cfg.Pipeline.QueueCapacity != 500 {
		t.Errorf("queue capacity = %d, want 500", cfg.Pipeline.QueueCapacity)
	}
	if cfg.DedupWindow() != 90*time.Second {
		t.Errorf("dedup window = %s, want 90s", cfg.DedupWindow())
	}
	if !cfg.GridStore.Enabled || cfg.GridStore.Path != "data/grids" {
		t.Errorf("gridstore = %+v", cfg.GridStore)
	}
	if cfg.Store.RetentionHours != 48 {
		t.Errorf("retention = %d, want 48", cfg.Store.RetentionHours)
	}
	if !cfg.Broadcast.MQTT.Enabled || cfg.Broadcast.MQTT.Port != 1883 {
		t.Errorf("mqtt = %+v", cfg.Broadcast.MQTT)
	}
	if !cfg.Location.Enabled || cfg.Location.Latitude != 41.7 {
		t.Errorf("location = %+v", cfg.Location)
	}
	if cfg.Metrics.BindAddress != "127.0.0.1:9191" {
		t.Errorf("metrics bind = %q", cfg.Metrics.BindAddress)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
feed:
  endpoint: wss://feed.example.net/spots
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Pipeline.QueueCapacity != 1000 {
		t.Errorf("default queue capacity = %d, want 1000", cfg.Pipeline.QueueCapacity)
	}
	if cfg.DedupWindow() != 60*time.Second {
		t.Errorf("default dedup window = %s, want 60s", cfg.DedupWindow())
	}
	if cfg.DedupSweepInterval() != 2*time.Minute {
		t.Errorf("default sweep interval = %s, want 2m", cfg.DedupSweepInterval())
	}
	if cfg.Store.Path != "data/spots.db" || cfg.Store.RetentionHours != 24 {
		t.Errorf("store defaults = %+v", cfg.Store)
	}
	if cfg.Store.PruneIntervalMinutes != 15 {
		t.Errorf("prune interval = %d, want 15", cfg.Store.PruneIntervalMinutes)
	}
	if cfg.GridStore.RetentionDays != 30 {
		t.Errorf("gridstore retention = %d, want 30", cfg.GridStore.RetentionDays)
	}
	if cfg.Broadcast.RecentBuffer != 256 {
		t.Errorf("recent buffer = %d, want 256", cfg.Broadcast.RecentBuffer)
	}
	if cfg.Metrics.BindAddress != "127.0.0.1:9090" {
		t.Errorf("metrics bind = %q", cfg.Metrics.BindAddress)
	}
	if cfg.GridStore.Enabled || cfg.Location.Enabled || cfg.Metrics.Enabled {
		t.Error("optional features should default to disabled")
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	path := writeConfig(t, "feed: [not a mapping")
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}
