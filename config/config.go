// Package config loads the YAML configuration for the spot feed service.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete service configuration.
type Config struct {
	Feed      FeedConfig      `yaml:"feed"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Dedup     DedupConfig     `yaml:"dedup"`
	CTY       CTYConfig       `yaml:"cty"`
	GridStore GridStoreConfig `yaml:"gridstore"`
	Store     StoreConfig     `yaml:"store"`
	Broadcast BroadcastConfig `yaml:"broadcast"`
	Location  LocationConfig  `yaml:"location"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// FeedConfig describes the upstream aggregation feed.
type FeedConfig struct {
	Endpoint string   `yaml:"endpoint"` // base URL up to the SockJS path root
	Host     string   `yaml:"host"`     // STOMP virtual-host header
	Topics   []string `yaml:"topics"`   // destination headers, one SUBSCRIBE each
}

// PipelineConfig bounds the ingest queue.
type PipelineConfig struct {
	QueueCapacity int `yaml:"queue_capacity"`
}

// DedupConfig tunes the duplicate-suppression window.
type DedupConfig struct {
	WindowSeconds        int `yaml:"window_seconds"`
	SweepIntervalSeconds int `yaml:"sweep_interval_seconds"`
}

// CTYConfig points at the prefix database file. A missing file is a warning;
// the service runs with empty tables.
type CTYConfig struct {
	Path string `yaml:"path"`
}

// GridStoreConfig enables the remembered-grid enrichment tier.
type GridStoreConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}

// StoreConfig configures spot persistence and retention.
type StoreConfig struct {
	Path                 string `yaml:"path"`
	RetentionHours       int    `yaml:"retention_hours"`
	PruneIntervalMinutes int    `yaml:"prune_interval_minutes"`
}

// BroadcastConfig configures outbound spot publication.
type BroadcastConfig struct {
	RecentBuffer int        `yaml:"recent_buffer"`
	MQTT         MQTTConfig `yaml:"mqtt"`
}

// MQTTConfig describes the optional MQTT broadcast sink.
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"`
	Port        int    `yaml:"port"`
	TopicPrefix string `yaml:"topic_prefix"`
}

// LocationConfig sets the initial user reference location used for
// distance/bearing enrichment.
type LocationConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

// MetricsConfig exposes Prometheus metrics over HTTP when enabled.
type MetricsConfig struct {
	Enabled     bool   `yaml:"enabled"`
	BindAddress string `yaml:"bind_address"`
}

// LoggingConfig directs log output.
type LoggingConfig struct {
	File string `yaml:"file"`
}

// Load reads configuration from a YAML file and applies defaults.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Pipeline.QueueCapacity <= 0 {
		c.Pipeline.QueueCapacity = 1000
	}
	if c.Dedup.WindowSeconds <= 0 {
		c.Dedup.WindowSeconds = 60
	}
	if c.Dedup.SweepIntervalSeconds <= 0 {
		c.Dedup.SweepIntervalSeconds = 120
	}
	if c.GridStore.RetentionDays <= 0 {
		c.GridStore.RetentionDays = 30
	}
	if c.Store.Path == "" {
		c.Store.Path = "data/spots.db"
	}
	if c.Store.RetentionHours <= 0 {
		c.Store.RetentionHours = 24
	}
	if c.Store.PruneIntervalMinutes <= 0 {
		c.Store.PruneIntervalMinutes = 15
	}
	if c.Broadcast.RecentBuffer <= 0 {
		c.Broadcast.RecentBuffer = 256
	}
	if c.Metrics.BindAddress == "" {
		c.Metrics.BindAddress = "127.0.0.1:9090"
	}
}

// DedupWindow returns the window as a duration.
func (c *Config) DedupWindow() time.Duration {
	return time.Duration(c.Dedup.WindowSeconds) * time.Second
}

// DedupSweepInterval returns the sweep interval as a duration.
func (c *Config) DedupSweepInterval() time.Duration {
	return time.Duration(c.Dedup.SweepIntervalSeconds) * time.Second
}

// Print displays the effective configuration at startup.
func (c *Config) Print() {
	fmt.Printf("Feed: %s (%d topics)\n", c.Feed.Endpoint, len(c.Feed.Topics))
	fmt.Printf("Pipeline: queue capacity %d\n", c.Pipeline.QueueCapacity)
	fmt.Printf("Dedup: window %ds, sweep %ds\n", c.Dedup.WindowSeconds, c.Dedup.SweepIntervalSeconds)
	if c.CTY.Path != "" {
		fmt.Printf("CTY: %s\n", c.CTY.Path)
	}
	if c.GridStore.Enabled {
		fmt.Printf("Grid memory: %s\n", c.GridStore.Path)
	}
	fmt.Printf("Store: %s (retention %dh)\n", c.Store.Path, c.Store.RetentionHours)
	if c.Broadcast.MQTT.Enabled {
		fmt.Printf("MQTT: %s:%d (prefix %s)\n",
			c.Broadcast.MQTT.Broker, c.Broadcast.MQTT.Port, c.Broadcast.MQTT.TopicPrefix)
	}
	if c.Location.Enabled {
		fmt.Printf("Reference location: %.4f, %.4f\n", c.Location.Latitude, c.Location.Longitude)
	}
	if c.Metrics.Enabled {
		fmt.Printf("Metrics: %s\n", c.Metrics.BindAddress)
	}
	if strings.TrimSpace(c.Logging.File) != "" {
		fmt.Printf("Log file: %s\n", c.Logging.File)
	}
}
