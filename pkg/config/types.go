package config

import (
	"encoding/json"
	"fmt"
	"time"
)

type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		// parse numeric as nanoseconds
		*d = Duration(time.Duration(value))
		return nil
	case string:
		dur, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}

		*d = Duration(dur)

		return nil
	default:
		return errInvalidDuration
	}
}

// TimelineConfig controls the per-device inference window.
type TimelineConfig struct {
	WindowSize int      `json:"window_size"` // readings per inference window
	Timeout    Duration `json:"timeout"`     // partial-window inference timeout
}

// BatchConfig controls the persistence batching queue.
type BatchConfig struct {
	BatchSize int      `json:"batch_size"` // readings per bulk insert
	Timeout   Duration `json:"timeout"`    // partial-batch flush timeout
}

// AlertsConfig controls alert deduplication and retention.
type AlertsConfig struct {
	DedupWindow     Duration `json:"dedup_window"`     // suppression window for matching alerts
	Retention       Duration `json:"retention"`        // resolved alerts older than this are purged
	CleanupInterval Duration `json:"cleanup_interval"` // how often the purge runs
}

// SNMPTarget describes one device polled over SNMP. The OID fields map the
// target's MIB to the three sensor channels.
type SNMPTarget struct {
	DeviceID       string `json:"device_id"`
	Host           string `json:"host"`
	Port           uint16 `json:"port,omitempty"`      // defaults to 161
	Community      string `json:"community,omitempty"` // defaults to "public"
	TemperatureOID string `json:"temperature_oid"`
	VibrationOID   string `json:"vibration_oid"`
	PressureOID    string `json:"pressure_oid"`
}

// SNMPConfig configures the optional SNMP ingestion source.
type SNMPConfig struct {
	Enabled      bool         `json:"enabled"`
	PollInterval Duration     `json:"poll_interval"`           // defaults to 30s
	RateLimit    float64      `json:"rate_limit,omitempty"`    // polls per second across all targets
	Targets      []SNMPTarget `json:"targets"`
}

// ServerConfig represents the configuration for the monitoring server.
type ServerConfig struct {
	ListenAddr        string         `json:"listen_addr"`
	GrpcAddr          string         `json:"grpc_addr,omitempty"`
	DBPath            string         `json:"db_path"`
	Timeline          TimelineConfig `json:"timeline"`
	Batch             BatchConfig    `json:"batch"`
	Alerts            AlertsConfig   `json:"alerts"`
	ReadingsRetention Duration       `json:"readings_retention,omitempty"` // defaults to 24h
	MonitorInterval   Duration       `json:"monitor_interval,omitempty"`
	SNMP              *SNMPConfig    `json:"snmp,omitempty"`
}

// Defaults for tuning fields left out of the config file. They match the
// fallbacks the pipeline constructors apply to zero values.
const (
	defaultWindowSize        = 10
	defaultTimelineTimeout   = Duration(180 * time.Second)
	defaultBatchSize         = 10
	defaultBatchTimeout      = Duration(30 * time.Second)
	defaultDedupWindow       = Duration(60 * time.Second)
	defaultRetention         = Duration(24 * time.Hour)
	defaultCleanupInterval   = Duration(time.Hour)
	defaultReadingsRetention = Duration(24 * time.Hour)
	defaultPollInterval      = Duration(30 * time.Second)
)

// SetDefaults fills zero-value tuning fields so the wired pipeline sees a
// fully populated configuration.
func (c *ServerConfig) SetDefaults() {
	if c.Timeline.WindowSize == 0 {
		c.Timeline.WindowSize = defaultWindowSize
	}

	if c.Timeline.Timeout == 0 {
		c.Timeline.Timeout = defaultTimelineTimeout
	}

	if c.Batch.BatchSize == 0 {
		c.Batch.BatchSize = defaultBatchSize
	}

	if c.Batch.Timeout == 0 {
		c.Batch.Timeout = defaultBatchTimeout
	}

	if c.Alerts.DedupWindow == 0 {
		c.Alerts.DedupWindow = defaultDedupWindow
	}

	if c.Alerts.Retention == 0 {
		c.Alerts.Retention = defaultRetention
	}

	if c.Alerts.CleanupInterval == 0 {
		c.Alerts.CleanupInterval = defaultCleanupInterval
	}

	if c.ReadingsRetention == 0 {
		c.ReadingsRetention = defaultReadingsRetention
	}

	if c.SNMP != nil && c.SNMP.PollInterval == 0 {
		c.SNMP.PollInterval = defaultPollInterval
	}
}

// Validate ensures the server configuration is usable.
func (c *ServerConfig) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("%w: listen_addr is required", errInvalidConfig)
	}

	if c.DBPath == "" {
		return fmt.Errorf("%w: db_path is required", errInvalidConfig)
	}

	if c.Timeline.WindowSize < 0 {
		return fmt.Errorf("%w: timeline.window_size must not be negative", errInvalidConfig)
	}

	if c.Batch.BatchSize < 0 {
		return fmt.Errorf("%w: batch.batch_size must not be negative", errInvalidConfig)
	}

	if c.SNMP != nil && c.SNMP.Enabled {
		for i := range c.SNMP.Targets {
			if err := c.SNMP.Targets[i].validate(); err != nil {
				return err
			}
		}
	}

	return nil
}

func (t *SNMPTarget) validate() error {
	if t.DeviceID == "" {
		return fmt.Errorf("%w: snmp target device_id is required", errInvalidConfig)
	}

	if t.Host == "" {
		return fmt.Errorf("%w: snmp target %s host is required", errInvalidConfig, t.DeviceID)
	}

	if t.TemperatureOID == "" || t.VibrationOID == "" || t.PressureOID == "" {
		return fmt.Errorf("%w: snmp target %s must map all three sensor OIDs", errInvalidConfig, t.DeviceID)
	}

	return nil
}

var errInvalidConfig = fmt.Errorf("invalid config")
