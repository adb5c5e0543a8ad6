package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurationUnmarshal(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{name: "string form", input: `"180s"`, expected: 180 * time.Second},
		{name: "compound string", input: `"1h30m"`, expected: 90 * time.Minute},
		{name: "numeric nanoseconds", input: `30000000000`, expected: 30 * time.Second},
		{name: "garbage string", input: `"soon"`, wantErr: true},
		{name: "wrong type", input: `true`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration

			err := json.Unmarshal([]byte(tt.input), &d)
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, time.Duration(d))
		})
	}
}

func validServerConfig() ServerConfig {
	return ServerConfig{
		ListenAddr: ":8080",
		DBPath:     "/var/lib/pulsewatch/pulsewatch.db",
	}
}

func TestServerConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ServerConfig)
		wantErr bool
	}{
		{name: "valid minimal", mutate: func(*ServerConfig) {}},
		{name: "missing listen addr", mutate: func(c *ServerConfig) { c.ListenAddr = "" }, wantErr: true},
		{name: "missing db path", mutate: func(c *ServerConfig) { c.DBPath = "" }, wantErr: true},
		{name: "negative window size", mutate: func(c *ServerConfig) { c.Timeline.WindowSize = -1 }, wantErr: true},
		{name: "negative batch size", mutate: func(c *ServerConfig) { c.Batch.BatchSize = -1 }, wantErr: true},
		{
			name: "snmp target missing oids",
			mutate: func(c *ServerConfig) {
				c.SNMP = &SNMPConfig{
					Enabled: true,
					Targets: []SNMPTarget{{DeviceID: "pump-1", Host: "10.0.0.5", TemperatureOID: ".1.3.6.1.4.1.1"}},
				}
			},
			wantErr: true,
		},
		{
			name: "disabled snmp is not validated",
			mutate: func(c *ServerConfig) {
				c.SNMP = &SNMPConfig{Enabled: false, Targets: []SNMPTarget{{}}}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validServerConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadAndValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.json")

	raw := `{
		"listen_addr": ":8080",
		"db_path": "/tmp/pulsewatch.db",
		"timeline": {"window_size": 10, "timeout": "180s"},
		"batch": {"batch_size": 10, "timeout": "30s"},
		"alerts": {"dedup_window": "60s", "retention": "24h", "cleanup_interval": "1h"},
		"monitor_interval": "30s"
	}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	var cfg ServerConfig
	require.NoError(t, LoadAndValidate(path, &cfg))

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 10, cfg.Timeline.WindowSize)
	assert.Equal(t, 180*time.Second, time.Duration(cfg.Timeline.Timeout))
	assert.Equal(t, 30*time.Second, time.Duration(cfg.Batch.Timeout))
	assert.Equal(t, 24*time.Hour, time.Duration(cfg.Alerts.Retention))
}

func TestLoadAndValidateAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.json")

	raw := `{
		"listen_addr": ":8080",
		"db_path": "/tmp/pulsewatch.db",
		"snmp": {"enabled": false}
	}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	var cfg ServerConfig
	require.NoError(t, LoadAndValidate(path, &cfg))

	assert.Equal(t, 10, cfg.Timeline.WindowSize)
	assert.Equal(t, 180*time.Second, time.Duration(cfg.Timeline.Timeout))
	assert.Equal(t, 10, cfg.Batch.BatchSize)
	assert.Equal(t, 30*time.Second, time.Duration(cfg.Batch.Timeout))
	assert.Equal(t, 60*time.Second, time.Duration(cfg.Alerts.DedupWindow))
	assert.Equal(t, 24*time.Hour, time.Duration(cfg.Alerts.Retention))
	assert.Equal(t, time.Hour, time.Duration(cfg.Alerts.CleanupInterval))
	assert.Equal(t, 24*time.Hour, time.Duration(cfg.ReadingsRetention))
	assert.Equal(t, 30*time.Second, time.Duration(cfg.SNMP.PollInterval))
}

func TestSetDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := validServerConfig()
	cfg.Timeline.WindowSize = 5
	cfg.Batch.Timeout = Duration(10 * time.Second)

	cfg.SetDefaults()

	assert.Equal(t, 5, cfg.Timeline.WindowSize)
	assert.Equal(t, 10*time.Second, time.Duration(cfg.Batch.Timeout))
	assert.Equal(t, 180*time.Second, time.Duration(cfg.Timeline.Timeout))
}

func TestLoadAndValidateRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"listen_addr": ""}`), 0o600))

	var cfg ServerConfig
	assert.Error(t, LoadAndValidate(path, &cfg))
}

func TestLoadFileMissing(t *testing.T) {
	var cfg ServerConfig
	assert.Error(t, LoadFile("/nonexistent/server.json", &cfg))
}
