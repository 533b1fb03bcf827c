package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromEnv(t *testing.T) {
	// Set environment variables
	os.Setenv("TRACE_PORT", "9090")
	os.Setenv("TRACE_LOG_LEVEL", "debug")
	os.Setenv("TRACE_MATCH_THRESHOLD", "0.9")
	defer func() {
		os.Unsetenv("TRACE_PORT")
		os.Unsetenv("TRACE_LOG_LEVEL")
		os.Unsetenv("TRACE_MATCH_THRESHOLD")
	}()

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %s, want debug", cfg.Log.Level)
	}

	if cfg.Correlation.MatchThreshold != 0.9 {
		t.Errorf("Correlation.MatchThreshold = %v, want 0.9", cfg.Correlation.MatchThreshold)
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temp config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
host: "127.0.0.1"
port: 8888
log:
  level: warn
  format: json
providers:
  dispatch_delay: 500ms
  call_timeout: 5s
cache:
  type: redis
  redis_url: "redis://custom:6379"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Host != "127.0.0.1" {
		t.Errorf("Host = %s, want 127.0.0.1", cfg.Host)
	}

	if cfg.Port != 8888 {
		t.Errorf("Port = %d, want 8888", cfg.Port)
	}

	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %s, want warn", cfg.Log.Level)
	}

	if cfg.Providers.DispatchDelay != 500*time.Millisecond {
		t.Errorf("Providers.DispatchDelay = %v, want 500ms", cfg.Providers.DispatchDelay)
	}

	if cfg.Cache.Type != "redis" {
		t.Errorf("Cache.Type = %s, want redis", cfg.Cache.Type)
	}

	if cfg.Cache.RedisURL != "redis://custom:6379" {
		t.Errorf("Cache.RedisURL = %s, want redis://custom:6379", cfg.Cache.RedisURL)
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}

	if cfg.Correlation.MatchThreshold != 0.8 {
		t.Errorf("Correlation.MatchThreshold = %v, want 0.8", cfg.Correlation.MatchThreshold)
	}

	if cfg.Scoring.QualityWeight != 0.3 || cfg.Scoring.RelevanceWeight != 0.4 || cfg.Scoring.ReliabilityWeight != 0.3 {
		t.Errorf("Scoring weights = %v/%v/%v, want 0.3/0.4/0.3",
			cfg.Scoring.QualityWeight, cfg.Scoring.RelevanceWeight, cfg.Scoring.ReliabilityWeight)
	}

	if cfg.Scoring.Reliability["court_records"] != 0.95 {
		t.Errorf("Reliability[court_records] = %v, want 0.95", cfg.Scoring.Reliability["court_records"])
	}

	if cfg.Search.DefaultConfidenceThreshold != 0.7 {
		t.Errorf("DefaultConfidenceThreshold = %v, want 0.7", cfg.Search.DefaultConfidenceThreshold)
	}

	if cfg.Providers.DispatchDelay != 2*time.Second {
		t.Errorf("DispatchDelay = %v, want 2s", cfg.Providers.DispatchDelay)
	}

	if cfg.Cache.Type != "memory" {
		t.Errorf("Cache.Type = %s, want memory", cfg.Cache.Type)
	}

	if cfg.Cache.TTL != time.Hour {
		t.Errorf("Cache.TTL = %v, want 1h", cfg.Cache.TTL)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid defaults",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "invalid port",
			modify: func(c *Config) {
				c.Port = 0
			},
			wantErr: true,
		},
		{
			name: "match threshold at one",
			modify: func(c *Config) {
				c.Correlation.MatchThreshold = 1.0
			},
			wantErr: true,
		},
		{
			name: "scoring weights off balance",
			modify: func(c *Config) {
				c.Scoring.QualityWeight = 0.5
			},
			wantErr: true,
		},
		{
			name: "reliability out of range",
			modify: func(c *Config) {
				c.Scoring.Reliability["court_records"] = 1.5
			},
			wantErr: true,
		},
		{
			name: "negative dispatch delay",
			modify: func(c *Config) {
				c.Providers.DispatchDelay = -time.Second
			},
			wantErr: true,
		},
		{
			name: "invalid log level",
			modify: func(c *Config) {
				c.Log.Level = "invalid"
			},
			wantErr: true,
		},
		{
			name: "invalid cache type",
			modify: func(c *Config) {
				c.Cache.Type = "invalid"
			},
			wantErr: true,
		},
		{
			name: "invalid bus type",
			modify: func(c *Config) {
				c.Bus.Type = "invalid"
			},
			wantErr: true,
		},
		{
			name: "zero max concurrent queries",
			modify: func(c *Config) {
				c.Search.MaxConcurrentQueries = 0
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			setDefaults(cfg)
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAddress(t *testing.T) {
	cfg := &Config{Host: "localhost", Port: 8080}
	if got := cfg.Address(); got != "localhost:8080" {
		t.Errorf("Address() = %s, want localhost:8080", got)
	}
}
