// Package config handles configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/tracefind/trace-search/internal/result"
)

// Config holds all application configuration.
type Config struct {
	// Server configuration
	Host string `envconfig:"TRACE_HOST" yaml:"host"`
	Port int    `envconfig:"TRACE_PORT" yaml:"port"`

	// Providers configuration
	Providers ProvidersConfig `yaml:"providers"`

	// Correlation configuration
	Correlation CorrelationConfig `yaml:"correlation"`

	// Scoring configuration
	Scoring ScoringConfig `yaml:"scoring"`

	// Search configuration
	Search SearchConfig `yaml:"search"`

	// Cache configuration
	Cache CacheConfig `yaml:"cache"`

	// Index configuration
	Index IndexConfig `yaml:"index"`

	// Bus configuration
	Bus BusConfig `yaml:"bus"`

	// LeakStore configuration
	LeakStore LeakStoreConfig `yaml:"leak_store"`

	// Logging configuration
	Log LogConfig `yaml:"log"`

	// Security configuration
	Security SecurityConfig `yaml:"security"`

	// Observability configuration
	Observability ObservabilityConfig `yaml:"observability"`
}

// ProvidersConfig holds data provider fan-out settings.
type ProvidersConfig struct {
	// DispatchDelay is the minimum delay between successive provider
	// dispatches, to respect per-target rate limits.
	DispatchDelay time.Duration `envconfig:"TRACE_PROVIDER_DISPATCH_DELAY" yaml:"dispatch_delay"`

	// CallTimeout bounds a single provider call.
	CallTimeout time.Duration `envconfig:"TRACE_PROVIDER_CALL_TIMEOUT" yaml:"call_timeout"`

	// DirectoryPath points at a local JSON records file for the
	// directory provider. Empty disables it.
	DirectoryPath string `envconfig:"TRACE_PROVIDER_DIRECTORY_PATH" yaml:"directory_path"`

	// EnableLeakStore enables the breach-record provider.
	EnableLeakStore bool `envconfig:"TRACE_PROVIDER_ENABLE_LEAKSTORE" yaml:"enable_leak_store"`
}

// CorrelationConfig holds entity clustering settings.
type CorrelationConfig struct {
	// MatchThreshold is the pairwise similarity a result must strictly
	// exceed to join an existing cluster.
	MatchThreshold float64 `envconfig:"TRACE_MATCH_THRESHOLD" yaml:"match_threshold"`
}

// ScoringConfig holds confidence scoring settings.
type ScoringConfig struct {
	QualityWeight     float64 `envconfig:"TRACE_QUALITY_WEIGHT" yaml:"quality_weight"`
	RelevanceWeight   float64 `envconfig:"TRACE_RELEVANCE_WEIGHT" yaml:"relevance_weight"`
	ReliabilityWeight float64 `envconfig:"TRACE_RELIABILITY_WEIGHT" yaml:"reliability_weight"`

	// Reliability maps source names to static reliability scores.
	// Sources absent from the table default to DefaultReliability.
	Reliability map[string]float64 `yaml:"reliability"`

	// DefaultReliability applies to unknown sources.
	DefaultReliability float64 `envconfig:"TRACE_DEFAULT_RELIABILITY" yaml:"default_reliability"`
}

// SearchConfig holds search pipeline settings.
type SearchConfig struct {
	// DefaultConfidenceThreshold applies when a query omits a threshold.
	DefaultConfidenceThreshold float64 `envconfig:"TRACE_DEFAULT_CONFIDENCE_THRESHOLD" yaml:"default_confidence_threshold"`

	// DefaultMaxResults applies when a query omits a result cap.
	DefaultMaxResults int `envconfig:"TRACE_DEFAULT_MAX_RESULTS" yaml:"default_max_results"`

	// QueryDeadline bounds total pipeline wall time. On expiry the
	// pipeline ranks whatever results have arrived.
	QueryDeadline time.Duration `envconfig:"TRACE_QUERY_DEADLINE" yaml:"query_deadline"`

	// MaxConcurrentQueries caps simultaneously in-flight queries.
	MaxConcurrentQueries int `envconfig:"TRACE_MAX_CONCURRENT_QUERIES" yaml:"max_concurrent_queries"`
}

// CacheConfig holds result cache settings.
type CacheConfig struct {
	Type     string        `envconfig:"TRACE_CACHE_TYPE" yaml:"type"`
	TTL      time.Duration `envconfig:"TRACE_CACHE_TTL" yaml:"ttl"`
	RedisURL string        `envconfig:"TRACE_REDIS_URL" yaml:"redis_url"`
}

// IndexConfig holds full-text index gateway settings.
type IndexConfig struct {
	Type     string        `envconfig:"TRACE_INDEX_TYPE" yaml:"type"`
	TTL      time.Duration `envconfig:"TRACE_INDEX_TTL" yaml:"ttl"`
	RedisURL string        `envconfig:"TRACE_INDEX_REDIS_URL" yaml:"redis_url"`
}

// BusConfig holds event bus settings.
type BusConfig struct {
	Type         string `envconfig:"TRACE_BUS_TYPE" yaml:"type"`
	KafkaBrokers string `envconfig:"TRACE_KAFKA_BROKERS" yaml:"kafka_brokers"`
	KafkaGroup   string `envconfig:"TRACE_KAFKA_GROUP" yaml:"kafka_group"`
}

// LeakStoreConfig holds breach record store settings.
type LeakStoreConfig struct {
	RedisURL string `envconfig:"TRACE_LEAKSTORE_REDIS_URL" yaml:"redis_url"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `envconfig:"TRACE_LOG_LEVEL" yaml:"level"`
	Format string `envconfig:"TRACE_LOG_FORMAT" yaml:"format"`
}

// SecurityConfig holds security settings.
type SecurityConfig struct {
	APIKey    string  `envconfig:"TRACE_API_KEY" yaml:"api_key"`
	RateLimit float64 `envconfig:"TRACE_RATE_LIMIT" yaml:"rate_limit"` // 0 = disabled
}

// ObservabilityConfig holds observability settings.
type ObservabilityConfig struct {
	MetricsEnabled bool   `envconfig:"TRACE_METRICS_ENABLED" yaml:"metrics_enabled"`
	MetricsPath    string `envconfig:"TRACE_METRICS_PATH" yaml:"metrics_path"`
}

// Load loads configuration from environment variables and optional config file.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	// Set defaults first
	setDefaults(cfg)

	// Load from YAML file if provided (overrides defaults)
	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	// Override with environment variables (highest priority)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("processing env config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() (*Config, error) {
	return Load("")
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

func setDefaults(cfg *Config) {
	cfg.Host = "0.0.0.0"
	cfg.Port = 8080

	cfg.Providers = ProvidersConfig{
		DispatchDelay:   2 * time.Second,
		CallTimeout:     15 * time.Second,
		EnableLeakStore: true,
	}

	cfg.Correlation = CorrelationConfig{
		MatchThreshold: 0.8,
	}

	cfg.Scoring = ScoringConfig{
		QualityWeight:     0.3,
		RelevanceWeight:   0.4,
		ReliabilityWeight: 0.3,
		Reliability: map[string]float64{
			result.SourceCourtRecords:      0.95,
			result.SourcePropertyRecords:   0.90,
			result.SourceGovernmentAPIs:    0.85,
			result.SourceBusinessRecords:   0.80,
			result.SourcePhoneDirectories:  0.75,
			result.SourceNewsMedia:         0.70,
			result.SourceSocialMedia:       0.60,
			result.SourceLeakDatabases:     0.65,
			result.SourceEntityCorrelation: 0.85,
		},
		DefaultReliability: 0.5,
	}

	cfg.Search = SearchConfig{
		DefaultConfidenceThreshold: result.DefaultConfidenceThreshold,
		DefaultMaxResults:          result.DefaultMaxResults,
		QueryDeadline:              60 * time.Second,
		MaxConcurrentQueries:       8,
	}

	cfg.Cache = CacheConfig{
		Type:     "memory",
		TTL:      time.Hour,
		RedisURL: "redis://localhost:6379",
	}

	cfg.Index = IndexConfig{
		Type:     "memory",
		TTL:      24 * time.Hour,
		RedisURL: "redis://localhost:6379",
	}

	cfg.Bus = BusConfig{
		Type: "memory",
	}

	cfg.LeakStore = LeakStoreConfig{
		RedisURL: "redis://localhost:6379",
	}

	cfg.Log = LogConfig{
		Level:  "info",
		Format: "text",
	}

	cfg.Security = SecurityConfig{
		RateLimit: 0,
	}

	cfg.Observability = ObservabilityConfig{
		MetricsEnabled: true,
		MetricsPath:    "/metrics",
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	// Server validation
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, "port must be between 1 and 65535")
	}

	// Provider validation
	if c.Providers.DispatchDelay < 0 {
		errs = append(errs, "providers.dispatch_delay must not be negative")
	}
	if c.Providers.CallTimeout <= 0 {
		errs = append(errs, "providers.call_timeout must be positive")
	}

	// Correlation validation
	if c.Correlation.MatchThreshold <= 0 || c.Correlation.MatchThreshold >= 1 {
		errs = append(errs, "correlation.match_threshold must be in (0, 1)")
	}

	// Scoring validation
	weightSum := c.Scoring.QualityWeight + c.Scoring.RelevanceWeight + c.Scoring.ReliabilityWeight
	if weightSum < 0.999 || weightSum > 1.001 {
		errs = append(errs, "scoring weights must sum to 1")
	}
	if c.Scoring.DefaultReliability < 0 || c.Scoring.DefaultReliability > 1 {
		errs = append(errs, "scoring.default_reliability must be between 0 and 1")
	}
	for source, score := range c.Scoring.Reliability {
		if score < 0 || score > 1 {
			errs = append(errs, fmt.Sprintf("scoring.reliability[%s] must be between 0 and 1", source))
		}
	}

	// Search validation
	if c.Search.DefaultConfidenceThreshold < 0 || c.Search.DefaultConfidenceThreshold > 1 {
		errs = append(errs, "search.default_confidence_threshold must be between 0 and 1")
	}
	if c.Search.DefaultMaxResults < 1 {
		errs = append(errs, "search.default_max_results must be at least 1")
	}
	if c.Search.MaxConcurrentQueries < 1 {
		errs = append(errs, "search.max_concurrent_queries must be at least 1")
	}

	// Cache validation
	validCacheTypes := map[string]bool{"memory": true, "redis": true}
	if !validCacheTypes[c.Cache.Type] {
		errs = append(errs, fmt.Sprintf("invalid cache type: %s (must be memory or redis)", c.Cache.Type))
	}
	if c.Cache.TTL <= 0 {
		errs = append(errs, "cache.ttl must be positive")
	}

	// Index validation
	validIndexTypes := map[string]bool{"memory": true, "redis": true}
	if !validIndexTypes[c.Index.Type] {
		errs = append(errs, fmt.Sprintf("invalid index type: %s (must be memory or redis)", c.Index.Type))
	}

	// Bus validation
	validBusTypes := map[string]bool{"memory": true, "kafka": true}
	if !validBusTypes[c.Bus.Type] {
		errs = append(errs, fmt.Sprintf("invalid bus type: %s (must be memory or kafka)", c.Bus.Type))
	}

	// Log validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("invalid log format: %s (must be text or json)", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// Address returns the server address.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
