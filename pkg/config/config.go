// Package config loads and validates application configuration from YAML
// files with environment-variable overrides. It provides typed structs for
// every subsystem (Target, Ingest, Enrich, Adapters, Postgres, Kafka, Redis,
// Server, etc.) so that every recognized option and its default is explicit.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Target   TargetConfig   `yaml:"target"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Enrich   EnrichConfig   `yaml:"enrich"`
	Adapters AdaptersConfig `yaml:"adapters"`
	Postgres PostgresConfig `yaml:"postgres"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// TargetConfig identifies who the timeline is built for and in which zone
// all timestamps are expressed.
type TargetConfig struct {
	Identifier string `yaml:"identifier"`
	Timezone   string `yaml:"timezone"`
	From       string `yaml:"from"`
	To         string `yaml:"to"`
}

// Location resolves the configured timezone name.
func (t TargetConfig) Location() (*time.Location, error) {
	if t.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(t.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", t.Timezone, err)
	}
	return loc, nil
}

// Range parses the optional from/to bounds (RFC 3339 or YYYY-MM-DD).
func (t TargetConfig) Range() (start, end time.Time, err error) {
	parse := func(s string) (time.Time, error) {
		if s == "" {
			return time.Time{}, nil
		}
		if ts, perr := time.Parse(time.RFC3339, s); perr == nil {
			return ts, nil
		}
		return time.Parse("2006-01-02", s)
	}
	if start, err = parse(t.From); err != nil {
		return start, end, fmt.Errorf("parsing target.from %q: %w", t.From, err)
	}
	if end, err = parse(t.To); err != nil {
		return start, end, fmt.Errorf("parsing target.to %q: %w", t.To, err)
	}
	return start, end, nil
}

// IngestConfig controls the orchestrator.
type IngestConfig struct {
	AdapterTimeout  time.Duration `yaml:"adapterTimeout"`
	TestConnections bool          `yaml:"testConnections"`
}

// EnrichConfig toggles and tunes each enrichment stage.
type EnrichConfig struct {
	Language  LanguageConfig  `yaml:"language"`
	Entities  EntitiesConfig  `yaml:"entities"`
	Sentiment SentimentConfig `yaml:"sentiment"`
	Topics    TopicsConfig    `yaml:"topics"`
	Geo       GeoConfig       `yaml:"geo"`
	Graph     GraphConfig     `yaml:"graph"`
}

// LanguageConfig controls the language-detection stage.
type LanguageConfig struct {
	Enabled  bool    `yaml:"enabled"`
	MinRatio float64 `yaml:"minRatio"`
}

// EntitiesConfig controls the entity-extraction stage.
type EntitiesConfig struct {
	Enabled       bool    `yaml:"enabled"`
	MinConfidence float64 `yaml:"minConfidence"`
}

// SentimentConfig controls the sentiment stage.
type SentimentConfig struct {
	Enabled bool `yaml:"enabled"`
}

// TopicsConfig controls the topic-extraction stage.
type TopicsConfig struct {
	Enabled bool `yaml:"enabled"`
	TopN    int  `yaml:"topN"`
}

// GeoPoint is an extra gazetteer entry supplied through configuration.
type GeoPoint struct {
	Lat     float64 `yaml:"lat"`
	Lng     float64 `yaml:"lng"`
	Country string  `yaml:"country"`
}

// GeoConfig controls the geo-tagging stage. Gazetteer entries extend the
// built-in table; they cannot remove built-in names.
type GeoConfig struct {
	Enabled       bool                `yaml:"enabled"`
	MinConfidence float64             `yaml:"minConfidence"`
	Gazetteer     map[string]GeoPoint `yaml:"gazetteer"`
}

// GraphConfig controls the relationship-graph stage.
type GraphConfig struct {
	Enabled bool `yaml:"enabled"`
}

// AdaptersConfig lists the configured sources. Each entry produces one
// adapter instance; an empty list for a kind disables it.
type AdaptersConfig struct {
	File  []FileAdapterConfig  `yaml:"file"`
	Kafka []KafkaAdapterConfig `yaml:"kafka"`
	Blog  []BlogAdapterConfig  `yaml:"blog"`
}

// FileAdapterConfig reads raw events from an NDJSON export file.
type FileAdapterConfig struct {
	Platform string `yaml:"platform"`
	Path     string `yaml:"path"`
}

// KafkaAdapterConfig drains raw events from a Kafka topic.
type KafkaAdapterConfig struct {
	Platform     string        `yaml:"platform"`
	Topic        string        `yaml:"topic"`
	DrainTimeout time.Duration `yaml:"drainTimeout"`
	MaxEvents    int           `yaml:"maxEvents"`
}

// BlogAdapterConfig scrapes post entries from an HTML index page.
type BlogAdapterConfig struct {
	Platform     string `yaml:"platform"`
	IndexURL     string `yaml:"indexUrl"`
	ItemSelector string `yaml:"itemSelector"`
	DateFormat   string `yaml:"dateFormat"`
	MaxRetries   int    `yaml:"maxRetries"`
}

// PostgresConfig holds PostgreSQL connection parameters for the run store.
type PostgresConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds broker settings and the topics used by the engine.
type KafkaConfig struct {
	Brokers         []string    `yaml:"brokers"`
	ConsumerGroup   string      `yaml:"consumerGroup"`
	Topics          KafkaTopics `yaml:"topics"`
	PublishEnriched bool        `yaml:"publishEnriched"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	EnrichedEvents string `yaml:"enrichedEvents"`
}

// RedisConfig holds Redis connection parameters for the timeline cache.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// ServerConfig holds HTTP server settings for serve mode.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if _, err := c.Target.Location(); err != nil {
		return err
	}
	if _, _, err := c.Target.Range(); err != nil {
		return err
	}
	if c.Enrich.Topics.TopN <= 0 {
		return fmt.Errorf("enrich.topics.topN must be positive, got %d", c.Enrich.Topics.TopN)
	}
	if c.Enrich.Entities.MinConfidence < 0 || c.Enrich.Entities.MinConfidence > 1 {
		return fmt.Errorf("enrich.entities.minConfidence must be in [0,1], got %v", c.Enrich.Entities.MinConfidence)
	}
	if c.Enrich.Geo.MinConfidence < 0 || c.Enrich.Geo.MinConfidence > 1 {
		return fmt.Errorf("enrich.geo.minConfidence must be in [0,1], got %v", c.Enrich.Geo.MinConfidence)
	}
	return nil
}

// defaultConfig returns a Config with every stage enabled and defaults
// suitable for local development.
func defaultConfig() *Config {
	return &Config{
		Target: TargetConfig{
			Timezone: "UTC",
		},
		Ingest: IngestConfig{
			AdapterTimeout:  30 * time.Second,
			TestConnections: true,
		},
		Enrich: EnrichConfig{
			Language:  LanguageConfig{Enabled: true, MinRatio: 0.08},
			Entities:  EntitiesConfig{Enabled: true, MinConfidence: 0.5},
			Sentiment: SentimentConfig{Enabled: true},
			Topics:    TopicsConfig{Enabled: true, TopN: 5},
			Geo:       GeoConfig{Enabled: true, MinConfidence: 0.5},
			Graph:     GraphConfig{Enabled: true},
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "timeline",
			User:            "timeline",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "timeline-engine",
			Topics: KafkaTopics{
				EnrichedEvents: "timeline.enriched",
			},
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			DB:       0,
			PoolSize: 10,
			CacheTTL: 5 * time.Minute,
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    120 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads TL_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TL_TARGET_IDENTIFIER"); v != "" {
		cfg.Target.Identifier = v
	}
	if v := os.Getenv("TL_TARGET_TIMEZONE"); v != "" {
		cfg.Target.Timezone = v
	}
	if v := os.Getenv("TL_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("TL_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("TL_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("TL_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("TL_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("TL_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("TL_POSTGRES_SSLMODE"); v != "" {
		cfg.Postgres.SSLMode = v
	}
	if v := os.Getenv("TL_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("TL_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("TL_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("TL_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TL_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("TL_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
}
