package mango

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration for a mango client.
type Config struct {
	// URI is the store connection string.
	URI string `yaml:"uri" json:"uri"`

	// Database is the database name all collections are bound to.
	Database string `yaml:"database" json:"database"`

	// ConnectTimeout bounds connection establishment and the initial ping.
	ConnectTimeout time.Duration `yaml:"connect_timeout,omitempty" json:"connect_timeout,omitempty"`

	// Cache configures the optional read-through document cache.
	Cache CacheConfig `yaml:"cache,omitempty" json:"cache,omitempty"`

	// Events configures the optional change-event publisher.
	Events EventsConfig `yaml:"events,omitempty" json:"events,omitempty"`

	// Logger receives structured lifecycle logs. Defaults to a no-op
	// logger; not part of the serialized configuration.
	Logger *zap.SugaredLogger `yaml:"-" json:"-"`
}

// CacheConfig configures the read-through document cache used by ByID
// lookups.
type CacheConfig struct {
	// Type selects the backend: "none", "memory" or "redis".
	Type string `yaml:"type" json:"type"`

	// TTL is the time-to-live for cached documents.
	TTL time.Duration `yaml:"ttl,omitempty" json:"ttl,omitempty"`

	// Endpoints lists Redis endpoints. Only used by the redis backend.
	Endpoints []string `yaml:"endpoints,omitempty" json:"endpoints,omitempty"`

	// Password authenticates against Redis.
	Password string `yaml:"password,omitempty" json:"password,omitempty"`

	// DB is the Redis database number.
	DB int `yaml:"db,omitempty" json:"db,omitempty"`

	// PoolSize is the Redis connection pool size.
	PoolSize int `yaml:"pool_size,omitempty" json:"pool_size,omitempty"`

	// DialTimeout is the timeout for establishing connections.
	DialTimeout time.Duration `yaml:"dial_timeout,omitempty" json:"dial_timeout,omitempty"`

	// ReadTimeout is the timeout for read operations.
	ReadTimeout time.Duration `yaml:"read_timeout,omitempty" json:"read_timeout,omitempty"`

	// WriteTimeout is the timeout for write operations.
	WriteTimeout time.Duration `yaml:"write_timeout,omitempty" json:"write_timeout,omitempty"`
}

// EventsConfig configures change-event publishing.
type EventsConfig struct {
	// Type selects the sink: "none", "channel" or "kafka".
	Type string `yaml:"type" json:"type"`

	// BufferSize bounds the in-process channel sink.
	BufferSize int `yaml:"buffer_size,omitempty" json:"buffer_size,omitempty"`

	// Brokers lists Kafka broker addresses.
	Brokers []string `yaml:"brokers,omitempty" json:"brokers,omitempty"`

	// Topic is the Kafka topic change events are published to.
	Topic string `yaml:"topic,omitempty" json:"topic,omitempty"`

	// BatchSize is the producer batch size.
	BatchSize int `yaml:"batch_size,omitempty" json:"batch_size,omitempty"`

	// BatchTimeout is the producer batching timeout.
	BatchTimeout time.Duration `yaml:"batch_timeout,omitempty" json:"batch_timeout,omitempty"`

	// WriteTimeout is the producer write timeout.
	WriteTimeout time.Duration `yaml:"write_timeout,omitempty" json:"write_timeout,omitempty"`

	// RequiredAcks is the number of acknowledgments required (0, 1, or -1
	// for all).
	RequiredAcks int `yaml:"required_acks,omitempty" json:"required_acks,omitempty"`
}

// DefaultConfig returns a configuration with sensible defaults: local
// store, no cache, no events, no-op logging.
func DefaultConfig() *Config {
	return &Config{
		URI:            "mongodb://localhost:27017",
		Database:       "mango",
		ConnectTimeout: 10 * time.Second,
		Cache: CacheConfig{
			Type:         "none",
			TTL:          5 * time.Minute,
			PoolSize:     10,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Events: EventsConfig{
			Type:         "none",
			BufferSize:   1024,
			BatchSize:    100,
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: 10 * time.Second,
			RequiredAcks: -1,
		},
	}
}

// ParseConfig decodes a YAML configuration on top of the defaults.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return ParseConfig(data)
}

func (c *Config) validate() error {
	if c.URI == "" {
		return fmt.Errorf("config: uri is required")
	}
	if c.Database == "" {
		return fmt.Errorf("config: database is required")
	}
	switch c.Cache.Type {
	case "", "none", "memory":
	case "redis":
		if len(c.Cache.Endpoints) == 0 {
			return fmt.Errorf("config: cache type redis requires endpoints")
		}
	default:
		return fmt.Errorf("config: unsupported cache type %q", c.Cache.Type)
	}
	switch c.Events.Type {
	case "", "none", "channel":
	case "kafka":
		if len(c.Events.Brokers) == 0 || c.Events.Topic == "" {
			return fmt.Errorf("config: events type kafka requires brokers and topic")
		}
	default:
		return fmt.Errorf("config: unsupported events type %q", c.Events.Type)
	}
	return nil
}
