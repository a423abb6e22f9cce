package mango

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "mongodb://localhost:27017", cfg.URI)
	assert.Equal(t, "mango", cfg.Database)
	assert.Equal(t, "none", cfg.Cache.Type)
	assert.Equal(t, "none", cfg.Events.Type)
	require.NoError(t, cfg.validate())
}

func TestParseConfigOverlaysDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
uri: mongodb://db.internal:27017
database: orders
cache:
  type: redis
  ttl: 30s
  endpoints:
    - redis.internal:6379
events:
  type: kafka
  brokers:
    - kafka.internal:9092
  topic: order-changes
`))
	require.NoError(t, err)
	assert.Equal(t, "mongodb://db.internal:27017", cfg.URI)
	assert.Equal(t, "orders", cfg.Database)
	assert.Equal(t, 10*time.Second, cfg.ConnectTimeout, "untouched fields keep defaults")
	assert.Equal(t, "redis", cfg.Cache.Type)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, []string{"redis.internal:6379"}, cfg.Cache.Endpoints)
	assert.Equal(t, "order-changes", cfg.Events.Topic)
	assert.Equal(t, -1, cfg.Events.RequiredAcks, "untouched nested fields keep defaults")
}

func TestParseConfigInvalidYAML(t *testing.T) {
	_, err := ParseConfig([]byte("uri: [unclosed"))
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		wantOK bool
	}{
		{"defaults", func(*Config) {}, true},
		{"missing uri", func(c *Config) { c.URI = "" }, false},
		{"missing database", func(c *Config) { c.Database = "" }, false},
		{"memory cache", func(c *Config) { c.Cache.Type = "memory" }, true},
		{"redis without endpoints", func(c *Config) { c.Cache.Type = "redis" }, false},
		{"unknown cache type", func(c *Config) { c.Cache.Type = "tape" }, false},
		{"channel events", func(c *Config) { c.Events.Type = "channel" }, true},
		{"kafka without brokers", func(c *Config) {
			c.Events.Type = "kafka"
			c.Events.Topic = "changes"
		}, false},
		{"kafka without topic", func(c *Config) {
			c.Events.Type = "kafka"
			c.Events.Brokers = []string{"localhost:9092"}
		}, false},
		{"kafka complete", func(c *Config) {
			c.Events.Type = "kafka"
			c.Events.Brokers = []string{"localhost:9092"}
			c.Events.Topic = "changes"
		}, true},
		{"unknown events type", func(c *Config) { c.Events.Type = "smoke-signal" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantOK {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
