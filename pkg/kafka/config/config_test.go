package kafka_config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBrokers(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"single", "localhost:9092", []string{"localhost:9092"}},
		{"trims and keeps order", " b1:9092 , b2:9092", []string{"b1:9092", "b2:9092"}},
		{"drops blanks", "b1:9092,, ,b2:9092,", []string{"b1:9092", "b2:9092"}},
		{"drops duplicates", "b1:9092,b1:9092 ", []string{"b1:9092"}},
		{"empty", "", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseBrokers(tt.in))
		})
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv(EnvKafkaBrokers, "")
	t.Setenv(EnvKafkaClientID, "")
	t.Setenv(EnvKafkaConsumerGroupID, "")

	cfg := FromEnv()

	assert.Equal(t, []string{DefaultKafkaBrokers}, cfg.Brokers)
	assert.Equal(t, DefaultClientID, cfg.ClientID)
	assert.False(t, cfg.AllowAutoTopicCreation)
	assert.Equal(t, DefaultConsumerGroupID, cfg.ConsumerGroupID)
	assert.Equal(t, DefaultProducerBatchTimeout, cfg.ProducerBatchTimeout)
	require.NoError(t, cfg.Validate())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv(EnvKafkaBrokers, "k1:9092,k2:9093")
	t.Setenv(EnvKafkaClientID, "reservatec-test")
	t.Setenv(EnvKafkaAllowAutoTopicCreation, "true")
	t.Setenv(EnvKafkaConsumerMaxWait, "2s")
	t.Setenv(EnvKafkaConsumerMaxRetries, "not-a-number")

	cfg := FromEnv()

	assert.Equal(t, []string{"k1:9092", "k2:9093"}, cfg.Brokers)
	assert.Equal(t, "reservatec-test", cfg.ClientID)
	assert.True(t, cfg.AllowAutoTopicCreation)
	assert.Equal(t, 2*time.Second, cfg.ConsumerMaxWait)
	assert.Equal(t, DefaultConsumerMaxRetries, cfg.ConsumerMaxRetries)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"no brokers", func(c *Config) { c.Brokers = nil }, "At least one Kafka broker"},
		{"broker without port", func(c *Config) { c.Brokers = []string{"localhost"} }, "must be host:port"},
		{"empty client id", func(c *Config) { c.ClientID = "" }, "ClientID cannot be empty"},
		{"bad compression", func(c *Config) { c.ProducerCompression = "brotli" }, "ProducerCompression"},
		{"bad acks", func(c *Config) { c.ProducerRequireAcks = 2 }, "ProducerRequireAcks"},
		{"max below min bytes", func(c *Config) { c.ConsumerMaxBytes = 0 }, "ConsumerMaxBytes"},
		{"negative retries", func(c *Config) { c.ConsumerMaxRetries = -1 }, "ConsumerMaxRetries"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_AggregatesErrors(t *testing.T) {
	cfg := validConfig()
	cfg.ClientID = ""
	cfg.ConsumerGroupID = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1. ClientID cannot be empty")
	assert.Contains(t, err.Error(), "2. ConsumerGroupID cannot be empty")
}

func validConfig() *Config {
	return &Config{
		Brokers:                   []string{"localhost:9092"},
		ClientID:                  DefaultClientID,
		ProducerMaxAttempts:       DefaultProducerMaxAttempts,
		ProducerBatchTimeout:      DefaultProducerBatchTimeout,
		ProducerRequireAcks:       DefaultProducerRequireAcks,
		ProducerCompression:       DefaultProducerCompression,
		ConsumerGroupID:           DefaultConsumerGroupID,
		ConsumerStartOffset:       DefaultConsumerStartOffset,
		ConsumerMinBytes:          DefaultConsumerMinBytes,
		ConsumerMaxBytes:          DefaultConsumerMaxBytes,
		ConsumerMaxWait:           DefaultConsumerMaxWait,
		ConsumerCommitInterval:    DefaultConsumerCommitInterval,
		ConsumerHeartbeatInterval: DefaultConsumerHeartbeatInterval,
		ConsumerSessionTimeout:    DefaultConsumerSessionTimeout,
		ConsumerRebalanceTimeout:  DefaultConsumerRebalanceTimeout,
		ConsumerMaxRetries:        DefaultConsumerMaxRetries,
	}
}
