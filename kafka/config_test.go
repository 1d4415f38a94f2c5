package kafka

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var kafkaEnvKeys = []string{
	"KAFKA_ENABLED", "KAFKA_BROKERS", "KAFKA_CONSUMER_GROUP_ID", "KAFKA_TOPICS",
	"KAFKA_AUTO_OFFSET_RESET", "KAFKA_SESSION_TIMEOUT_MS", "KAFKA_VERSION",
	"KAFKA_MAX_REDELIVERIES", "KAFKA_RETRY_INTERVAL_MS", "KAFKA_TLS_ENABLED",
	"KAFKA_SASL_USER", "KAFKA_SASL_PASS", "KAFKA_SASL_MECHANISM",
}

// clearKafkaEnv unsets every engine variable for the test's duration.
// t.Setenv records the original value, so cleanup restores it.
func clearKafkaEnv(t *testing.T) {
	t.Helper()
	for _, key := range kafkaEnvKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearKafkaEnv(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.False(t, cfg.Enabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Brokers)
	assert.Equal(t, "stencil-service-group", cfg.GroupID)
	assert.Empty(t, cfg.Topics)
	assert.Equal(t, OffsetResetLatest, cfg.AutoOffsetReset)
	assert.Equal(t, 6000, cfg.SessionTimeoutMS)
	assert.Equal(t, 5, cfg.MaxRedeliveries)
	assert.Equal(t, 1000, cfg.RetryIntervalMS)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	clearKafkaEnv(t)
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_CONSUMER_GROUP_ID", "my-group")
	t.Setenv("KAFKA_TOPICS", "topic1,topic2")
	t.Setenv("KAFKA_AUTO_OFFSET_RESET", "earliest")
	t.Setenv("KAFKA_SESSION_TIMEOUT_MS", "10000")
	t.Setenv("KAFKA_MAX_REDELIVERIES", "-1")
	t.Setenv("KAFKA_SASL_MECHANISM", "SCRAM-SHA-512")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.True(t, cfg.Enabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.Brokers)
	assert.Equal(t, "my-group", cfg.GroupID)
	assert.Equal(t, []string{"topic1", "topic2"}, cfg.Topics)
	assert.Equal(t, OffsetResetEarliest, cfg.AutoOffsetReset)
	assert.Equal(t, 10000, cfg.SessionTimeoutMS)
	assert.Equal(t, -1, cfg.MaxRedeliveries)
	assert.Equal(t, "SCRAM-SHA-512", cfg.SASLMechanism)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	clearKafkaEnv(t)
	path := filepath.Join(t.TempDir(), "kafka.yaml")
	yml := `schema_version: v1
enabled: true
brokers:
  - file-broker:9092
consumer_group_id: file-group
auto_offset_reset: earliest
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))
	t.Setenv("KAFKA_CONSUMER_GROUP_ID", "env-group")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.True(t, cfg.Enabled)
	assert.Equal(t, []string{"file-broker:9092"}, cfg.Brokers)
	assert.Equal(t, "env-group", cfg.GroupID, "env must override the file")
	assert.Equal(t, OffsetResetEarliest, cfg.AutoOffsetReset)
}

func TestLoadConfigMissingFileIsFine(t *testing.T) {
	clearKafkaEnv(t)

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "stencil-service-group", cfg.GroupID)
}

func TestLoadConfigRejectsUnknownSchemaVersion(t *testing.T) {
	clearKafkaEnv(t)
	path := filepath.Join(t.TempDir(), "kafka.yaml")
	require.NoError(t, os.WriteFile(path, []byte("schema_version: v2\n"), 0o600))

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Enabled:         true,
			Brokers:         []string{"localhost:9092"},
			GroupID:         "g",
			AutoOffsetReset: OffsetResetLatest,
		}
	}

	t.Run("disabled is always valid", func(t *testing.T) {
		assert.NoError(t, Config{}.Validate())
	})
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})
	t.Run("no brokers", func(t *testing.T) {
		cfg := base()
		cfg.Brokers = nil
		assert.Error(t, cfg.Validate())
	})
	t.Run("blank broker entry", func(t *testing.T) {
		cfg := base()
		cfg.Brokers = []string{"a:9092", " "}
		assert.Error(t, cfg.Validate())
	})
	t.Run("blank group id", func(t *testing.T) {
		cfg := base()
		cfg.GroupID = "   "
		assert.Error(t, cfg.Validate())
	})
	t.Run("offset reset none is a valid config value", func(t *testing.T) {
		cfg := base()
		cfg.AutoOffsetReset = OffsetResetNone
		assert.NoError(t, cfg.Validate())
	})
	t.Run("unknown offset reset", func(t *testing.T) {
		cfg := base()
		cfg.AutoOffsetReset = "sometimes"
		assert.Error(t, cfg.Validate())
	})
	t.Run("unknown sasl mechanism", func(t *testing.T) {
		cfg := base()
		cfg.SASLMechanism = "GSSAPI"
		assert.Error(t, cfg.Validate())
	})
	t.Run("garbage version", func(t *testing.T) {
		cfg := base()
		cfg.Version = "99"
		assert.Error(t, cfg.Validate())
	})
}

func TestConsumerConfigMapping(t *testing.T) {
	cfg := Config{
		Enabled:          true,
		Brokers:          []string{"localhost:9092"},
		GroupID:          "g",
		AutoOffsetReset:  OffsetResetEarliest,
		SessionTimeoutMS: 6000,
		Version:          "3.6.0",
	}
	sc, err := cfg.consumerConfig()
	require.NoError(t, err)

	assert.Equal(t, sarama.OffsetOldest, sc.Consumer.Offsets.Initial)
	assert.Equal(t, 6*time.Second, sc.Consumer.Group.Session.Timeout)
	assert.Equal(t, 2*time.Second, sc.Consumer.Group.Heartbeat.Interval)
	assert.True(t, sc.Consumer.Return.Errors)
	assert.True(t, sc.Producer.Return.Successes)
	assert.Equal(t, sarama.V3_6_0_0, sc.Version)

	cfg.AutoOffsetReset = OffsetResetLatest
	sc, err = cfg.consumerConfig()
	require.NoError(t, err)
	assert.Equal(t, sarama.OffsetNewest, sc.Consumer.Offsets.Initial)

	cfg.AutoOffsetReset = OffsetResetNone
	_, err = cfg.consumerConfig()
	require.Error(t, err, "the consumer must refuse a fail-on-missing-offset mode it cannot honor")
}

func TestSaramaConfigSASL(t *testing.T) {
	cfg := Config{
		Enabled:       true,
		Brokers:       []string{"localhost:9092"},
		GroupID:       "g",
		TLSEn:         true,
		SASLUser:      "svc",
		SASLPass:      "secret",
		SASLMechanism: SASLScramSHA256,
	}
	sc, err := cfg.saramaConfig()
	require.NoError(t, err)

	assert.True(t, sc.Net.TLS.Enable)
	assert.True(t, sc.Net.SASL.Enable)
	assert.Equal(t, "svc", sc.Net.SASL.User)
	assert.EqualValues(t, sarama.SASLTypeSCRAMSHA256, sc.Net.SASL.Mechanism)
	require.NotNil(t, sc.Net.SASL.SCRAMClientGeneratorFunc)

	client := sc.Net.SASL.SCRAMClientGeneratorFunc()
	require.NoError(t, client.Begin("svc", "secret", ""))
}
