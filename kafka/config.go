package kafka

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// auto_offset_reset values accepted by Validate. "none" is a valid config
// value but this client has no fail-on-missing-offset mode, so the consumer
// refuses it at construction time.
const (
	OffsetResetEarliest = "earliest"
	OffsetResetLatest   = "latest"
	OffsetResetNone     = "none"
)

// sasl_mechanism values.
const (
	SASLPlain       = "PLAIN"
	SASLScramSHA256 = "SCRAM-SHA-256"
	SASLScramSHA512 = "SCRAM-SHA-512"
)

type Config struct {
	Enabled          bool     `koanf:"enabled"`
	Brokers          []string `koanf:"brokers"`
	GroupID          string   `koanf:"consumer_group_id"`
	Topics           []string `koanf:"topics"`             // informational; routing follows the registry
	AutoOffsetReset  string   `koanf:"auto_offset_reset"`  // earliest|latest|none
	SessionTimeoutMS int      `koanf:"session_timeout_ms"` // group session timeout
	Version          string   `koanf:"version"`            // broker version, e.g. "3.6.0"
	MaxRedeliveries  int      `koanf:"max_redeliveries"`   // error-path cap; negative disables it
	RetryIntervalMS  int      `koanf:"retry_interval_ms"`  // pause before redelivering a held record
	TLSEn            bool     `koanf:"tls_enabled"`
	SASLUser         string   `koanf:"sasl_user"`
	SASLPass         string   `koanf:"sasl_pass"`
	SASLMechanism    string   `koanf:"sasl_mechanism"` // PLAIN|SCRAM-SHA-256|SCRAM-SHA-512
}

// ---------------------------------------------------------------------------
// Loader
// ---------------------------------------------------------------------------

// LoadConfig merges YAML (if present) with env-vars (prefix `KAFKA_`).
// Env wins over file; defaults fill whatever is left.
func LoadConfig(path string) (Config, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil &&
			!errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}
	// schema version check (only when YAML is present)
	sv := k.String("schema_version")
	if sv != "" && sv != "v1" {
		return Config{}, fmt.Errorf("kafka schema_version %q not supported (want v1)", sv)
	}

	_ = k.Load(env.ProviderWithValue("KAFKA_", ".", func(key, value string) (string, interface{}) {
		name := strings.ToLower(strings.TrimPrefix(key, "KAFKA_"))
		switch name {
		case "brokers", "topics":
			if value == "" {
				return "", nil
			}
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			return name, parts
		}
		return name, value
	}), nil)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, err
	}
	applyDefaults(&cfg)
	return cfg, nil
}

// ---------------------------------------------------------------------------
// defaults
// ---------------------------------------------------------------------------

func applyDefaults(c *Config) {
	if len(c.Brokers) == 0 {
		c.Brokers = []string{"localhost:9092"}
	}
	if c.GroupID == "" {
		c.GroupID = "stencil-service-group"
	}
	if c.AutoOffsetReset == "" {
		c.AutoOffsetReset = OffsetResetLatest
	}
	if c.SessionTimeoutMS == 0 {
		c.SessionTimeoutMS = 6000
	}
	if c.MaxRedeliveries == 0 {
		c.MaxRedeliveries = 5
	}
	if c.RetryIntervalMS == 0 {
		c.RetryIntervalMS = 1000
	}
}

// ---------------------------------------------------------------------------
// validation
// ---------------------------------------------------------------------------

// Validate reports configuration errors that must stop startup. A disabled
// Config is always valid.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if len(c.Brokers) == 0 {
		return errors.New("kafka: at least one broker is required")
	}
	for _, b := range c.Brokers {
		if strings.TrimSpace(b) == "" {
			return fmt.Errorf("kafka: malformed broker list %q", c.Brokers)
		}
	}
	if strings.TrimSpace(c.GroupID) == "" {
		return errors.New("kafka: consumer_group_id is required")
	}
	switch c.AutoOffsetReset {
	case OffsetResetEarliest, OffsetResetLatest, OffsetResetNone:
	default:
		return fmt.Errorf("kafka: auto_offset_reset %q not supported (want earliest, latest or none)", c.AutoOffsetReset)
	}
	switch c.SASLMechanism {
	case "", SASLPlain, SASLScramSHA256, SASLScramSHA512:
	default:
		return fmt.Errorf("kafka: sasl_mechanism %q not supported", c.SASLMechanism)
	}
	if c.Version != "" {
		if _, err := sarama.ParseKafkaVersion(c.Version); err != nil {
			return fmt.Errorf("kafka: version: %w", err)
		}
	}
	return nil
}

func (c Config) retryInterval() time.Duration {
	return time.Duration(c.RetryIntervalMS) * time.Millisecond
}

// ---------------------------------------------------------------------------
// sarama mapping
// ---------------------------------------------------------------------------

// saramaConfig translates the broker-facing knobs shared by the consumer
// group and the sync producer.
func (c Config) saramaConfig() (*sarama.Config, error) {
	sc := sarama.NewConfig()
	sc.ClientID = "stencil"
	if c.Version != "" {
		ver, err := sarama.ParseKafkaVersion(c.Version)
		if err != nil {
			return nil, fmt.Errorf("kafka: version: %w", err)
		}
		sc.Version = ver
	}

	sc.Producer.Return.Successes = true
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Timeout = 5 * time.Second

	if c.TLSEn {
		sc.Net.TLS.Enable = true
	}
	if c.SASLUser != "" {
		sc.Net.SASL.Enable = true
		sc.Net.SASL.User, sc.Net.SASL.Password = c.SASLUser, c.SASLPass
		switch c.SASLMechanism {
		case "", SASLPlain:
			sc.Net.SASL.Mechanism = sarama.SASLTypePlaintext
		case SASLScramSHA256:
			sc.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA256
			sc.Net.SASL.SCRAMClientGeneratorFunc = newScramSHA256Client
		case SASLScramSHA512:
			sc.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA512
			sc.Net.SASL.SCRAMClientGeneratorFunc = newScramSHA512Client
		default:
			return nil, fmt.Errorf("kafka: sasl_mechanism %q not supported", c.SASLMechanism)
		}
	}
	return sc, nil
}

// consumerConfig extends saramaConfig with the consumer-group knobs.
func (c Config) consumerConfig() (*sarama.Config, error) {
	sc, err := c.saramaConfig()
	if err != nil {
		return nil, err
	}
	sc.Consumer.Return.Errors = true
	switch c.AutoOffsetReset {
	case OffsetResetEarliest:
		sc.Consumer.Offsets.Initial = sarama.OffsetOldest
	case OffsetResetLatest:
		sc.Consumer.Offsets.Initial = sarama.OffsetNewest
	default:
		return nil, fmt.Errorf("kafka: auto_offset_reset %q is not supported by the consumer", c.AutoOffsetReset)
	}
	if c.SessionTimeoutMS > 0 {
		timeout := time.Duration(c.SessionTimeoutMS) * time.Millisecond
		sc.Consumer.Group.Session.Timeout = timeout
		sc.Consumer.Group.Heartbeat.Interval = timeout / 3
	}
	return sc, nil
}
