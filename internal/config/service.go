package config

import (
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Service holds the non-Kafka settings of the template binary.
type Service struct {
	Environment string `koanf:"env"`
	MetricsPort int    `koanf:"metrics_port"`
	SeedDir     string `koanf:"seed_dir"`
	KafkaConfig string `koanf:"kafka_config"`
}

// LoadService reads STENCIL_* environment variables and fills defaults.
func LoadService() (Service, error) {
	k := koanf.New(".")
	if err := k.Load(env.Provider("STENCIL_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "STENCIL_"))
	}), nil); err != nil {
		return Service{}, err
	}
	var cfg Service
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, err
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.MetricsPort == 0 {
		cfg.MetricsPort = 9100
	}
	if cfg.KafkaConfig == "" {
		cfg.KafkaConfig = "kafka.yaml"
	}
	return cfg, nil
}
