package config

import (
	kcfg "stencil/kafka"
)

// LoadKafkaConfig loads the messaging engine's configuration. It lives here
// so the binary reads every config through one package.
func LoadKafkaConfig(path string) (kcfg.Config, error) {
	return kcfg.LoadConfig(path)
}
