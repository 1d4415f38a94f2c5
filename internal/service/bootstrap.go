package service

import (
	"fmt"

	"stencil/internal/config"
	"stencil/internal/handlers"
	"stencil/internal/logging"
	"stencil/internal/seeder"
	"stencil/internal/telemetry"
	"stencil/kafka"
)

// Topics consumed by the reference handlers. Replace these registrations
// when building a real service on the template.
const (
	userEventsTopic = "user-events"
	notesTopic      = "notes"
)

func Bootstrap(cfg config.Service) (*Service, error) {
	// 1. kafka manager
	kcfg, err := config.LoadKafkaConfig(cfg.KafkaConfig)
	if err != nil {
		return nil, fmt.Errorf("kafka config: %w", err)
	}
	manager, err := kafka.NewManager(kcfg)
	if err != nil {
		return nil, fmt.Errorf("kafka: %w", err)
	}

	// 2. reference handlers
	for _, h := range []kafka.Handler{
		handlers.NewUserEventHandler(userEventsTopic),
		handlers.NewStringHandler(notesTopic),
	} {
		if err := manager.RegisterHandler(h); err != nil {
			return nil, fmt.Errorf("register %s: %w", h.Topic(), err)
		}
	}

	// 3. seed fixtures
	if cfg.SeedDir != "" {
		if err := seedTopics(manager, cfg); err != nil {
			logging.L().Error("service: seeding failed, continuing", "err", err)
		}
	}

	// 4. metrics
	telemetry.Expose(cfg.MetricsPort)

	return &Service{manager: manager}, nil
}

func seedTopics(manager *kafka.Manager, cfg config.Service) error {
	producer, err := manager.Producer()
	if err != nil {
		return err
	}
	if producer == nil {
		logging.L().Warn("service: kafka disabled, seeding skipped")
		return nil
	}
	return seeder.Run(producer, cfg.SeedDir, cfg.Environment)
}
