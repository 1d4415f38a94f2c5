// Package service wires configuration, handlers, seeding and metrics into
// a runnable process around the kafka manager.
package service

import (
	"context"

	"stencil/internal/logging"
	"stencil/kafka"
)

// Service owns the kafka manager for the lifetime of the process.
type Service struct {
	manager *kafka.Manager
}

// Run starts the consumer loop and blocks until ctx is canceled or the loop
// dies. With Kafka disabled, or with no handlers registered, it simply waits
// for the shutdown signal.
func (s *Service) Run(ctx context.Context) error {
	defer s.manager.Close()

	task, err := s.manager.StartConsumer(ctx)
	if err != nil {
		return err
	}
	if task == nil {
		logging.L().Info("service: consumer not running, waiting for shutdown")
		<-ctx.Done()
		return nil
	}

	select {
	case <-ctx.Done():
		logging.L().Info("service: shutdown signal received, stopping consumer")
		return task.Stop()
	case err := <-task.Done():
		return err
	}
}
