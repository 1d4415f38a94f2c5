package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"stencil/internal/config"
	"stencil/internal/logging"
	"stencil/internal/service"
)

func main() {
	logging.InitFromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadService()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	svc, err := service.Bootstrap(cfg)
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}

	if err := svc.Run(ctx); err != nil {
		log.Fatalf("service: %v", err)
	}
}
