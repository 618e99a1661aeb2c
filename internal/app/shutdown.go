package app

import (
	"context"
	"fmt"

	"orders-payments-saga/config"
	kafkactrl "orders-payments-saga/internal/controller/kafka"
	"orders-payments-saga/internal/controller/worker/outbox"
	"orders-payments-saga/pkg/logger"
)

// shutdown stops the background loops, each under its own timeout.
func shutdown(
	ctx context.Context,
	cfg *config.Config,
	l logger.Interface,
	dispatcher *outbox.Dispatcher,
	kafkaController *kafkactrl.KafkaController,
) {
	dShutdownCtx, dShutdownCancel := context.WithTimeout(ctx, cfg.Dispatcher.ShutdownTimeout)
	defer dShutdownCancel()
	err := dispatcher.Shutdown(dShutdownCtx)
	if err != nil {
		l.Error(fmt.Errorf("app - shutdown - dispatcher.Shutdown: %w", err))
	}

	kcShutdownCtx, kcShutdownCancel := context.WithTimeout(ctx, cfg.Consumer.ShutdownTimeout)
	defer kcShutdownCancel()
	err = kafkaController.Shutdown(kcShutdownCtx)
	if err != nil {
		l.Error(fmt.Errorf("app - shutdown - kafkaController.Shutdown: %w", err))
	}
}
