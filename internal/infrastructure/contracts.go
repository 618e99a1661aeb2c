package infrastructure

import (
	"context"

	"orders-payments-saga/internal/entity"
)

type (
	// EventsSender publishes a single outbox row and returns only after the
	// broker acknowledged a durable write. Per-message granularity lets the
	// dispatcher mark rows dispatched one by one.
	EventsSender interface {
		SendEvent(ctx context.Context, msg *entity.OutboxMessage) error
		Close() error
	}
)
