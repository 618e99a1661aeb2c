// Package outbox exposes the durable queue to the dispatcher worker.
package outbox

import (
	"context"
	"fmt"

	"orders-payments-saga/internal/entity"
	"orders-payments-saga/internal/repo"
)

type OutboxUseCase struct {
	outboxRepo repo.OutboxRepo
}

func New(outboxRepo repo.OutboxRepo) *OutboxUseCase {
	return &OutboxUseCase{outboxRepo: outboxRepo}
}

func (uc *OutboxUseCase) FetchUndispatched(ctx context.Context, limit int) ([]*entity.OutboxMessage, error) {
	msgs, err := uc.outboxRepo.FetchUndispatched(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("OutboxUseCase - FetchUndispatched - uc.outboxRepo.FetchUndispatched: %w", err)
	}

	return msgs, nil
}

func (uc *OutboxUseCase) MarkDispatched(ctx context.Context, id int64) error {
	err := uc.outboxRepo.MarkDispatched(ctx, id)
	if err != nil {
		return fmt.Errorf("OutboxUseCase - MarkDispatched - uc.outboxRepo.MarkDispatched: %w", err)
	}

	return nil
}
