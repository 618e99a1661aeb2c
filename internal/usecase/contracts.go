package usecase

import (
	"context"

	"github.com/google/uuid"

	"orders-payments-saga/internal/entity"
)

type (
	// OrderUseCase - orders-service business logic: order creation with a
	// transactional PaymentRequested enqueue, read queries, and the
	// payment-result projection step.
	OrderUseCase interface {
		CreateOrder(ctx context.Context, userID uuid.UUID, amount int64, description string) (*entity.Order, error)
		ListOrders(ctx context.Context, userID uuid.UUID) ([]*entity.Order, error)
		GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*entity.Order, error)
		ApplyPaymentResult(ctx context.Context, evt *entity.PaymentResultEvent, raw []byte) error
	}

	// PaymentUseCase - payments-service business logic: the debit-or-reject
	// saga step plus the account collaborator surface.
	PaymentUseCase interface {
		ProcessPaymentRequested(ctx context.Context, evt *entity.PaymentRequestedEvent, raw []byte) error
		CreateOrGetAccount(ctx context.Context, userID uuid.UUID) (*entity.Account, bool, error)
		GetAccountByID(ctx context.Context, accountID uuid.UUID) (*entity.Account, error)
		GetAccountByUserID(ctx context.Context, userID uuid.UUID) (*entity.Account, error)
		TopUp(ctx context.Context, accountID, userID uuid.UUID, amount int64) (int64, error)
		GetCharge(ctx context.Context, orderID uuid.UUID) (*entity.Charge, error)
	}

	// OutboxUseCase - durable-queue access for the dispatcher worker.
	OutboxUseCase interface {
		FetchUndispatched(ctx context.Context, limit int) ([]*entity.OutboxMessage, error)
		MarkDispatched(ctx context.Context, id int64) error
	}
)
