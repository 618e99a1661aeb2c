package repo

import (
	"context"

	"github.com/google/uuid"

	"orders-payments-saga/internal/entity"
)

type (
	// Transactor runs f inside a single DB transaction; repos called with
	// the ctx it passes join that transaction.
	Transactor interface {
		WithinTransaction(ctx context.Context, f func(ctx context.Context) error) error
	}

	OrderRepo interface {
		Create(ctx context.Context, order *entity.Order) error
		GetByIDForUser(ctx context.Context, orderID, userID uuid.UUID) (*entity.Order, error)
		ListByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Order, error)
		UpdateStatus(ctx context.Context, orderID uuid.UUID, status entity.OrderStatus) error
	}

	AccountRepo interface {
		// CreateOrGet returns the account for userID, creating it with a zero
		// balance when absent. The bool reports whether a row was created.
		CreateOrGet(ctx context.Context, userID uuid.UUID) (*entity.Account, bool, error)
		GetByAccountID(ctx context.Context, accountID uuid.UUID) (*entity.Account, error)
		GetByUserID(ctx context.Context, userID uuid.UUID) (*entity.Account, error)
		// TopUp unconditionally adds amount and returns the new balance.
		TopUp(ctx context.Context, accountID, userID uuid.UUID, amount int64) (int64, error)
		// Withdraw subtracts amount only if balance >= amount, as a single
		// conditional update. Returns errs.ErrInsufficientFunds otherwise.
		Withdraw(ctx context.Context, userID uuid.UUID, amount int64) (int64, error)
	}

	ChargeRepo interface {
		// TryInsertPending inserts a PENDING charge keyed by order id.
		// Returns false without error when a charge for the order already exists.
		TryInsertPending(ctx context.Context, orderID, userID uuid.UUID, amount int64) (bool, error)
		MarkSuccess(ctx context.Context, orderID uuid.UUID) error
		MarkFailed(ctx context.Context, orderID uuid.UUID, reason string) error
		GetByOrderID(ctx context.Context, orderID uuid.UUID) (*entity.Charge, error)
	}

	OutboxRepo interface {
		// Create enqueues an event row; a no-op on (aggregate_id, event_type)
		// conflict so a re-entered step cannot queue two results for one order.
		Create(ctx context.Context, msg *entity.OutboxMessage) error
		FetchUndispatched(ctx context.Context, limit int) ([]*entity.OutboxMessage, error)
		MarkDispatched(ctx context.Context, id int64) error
	}

	InboxRepo interface {
		// TryInsert records message_id; returns false without error when the
		// message was already applied.
		TryInsert(ctx context.Context, messageID uuid.UUID, payload []byte) (bool, error)
	}
)
