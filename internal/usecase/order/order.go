package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"orders-payments-saga/internal/entity"
	"orders-payments-saga/internal/repo"
	"orders-payments-saga/pkg/logger"
	"orders-payments-saga/pkg/types/errs"
)

type OrderUseCase struct {
	orderRepo  repo.OrderRepo
	outboxRepo repo.OutboxRepo
	inboxRepo  repo.InboxRepo
	transactor repo.Transactor

	logger logger.Interface
}

func New(
	orderRepo repo.OrderRepo,
	outboxRepo repo.OutboxRepo,
	inboxRepo repo.InboxRepo,
	transactor repo.Transactor,
	l logger.Interface,
) *OrderUseCase {
	return &OrderUseCase{
		orderRepo:  orderRepo,
		outboxRepo: outboxRepo,
		inboxRepo:  inboxRepo,
		transactor: transactor,
		logger:     l,
	}
}

// CreateOrder writes the order row and its PaymentRequested event in one
// transaction. Either both are durable or neither is.
func (uc *OrderUseCase) CreateOrder(ctx context.Context, userID uuid.UUID, amount int64, description string) (*entity.Order, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("OrderUseCase - CreateOrder: %w", errs.ErrNonPositiveAmount)
	}

	now := time.Now()
	order := &entity.Order{
		ID:          uuid.New(),
		UserID:      userID,
		Amount:      amount,
		Description: description,
		Status:      entity.OrderNew,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	msg, err := paymentRequestedMessage(order)
	if err != nil {
		return nil, fmt.Errorf("OrderUseCase - CreateOrder - paymentRequestedMessage: %w", err)
	}

	err = uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := uc.orderRepo.Create(ctx, order); err != nil {
			return fmt.Errorf("OrderUseCase - CreateOrder - uc.orderRepo.Create: %w", err)
		}
		if err := uc.outboxRepo.Create(ctx, msg); err != nil {
			return fmt.Errorf("OrderUseCase - CreateOrder - uc.outboxRepo.Create: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("OrderUseCase - CreateOrder - uc.transactor.WithinTransaction: %w", err)
	}

	return order, nil
}

func (uc *OrderUseCase) ListOrders(ctx context.Context, userID uuid.UUID) ([]*entity.Order, error) {
	orders, err := uc.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("OrderUseCase - ListOrders - uc.orderRepo.ListByUser: %w", err)
	}

	return orders, nil
}

func (uc *OrderUseCase) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*entity.Order, error) {
	order, err := uc.orderRepo.GetByIDForUser(ctx, orderID, userID)
	if err != nil {
		return nil, fmt.Errorf("OrderUseCase - GetOrder - uc.orderRepo.GetByIDForUser: %w", err)
	}

	return order, nil
}

// ApplyPaymentResult is the projection step. The inbox row bounds
// applications of one message_id to exactly one; nothing else guards the
// status write, and nothing else has to - the payments side caps results
// at one per order.
func (uc *OrderUseCase) ApplyPaymentResult(ctx context.Context, evt *entity.PaymentResultEvent, raw []byte) error {
	status := entity.OrderCanceled
	if evt.Success {
		status = entity.OrderFinished
	}

	err := uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		inserted, err := uc.inboxRepo.TryInsert(ctx, evt.MessageID, raw)
		if err != nil {
			return fmt.Errorf("OrderUseCase - ApplyPaymentResult - uc.inboxRepo.TryInsert: %w", err)
		}
		if !inserted {
			// Redelivery of an already applied message.
			return nil
		}

		err = uc.orderRepo.UpdateStatus(ctx, evt.OrderID, status)
		if err != nil {
			if errors.Is(err, errs.ErrRecordNotFound) {
				// A result for an order this store never saw. Keep the inbox
				// row so the message is not retried forever.
				uc.logger.Warn("OrderUseCase - ApplyPaymentResult - unknown order %s", evt.OrderID)

				return nil
			}
			return fmt.Errorf("OrderUseCase - ApplyPaymentResult - uc.orderRepo.UpdateStatus: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("OrderUseCase - ApplyPaymentResult - uc.transactor.WithinTransaction: %w", err)
	}

	return nil
}
