package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"orders-payments-saga/internal/entity"
	"orders-payments-saga/internal/repo"
	"orders-payments-saga/pkg/logger"
	"orders-payments-saga/pkg/types/errs"
)

type PaymentUseCase struct {
	accountRepo repo.AccountRepo
	chargeRepo  repo.ChargeRepo
	inboxRepo   repo.InboxRepo
	outboxRepo  repo.OutboxRepo
	transactor  repo.Transactor

	logger logger.Interface
}

func New(
	accountRepo repo.AccountRepo,
	chargeRepo repo.ChargeRepo,
	inboxRepo repo.InboxRepo,
	outboxRepo repo.OutboxRepo,
	transactor repo.Transactor,
	l logger.Interface,
) *PaymentUseCase {
	return &PaymentUseCase{
		accountRepo: accountRepo,
		chargeRepo:  chargeRepo,
		inboxRepo:   inboxRepo,
		outboxRepo:  outboxRepo,
		transactor:  transactor,
		logger:      l,
	}
}

// ProcessPaymentRequested is the debit-or-reject saga step. Everything -
// inbox row, charge, balance mutation, result enqueue - commits in one
// transaction, so a crash at any point leaves either no effect or the
// whole effect.
func (uc *PaymentUseCase) ProcessPaymentRequested(ctx context.Context, evt *entity.PaymentRequestedEvent, raw []byte) error {
	if evt.Amount <= 0 {
		// Dropped without a charge or a result; the order stays NEW.
		// TODO: product call pending on whether to emit a failure result instead.
		uc.logger.Warn("PaymentUseCase - ProcessPaymentRequested - dropping non-positive amount %d for order %s", evt.Amount, evt.OrderID)

		return nil
	}

	err := uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		inserted, err := uc.inboxRepo.TryInsert(ctx, evt.MessageID, raw)
		if err != nil {
			return fmt.Errorf("PaymentUseCase - ProcessPaymentRequested - uc.inboxRepo.TryInsert: %w", err)
		}
		if !inserted {
			// Redelivery of an already applied message.
			return nil
		}

		reserved, err := uc.chargeRepo.TryInsertPending(ctx, evt.OrderID, evt.UserID, evt.Amount)
		if err != nil {
			return fmt.Errorf("PaymentUseCase - ProcessPaymentRequested - uc.chargeRepo.TryInsertPending: %w", err)
		}
		if !reserved {
			// A charge for this order already exists: a duplicate business
			// event slipped past the inbox under a different message_id.
			return nil
		}

		result, err := uc.executeDebit(ctx, evt)
		if err != nil {
			return fmt.Errorf("PaymentUseCase - ProcessPaymentRequested - uc.executeDebit: %w", err)
		}

		msg, err := paymentResultMessage(result)
		if err != nil {
			return fmt.Errorf("PaymentUseCase - ProcessPaymentRequested - paymentResultMessage: %w", err)
		}
		if err := uc.outboxRepo.Create(ctx, msg); err != nil {
			return fmt.Errorf("PaymentUseCase - ProcessPaymentRequested - uc.outboxRepo.Create: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("PaymentUseCase - ProcessPaymentRequested - uc.transactor.WithinTransaction: %w", err)
	}

	return nil
}

// executeDebit settles the charge and builds the result event. Every
// branch terminates with the charge in a terminal status and exactly one
// result event.
func (uc *PaymentUseCase) executeDebit(ctx context.Context, evt *entity.PaymentRequestedEvent) (*entity.PaymentResultEvent, error) {
	_, err := uc.accountRepo.GetByUserID(ctx, evt.UserID)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			if err := uc.chargeRepo.MarkFailed(ctx, evt.OrderID, entity.ReasonAccountNotFound); err != nil {
				return nil, fmt.Errorf("uc.chargeRepo.MarkFailed: %w", err)
			}
			return failureResult(evt.OrderID, entity.ReasonAccountNotFound), nil
		}
		return nil, fmt.Errorf("uc.accountRepo.GetByUserID: %w", err)
	}

	_, err = uc.accountRepo.Withdraw(ctx, evt.UserID, evt.Amount)
	if err != nil {
		if errors.Is(err, errs.ErrInsufficientFunds) {
			if err := uc.chargeRepo.MarkFailed(ctx, evt.OrderID, entity.ReasonInsufficientFunds); err != nil {
				return nil, fmt.Errorf("uc.chargeRepo.MarkFailed: %w", err)
			}
			return failureResult(evt.OrderID, entity.ReasonInsufficientFunds), nil
		}
		return nil, fmt.Errorf("uc.accountRepo.Withdraw: %w", err)
	}

	if err := uc.chargeRepo.MarkSuccess(ctx, evt.OrderID); err != nil {
		return nil, fmt.Errorf("uc.chargeRepo.MarkSuccess: %w", err)
	}

	return successResult(evt.OrderID), nil
}

func (uc *PaymentUseCase) CreateOrGetAccount(ctx context.Context, userID uuid.UUID) (*entity.Account, bool, error) {
	account, created, err := uc.accountRepo.CreateOrGet(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("PaymentUseCase - CreateOrGetAccount - uc.accountRepo.CreateOrGet: %w", err)
	}

	return account, created, nil
}

func (uc *PaymentUseCase) GetAccountByID(ctx context.Context, accountID uuid.UUID) (*entity.Account, error) {
	account, err := uc.accountRepo.GetByAccountID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("PaymentUseCase - GetAccountByID - uc.accountRepo.GetByAccountID: %w", err)
	}

	return account, nil
}

func (uc *PaymentUseCase) GetAccountByUserID(ctx context.Context, userID uuid.UUID) (*entity.Account, error) {
	account, err := uc.accountRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("PaymentUseCase - GetAccountByUserID - uc.accountRepo.GetByUserID: %w", err)
	}

	return account, nil
}

func (uc *PaymentUseCase) GetCharge(ctx context.Context, orderID uuid.UUID) (*entity.Charge, error) {
	charge, err := uc.chargeRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("PaymentUseCase - GetCharge - uc.chargeRepo.GetByOrderID: %w", err)
	}

	return charge, nil
}

func (uc *PaymentUseCase) TopUp(ctx context.Context, accountID, userID uuid.UUID, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("PaymentUseCase - TopUp: %w", errs.ErrNonPositiveAmount)
	}

	balance, err := uc.accountRepo.TopUp(ctx, accountID, userID, amount)
	if err != nil {
		return 0, fmt.Errorf("PaymentUseCase - TopUp - uc.accountRepo.TopUp: %w", err)
	}

	return balance, nil
}
