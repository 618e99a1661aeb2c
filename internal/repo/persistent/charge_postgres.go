package persistent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"orders-payments-saga/internal/entity"
	"orders-payments-saga/pkg/postgres"
	"orders-payments-saga/pkg/types/errs"
)

const (
	// Table
	chargesTable = "charges"

	// Columns
	chargeOrderIDColumn   = "order_id"
	chargeUserIDColumn    = "user_id"
	chargeAmountColumn    = "amount"
	chargeStatusColumn    = "status"
	chargeReasonColumn    = "reason"
	chargeUpdatedAtColumn = "updated_at"
)

type ChargeRepo struct {
	*postgres.Postgres
}

func NewChargeRepo(pg *postgres.Postgres) *ChargeRepo {
	return &ChargeRepo{pg}
}

// TryInsertPending reserves the order for processing. The order_id primary
// key makes this the second idempotency layer after the inbox: a duplicate
// business event for the same order inserts nothing and reports false.
func (r *ChargeRepo) TryInsertPending(ctx context.Context, orderID, userID uuid.UUID, amount int64) (bool, error) {
	sql, args, err := r.Builder.
		Insert(chargesTable).
		Columns(
			chargeOrderIDColumn,
			chargeUserIDColumn,
			chargeAmountColumn,
			chargeStatusColumn,
			chargeReasonColumn,
			chargeUpdatedAtColumn,
		).
		Values(orderID, userID, amount, entity.ChargePending, nil, time.Now()).
		Suffix("ON CONFLICT (" + chargeOrderIDColumn + ") DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("ChargeRepo - TryInsertPending - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("ChargeRepo - TryInsertPending - executor.Exec: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *ChargeRepo) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*entity.Charge, error) {
	sql, args, err := r.Builder.
		Select(
			chargeOrderIDColumn,
			chargeUserIDColumn,
			chargeAmountColumn,
			chargeStatusColumn,
			chargeReasonColumn,
			chargeUpdatedAtColumn,
		).
		From(chargesTable).
		Where(squirrel.Eq{chargeOrderIDColumn: orderID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ChargeRepo - GetByOrderID - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	var charge entity.Charge
	err = executor.QueryRow(ctx, sql, args...).Scan(
		&charge.OrderID,
		&charge.UserID,
		&charge.Amount,
		&charge.Status,
		&charge.Reason,
		&charge.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("ChargeRepo - GetByOrderID: %w", errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("ChargeRepo - GetByOrderID - executor.QueryRow: %w", err)
	}

	return &charge, nil
}

func (r *ChargeRepo) MarkSuccess(ctx context.Context, orderID uuid.UUID) error {
	sql, args, err := r.Builder.
		Update(chargesTable).
		Set(chargeStatusColumn, entity.ChargeSuccess).
		Set(chargeReasonColumn, nil).
		Set(chargeUpdatedAtColumn, time.Now()).
		Where(squirrel.Eq{chargeOrderIDColumn: orderID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("ChargeRepo - MarkSuccess - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("ChargeRepo - MarkSuccess - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ChargeRepo - MarkSuccess: %w", errs.ErrRecordNotFound)
	}

	return nil
}

func (r *ChargeRepo) MarkFailed(ctx context.Context, orderID uuid.UUID, reason string) error {
	sql, args, err := r.Builder.
		Update(chargesTable).
		Set(chargeStatusColumn, entity.ChargeFailed).
		Set(chargeReasonColumn, reason).
		Set(chargeUpdatedAtColumn, time.Now()).
		Where(squirrel.Eq{chargeOrderIDColumn: orderID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("ChargeRepo - MarkFailed - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("ChargeRepo - MarkFailed - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ChargeRepo - MarkFailed: %w", errs.ErrRecordNotFound)
	}

	return nil
}
