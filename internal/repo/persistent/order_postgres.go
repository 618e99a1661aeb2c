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
	ordersTable = "orders"

	// Columns
	orderIDColumn          = "id"
	orderUserIDColumn      = "user_id"
	orderAmountColumn      = "amount"
	orderDescriptionColumn = "description"
	orderStatusColumn      = "status"
	orderCreatedAtColumn   = "created_at"
	orderUpdatedAtColumn   = "updated_at"
)

type OrderRepo struct {
	*postgres.Postgres
}

func NewOrderRepo(pg *postgres.Postgres) *OrderRepo {
	return &OrderRepo{pg}
}

func (r *OrderRepo) Create(ctx context.Context, order *entity.Order) error {
	sql, args, err := r.Builder.
		Insert(ordersTable).
		Columns(
			orderIDColumn,
			orderUserIDColumn,
			orderAmountColumn,
			orderDescriptionColumn,
			orderStatusColumn,
			orderCreatedAtColumn,
			orderUpdatedAtColumn,
		).
		Values(
			order.ID,
			order.UserID,
			order.Amount,
			order.Description,
			order.Status,
			order.CreatedAt,
			order.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("OrderRepo - Create - r.Builder.ToSql: %w", err)
	}

	// Pool / Tx
	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("OrderRepo - Create - executor.Exec: %w", err)
	}

	return nil
}

func (r *OrderRepo) GetByIDForUser(ctx context.Context, orderID, userID uuid.UUID) (*entity.Order, error) {
	sql, args, err := r.Builder.
		Select(
			orderIDColumn,
			orderUserIDColumn,
			orderAmountColumn,
			orderDescriptionColumn,
			orderStatusColumn,
			orderCreatedAtColumn,
			orderUpdatedAtColumn,
		).
		From(ordersTable).
		Where(squirrel.And{
			squirrel.Eq{orderIDColumn: orderID},
			squirrel.Eq{orderUserIDColumn: userID},
		}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("OrderRepo - GetByIDForUser - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	var order entity.Order
	err = executor.QueryRow(ctx, sql, args...).Scan(
		&order.ID,
		&order.UserID,
		&order.Amount,
		&order.Description,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("OrderRepo - GetByIDForUser: %w", errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("OrderRepo - GetByIDForUser - executor.QueryRow: %w", err)
	}

	return &order, nil
}

func (r *OrderRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Order, error) {
	sql, args, err := r.Builder.
		Select(
			orderIDColumn,
			orderUserIDColumn,
			orderAmountColumn,
			orderDescriptionColumn,
			orderStatusColumn,
			orderCreatedAtColumn,
			orderUpdatedAtColumn,
		).
		From(ordersTable).
		Where(squirrel.Eq{orderUserIDColumn: userID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("OrderRepo - ListByUser - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("OrderRepo - ListByUser - executor.Query: %w", err)
	}
	defer rows.Close()

	var orders []*entity.Order
	for rows.Next() {
		var order entity.Order
		err = rows.Scan(
			&order.ID,
			&order.UserID,
			&order.Amount,
			&order.Description,
			&order.Status,
			&order.CreatedAt,
			&order.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("OrderRepo - ListByUser - rows.Scan: %w", err)
		}
		orders = append(orders, &order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("OrderRepo - ListByUser - rows.Err: %w", err)
	}

	return orders, nil
}

func (r *OrderRepo) UpdateStatus(ctx context.Context, orderID uuid.UUID, status entity.OrderStatus) error {
	sql, args, err := r.Builder.
		Update(ordersTable).
		Set(orderStatusColumn, status).
		Set(orderUpdatedAtColumn, time.Now()).
		Where(squirrel.Eq{orderIDColumn: orderID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("OrderRepo - UpdateStatus - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("OrderRepo - UpdateStatus - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("OrderRepo - UpdateStatus: %w", errs.ErrRecordNotFound)
	}

	return nil
}
