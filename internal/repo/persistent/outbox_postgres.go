package persistent

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"orders-payments-saga/internal/entity"
	"orders-payments-saga/pkg/postgres"
)

const (
	// Table
	outboxTable = "outbox_messages"

	// Columns
	outboxIDColumn           = "id"
	outboxEventIDColumn      = "event_id"
	outboxAggregateIDColumn  = "aggregate_id"
	outboxEventTypeColumn    = "event_type"
	outboxPayloadColumn      = "payload"
	outboxCreatedAtColumn    = "created_at"
	outboxDispatchedAtColumn = "dispatched_at"
)

type OutboxRepo struct {
	*postgres.Postgres
}

func NewOutboxRepo(pg *postgres.Postgres) *OutboxRepo {
	return &OutboxRepo{pg}
}

// Create joins the surrounding business transaction via the executor in
// ctx. The (aggregate_id, event_type) constraint caps one row per event
// type per aggregate; a conflict is a silent no-op.
func (r *OutboxRepo) Create(ctx context.Context, msg *entity.OutboxMessage) error {
	sql, args, err := r.Builder.
		Insert(outboxTable).
		Columns(
			outboxEventIDColumn,
			outboxAggregateIDColumn,
			outboxEventTypeColumn,
			outboxPayloadColumn,
			outboxCreatedAtColumn,
		).
		Values(
			msg.EventID,
			msg.AggregateID,
			msg.EventType,
			msg.Payload,
			msg.CreatedAt,
		).
		Suffix("ON CONFLICT (" + outboxAggregateIDColumn + ", " + outboxEventTypeColumn + ") DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("OutboxRepo - Create - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("OutboxRepo - Create - executor.Exec: %w", err)
	}

	return nil
}

func (r *OutboxRepo) FetchUndispatched(ctx context.Context, limit int) ([]*entity.OutboxMessage, error) {
	sql, args, err := r.Builder.
		Select(
			outboxIDColumn,
			outboxEventIDColumn,
			outboxAggregateIDColumn,
			outboxEventTypeColumn,
			outboxPayloadColumn,
			outboxCreatedAtColumn,
		).
		From(outboxTable).
		Where(squirrel.Eq{outboxDispatchedAtColumn: nil}).
		OrderBy("created_at ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("OutboxRepo - FetchUndispatched - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("OutboxRepo - FetchUndispatched - executor.Query: %w", err)
	}
	defer rows.Close()

	msgs := make([]*entity.OutboxMessage, 0, limit)
	for rows.Next() {
		var msg entity.OutboxMessage
		err = rows.Scan(
			&msg.ID,
			&msg.EventID,
			&msg.AggregateID,
			&msg.EventType,
			&msg.Payload,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("OutboxRepo - FetchUndispatched - rows.Scan: %w", err)
		}
		msgs = append(msgs, &msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("OutboxRepo - FetchUndispatched - rows.Err: %w", err)
	}

	return msgs, nil
}

// MarkDispatched is deliberately not transactional with the broker publish.
// A crash between the publish ack and this update republishes the row on
// restart; downstream inbox dedup absorbs the duplicate.
func (r *OutboxRepo) MarkDispatched(ctx context.Context, id int64) error {
	sql, args, err := r.Builder.
		Update(outboxTable).
		Set(outboxDispatchedAtColumn, time.Now()).
		Where(squirrel.And{
			squirrel.Eq{outboxIDColumn: id},
			squirrel.Eq{outboxDispatchedAtColumn: nil},
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("OutboxRepo - MarkDispatched - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("OutboxRepo - MarkDispatched - executor.Exec: %w", err)
	}

	return nil
}
