package persistent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"orders-payments-saga/pkg/postgres"
)

const (
	// Table
	inboxTable = "inbox_messages"

	// Columns
	inboxMessageIDColumn  = "message_id"
	inboxPayloadColumn    = "payload"
	inboxReceivedAtColumn = "received_at"
)

type InboxRepo struct {
	*postgres.Postgres
}

func NewInboxRepo(pg *postgres.Postgres) *InboxRepo {
	return &InboxRepo{pg}
}

// TryInsert records the message id inside the caller's transaction.
// false means the id was seen before and the message must not be reapplied.
func (r *InboxRepo) TryInsert(ctx context.Context, messageID uuid.UUID, payload []byte) (bool, error) {
	sql, args, err := r.Builder.
		Insert(inboxTable).
		Columns(inboxMessageIDColumn, inboxPayloadColumn, inboxReceivedAtColumn).
		Values(messageID, payload, time.Now()).
		Suffix("ON CONFLICT (" + inboxMessageIDColumn + ") DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("InboxRepo - TryInsert - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("InboxRepo - TryInsert - executor.Exec: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}
