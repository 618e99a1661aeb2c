package entity

import (
	"time"

	"github.com/google/uuid"
)

// OutboxMessage - a durably queued event. Inserted in the same transaction
// as the business write that caused it; DispatchedAt is set by the
// dispatcher only after a confirmed broker publish.
type OutboxMessage struct {
	ID           int64      `json:"id"`
	EventID      uuid.UUID  `json:"event_id"`
	AggregateID  uuid.UUID  `json:"aggregate_id"`
	EventType    string     `json:"event_type"`
	Payload      []byte     `json:"payload"`
	CreatedAt    time.Time  `json:"created_at"`
	DispatchedAt *time.Time `json:"dispatched_at,omitempty"`
}
