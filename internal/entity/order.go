package entity

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderNew      OrderStatus = "NEW"
	OrderFinished OrderStatus = "FINISHED"
	OrderCanceled OrderStatus = "CANCELED"
)

// Order - amount is in minor currency units.
type Order struct {
	ID          uuid.UUID   `json:"id"`
	UserID      uuid.UUID   `json:"user_id"`
	Amount      int64       `json:"amount"`
	Description string      `json:"description,omitempty"`
	Status      OrderStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
