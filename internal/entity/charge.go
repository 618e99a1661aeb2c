package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChargeStatus string

const (
	ChargePending ChargeStatus = "PENDING"
	ChargeSuccess ChargeStatus = "SUCCESS"
	ChargeFailed  ChargeStatus = "FAILED"
)

// Failure reasons carried in PaymentResult events and charge rows.
const (
	ReasonAccountNotFound   = "ACCOUNT_NOT_FOUND"
	ReasonInsufficientFunds = "INSUFFICIENT_FUNDS"
)

// Charge - at most one per order, status moves PENDING -> SUCCESS|FAILED once.
type Charge struct {
	OrderID   uuid.UUID    `json:"order_id"`
	UserID    uuid.UUID    `json:"user_id"`
	Amount    int64        `json:"amount"`
	Status    ChargeStatus `json:"status"`
	Reason    *string      `json:"reason,omitempty"`
	UpdatedAt time.Time    `json:"updated_at"`
}
