package entity

import "github.com/google/uuid"

// Event type discriminators, shared by both services over one topic.
const (
	EventPaymentRequested = "PaymentRequested"
	EventPaymentResult    = "PaymentResult"
)

// PaymentRequestedEvent - published by the orders service on order creation.
type PaymentRequestedEvent struct {
	Type      string    `json:"type"`
	MessageID uuid.UUID `json:"message_id"`
	OrderID   uuid.UUID `json:"order_id"`
	UserID    uuid.UUID `json:"user_id"`
	Amount    int64     `json:"amount"`
}

// PaymentResultEvent - published by the payments service, exactly one per order.
type PaymentResultEvent struct {
	Type      string    `json:"type"`
	MessageID uuid.UUID `json:"message_id"`
	OrderID   uuid.UUID `json:"order_id"`
	Success   bool      `json:"success"`
	Reason    *string   `json:"reason"`
}
