package payment

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"orders-payments-saga/internal/entity"
)

func successResult(orderID uuid.UUID) *entity.PaymentResultEvent {
	return &entity.PaymentResultEvent{
		Type:      entity.EventPaymentResult,
		MessageID: uuid.New(),
		OrderID:   orderID,
		Success:   true,
	}
}

func failureResult(orderID uuid.UUID, reason string) *entity.PaymentResultEvent {
	return &entity.PaymentResultEvent{
		Type:      entity.EventPaymentResult,
		MessageID: uuid.New(),
		OrderID:   orderID,
		Success:   false,
		Reason:    &reason,
	}
}

func paymentResultMessage(evt *entity.PaymentResultEvent) (*entity.OutboxMessage, error) {
	b, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("paymentResultMessage - json.Marshal: %w", err)
	}

	return &entity.OutboxMessage{
		EventID:     uuid.New(),
		AggregateID: evt.OrderID,
		EventType:   entity.EventPaymentResult,
		Payload:     b,
		CreatedAt:   time.Now(),
	}, nil
}
