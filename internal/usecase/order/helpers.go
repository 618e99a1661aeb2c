package order

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"orders-payments-saga/internal/entity"
)

func paymentRequestedMessage(order *entity.Order) (*entity.OutboxMessage, error) {
	evt := entity.PaymentRequestedEvent{
		Type:      entity.EventPaymentRequested,
		MessageID: uuid.New(),
		OrderID:   order.ID,
		UserID:    order.UserID,
		Amount:    order.Amount,
	}

	b, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("paymentRequestedMessage - json.Marshal: %w", err)
	}

	return &entity.OutboxMessage{
		EventID:     uuid.New(),
		AggregateID: order.ID,
		EventType:   entity.EventPaymentRequested,
		Payload:     b,
		CreatedAt:   time.Now(),
	}, nil
}
