package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"orders-payments-saga/internal/entity"
	"orders-payments-saga/internal/usecase"
)

// PaymentRequestedHandler decodes PaymentRequested events and feeds them
// to the payment processing step.
func PaymentRequestedHandler(uc usecase.PaymentUseCase) Handler {
	return func(ctx context.Context, raw []byte) error {
		var evt entity.PaymentRequestedEvent
		if err := json.Unmarshal(raw, &evt); err != nil {
			return fmt.Errorf("PaymentRequestedHandler - json.Unmarshal: %w: %w", ErrMalformedEvent, err)
		}
		if evt.MessageID == uuid.Nil {
			return fmt.Errorf("PaymentRequestedHandler - empty message_id: %w", ErrMalformedEvent)
		}

		return uc.ProcessPaymentRequested(ctx, &evt, raw)
	}
}

// PaymentResultHandler decodes PaymentResult events and feeds them to the
// order projection step.
func PaymentResultHandler(uc usecase.OrderUseCase) Handler {
	return func(ctx context.Context, raw []byte) error {
		var evt entity.PaymentResultEvent
		if err := json.Unmarshal(raw, &evt); err != nil {
			return fmt.Errorf("PaymentResultHandler - json.Unmarshal: %w: %w", ErrMalformedEvent, err)
		}
		if evt.MessageID == uuid.Nil {
			return fmt.Errorf("PaymentResultHandler - empty message_id: %w", ErrMalformedEvent)
		}

		return uc.ApplyPaymentResult(ctx, &evt, raw)
	}
}
