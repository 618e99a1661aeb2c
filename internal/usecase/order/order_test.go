package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"orders-payments-saga/internal/entity"
	"orders-payments-saga/pkg/types/errs"
)

type nopLogger struct{}

func (nopLogger) Debug(message interface{}, args ...interface{}) {}
func (nopLogger) Info(message string, args ...interface{})       {}
func (nopLogger) Warn(message string, args ...interface{})       {}
func (nopLogger) Error(message interface{}, args ...interface{}) {}
func (nopLogger) Fatal(message interface{}, args ...interface{}) {}

type fakeTransactor struct{}

func (fakeTransactor) WithinTransaction(ctx context.Context, f func(ctx context.Context) error) error {
	return f(ctx)
}

type fakeOrderRepo struct {
	orders    map[uuid.UUID]*entity.Order
	createErr error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*entity.Order)}
}

func (r *fakeOrderRepo) Create(_ context.Context, order *entity.Order) error {
	if r.createErr != nil {
		return r.createErr
	}

	r.orders[order.ID] = order

	return nil
}

func (r *fakeOrderRepo) GetByIDForUser(_ context.Context, orderID, userID uuid.UUID) (*entity.Order, error) {
	order, ok := r.orders[orderID]
	if !ok || order.UserID != userID {
		return nil, fmt.Errorf("fakeOrderRepo - GetByIDForUser: %w", errs.ErrRecordNotFound)
	}

	return order, nil
}

func (r *fakeOrderRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*entity.Order, error) {
	var out []*entity.Order
	for _, order := range r.orders {
		if order.UserID == userID {
			out = append(out, order)
		}
	}

	return out, nil
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, orderID uuid.UUID, status entity.OrderStatus) error {
	order, ok := r.orders[orderID]
	if !ok {
		return fmt.Errorf("fakeOrderRepo - UpdateStatus: %w", errs.ErrRecordNotFound)
	}

	order.Status = status

	return nil
}

type fakeOutboxRepo struct {
	msgs []*entity.OutboxMessage
}

func (r *fakeOutboxRepo) Create(_ context.Context, msg *entity.OutboxMessage) error {
	for _, existing := range r.msgs {
		if existing.AggregateID == msg.AggregateID && existing.EventType == msg.EventType {
			return nil
		}
	}

	r.msgs = append(r.msgs, msg)

	return nil
}

func (r *fakeOutboxRepo) FetchUndispatched(_ context.Context, limit int) ([]*entity.OutboxMessage, error) {
	return nil, nil
}

func (r *fakeOutboxRepo) MarkDispatched(_ context.Context, id int64) error { return nil }

type fakeInboxRepo struct {
	seen map[uuid.UUID]bool
}

func newFakeInboxRepo() *fakeInboxRepo {
	return &fakeInboxRepo{seen: make(map[uuid.UUID]bool)}
}

func (r *fakeInboxRepo) TryInsert(_ context.Context, messageID uuid.UUID, _ []byte) (bool, error) {
	if r.seen[messageID] {
		return false, nil
	}

	r.seen[messageID] = true

	return true, nil
}

type fixture struct {
	uc     *OrderUseCase
	orders *fakeOrderRepo
	outbox *fakeOutboxRepo
	inbox  *fakeInboxRepo
}

func newFixture() *fixture {
	f := &fixture{
		orders: newFakeOrderRepo(),
		outbox: &fakeOutboxRepo{},
		inbox:  newFakeInboxRepo(),
	}
	f.uc = New(f.orders, f.outbox, f.inbox, fakeTransactor{}, nopLogger{})

	return f
}

func resultEvent(orderID uuid.UUID, success bool, reason *string) *entity.PaymentResultEvent {
	return &entity.PaymentResultEvent{
		Type:      entity.EventPaymentResult,
		MessageID: uuid.New(),
		OrderID:   orderID,
		Success:   success,
		Reason:    reason,
	}
}

func TestCreateOrder(t *testing.T) {
	f := newFixture()
	userID := uuid.New()

	order, err := f.uc.CreateOrder(context.Background(), userID, 500, "book")
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if order.Status != entity.OrderNew {
		t.Errorf("expected NEW status, got %s", order.Status)
	}
	if _, ok := f.orders.orders[order.ID]; !ok {
		t.Error("order row not written")
	}

	if len(f.outbox.msgs) != 1 {
		t.Fatalf("expected 1 outbox row, got %d", len(f.outbox.msgs))
	}

	msg := f.outbox.msgs[0]
	if msg.EventType != entity.EventPaymentRequested {
		t.Errorf("expected PaymentRequested, got %s", msg.EventType)
	}
	if msg.AggregateID != order.ID {
		t.Errorf("aggregate id mismatch: %s != %s", msg.AggregateID, order.ID)
	}

	var evt entity.PaymentRequestedEvent
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if evt.OrderID != order.ID || evt.UserID != userID || evt.Amount != 500 {
		t.Errorf("payload fields mismatch: %+v", evt)
	}
	if evt.MessageID == uuid.Nil {
		t.Error("message_id must be set")
	}
}

func TestCreateOrder_NonPositiveAmount(t *testing.T) {
	f := newFixture()

	for _, amount := range []int64{0, -1} {
		if _, err := f.uc.CreateOrder(context.Background(), uuid.New(), amount, ""); !errors.Is(err, errs.ErrNonPositiveAmount) {
			t.Errorf("amount %d: expected ErrNonPositiveAmount, got %v", amount, err)
		}
	}

	if len(f.orders.orders) != 0 || len(f.outbox.msgs) != 0 {
		t.Error("rejected order must write nothing")
	}
}

func TestCreateOrder_RepoError(t *testing.T) {
	f := newFixture()
	f.orders.createErr = errors.New("connection reset")

	if _, err := f.uc.CreateOrder(context.Background(), uuid.New(), 100, ""); err == nil {
		t.Fatal("expected error")
	}

	if len(f.outbox.msgs) != 0 {
		t.Error("failed create must not enqueue an event")
	}
}

func TestApplyPaymentResult(t *testing.T) {
	reason := entity.ReasonInsufficientFunds

	tests := []struct {
		name   string
		evt    func(orderID uuid.UUID) *entity.PaymentResultEvent
		status entity.OrderStatus
	}{
		{
			name:   "success finishes order",
			evt:    func(id uuid.UUID) *entity.PaymentResultEvent { return resultEvent(id, true, nil) },
			status: entity.OrderFinished,
		},
		{
			name:   "failure cancels order",
			evt:    func(id uuid.UUID) *entity.PaymentResultEvent { return resultEvent(id, false, &reason) },
			status: entity.OrderCanceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			userID := uuid.New()

			order, err := f.uc.CreateOrder(context.Background(), userID, 100, "")
			if err != nil {
				t.Fatalf("CreateOrder: %v", err)
			}

			evt := tt.evt(order.ID)
			raw, _ := json.Marshal(evt)
			if err := f.uc.ApplyPaymentResult(context.Background(), evt, raw); err != nil {
				t.Fatalf("ApplyPaymentResult: %v", err)
			}

			if got := f.orders.orders[order.ID].Status; got != tt.status {
				t.Errorf("expected %s, got %s", tt.status, got)
			}
		})
	}
}

func TestApplyPaymentResult_Duplicate(t *testing.T) {
	f := newFixture()
	userID := uuid.New()

	order, err := f.uc.CreateOrder(context.Background(), userID, 100, "")
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	evt := resultEvent(order.ID, true, nil)
	raw, _ := json.Marshal(evt)
	if err := f.uc.ApplyPaymentResult(context.Background(), evt, raw); err != nil {
		t.Fatalf("first apply: %v", err)
	}

	// Simulate a later manual flip, then redeliver: the inbox guard must
	// keep the redelivery from touching the row.
	f.orders.orders[order.ID].Status = entity.OrderCanceled
	if err := f.uc.ApplyPaymentResult(context.Background(), evt, raw); err != nil {
		t.Fatalf("redelivery: %v", err)
	}

	if got := f.orders.orders[order.ID].Status; got != entity.OrderCanceled {
		t.Errorf("redelivery reapplied the result: %s", got)
	}
}

func TestApplyPaymentResult_UnknownOrder(t *testing.T) {
	f := newFixture()

	evt := resultEvent(uuid.New(), true, nil)
	raw, _ := json.Marshal(evt)

	// Unknown order must not error: an error here would retry the message
	// forever.
	if err := f.uc.ApplyPaymentResult(context.Background(), evt, raw); err != nil {
		t.Fatalf("ApplyPaymentResult: %v", err)
	}

	if !f.inbox.seen[evt.MessageID] {
		t.Error("inbox row must be kept for an unknown order")
	}
}

func TestGetOrder_WrongUser(t *testing.T) {
	f := newFixture()
	userID := uuid.New()

	order, err := f.uc.CreateOrder(context.Background(), userID, 100, "")
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if _, err := f.uc.GetOrder(context.Background(), uuid.New(), order.ID); !errors.Is(err, errs.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound for foreign user, got %v", err)
	}

	if _, err := f.uc.GetOrder(context.Background(), userID, order.ID); err != nil {
		t.Errorf("owner lookup: %v", err)
	}
}
