package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
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

type fakeTransactor struct {
	calls int
}

func (t *fakeTransactor) WithinTransaction(ctx context.Context, f func(ctx context.Context) error) error {
	t.calls++
	return f(ctx)
}

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*entity.Account // keyed by user id
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[uuid.UUID]*entity.Account)}
}

func (r *fakeAccountRepo) CreateOrGet(_ context.Context, userID uuid.UUID) (*entity.Account, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if account, ok := r.accounts[userID]; ok {
		return account, false, nil
	}

	account := &entity.Account{AccountID: uuid.New(), UserID: userID}
	r.accounts[userID] = account

	return account, true, nil
}

func (r *fakeAccountRepo) GetByAccountID(_ context.Context, accountID uuid.UUID) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, account := range r.accounts {
		if account.AccountID == accountID {
			return account, nil
		}
	}

	return nil, fmt.Errorf("fakeAccountRepo - GetByAccountID: %w", errs.ErrRecordNotFound)
}

func (r *fakeAccountRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[userID]
	if !ok {
		return nil, fmt.Errorf("fakeAccountRepo - GetByUserID: %w", errs.ErrRecordNotFound)
	}

	return account, nil
}

func (r *fakeAccountRepo) TopUp(_ context.Context, accountID, userID uuid.UUID, amount int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[userID]
	if !ok || account.AccountID != accountID {
		return 0, fmt.Errorf("fakeAccountRepo - TopUp: %w", errs.ErrRecordNotFound)
	}

	account.Balance += amount

	return account.Balance, nil
}

// Withdraw mirrors the store's compare-and-decrement: check and subtract
// under one lock, never read-then-write.
func (r *fakeAccountRepo) Withdraw(_ context.Context, userID uuid.UUID, amount int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[userID]
	if !ok || account.Balance < amount {
		return 0, fmt.Errorf("fakeAccountRepo - Withdraw: %w", errs.ErrInsufficientFunds)
	}

	account.Balance -= amount

	return account.Balance, nil
}

type fakeChargeRepo struct {
	mu      sync.Mutex
	charges map[uuid.UUID]*entity.Charge
}

func newFakeChargeRepo() *fakeChargeRepo {
	return &fakeChargeRepo{charges: make(map[uuid.UUID]*entity.Charge)}
}

func (r *fakeChargeRepo) TryInsertPending(_ context.Context, orderID, userID uuid.UUID, amount int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.charges[orderID]; ok {
		return false, nil
	}

	r.charges[orderID] = &entity.Charge{
		OrderID: orderID,
		UserID:  userID,
		Amount:  amount,
		Status:  entity.ChargePending,
	}

	return true, nil
}

func (r *fakeChargeRepo) GetByOrderID(_ context.Context, orderID uuid.UUID) (*entity.Charge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	charge, ok := r.charges[orderID]
	if !ok {
		return nil, fmt.Errorf("fakeChargeRepo - GetByOrderID: %w", errs.ErrRecordNotFound)
	}

	return charge, nil
}

func (r *fakeChargeRepo) MarkSuccess(_ context.Context, orderID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	charge, ok := r.charges[orderID]
	if !ok {
		return fmt.Errorf("fakeChargeRepo - MarkSuccess: %w", errs.ErrRecordNotFound)
	}

	charge.Status = entity.ChargeSuccess
	charge.Reason = nil

	return nil
}

func (r *fakeChargeRepo) MarkFailed(_ context.Context, orderID uuid.UUID, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	charge, ok := r.charges[orderID]
	if !ok {
		return fmt.Errorf("fakeChargeRepo - MarkFailed: %w", errs.ErrRecordNotFound)
	}

	charge.Status = entity.ChargeFailed
	charge.Reason = &reason

	return nil
}

type fakeInboxRepo struct {
	mu   sync.Mutex
	seen map[uuid.UUID][]byte
}

func newFakeInboxRepo() *fakeInboxRepo {
	return &fakeInboxRepo{seen: make(map[uuid.UUID][]byte)}
}

func (r *fakeInboxRepo) TryInsert(_ context.Context, messageID uuid.UUID, payload []byte) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.seen[messageID]; ok {
		return false, nil
	}

	r.seen[messageID] = payload

	return true, nil
}

type fakeOutboxRepo struct {
	mu   sync.Mutex
	msgs []*entity.OutboxMessage
}

func (r *fakeOutboxRepo) Create(_ context.Context, msg *entity.OutboxMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Mirror the (aggregate_id, event_type) conflict no-op.
	for _, existing := range r.msgs {
		if existing.AggregateID == msg.AggregateID && existing.EventType == msg.EventType {
			return nil
		}
	}

	r.msgs = append(r.msgs, msg)

	return nil
}

func (r *fakeOutboxRepo) FetchUndispatched(_ context.Context, limit int) ([]*entity.OutboxMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entity.OutboxMessage
	for _, msg := range r.msgs {
		if msg.DispatchedAt == nil && len(out) < limit {
			out = append(out, msg)
		}
	}

	return out, nil
}

func (r *fakeOutboxRepo) MarkDispatched(_ context.Context, id int64) error { return nil }

func (r *fakeOutboxRepo) results(t *testing.T) []*entity.PaymentResultEvent {
	t.Helper()

	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entity.PaymentResultEvent
	for _, msg := range r.msgs {
		if msg.EventType != entity.EventPaymentResult {
			continue
		}
		var evt entity.PaymentResultEvent
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			t.Fatalf("invalid result payload: %v", err)
		}
		out = append(out, &evt)
	}

	return out
}

type fixture struct {
	uc       *PaymentUseCase
	accounts *fakeAccountRepo
	charges  *fakeChargeRepo
	inbox    *fakeInboxRepo
	outbox   *fakeOutboxRepo
}

func newFixture() *fixture {
	f := &fixture{
		accounts: newFakeAccountRepo(),
		charges:  newFakeChargeRepo(),
		inbox:    newFakeInboxRepo(),
		outbox:   &fakeOutboxRepo{},
	}
	f.uc = New(f.accounts, f.charges, f.inbox, f.outbox, &fakeTransactor{}, nopLogger{})

	return f
}

func (f *fixture) fundAccount(t *testing.T, userID uuid.UUID, balance int64) {
	t.Helper()

	account, _, err := f.accounts.CreateOrGet(context.Background(), userID)
	if err != nil {
		t.Fatalf("CreateOrGet: %v", err)
	}
	account.Balance = balance
}

func requestedEvent(userID uuid.UUID, amount int64) *entity.PaymentRequestedEvent {
	return &entity.PaymentRequestedEvent{
		Type:      entity.EventPaymentRequested,
		MessageID: uuid.New(),
		OrderID:   uuid.New(),
		UserID:    userID,
		Amount:    amount,
	}
}

func rawEvent(t *testing.T, evt *entity.PaymentRequestedEvent) []byte {
	t.Helper()

	b, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}

	return b
}

func TestProcessPaymentRequested_Success(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	f.fundAccount(t, userID, 100)

	evt := requestedEvent(userID, 30)
	if err := f.uc.ProcessPaymentRequested(context.Background(), evt, rawEvent(t, evt)); err != nil {
		t.Fatalf("ProcessPaymentRequested: %v", err)
	}

	charge := f.charges.charges[evt.OrderID]
	if charge == nil || charge.Status != entity.ChargeSuccess {
		t.Fatalf("expected SUCCESS charge, got %+v", charge)
	}

	if balance := f.accounts.accounts[userID].Balance; balance != 70 {
		t.Errorf("expected balance 70, got %d", balance)
	}

	results := f.outbox.results(t)
	if len(results) != 1 {
		t.Fatalf("expected 1 result event, got %d", len(results))
	}
	if !results[0].Success || results[0].Reason != nil {
		t.Errorf("expected success result with nil reason, got %+v", results[0])
	}
	if results[0].OrderID != evt.OrderID {
		t.Errorf("result order id mismatch: %s != %s", results[0].OrderID, evt.OrderID)
	}
}

func TestProcessPaymentRequested_InsufficientFunds(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	f.fundAccount(t, userID, 100)

	evt := requestedEvent(userID, 150)
	if err := f.uc.ProcessPaymentRequested(context.Background(), evt, rawEvent(t, evt)); err != nil {
		t.Fatalf("ProcessPaymentRequested: %v", err)
	}

	charge := f.charges.charges[evt.OrderID]
	if charge == nil || charge.Status != entity.ChargeFailed {
		t.Fatalf("expected FAILED charge, got %+v", charge)
	}
	if charge.Reason == nil || *charge.Reason != entity.ReasonInsufficientFunds {
		t.Errorf("expected INSUFFICIENT_FUNDS reason, got %v", charge.Reason)
	}

	if balance := f.accounts.accounts[userID].Balance; balance != 100 {
		t.Errorf("balance must stay 100, got %d", balance)
	}

	results := f.outbox.results(t)
	if len(results) != 1 || results[0].Success {
		t.Fatalf("expected 1 failure result, got %+v", results)
	}
	if results[0].Reason == nil || *results[0].Reason != entity.ReasonInsufficientFunds {
		t.Errorf("expected INSUFFICIENT_FUNDS in result, got %v", results[0].Reason)
	}
}

func TestProcessPaymentRequested_AccountNotFound(t *testing.T) {
	f := newFixture()

	evt := requestedEvent(uuid.New(), 30)
	if err := f.uc.ProcessPaymentRequested(context.Background(), evt, rawEvent(t, evt)); err != nil {
		t.Fatalf("ProcessPaymentRequested: %v", err)
	}

	charge := f.charges.charges[evt.OrderID]
	if charge == nil || charge.Status != entity.ChargeFailed {
		t.Fatalf("expected FAILED charge, got %+v", charge)
	}
	if charge.Reason == nil || *charge.Reason != entity.ReasonAccountNotFound {
		t.Errorf("expected ACCOUNT_NOT_FOUND reason, got %v", charge.Reason)
	}

	results := f.outbox.results(t)
	if len(results) != 1 || results[0].Success {
		t.Fatalf("expected 1 failure result, got %+v", results)
	}
}

func TestProcessPaymentRequested_DuplicateMessage(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	f.fundAccount(t, userID, 100)

	evt := requestedEvent(userID, 30)
	raw := rawEvent(t, evt)

	// Same message_id delivered k times: one charge, one result, one debit.
	for k := 0; k < 3; k++ {
		if err := f.uc.ProcessPaymentRequested(context.Background(), evt, raw); err != nil {
			t.Fatalf("delivery %d: %v", k+1, err)
		}
	}

	if got := len(f.charges.charges); got != 1 {
		t.Errorf("expected 1 charge row, got %d", got)
	}
	if got := len(f.outbox.results(t)); got != 1 {
		t.Errorf("expected 1 result event, got %d", got)
	}
	if balance := f.accounts.accounts[userID].Balance; balance != 70 {
		t.Errorf("expected single debit to 70, got %d", balance)
	}
}

func TestProcessPaymentRequested_DuplicateBusinessEvent(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	f.fundAccount(t, userID, 100)

	evt := requestedEvent(userID, 30)
	if err := f.uc.ProcessPaymentRequested(context.Background(), evt, rawEvent(t, evt)); err != nil {
		t.Fatalf("first delivery: %v", err)
	}

	// Same order under a fresh message_id slips past the inbox; the charge
	// uniqueness layer must stop it.
	dup := *evt
	dup.MessageID = uuid.New()
	if err := f.uc.ProcessPaymentRequested(context.Background(), &dup, rawEvent(t, &dup)); err != nil {
		t.Fatalf("second delivery: %v", err)
	}

	if got := len(f.charges.charges); got != 1 {
		t.Errorf("expected 1 charge row, got %d", got)
	}
	if got := len(f.outbox.results(t)); got != 1 {
		t.Errorf("expected 1 result event, got %d", got)
	}
	if balance := f.accounts.accounts[userID].Balance; balance != 70 {
		t.Errorf("expected single debit to 70, got %d", balance)
	}
}

func TestProcessPaymentRequested_NonPositiveAmount(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	f.fundAccount(t, userID, 100)

	for _, amount := range []int64{0, -5} {
		evt := requestedEvent(userID, amount)
		if err := f.uc.ProcessPaymentRequested(context.Background(), evt, rawEvent(t, evt)); err != nil {
			t.Fatalf("amount %d: %v", amount, err)
		}
	}

	// Dropped before any write: no inbox row, no charge, no result.
	if got := len(f.inbox.seen); got != 0 {
		t.Errorf("expected no inbox rows, got %d", got)
	}
	if got := len(f.charges.charges); got != 0 {
		t.Errorf("expected no charges, got %d", got)
	}
	if got := len(f.outbox.msgs); got != 0 {
		t.Errorf("expected no outbox rows, got %d", got)
	}
}

func TestProcessPaymentRequested_ConcurrentDebits(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	f.fundAccount(t, userID, 100)

	const workers = 10

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			evt := requestedEvent(userID, 30)
			if err := f.uc.ProcessPaymentRequested(context.Background(), evt, rawEvent(t, evt)); err != nil {
				t.Errorf("ProcessPaymentRequested: %v", err)
			}
		}()
	}
	wg.Wait()

	balance := f.accounts.accounts[userID].Balance
	if balance < 0 {
		t.Fatalf("balance went negative: %d", balance)
	}

	var successes int64
	for _, charge := range f.charges.charges {
		if charge.Status == entity.ChargeSuccess {
			successes++
		}
	}

	if want := 100 - successes*30; balance != want {
		t.Errorf("balance %d does not match %d successful debits", balance, successes)
	}
	if successes != 3 {
		t.Errorf("expected exactly 3 debits of 30 to pass against 100, got %d", successes)
	}
}

func TestTopUp(t *testing.T) {
	f := newFixture()
	userID := uuid.New()

	account, created, err := f.uc.CreateOrGetAccount(context.Background(), userID)
	if err != nil {
		t.Fatalf("CreateOrGetAccount: %v", err)
	}
	if !created {
		t.Fatal("expected account to be created")
	}

	balance, err := f.uc.TopUp(context.Background(), account.AccountID, userID, 250)
	if err != nil {
		t.Fatalf("TopUp: %v", err)
	}
	if balance != 250 {
		t.Errorf("expected balance 250, got %d", balance)
	}

	if _, err = f.uc.TopUp(context.Background(), account.AccountID, userID, 0); err == nil {
		t.Error("expected error for non-positive top-up")
	}
}

func TestGetCharge(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	f.fundAccount(t, userID, 100)

	evt := requestedEvent(userID, 150)
	if err := f.uc.ProcessPaymentRequested(context.Background(), evt, rawEvent(t, evt)); err != nil {
		t.Fatalf("ProcessPaymentRequested: %v", err)
	}

	charge, err := f.uc.GetCharge(context.Background(), evt.OrderID)
	if err != nil {
		t.Fatalf("GetCharge: %v", err)
	}
	if charge.Status != entity.ChargeFailed {
		t.Errorf("expected FAILED, got %s", charge.Status)
	}
	if charge.Reason == nil || *charge.Reason != entity.ReasonInsufficientFunds {
		t.Errorf("expected INSUFFICIENT_FUNDS, got %v", charge.Reason)
	}
	if charge.Amount != 150 || charge.UserID != userID {
		t.Errorf("charge fields mismatch: %+v", charge)
	}

	if _, err := f.uc.GetCharge(context.Background(), uuid.New()); !errors.Is(err, errs.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound for unknown order, got %v", err)
	}
}

func TestCreateOrGetAccount_Idempotent(t *testing.T) {
	f := newFixture()
	userID := uuid.New()

	first, created, err := f.uc.CreateOrGetAccount(context.Background(), userID)
	if err != nil || !created {
		t.Fatalf("first call: created=%v err=%v", created, err)
	}

	second, created, err := f.uc.CreateOrGetAccount(context.Background(), userID)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if created {
		t.Error("second call must not create")
	}
	if first.AccountID != second.AccountID {
		t.Errorf("account ids differ: %s != %s", first.AccountID, second.AccountID)
	}
}
