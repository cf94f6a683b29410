package checkout

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/soundrise/phonics_coach/models"
	"github.com/soundrise/phonics_coach/payments"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	payments    map[string]*models.Payment
	markPaidTxn string
}

func newFakeStore() *fakeStore {
	return &fakeStore{payments: map[string]*models.Payment{}}
}

func (s *fakeStore) CreateCheckout(ctx context.Context, reg *models.Registration, p *models.Payment) error {
	s.payments[p.ReferenceID] = p
	return nil
}

func (s *fakeStore) FindByReference(ctx context.Context, referenceID string) (*models.Payment, error) {
	p, ok := s.payments[referenceID]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *fakeStore) Transition(ctx context.Context, p *models.Payment, step string, to State, reason *Reason, retriable bool) error {
	from := State(p.Status)
	if from != to && !CanTransition(from, to) {
		return fmt.Errorf("illegal checkout transition %s -> %s for %s", from, to, p.ReferenceID)
	}
	p.Status = string(to)
	p.Retriable = retriable
	if reason != nil {
		r := string(*reason)
		p.FailureReason = &r
	} else {
		p.FailureReason = nil
	}
	return nil
}

func (s *fakeStore) MarkPaid(ctx context.Context, p *models.Payment, providerTxnID string) error {
	p.Status = string(StatePaid)
	p.FailureReason = nil
	if providerTxnID != "" {
		p.ProviderTxnID = &providerTxnID
	}
	s.markPaidTxn = providerTxnID
	return nil
}

type fakeSessions struct {
	entries map[string]State
	deletes int
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{entries: map[string]State{}}
}

func (s *fakeSessions) Put(ctx context.Context, referenceID string, state State, ttl time.Duration) error {
	s.entries[referenceID] = state
	return nil
}

func (s *fakeSessions) Get(ctx context.Context, referenceID string) (State, bool, error) {
	state, ok := s.entries[referenceID]
	return state, ok, nil
}

func (s *fakeSessions) Delete(ctx context.Context, referenceID string) error {
	delete(s.entries, referenceID)
	s.deletes++
	return nil
}

type fakeNotifier struct {
	paid   []string
	failed []Reason
}

func (n *fakeNotifier) OnPaid(p *models.Payment) {
	n.paid = append(n.paid, p.ReferenceID)
}

func (n *fakeNotifier) OnFailed(p *models.Payment, reason Reason) {
	n.failed = append(n.failed, reason)
}

type fakeProvider struct {
	createOrder func(payments.OrderRequest) (*payments.OrderSession, error)
	verify      func(string, payments.CallbackData) (payments.Status, error)
	check       func(string) (payments.Status, error)

	verifyCalls int
	checkCalls  int
}

func (p *fakeProvider) Name() string { return "razorpay" }

func (p *fakeProvider) CreateOrder(ctx context.Context, req payments.OrderRequest) (*payments.OrderSession, error) {
	return p.createOrder(req)
}

func (p *fakeProvider) VerifyCallback(ctx context.Context, orderID string, cb payments.CallbackData) (payments.Status, error) {
	p.verifyCalls++
	return p.verify(orderID, cb)
}

func (p *fakeProvider) CheckStatus(ctx context.Context, orderID string) (payments.Status, error) {
	p.checkCalls++
	return p.check(orderID)
}

func newTestOrchestrator(provider *fakeProvider) (*Orchestrator, *fakeStore, *fakeSessions, *fakeNotifier) {
	store := newFakeStore()
	sessions := newFakeSessions()
	notifier := &fakeNotifier{}

	orc := NewOrchestrator(store, sessions, payments.Registry{"razorpay": provider}, notifier)
	orc.VerifyAttempts = 2
	orc.VerifyBaseDelay = time.Millisecond
	return orc, store, sessions, notifier
}

func seedPayment(store *fakeStore, referenceID, orderID string, state State) *models.Payment {
	p := &models.Payment{
		ReferenceID: referenceID,
		Provider:    "razorpay",
		Amount:      4999,
		Currency:    "INR",
		Status:      string(state),
	}
	if orderID != "" {
		oid := orderID
		p.ProviderOrderID = &oid
	}
	store.payments[referenceID] = p
	return p
}

func TestBeginCreatesOrderAndSession(t *testing.T) {
	provider := &fakeProvider{
		createOrder: func(req payments.OrderRequest) (*payments.OrderSession, error) {
			return &payments.OrderSession{Provider: "razorpay", OrderID: "order_abc", KeyID: "rzp_test"}, nil
		},
	}
	orc, store, sessions, _ := newTestOrchestrator(provider)

	reg := &models.Registration{FullName: "Asha Rao", Email: "asha@example.com", Phone: "9999999999"}
	p := &models.Payment{ReferenceID: "ref-1", Provider: "razorpay", Amount: 4999, Currency: "INR"}

	session, err := orc.Begin(context.Background(), reg, p)
	require.NoError(t, err)
	assert.Equal(t, "order_abc", session.OrderID)

	stored := store.payments["ref-1"]
	assert.Equal(t, string(StateAwaitingGateway), stored.Status)
	require.NotNil(t, stored.ProviderOrderID)
	assert.Equal(t, "order_abc", *stored.ProviderOrderID)

	state, ok, _ := sessions.Get(context.Background(), "ref-1")
	assert.True(t, ok)
	assert.Equal(t, StateAwaitingGateway, state)
}

func TestBeginGatewayFailureKeepsReference(t *testing.T) {
	provider := &fakeProvider{
		createOrder: func(req payments.OrderRequest) (*payments.OrderSession, error) {
			return nil, errors.New("gateway down")
		},
	}
	orc, store, _, _ := newTestOrchestrator(provider)

	reg := &models.Registration{FullName: "Asha Rao", Email: "asha@example.com"}
	p := &models.Payment{ReferenceID: "ref-1", Provider: "razorpay", Amount: 4999, Currency: "INR"}

	_, err := orc.Begin(context.Background(), reg, p)
	require.Error(t, err)

	// The registration and payment rows survive the gateway failure so the
	// reference can be retried or reconciled.
	stored := store.payments["ref-1"]
	require.NotNil(t, stored)
	assert.Equal(t, string(StateFailed), stored.Status)
	assert.True(t, stored.Retriable)
	require.NotNil(t, stored.FailureReason)
	assert.Equal(t, string(ReasonServerError), *stored.FailureReason)
}

func TestBeginUnknownProvider(t *testing.T) {
	orc, store, _, _ := newTestOrchestrator(&fakeProvider{})

	p := &models.Payment{ReferenceID: "ref-1", Provider: "stripe", Amount: 4999, Currency: "INR"}
	_, err := orc.Begin(context.Background(), &models.Registration{}, p)
	require.Error(t, err)
	assert.Empty(t, store.payments)
}

func TestHandleCallbackRejectsPlaceholderReference(t *testing.T) {
	provider := &fakeProvider{}
	orc, _, _, _ := newTestOrchestrator(provider)

	// Cashfree substitutes {order_id} in the return URL; if that ever fails
	// the literal placeholder must not be treated as an order id.
	result, err := orc.HandleCallback(context.Background(), "{order_id}", payments.CallbackData{})
	require.NoError(t, err)
	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, ReasonMissingReference, result.Reason)
	assert.Zero(t, provider.verifyCalls)
	assert.Zero(t, provider.checkCalls)
}

func TestHandleCallbackUnknownReference(t *testing.T) {
	orc, _, _, _ := newTestOrchestrator(&fakeProvider{})

	result, err := orc.HandleCallback(context.Background(), "ref-unknown", payments.CallbackData{})
	require.NoError(t, err)
	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, ReasonMissingReference, result.Reason)
}

func TestHandleCallbackConfirmsPayment(t *testing.T) {
	provider := &fakeProvider{
		verify: func(orderID string, cb payments.CallbackData) (payments.Status, error) {
			return payments.StatusPaid, nil
		},
	}
	orc, store, sessions, notifier := newTestOrchestrator(provider)
	seedPayment(store, "ref-1", "order_abc", StateAwaitingGateway)
	sessions.Put(context.Background(), "ref-1", StateAwaitingGateway, time.Minute)

	cb := payments.CallbackData{
		ReferenceID:       "ref-1",
		RazorpayOrderID:   "order_abc",
		RazorpayPaymentID: "pay_xyz",
		RazorpaySignature: "sig",
	}
	result, err := orc.HandleCallback(context.Background(), "ref-1", cb)
	require.NoError(t, err)
	assert.Equal(t, StatePaid, result.State)

	assert.Equal(t, "pay_xyz", store.markPaidTxn)
	assert.Equal(t, []string{"ref-1"}, notifier.paid)

	_, ok, _ := sessions.Get(context.Background(), "ref-1")
	assert.False(t, ok, "session should be cleared once paid")
}

func TestHandleCallbackIdempotentOnPaid(t *testing.T) {
	provider := &fakeProvider{}
	orc, store, _, notifier := newTestOrchestrator(provider)
	seedPayment(store, "ref-1", "order_abc", StatePaid)

	result, err := orc.HandleCallback(context.Background(), "ref-1", payments.CallbackData{
		RazorpayOrderID: "order_abc", RazorpayPaymentID: "pay_xyz", RazorpaySignature: "sig",
	})
	require.NoError(t, err)
	assert.Equal(t, StatePaid, result.State)

	// A replayed callback re-confirms the settled order without touching the
	// gateway or re-firing notifications.
	assert.Zero(t, provider.verifyCalls)
	assert.Zero(t, provider.checkCalls)
	assert.Empty(t, notifier.paid)
}

func TestHandleCallbackVerificationFailure(t *testing.T) {
	provider := &fakeProvider{
		verify: func(orderID string, cb payments.CallbackData) (payments.Status, error) {
			return payments.StatusFailed, nil
		},
	}
	orc, store, sessions, notifier := newTestOrchestrator(provider)
	seedPayment(store, "ref-1", "order_abc", StateAwaitingGateway)

	result, err := orc.HandleCallback(context.Background(), "ref-1", payments.CallbackData{
		RazorpayOrderID: "order_abc", RazorpayPaymentID: "pay_xyz", RazorpaySignature: "bad",
	})
	require.NoError(t, err)
	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, ReasonVerificationFailed, result.Reason)
	assert.True(t, result.Retriable)
	assert.Equal(t, []Reason{ReasonVerificationFailed}, notifier.failed)

	// The reference stays recoverable after a declined verification.
	_, ok, _ := sessions.Get(context.Background(), "ref-1")
	assert.True(t, ok)
	assert.Equal(t, string(StateFailed), store.payments["ref-1"].Status)
}

func TestHandleCallbackAmbiguityNeverAssumesSuccess(t *testing.T) {
	provider := &fakeProvider{
		verify: func(orderID string, cb payments.CallbackData) (payments.Status, error) {
			return payments.StatusPending, errors.New("gateway timeout")
		},
		check: func(orderID string) (payments.Status, error) {
			return payments.StatusPending, errors.New("gateway timeout")
		},
	}
	orc, store, _, notifier := newTestOrchestrator(provider)
	seedPayment(store, "ref-1", "order_abc", StateAwaitingGateway)

	result, err := orc.HandleCallback(context.Background(), "ref-1", payments.CallbackData{
		RazorpayOrderID: "order_abc", RazorpayPaymentID: "pay_xyz", RazorpaySignature: "sig",
	})
	require.NoError(t, err)
	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, ReasonIncomplete, result.Reason)
	assert.False(t, result.Retriable)

	// The status check is retried within its budget and the outcome escalates
	// to support instead of being guessed.
	assert.Equal(t, orc.VerifyAttempts, provider.checkCalls)
	assert.Equal(t, []Reason{ReasonIncomplete}, notifier.failed)
	assert.Empty(t, notifier.paid)
}

func TestHandleCallbackStillPendingOnGateway(t *testing.T) {
	provider := &fakeProvider{
		verify: func(orderID string, cb payments.CallbackData) (payments.Status, error) {
			return payments.StatusPending, nil
		},
	}
	orc, store, _, _ := newTestOrchestrator(provider)
	seedPayment(store, "ref-1", "order_abc", StateAwaitingGateway)

	result, err := orc.HandleCallback(context.Background(), "ref-1", payments.CallbackData{
		RazorpayOrderID: "order_abc", RazorpayPaymentID: "pay_xyz", RazorpaySignature: "sig",
	})
	require.NoError(t, err)
	assert.Equal(t, StateVerifying, result.State)
	assert.True(t, result.Retriable)
	assert.Equal(t, string(StateVerifying), store.payments["ref-1"].Status)
}

func TestResumeSkipsSignatureCheck(t *testing.T) {
	provider := &fakeProvider{
		check: func(orderID string) (payments.Status, error) {
			return payments.StatusPaid, nil
		},
	}
	orc, store, _, notifier := newTestOrchestrator(provider)
	seedPayment(store, "ref-1", "order_abc", StateAwaitingGateway)

	// After a reload there is no gateway payload to verify; only the
	// order-status API decides.
	result, err := orc.Resume(context.Background(), "ref-1")
	require.NoError(t, err)
	assert.Equal(t, StatePaid, result.State)
	assert.Zero(t, provider.verifyCalls)
	assert.GreaterOrEqual(t, provider.checkCalls, 1)
	assert.Equal(t, []string{"ref-1"}, notifier.paid)
}

func TestResumeReportsSettledOutcomes(t *testing.T) {
	provider := &fakeProvider{}
	orc, store, _, _ := newTestOrchestrator(provider)

	p := seedPayment(store, "ref-1", "order_abc", StateFailed)
	reason := string(ReasonVerificationFailed)
	p.FailureReason = &reason
	p.Retriable = true

	result, err := orc.Resume(context.Background(), "ref-1")
	require.NoError(t, err)
	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, ReasonVerificationFailed, result.Reason)
	assert.True(t, result.Retriable)
	assert.Zero(t, provider.checkCalls)
}

func TestCancelIsRetriableAndIdempotent(t *testing.T) {
	orc, store, sessions, _ := newTestOrchestrator(&fakeProvider{})
	seedPayment(store, "ref-1", "order_abc", StateAwaitingGateway)
	sessions.Put(context.Background(), "ref-1", StateAwaitingGateway, time.Minute)

	result, err := orc.Cancel(context.Background(), "ref-1")
	require.NoError(t, err)
	assert.Equal(t, StateCancelled, result.State)
	assert.Equal(t, ReasonCancelled, result.Reason)
	assert.True(t, result.Retriable)

	_, ok, _ := sessions.Get(context.Background(), "ref-1")
	assert.False(t, ok)

	again, err := orc.Cancel(context.Background(), "ref-1")
	require.NoError(t, err)
	assert.Equal(t, StateCancelled, again.State)
}

func TestCancelDoesNotTouchPaid(t *testing.T) {
	orc, store, _, _ := newTestOrchestrator(&fakeProvider{})
	seedPayment(store, "ref-1", "order_abc", StatePaid)

	result, err := orc.Cancel(context.Background(), "ref-1")
	require.NoError(t, err)
	assert.Equal(t, StatePaid, result.State)
	assert.Equal(t, string(StatePaid), store.payments["ref-1"].Status)
}
