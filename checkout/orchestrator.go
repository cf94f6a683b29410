package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/soundrise/phonics_coach/models"
	"github.com/soundrise/phonics_coach/payments"
)

var ErrNotFound = errors.New("checkout not found")

// OrderStore persists registrations and payments and records state
// transitions. The GORM implementation lives in gorm_store.go; tests use an
// in-memory fake.
type OrderStore interface {
	CreateCheckout(ctx context.Context, reg *models.Registration, p *models.Payment) error
	FindByReference(ctx context.Context, referenceID string) (*models.Payment, error)
	Transition(ctx context.Context, p *models.Payment, step string, to State, reason *Reason, retriable bool) error
	MarkPaid(ctx context.Context, p *models.Payment, providerTxnID string) error
}

// SessionStore is the durable in-flight reference storage that outlives the
// gateway redirect (Redis-backed in production).
type SessionStore interface {
	Put(ctx context.Context, referenceID string, state State, ttl time.Duration) error
	Get(ctx context.Context, referenceID string) (State, bool, error)
	Delete(ctx context.Context, referenceID string) error
}

// Notifier receives terminal outcomes. Implementations must not block the
// checkout flow; receipts and emails run best-effort after the state is
// already settled.
type Notifier interface {
	OnPaid(p *models.Payment)
	OnFailed(p *models.Payment, reason Reason)
}

type Result struct {
	ReferenceID string `json:"reference_id"`
	State       State  `json:"state"`
	Reason      Reason `json:"reason,omitempty"`
	Retriable   bool   `json:"retriable"`
}

type Orchestrator struct {
	Orders    OrderStore
	Sessions  SessionStore
	Providers payments.Registry
	Notifier  Notifier

	VerifyAttempts  int
	VerifyBaseDelay time.Duration
	SessionTTL      time.Duration
}

func NewOrchestrator(orders OrderStore, sessions SessionStore, providers payments.Registry, notifier Notifier) *Orchestrator {
	return &Orchestrator{
		Orders:          orders,
		Sessions:        sessions,
		Providers:       providers,
		Notifier:        notifier,
		VerifyAttempts:  4,
		VerifyBaseDelay: 2 * time.Second,
		SessionTTL:      time.Hour,
	}
}

// Begin persists the registration and its pending payment, creates the
// gateway order and hands back the gateway session. Registration must be
// durably recorded before an order is created; an order must exist before
// the gateway hand-off.
func (o *Orchestrator) Begin(ctx context.Context, reg *models.Registration, p *models.Payment) (*payments.OrderSession, error) {
	provider, err := o.Providers.Get(p.Provider)
	if err != nil {
		return nil, err
	}

	p.Status = string(StatePending)
	if err := o.Orders.CreateCheckout(ctx, reg, p); err != nil {
		return nil, fmt.Errorf("failed to record registration: %w", err)
	}

	session, err := provider.CreateOrder(ctx, payments.OrderRequest{
		ReferenceID:   p.ReferenceID,
		Amount:        p.Amount,
		Currency:      p.Currency,
		CustomerName:  reg.FullName,
		CustomerEmail: reg.Email,
		CustomerPhone: reg.Phone,
	})
	if err != nil {
		// A gateway order may half-exist at this point; keep the reference on
		// a retriable failure so reconciliation can pick it up.
		reason := ReasonServerError
		if terr := o.Orders.Transition(ctx, p, "create_order", StateFailed, &reason, true); terr != nil {
			log.Printf("🔥 Failed to record order-creation failure for %s: %v", p.ReferenceID, terr)
		}
		return nil, fmt.Errorf("failed to create gateway order: %w", err)
	}

	p.ProviderOrderID = &session.OrderID
	if err := o.Orders.Transition(ctx, p, "create_order", StateAwaitingGateway, nil, true); err != nil {
		return nil, err
	}

	if err := o.Sessions.Put(ctx, p.ReferenceID, StateAwaitingGateway, o.SessionTTL); err != nil {
		log.Printf("Failed to store checkout session for %s: %v", p.ReferenceID, err)
	}

	return session, nil
}

// HandleCallback converges both gateway hand-off mechanisms (Razorpay's
// in-page modal callback and Cashfree's redirect with query parameters) onto
// one verification step. It is idempotent: a replayed callback re-confirms
// the existing order instead of creating anything.
func (o *Orchestrator) HandleCallback(ctx context.Context, referenceID string, cb payments.CallbackData) (*Result, error) {
	if !IsValidReference(referenceID) {
		return &Result{ReferenceID: referenceID, State: StateFailed, Reason: ReasonMissingReference}, nil
	}

	p, err := o.Orders.FindByReference(ctx, referenceID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &Result{ReferenceID: referenceID, State: StateFailed, Reason: ReasonMissingReference}, nil
		}
		return nil, err
	}

	if State(p.Status) == StatePaid {
		return &Result{ReferenceID: referenceID, State: StatePaid}, nil
	}

	provider, err := o.Providers.Get(p.Provider)
	if err != nil {
		return nil, err
	}
	if p.ProviderOrderID == nil {
		return o.fail(ctx, p, "verify", ReasonMissingReference, true)
	}

	if State(p.Status) != StateVerifying {
		if err := o.Orders.Transition(ctx, p, "verify", StateVerifying, nil, true); err != nil {
			return nil, err
		}
	}

	var status payments.Status
	if cb.Empty() {
		// No gateway payload to interpret (reload or reconciler); the
		// order-status API alone decides.
		status, err = payments.CheckStatusWithRetry(ctx, provider, *p.ProviderOrderID, o.VerifyAttempts, o.VerifyBaseDelay)
	} else {
		status, err = provider.VerifyCallback(ctx, *p.ProviderOrderID, cb)
		if err != nil {
			// Ambiguous: retry the status check within bounds, never assume
			// success.
			status, err = payments.CheckStatusWithRetry(ctx, provider, *p.ProviderOrderID, o.VerifyAttempts, o.VerifyBaseDelay)
		}
	}

	switch {
	case err != nil:
		return o.fail(ctx, p, "verify", ReasonIncomplete, false)
	case status == payments.StatusPaid:
		return o.settle(ctx, p, cb)
	case status == payments.StatusFailed:
		return o.fail(ctx, p, "verify", ReasonVerificationFailed, true)
	default:
		// Still pending on the gateway's side: leave the attempt in
		// verifying; the reconciler or a client retry finishes it.
		return &Result{ReferenceID: referenceID, State: StateVerifying, Retriable: true}, nil
	}
}

// Resume implements recovery after a full-page redirect destroyed the
// browser's state: an unresolved reference re-enters verification instead of
// restarting the form.
func (o *Orchestrator) Resume(ctx context.Context, referenceID string) (*Result, error) {
	if !IsValidReference(referenceID) {
		return &Result{ReferenceID: referenceID, State: StateFailed, Reason: ReasonMissingReference}, nil
	}

	p, err := o.Orders.FindByReference(ctx, referenceID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &Result{ReferenceID: referenceID, State: StateFailed, Reason: ReasonMissingReference}, nil
		}
		return nil, err
	}

	switch State(p.Status) {
	case StatePaid:
		return &Result{ReferenceID: referenceID, State: StatePaid}, nil
	case StateFailed, StateCancelled:
		return o.result(p), nil
	}

	return o.HandleCallback(ctx, referenceID, payments.CallbackData{ReferenceID: referenceID})
}

// Cancel handles a user-dismissed gateway modal: the attempt resets to a
// retriable terminal state synchronously, leaving no orphaned pending order.
func (o *Orchestrator) Cancel(ctx context.Context, referenceID string) (*Result, error) {
	p, err := o.Orders.FindByReference(ctx, referenceID)
	if err != nil {
		return nil, err
	}

	if State(p.Status) == StatePaid || State(p.Status) == StateCancelled {
		return o.result(p), nil
	}

	reason := ReasonCancelled
	if err := o.Orders.Transition(ctx, p, "cancel", StateCancelled, &reason, true); err != nil {
		return nil, err
	}
	if err := o.Sessions.Delete(ctx, referenceID); err != nil {
		log.Printf("Failed to clear checkout session for %s: %v", referenceID, err)
	}

	return &Result{ReferenceID: referenceID, State: StateCancelled, Reason: ReasonCancelled, Retriable: true}, nil
}

// Status reports the current state without driving any transition.
func (o *Orchestrator) Status(ctx context.Context, referenceID string) (*Result, error) {
	p, err := o.Orders.FindByReference(ctx, referenceID)
	if err != nil {
		return nil, err
	}
	return o.result(p), nil
}

func (o *Orchestrator) settle(ctx context.Context, p *models.Payment, cb payments.CallbackData) (*Result, error) {
	txnID := cb.RazorpayPaymentID
	if txnID == "" {
		txnID = cb.TransactionID
	}

	if err := o.Orders.MarkPaid(ctx, p, txnID); err != nil {
		return nil, err
	}
	if err := o.Sessions.Delete(ctx, p.ReferenceID); err != nil {
		log.Printf("Failed to clear checkout session for %s: %v", p.ReferenceID, err)
	}

	o.Notifier.OnPaid(p)

	return &Result{ReferenceID: p.ReferenceID, State: StatePaid}, nil
}

func (o *Orchestrator) fail(ctx context.Context, p *models.Payment, step string, reason Reason, retriable bool) (*Result, error) {
	if err := o.Orders.Transition(ctx, p, step, StateFailed, &reason, retriable); err != nil {
		return nil, err
	}

	// The reference stays in session storage on failure so a later attempt
	// or manual reconciliation can still find it.
	if err := o.Sessions.Put(ctx, p.ReferenceID, StateFailed, o.SessionTTL); err != nil {
		log.Printf("Failed to update checkout session for %s: %v", p.ReferenceID, err)
	}

	o.Notifier.OnFailed(p, reason)

	return &Result{ReferenceID: p.ReferenceID, State: StateFailed, Reason: reason, Retriable: retriable}, nil
}

func (o *Orchestrator) result(p *models.Payment) *Result {
	r := &Result{ReferenceID: p.ReferenceID, State: State(p.Status), Retriable: p.Retriable}
	if p.FailureReason != nil {
		r.Reason = Reason(*p.FailureReason)
	}
	return r
}
