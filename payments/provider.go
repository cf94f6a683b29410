package payments

import (
	"context"
	"fmt"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusFailed  Status = "failed"
)

type OrderRequest struct {
	ReferenceID   string
	Amount        float64
	Currency      string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
}

// OrderSession carries the gateway hand-off data returned to the frontend.
// Razorpay opens an in-page modal keyed by KeyID+OrderID; Cashfree redirects
// the browser to its hosted page using PaymentSessionID.
type OrderSession struct {
	Provider         string `json:"provider"`
	OrderID          string `json:"order_id"`
	KeyID            string `json:"razorpay_key,omitempty"`
	AppID            string `json:"app_id,omitempty"`
	PaymentSessionID string `json:"payment_session_id,omitempty"`
}

type CallbackData struct {
	ReferenceID       string
	RazorpayPaymentID string
	RazorpayOrderID   string
	RazorpaySignature string
	TransactionID     string
}

// Empty reports whether the callback carries no gateway payload, as when
// verification is driven by a reload or the reconciler rather than a
// gateway hand-off.
func (cb CallbackData) Empty() bool {
	return cb.RazorpayPaymentID == "" && cb.RazorpaySignature == "" && cb.TransactionID == ""
}

type Provider interface {
	Name() string
	CreateOrder(ctx context.Context, req OrderRequest) (*OrderSession, error)
	VerifyCallback(ctx context.Context, orderID string, cb CallbackData) (Status, error)
	CheckStatus(ctx context.Context, orderID string) (Status, error)
}

// Registry maps a provider name from a checkout request to its client.
type Registry map[string]Provider

func (r Registry) Get(name string) (Provider, error) {
	p, ok := r[name]
	if !ok {
		return nil, fmt.Errorf("unknown payment provider: %s", name)
	}
	return p, nil
}
