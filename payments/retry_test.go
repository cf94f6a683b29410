package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	results []func() (Status, error)
	calls   int
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) CreateOrder(ctx context.Context, req OrderRequest) (*OrderSession, error) {
	return nil, errors.New("not implemented")
}

func (p *scriptedProvider) VerifyCallback(ctx context.Context, orderID string, cb CallbackData) (Status, error) {
	return StatusPending, errors.New("not implemented")
}

func (p *scriptedProvider) CheckStatus(ctx context.Context, orderID string) (Status, error) {
	i := p.calls
	p.calls++
	if i >= len(p.results) {
		i = len(p.results) - 1
	}
	return p.results[i]()
}

func TestCheckStatusWithRetryRecoversFromTransientErrors(t *testing.T) {
	p := &scriptedProvider{results: []func() (Status, error){
		func() (Status, error) { return StatusPending, errors.New("timeout") },
		func() (Status, error) { return StatusPending, errors.New("timeout") },
		func() (Status, error) { return StatusPaid, nil },
	}}

	status, err := CheckStatusWithRetry(context.Background(), p, "order_abc", 4, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, status)
	assert.Equal(t, 3, p.calls)
}

func TestCheckStatusWithRetryStopsAtBudget(t *testing.T) {
	p := &scriptedProvider{results: []func() (Status, error){
		func() (Status, error) { return StatusPending, errors.New("timeout") },
	}}

	status, err := CheckStatusWithRetry(context.Background(), p, "order_abc", 3, time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum status checks exceeded")
	assert.Equal(t, StatusPending, status, "exhausted retries must never read as success")
	assert.Equal(t, 3, p.calls)
}

func TestCheckStatusWithRetryReturnsDefinitiveAnswerImmediately(t *testing.T) {
	p := &scriptedProvider{results: []func() (Status, error){
		func() (Status, error) { return StatusFailed, nil },
	}}

	status, err := CheckStatusWithRetry(context.Background(), p, "order_abc", 5, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, status)
	assert.Equal(t, 1, p.calls, "a definitive answer is not retried")
}

func TestCheckStatusWithRetryHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &scriptedProvider{results: []func() (Status, error){
		func() (Status, error) { return StatusPaid, nil },
	}}

	_, err := CheckStatusWithRetry(ctx, p, "order_abc", 3, time.Millisecond)
	require.Error(t, err)
	assert.Zero(t, p.calls)
}

func TestCallbackDataEmpty(t *testing.T) {
	assert.True(t, CallbackData{}.Empty())
	assert.True(t, CallbackData{ReferenceID: "ref-1"}.Empty())

	assert.False(t, CallbackData{RazorpayPaymentID: "pay_xyz"}.Empty())
	assert.False(t, CallbackData{RazorpaySignature: "sig"}.Empty())
	assert.False(t, CallbackData{TransactionID: "txn_1"}.Empty())
}
