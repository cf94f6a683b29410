package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRazorpay(baseURL string) *RazorpayService {
	return &RazorpayService{
		KeyID:     "rzp_test_key",
		KeySecret: "rzp_test_secret",
		BaseURL:   baseURL,
		client:    &http.Client{Timeout: time.Second},
	}
}

func signRazorpay(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestRazorpayVerifySignature(t *testing.T) {
	s := newTestRazorpay("")

	good := signRazorpay("rzp_test_secret", "order_abc", "pay_xyz")
	assert.True(t, s.VerifySignature("order_abc", "pay_xyz", good))

	assert.False(t, s.VerifySignature("order_abc", "pay_xyz", "deadbeef"))
	assert.False(t, s.VerifySignature("order_other", "pay_xyz", good))
	assert.False(t, s.VerifySignature("order_abc", "pay_other", good))
	assert.False(t, s.VerifySignature("order_abc", "pay_xyz", ""))
}

func TestRazorpayVerifyCallbackRejectsWithoutHTTP(t *testing.T) {
	// No server behind BaseURL: any request would fail, so these paths must
	// decide before touching the network.
	s := newTestRazorpay("http://127.0.0.1:0")

	status, err := s.VerifyCallback(context.Background(), "order_abc", CallbackData{})
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, status)

	status, err = s.VerifyCallback(context.Background(), "order_abc", CallbackData{
		RazorpayOrderID:   "order_other",
		RazorpayPaymentID: "pay_xyz",
		RazorpaySignature: signRazorpay("rzp_test_secret", "order_other", "pay_xyz"),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, status, "order id mismatch is a definitive failure")

	status, err = s.VerifyCallback(context.Background(), "order_abc", CallbackData{
		RazorpayOrderID:   "order_abc",
		RazorpayPaymentID: "pay_xyz",
		RazorpaySignature: "forged",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, status)
}

func TestRazorpayVerifyCallbackConfirmsOrderStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "rzp_test_secret", pass)
		assert.Equal(t, "/v1/orders/order_abc", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"order_abc","status":"paid","amount":499900,"currency":"INR"}`))
	}))
	defer server.Close()

	s := newTestRazorpay(server.URL)

	// A valid signature alone is not enough; the order must also read paid on
	// Razorpay's side.
	status, err := s.VerifyCallback(context.Background(), "order_abc", CallbackData{
		RazorpayOrderID:   "order_abc",
		RazorpayPaymentID: "pay_xyz",
		RazorpaySignature: signRazorpay("rzp_test_secret", "order_abc", "pay_xyz"),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, status)
}

func TestRazorpayCreateOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"order_abc","status":"created","amount":499900,"currency":"INR","receipt":"ref-1"}`))
	}))
	defer server.Close()

	s := newTestRazorpay(server.URL)

	session, err := s.CreateOrder(context.Background(), OrderRequest{
		ReferenceID: "ref-1",
		Amount:      4999.00,
		Currency:    "INR",
	})
	require.NoError(t, err)
	assert.Equal(t, "razorpay", session.Provider)
	assert.Equal(t, "order_abc", session.OrderID)
	assert.Equal(t, "rzp_test_key", session.KeyID)
}

func TestRazorpayCreateOrderRejectsMissingID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	s := newTestRazorpay(server.URL)
	_, err := s.CreateOrder(context.Background(), OrderRequest{ReferenceID: "ref-1", Amount: 100, Currency: "INR"})
	require.Error(t, err)
}

func TestRazorpayCheckStatusErrorIsAmbiguous(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	s := newTestRazorpay(server.URL)
	status, err := s.CheckStatus(context.Background(), "order_abc")
	require.Error(t, err)
	assert.Equal(t, StatusPending, status, "an API failure must never read as paid or failed")
}

func TestMapRazorpayOrderStatus(t *testing.T) {
	assert.Equal(t, StatusPaid, MapRazorpayOrderStatus("paid"))
	assert.Equal(t, StatusPending, MapRazorpayOrderStatus("created"))
	assert.Equal(t, StatusPending, MapRazorpayOrderStatus("attempted"))
	assert.Equal(t, StatusFailed, MapRazorpayOrderStatus("expired"))
	assert.Equal(t, StatusFailed, MapRazorpayOrderStatus(""))
}
