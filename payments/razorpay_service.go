package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"time"

	config "github.com/soundrise/phonics_coach/configs"
)

const razorpayDefaultBaseURL = "https://api.razorpay.com"

type RazorpayService struct {
	KeyID     string
	KeySecret string
	BaseURL   string
	client    *http.Client
}

func NewRazorpayService() *RazorpayService {
	baseURL := config.Config("RAZORPAY_API_BASE_URL")
	if baseURL == "" {
		baseURL = razorpayDefaultBaseURL
	}

	return &RazorpayService{
		KeyID:     config.Config("RAZORPAY_KEY_ID"),
		KeySecret: config.Config("RAZORPAY_KEY_SECRET"),
		BaseURL:   baseURL,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *RazorpayService) Name() string { return "razorpay" }

type razorpayOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type razorpayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

func (s *RazorpayService) CreateOrder(ctx context.Context, req OrderRequest) (*OrderSession, error) {
	// Razorpay amounts are in the smallest currency unit (paise).
	payload := razorpayOrderRequest{
		Amount:   int64(math.Round(req.Amount * 100)),
		Currency: req.Currency,
		Receipt:  req.ReferenceID,
		Notes: map[string]string{
			"reference_id":   req.ReferenceID,
			"customer_email": req.CustomerEmail,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order payload: %v", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", s.BaseURL+"/v1/orders", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create order request: %v", err)
	}
	httpReq.SetBasicAuth(s.KeyID, s.KeySecret)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send order request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		log.Printf("Razorpay API error: %s", string(respBody))
		return nil, fmt.Errorf("razorpay orders API returned status %d", resp.StatusCode)
	}

	var order razorpayOrder
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("failed to decode order response: %v", err)
	}
	if order.ID == "" {
		return nil, errors.New("razorpay order response missing order id")
	}

	return &OrderSession{
		Provider: s.Name(),
		OrderID:  order.ID,
		KeyID:    s.KeyID,
	}, nil
}

// VerifyCallback checks the checkout-form signature the Razorpay modal hands
// to the frontend: HMAC-SHA256 of "order_id|payment_id" under the key secret.
// A bad signature is a definitive failure, never an ambiguity.
func (s *RazorpayService) VerifyCallback(ctx context.Context, orderID string, cb CallbackData) (Status, error) {
	if cb.RazorpayPaymentID == "" || cb.RazorpaySignature == "" {
		return StatusFailed, nil
	}
	if cb.RazorpayOrderID != orderID {
		return StatusFailed, nil
	}

	if !s.VerifySignature(cb.RazorpayOrderID, cb.RazorpayPaymentID, cb.RazorpaySignature) {
		log.Printf("Razorpay signature mismatch for order %s", orderID)
		return StatusFailed, nil
	}

	// The signature proves the payment id belongs to this order; confirm the
	// order actually reached paid on Razorpay's side as well.
	return s.CheckStatus(ctx, orderID)
}

func (s *RazorpayService) VerifySignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(s.KeySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (s *RazorpayService) CheckStatus(ctx context.Context, orderID string) (Status, error) {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/v1/orders/%s", s.BaseURL, orderID), nil)
	if err != nil {
		return StatusPending, fmt.Errorf("failed to create status request: %v", err)
	}
	httpReq.SetBasicAuth(s.KeyID, s.KeySecret)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return StatusPending, fmt.Errorf("failed to fetch order status: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return StatusPending, fmt.Errorf("razorpay order status API returned status %d", resp.StatusCode)
	}

	var order razorpayOrder
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return StatusPending, fmt.Errorf("failed to decode order status response: %v", err)
	}

	return MapRazorpayOrderStatus(order.Status), nil
}

func MapRazorpayOrderStatus(status string) Status {
	switch status {
	case "paid":
		return StatusPaid
	case "created", "attempted":
		return StatusPending
	default:
		return StatusFailed
	}
}
