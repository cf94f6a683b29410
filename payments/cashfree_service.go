package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	config "github.com/soundrise/phonics_coach/configs"
)

const cashfreeDefaultBaseURL = "https://api.cashfree.com/pg"
const cashfreeAPIVersion = "2023-08-01"

type CashfreeService struct {
	AppID     string
	SecretKey string
	BaseURL   string
	ReturnURL string
	client    *http.Client
}

func NewCashfreeService() *CashfreeService {
	baseURL := config.Config("CASHFREE_API_BASE_URL")
	if baseURL == "" {
		baseURL = cashfreeDefaultBaseURL
	}

	return &CashfreeService{
		AppID:     config.Config("CASHFREE_APP_ID"),
		SecretKey: config.Config("CASHFREE_SECRET_KEY"),
		BaseURL:   baseURL,
		ReturnURL: config.Config("API_BASE_URL") + "/api/v1/checkout/callback?order_id={order_id}",
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *CashfreeService) Name() string { return "cashfree" }

type cashfreeOrderRequest struct {
	OrderID         string            `json:"order_id"`
	OrderAmount     float64           `json:"order_amount"`
	OrderCurrency   string            `json:"order_currency"`
	CustomerDetails cashfreeCustomer  `json:"customer_details"`
	OrderMeta       cashfreeOrderMeta `json:"order_meta"`
	OrderNote       string            `json:"order_note,omitempty"`
}

type cashfreeCustomer struct {
	CustomerID    string `json:"customer_id"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
}

type cashfreeOrderMeta struct {
	ReturnURL string `json:"return_url"`
}

type cashfreeOrder struct {
	OrderID          string  `json:"order_id"`
	CfOrderID        string  `json:"cf_order_id"`
	OrderAmount      float64 `json:"order_amount"`
	OrderStatus      string  `json:"order_status"`
	PaymentSessionID string  `json:"payment_session_id"`
}

func (s *CashfreeService) CreateOrder(ctx context.Context, req OrderRequest) (*OrderSession, error) {
	// Cashfree substitutes {order_id} in the return URL when it redirects the
	// customer back; the callback handler rejects the literal placeholder if
	// that substitution ever fails.
	payload := cashfreeOrderRequest{
		OrderID:       req.ReferenceID,
		OrderAmount:   req.Amount,
		OrderCurrency: req.Currency,
		CustomerDetails: cashfreeCustomer{
			CustomerID:    req.ReferenceID,
			CustomerName:  req.CustomerName,
			CustomerEmail: req.CustomerEmail,
			CustomerPhone: req.CustomerPhone,
		},
		OrderMeta: cashfreeOrderMeta{ReturnURL: s.ReturnURL},
		OrderNote: "SoundRise Phonics enrollment",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order payload: %v", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", s.BaseURL+"/orders", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create order request: %v", err)
	}
	s.setAuthHeaders(httpReq)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send order request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		log.Printf("Cashfree API error: %s", string(respBody))
		return nil, fmt.Errorf("cashfree orders API returned status %d", resp.StatusCode)
	}

	var order cashfreeOrder
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("failed to decode order response: %v", err)
	}
	if order.PaymentSessionID == "" {
		return nil, errors.New("cashfree order response missing payment session id")
	}

	return &OrderSession{
		Provider:         s.Name(),
		OrderID:          order.OrderID,
		AppID:            s.AppID,
		PaymentSessionID: order.PaymentSessionID,
	}, nil
}

// VerifyCallback for Cashfree has no client-side signature to check; the
// redirect only proves the customer came back. The order-status API is the
// source of truth.
func (s *CashfreeService) VerifyCallback(ctx context.Context, orderID string, cb CallbackData) (Status, error) {
	return s.CheckStatus(ctx, orderID)
}

func (s *CashfreeService) CheckStatus(ctx context.Context, orderID string) (Status, error) {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/orders/%s", s.BaseURL, orderID), nil)
	if err != nil {
		return StatusPending, fmt.Errorf("failed to create status request: %v", err)
	}
	s.setAuthHeaders(httpReq)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return StatusPending, fmt.Errorf("failed to fetch order status: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return StatusPending, fmt.Errorf("cashfree order status API returned status %d", resp.StatusCode)
	}

	var order cashfreeOrder
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return StatusPending, fmt.Errorf("failed to decode order status response: %v", err)
	}

	return MapCashfreeOrderStatus(order.OrderStatus), nil
}

func MapCashfreeOrderStatus(status string) Status {
	switch status {
	case "PAID":
		return StatusPaid
	case "ACTIVE":
		return StatusPending
	case "EXPIRED", "TERMINATED", "FAILED":
		return StatusFailed
	default:
		return StatusFailed
	}
}

func (s *CashfreeService) setAuthHeaders(req *http.Request) {
	req.Header.Set("x-client-id", s.AppID)
	req.Header.Set("x-client-secret", s.SecretKey)
	req.Header.Set("x-api-version", cashfreeAPIVersion)
}
