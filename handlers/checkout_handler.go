package handlers

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/soundrise/phonics_coach/checkout"
	config "github.com/soundrise/phonics_coach/configs"
	"github.com/soundrise/phonics_coach/database"
	"github.com/soundrise/phonics_coach/models"
	"github.com/soundrise/phonics_coach/payments"
	"github.com/soundrise/phonics_coach/services"
)

// Checkout is wired in main with the production store, session store and
// provider registry.
var Checkout *checkout.Orchestrator

func InitCheckout(orc *checkout.Orchestrator) {
	Checkout = orc
}

type BeginCheckoutRequest struct {
	FullName   string `json:"full_name" validate:"required,min=3"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"required,min=10,max=15"`
	Country    string `json:"country" validate:"required"`
	State      string `json:"state" validate:"required"`
	City       string `json:"city" validate:"required"`
	CouponCode string `json:"coupon_code,omitempty"`
	CourseID   string `json:"course_id" validate:"required,uuid"`
	Provider   string `json:"provider" validate:"required,oneof=razorpay cashfree"`
}

// BeginCheckout validates the enrollment form, records the registration with
// its pending payment and returns the gateway hand-off session. Validation
// failures never reach the network.
func BeginCheckout(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	userID, _ := uuid.Parse(claims["user_id"].(string))

	var req BeginCheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var course models.Course
	if err := database.DB.First(&course, "id = ? AND is_active = ?", uuid.MustParse(req.CourseID), true).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Active course not found"})
	}

	// The charged amount is computed here, never taken from the client.
	coupon := services.LookupCoupon(req.CouponCode)
	total, discount := services.ApplyCoupon(course.Price, coupon)

	registration := models.Registration{
		UserID:   &userID,
		CourseID: course.ID,
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Country:  req.Country,
		State:    req.State,
		City:     req.City,
	}
	if coupon != nil {
		registration.CouponCode = &coupon.Code
	}

	payment := models.Payment{
		ReferenceID:    uuid.New().String(),
		Provider:       req.Provider,
		Amount:         total,
		DiscountAmount: discount,
		Currency:       course.Currency,
		Retriable:      true,
	}

	session, err := Checkout.Begin(c.UserContext(), &registration, &payment)
	if err != nil {
		log.Printf("🔥 Checkout begin failed for %s: %v", req.Email, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success":      false,
			"error":        "Payment could not be initiated, please try again.",
			"reference_id": payment.ReferenceID,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":            true,
		"reference_id":       payment.ReferenceID,
		"provider":           session.Provider,
		"order_id":           session.OrderID,
		"razorpay_key":       session.KeyID,
		"app_id":             session.AppID,
		"payment_session_id": session.PaymentSessionID,
		"amount":             payment.Amount,
		"currency":           payment.Currency,
	})
}

type ConfirmPaymentRequest struct {
	ReferenceID       string `json:"reference_id" validate:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id,omitempty"`
	RazorpayOrderID   string `json:"razorpay_order_id,omitempty"`
	RazorpaySignature string `json:"razorpay_signature,omitempty"`
	TransactionID     string `json:"transaction_id,omitempty"`
}

// ConfirmPayment is the modal-callback path: the Razorpay SDK hands the
// signature triple to the frontend, which posts it here for server-side
// verification. Safe to replay.
func ConfirmPayment(c *fiber.Ctx) error {
	var req ConfirmPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	result, err := Checkout.HandleCallback(c.UserContext(), req.ReferenceID, payments.CallbackData{
		ReferenceID:       req.ReferenceID,
		RazorpayPaymentID: req.RazorpayPaymentID,
		RazorpayOrderID:   req.RazorpayOrderID,
		RazorpaySignature: req.RazorpaySignature,
		TransactionID:     req.TransactionID,
	})
	if err != nil {
		log.Printf("🔥 Payment confirmation failed for %s: %v", req.ReferenceID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "server_error"})
	}

	return c.JSON(fiber.Map{
		"success":      result.State == checkout.StatePaid,
		"state":        result.State,
		"error":        result.Reason,
		"retriable":    result.Retriable,
		"reference_id": result.ReferenceID,
	})
}

// GatewayCallback is the redirect path: Cashfree sends the browser back here
// with the order id substituted into the query string. A literal
// "{order_id}" placeholder means the substitution failed and is treated as
// an invalid callback, never as an order identifier.
func GatewayCallback(c *fiber.Ctx) error {
	referenceID := c.Query("order_id")
	if referenceID == "" {
		referenceID = c.Query("reference_id")
	}

	frontendURL := config.Config("FRONTEND_URL")

	if !checkout.IsValidReference(referenceID) {
		return c.Redirect(fmt.Sprintf("%s/payment-failed?reason=%s", frontendURL, checkout.ReasonMissingReference), fiber.StatusFound)
	}

	result, err := Checkout.HandleCallback(c.UserContext(), referenceID, payments.CallbackData{
		ReferenceID:   referenceID,
		TransactionID: c.Query("cf_payment_id"),
	})
	if err != nil {
		log.Printf("🔥 Gateway callback handling failed for %s: %v", referenceID, err)
		return c.Redirect(fmt.Sprintf("%s/payment-failed?reason=%s&reference_id=%s", frontendURL, checkout.ReasonServerError, referenceID), fiber.StatusFound)
	}

	switch result.State {
	case checkout.StatePaid:
		return c.Redirect(fmt.Sprintf("%s/payment-success?reference_id=%s", frontendURL, result.ReferenceID), fiber.StatusFound)
	case checkout.StateVerifying:
		return c.Redirect(fmt.Sprintf("%s/payment-pending?reference_id=%s", frontendURL, result.ReferenceID), fiber.StatusFound)
	default:
		return c.Redirect(fmt.Sprintf("%s/payment-failed?reason=%s&reference_id=%s", frontendURL, result.Reason, result.ReferenceID), fiber.StatusFound)
	}
}

type cashfreeWebhookPayload struct {
	Type string `json:"type"`
	Data struct {
		Order struct {
			OrderID string `json:"order_id"`
		} `json:"order"`
		Payment struct {
			CfPaymentID   string `json:"cf_payment_id"`
			PaymentStatus string `json:"payment_status"`
		} `json:"payment"`
	} `json:"data"`
}

// HandlePaymentWebhook is Cashfree's server-to-server notification. Like the
// redirect path it only triggers re-verification against the order-status
// API; the webhook body itself is never trusted as proof of payment.
func HandlePaymentWebhook(c *fiber.Ctx) error {
	var payload cashfreeWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse webhook payload"})
	}

	referenceID := payload.Data.Order.OrderID
	log.Printf("Received webhook type %s for reference %s, status %s",
		payload.Type, referenceID, payload.Data.Payment.PaymentStatus)

	result, err := Checkout.HandleCallback(c.UserContext(), referenceID, payments.CallbackData{
		ReferenceID:   referenceID,
		TransactionID: payload.Data.Payment.CfPaymentID,
	})
	if err != nil {
		log.Printf("🔥 CRITICAL: Error processing webhook for reference %s: %v", referenceID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process webhook"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Webhook processed", "state": result.State})
}

// CheckPaymentStatus serves polling clients. Accepts a reference id or a
// provider order id.
func CheckPaymentStatus(c *fiber.Ctx) error {
	referenceID := c.Query("reference_id")

	if referenceID == "" {
		orderID := c.Query("orderId")
		if orderID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "reference_id or orderId is required"})
		}
		var payment models.Payment
		if err := database.DB.Where("provider_order_id = ?", orderID).First(&payment).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "error": "Payment not found"})
		}
		referenceID = payment.ReferenceID
	}

	result, err := Checkout.Status(c.UserContext(), referenceID)
	if err != nil {
		if err == checkout.ErrNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "error": "Payment not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "Database error"})
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"orderStatus":  result.State,
		"reason":       result.Reason,
		"retriable":    result.Retriable,
		"reference_id": result.ReferenceID,
	})
}

// ResumeCheckout backs recovery after a full-page gateway redirect: the
// frontend finds the stored reference on load and asks where to pick up.
// An unresolved reference re-enters verification instead of the form.
func ResumeCheckout(c *fiber.Ctx) error {
	referenceID := c.Query("reference_id")

	result, err := Checkout.Resume(c.UserContext(), referenceID)
	if err != nil {
		log.Printf("🔥 Checkout resume failed for %s: %v", referenceID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "server_error"})
	}

	return c.JSON(fiber.Map{
		"success":      result.State == checkout.StatePaid,
		"state":        result.State,
		"reason":       result.Reason,
		"retriable":    result.Retriable,
		"reference_id": result.ReferenceID,
	})
}

type CancelCheckoutRequest struct {
	ReferenceID string `json:"reference_id" validate:"required"`
}

// CancelCheckout records a user-dismissed gateway modal. The attempt becomes
// a retriable failure immediately; the reference stays usable for a fresh
// try.
func CancelCheckout(c *fiber.Ctx) error {
	var req CancelCheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	result, err := Checkout.Cancel(c.UserContext(), req.ReferenceID)
	if err != nil {
		if err == checkout.ErrNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to cancel checkout"})
	}

	return c.JSON(fiber.Map{
		"state":        result.State,
		"retriable":    result.Retriable,
		"reference_id": result.ReferenceID,
	})
}

type ClientErrorReport struct {
	ReferenceID string `json:"reference_id,omitempty"`
	Step        string `json:"step" validate:"required"`
	Message     string `json:"message" validate:"required"`
	UserEmail   string `json:"user_email,omitempty"`
}

// ReportClientError ingests frontend error reports for manual
// reconciliation. It always acknowledges; a failed insert must never block
// the user-facing failure transition.
func ReportClientError(c *fiber.Ctx) error {
	var req ClientErrorReport
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	event := models.CheckoutEvent{
		ReferenceID: req.ReferenceID,
		Kind:        "client_error",
		Step:        req.Step,
		Detail:      &req.Message,
	}
	if req.UserEmail != "" {
		event.UserEmail = &req.UserEmail
	}

	if err := database.DB.Create(&event).Error; err != nil {
		log.Printf("Failed to record client error report: %v", err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"message": "Report received"})
}
