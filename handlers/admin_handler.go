package handlers

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	config "github.com/soundrise/phonics_coach/configs"
	"github.com/soundrise/phonics_coach/database"
	"github.com/soundrise/phonics_coach/models"
	ws "github.com/soundrise/phonics_coach/websocket"
)

func GetAllUsers(c *fiber.Ctx) error {
	var users []models.User
	database.DB.Order("created_at desc").Find(&users)
	return c.JSON(users)
}

func ToggleUserStatus(c *fiber.Ctx) error {
	userID := c.Params("userId")
	type Request struct {
		IsActive bool `json:"is_active"`
	}
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	result := database.DB.Model(&models.User{}).Where("id = ?", userID).Update("is_active", req.IsActive)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update user status"})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	return c.JSON(fiber.Map{"message": "User status updated successfully."})
}

func AdminDeleteUser(c *fiber.Ctx) error {
	userID := c.Params("userId")

	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	if claims["user_id"].(string) == userID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Admins cannot delete their own account"})
	}

	result := database.DB.Delete(&models.User{}, "id = ?", userID)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete user"})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func GetDashboardAnalytics(c *fiber.Ctx) error {
	var totalUsers int64
	var totalEnrollments int64
	var paidPayments int64
	var failedPayments int64
	var awaitingReview int64
	var totalRevenue float64

	database.DB.Model(&models.User{}).Count(&totalUsers)
	database.DB.Model(&models.Registration{}).Where("status = ?", "enrolled").Count(&totalEnrollments)
	database.DB.Model(&models.Payment{}).Where("status = ?", "paid").Count(&paidPayments)
	database.DB.Model(&models.Payment{}).Where("status = ?", "failed").Count(&failedPayments)
	database.DB.Model(&models.Payment{}).Where("status = ? AND failure_reason = ?", "failed", "incomplete").Count(&awaitingReview)
	database.DB.Model(&models.Payment{}).Where("status = ?", "paid").Select("COALESCE(SUM(amount), 0)").Row().Scan(&totalRevenue)

	sevenDaysAgo := time.Now().AddDate(0, 0, -7)
	var recentRevenue float64
	database.DB.Model(&models.Payment{}).Where("status = ? AND updated_at > ?", "paid", sevenDaysAgo).Select("COALESCE(SUM(amount), 0)").Row().Scan(&recentRevenue)

	return c.JSON(fiber.Map{
		"total_users":       totalUsers,
		"total_enrollments": totalEnrollments,
		"paid_payments":     paidPayments,
		"failed_payments":   failedPayments,
		"awaiting_review":   awaitingReview,
		"total_revenue":     totalRevenue,
		"revenue_last_7d":   recentRevenue,
	})
}

// AdminGetPayments lists payments with optional status/provider/reason
// filters. The incomplete-reason filter is the support team's worklist: money
// may have moved without a confirmed order.
func AdminGetPayments(c *fiber.Ctx) error {
	query := database.DB.Model(&models.Payment{}).Preload("Registration")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if provider := c.Query("provider"); provider != "" {
		query = query.Where("provider = ?", provider)
	}
	if reason := c.Query("reason"); reason != "" {
		query = query.Where("failure_reason = ?", reason)
	}

	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	var total int64
	query.Count(&total)

	var payments []models.Payment
	query.Order("created_at desc").Limit(limit).Offset(offset).Find(&payments)

	return c.JSON(fiber.Map{"total": total, "payments": payments})
}

func AdminGetRegistrations(c *fiber.Ctx) error {
	query := database.DB.Model(&models.Registration{}).Preload("Course")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var registrations []models.Registration
	query.Order("created_at desc").Find(&registrations)
	return c.JSON(registrations)
}

// AdminGetCheckoutTimeline returns the full event trail for one reference,
// including client-reported errors. This is the first thing support pulls up
// when a student quotes a reference number.
func AdminGetCheckoutTimeline(c *fiber.Ctx) error {
	referenceID := c.Params("referenceId")

	var payment models.Payment
	if err := database.DB.Preload("Registration").First(&payment, "reference_id = ?", referenceID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment not found"})
	}

	var events []models.CheckoutEvent
	database.DB.Where("reference_id = ?", referenceID).Order("created_at asc").Find(&events)

	return c.JSON(fiber.Map{"payment": payment, "events": events})
}

func GenerateTransactionReport(c *fiber.Ctx) error {
	fromStr := c.Query("from")
	toStr := c.Query("to")

	query := database.DB.Model(&models.Payment{}).Preload("Registration")
	if fromStr != "" {
		from, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid 'from' date, expected YYYY-MM-DD"})
		}
		query = query.Where("created_at >= ?", from)
	}
	if toStr != "" {
		to, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid 'to' date, expected YYYY-MM-DD"})
		}
		query = query.Where("created_at < ?", to.AddDate(0, 0, 1))
	}

	var payments []models.Payment
	if err := query.Order("created_at asc").Find(&payments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load payments"})
	}

	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=transactions_%s.csv", time.Now().Format("20060102")))

	writer := csv.NewWriter(c.Response().BodyWriter())
	writer.Write([]string{"reference_id", "created_at", "provider", "status", "failure_reason", "amount", "discount", "currency", "student_name", "student_email"})

	for _, p := range payments {
		reason := ""
		if p.FailureReason != nil {
			reason = *p.FailureReason
		}
		writer.Write([]string{
			p.ReferenceID,
			p.CreatedAt.Format(time.RFC3339),
			p.Provider,
			p.Status,
			reason,
			strconv.FormatFloat(p.Amount, 'f', 2, 64),
			strconv.FormatFloat(p.DiscountAmount, 'f', 2, 64),
			p.Currency,
			p.Registration.FullName,
			p.Registration.Email,
		})
	}
	writer.Flush()

	return nil
}

// WebsocketUpgrade gates the live feed endpoint. Browsers cannot set an
// Authorization header on a websocket handshake, so the JWT rides in the
// token query parameter instead.
func WebsocketUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	tokenStr := c.Query("token")
	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing token"})
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(config.Config("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
	}

	claims := token.Claims.(jwt.MapClaims)
	if claims["role"].(string) != "admin" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden: Admin access required"})
	}

	userID, err := uuid.Parse(claims["user_id"].(string))
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token claims"})
	}

	c.Locals("admin_id", userID)
	return c.Next()
}

// LiveEvents streams checkout transitions and client error reports to the
// admin dashboard as they happen.
func LiveEvents(conn *websocket.Conn) {
	adminID := conn.Locals("admin_id").(uuid.UUID)

	client := &ws.Client{UserID: adminID, Conn: conn}
	ws.Register <- client
	defer func() {
		ws.Unregister <- client
		conn.Close()
	}()

	// Reads are discarded; the feed is one-way. The loop exists to detect
	// disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
