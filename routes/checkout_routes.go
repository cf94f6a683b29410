package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/soundrise/phonics_coach/handlers"
	"github.com/soundrise/phonics_coach/middleware"
)

func CheckoutRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	checkout := api.Group("/checkout")
	checkout.Post("/begin", middleware.Protected(), handlers.BeginCheckout)

	// Everything after begin is keyed on the reference number, not the JWT:
	// the student may land back here in a fresh tab after a gateway redirect,
	// or confirm from a session that lost its token on reload.
	checkout.Post("/confirm", handlers.ConfirmPayment)
	checkout.Get("/callback", handlers.GatewayCallback)
	checkout.Get("/status", handlers.CheckPaymentStatus)
	checkout.Post("/resume", handlers.ResumeCheckout)
	checkout.Post("/cancel", handlers.CancelCheckout)
	checkout.Post("/client-error", handlers.ReportClientError)

	api.Post("/payments/webhook", handlers.HandlePaymentWebhook)
}
