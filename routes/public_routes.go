package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/soundrise/phonics_coach/handlers"
)

func PublicRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	api.Get("/courses", handlers.ListCourses)
	api.Get("/testimonials", handlers.ListTestimonials)
	api.Get("/instructors", handlers.ListInstructors)
	api.Get("/coupons/preview", handlers.PreviewCoupon)
}
