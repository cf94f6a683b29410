package routes

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/soundrise/phonics_coach/handlers"
	"github.com/soundrise/phonics_coach/middleware"
)

func AdminRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	admin := api.Group("/admin", middleware.Protected(), middleware.AdminRequired())

	admin.Get("/dashboard-analytics", handlers.GetDashboardAnalytics)

	users := admin.Group("/users")
	users.Get("", handlers.GetAllUsers)
	users.Put("/:userId/status", handlers.ToggleUserStatus)
	users.Delete("/:userId", handlers.AdminDeleteUser)

	admin.Get("/payments", handlers.AdminGetPayments)
	admin.Get("/registrations", handlers.AdminGetRegistrations)
	admin.Get("/checkouts/:referenceId/timeline", handlers.AdminGetCheckoutTimeline)

	reports := admin.Group("/reports")
	reports.Get("/transactions", handlers.GenerateTransactionReport)

	courses := admin.Group("/courses")
	courses.Post("", handlers.AdminCreateCourse)
	courses.Put("/:courseId", handlers.AdminUpdateCourse)
	courses.Put("/:courseId/status", handlers.AdminToggleCourse)

	coupons := admin.Group("/coupons")
	coupons.Get("", handlers.AdminListCoupons)
	coupons.Post("", handlers.AdminCreateCoupon)
	coupons.Put("/:couponId/status", handlers.AdminToggleCoupon)

	testimonials := admin.Group("/testimonials")
	testimonials.Post("", handlers.AdminCreateTestimonial)
	testimonials.Delete("/:testimonialId", handlers.AdminDeleteTestimonial)

	instructors := admin.Group("/instructors")
	instructors.Post("", handlers.AdminCreateInstructor)
	instructors.Put("/:instructorId", handlers.AdminUpdateInstructor)
	instructors.Delete("/:instructorId", handlers.AdminDeleteInstructor)

	// The live feed authenticates via query token inside WebsocketUpgrade, so
	// it sits outside the JWT-header middleware chain.
	api.Get("/admin/live-events", handlers.WebsocketUpgrade, websocket.New(handlers.LiveEvents))
}
