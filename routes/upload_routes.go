package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/soundrise/phonics_coach/handlers"
	"github.com/soundrise/phonics_coach/middleware"
)

func UploadRoutes(app *fiber.App) {
	api := app.Group("/api/v1", middleware.Protected(), middleware.AdminRequired())

	uploads := api.Group("/uploads")
	uploads.Get("/signature", handlers.GenerateUploadSignature)
}
