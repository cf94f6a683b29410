package main

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"
	"github.com/soundrise/phonics_coach/checkout"
	"github.com/soundrise/phonics_coach/database"
	"github.com/soundrise/phonics_coach/handlers"
	"github.com/soundrise/phonics_coach/jobs"
	"github.com/soundrise/phonics_coach/notifications"
	"github.com/soundrise/phonics_coach/payments"
	"github.com/soundrise/phonics_coach/routes"
	"github.com/soundrise/phonics_coach/services"
	"github.com/soundrise/phonics_coach/websocket"
)

func main() {
	database.ConnectDB()
	database.Migrate()
	database.SeedAdmin()
	database.ConnectRedis()
	notifications.InitEmailService()

	providers := payments.Registry{
		"razorpay": payments.NewRazorpayService(),
		"cashfree": payments.NewCashfreeService(),
	}

	store := checkout.NewGormStore(database.DB)
	sessions := checkout.NewRedisSessionStore(database.Redis)
	orchestrator := checkout.NewOrchestrator(store, sessions, providers, services.CheckoutNotifier{})

	handlers.InitCheckout(orchestrator)
	jobs.Init(orchestrator, store)

	c := cron.New()
	c.AddFunc("*/5 * * * *", jobs.ReconcileStuckCheckouts)
	c.AddFunc("30 * * * *", jobs.ExpireAbandonedCheckouts)
	go c.Start()
	log.Println("✅ Cron jobs for payment reconciliation scheduled successfully.")

	app := fiber.New(fiber.Config{
		Prefork:           false,
		AppName:           "SoundRise Phonics",
		CaseSensitive:     true,
		StrictRouting:     true,
		EnablePrintRoutes: true,
		PassLocalsToViews: true,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			log.Printf("[ERROR] %v | Path: %s | Method: %s", err, c.Path(), c.Method())
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"code":    code,
				"message": err.Error(),
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Authorization",
		MaxAge:        86400,
	}))

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Asia/Kolkata",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "success",
			"message": "Welcome to SoundRise Phonics API",
		})
	})

	routes.PublicRoutes(app)
	routes.AuthRoutes(app)
	routes.CheckoutRoutes(app)
	routes.AdminRoutes(app)
	routes.UploadRoutes(app)

	go websocket.RunHub()

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})

	log.Println("✅ Server is running on port 8080")
	err := app.Listen(":8080")
	if err != nil {
		log.Fatalf("🔥 Server failed to start: %v", err)
	}
}
