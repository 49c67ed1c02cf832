package main

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prismlearn/mentor_platform/database"
	"github.com/prismlearn/mentor_platform/handlers"
	"github.com/prismlearn/mentor_platform/jobs"
	"github.com/prismlearn/mentor_platform/notifications"
	"github.com/prismlearn/mentor_platform/routes"
	"github.com/prismlearn/mentor_platform/services"
	"github.com/prismlearn/mentor_platform/websocket"
	"github.com/robfig/cron/v3"
)

func main() {
	database.ConnectDB()
	database.Migrate()
	database.SeedAdmin()

	hub := websocket.NewHub()

	notificationService := services.NewNotificationService(database.DB, hub)
	ratingService := services.NewRatingService()
	reminderService := services.NewReminderService(database.DB, notificationService)
	availabilityService := services.NewAvailabilityService(database.DB)
	bookingService := services.NewBookingService(database.DB, notificationService, ratingService, reminderService, notifications.NoopMailer{})

	c := cron.New()
	c.AddFunc("* * * * *", func() { jobs.SendSessionReminders(reminderService) })
	go c.Start()
	log.Println("✅ Cron job for session reminders scheduled successfully.")

	app := fiber.New(fiber.Config{
		Prefork:           false,
		AppName:           "Prism Mentorship",
		CaseSensitive:     true,
		StrictRouting:     true,
		EnablePrintRoutes: true,
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
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "success",
			"message": "Prism API is running!",
		})
	})

	routes.BookingRoutes(app, handlers.NewBookingHandler(bookingService))
	routes.MentorRoutes(app, handlers.NewMentorHandler(availabilityService))
	routes.NotificationRoutes(app, handlers.NewNotificationHandler(notificationService))
	routes.RealtimeRoutes(app, handlers.NewRealtimeHandler(hub, bookingService))

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
