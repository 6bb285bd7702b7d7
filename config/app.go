// Package config wires the application together: database bootstrap, the
// Fiber instance with its global middleware, and server lifecycle.
package config

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"conciliacao/database"
	"conciliacao/routes"
)

// InitApp prepares everything the HTTP layer depends on: the database
// connection and the schema migration.
func InitApp() {
	database.Init()
	database.Migrate()
	log.Println("application initialized")
}

// SetupApp builds the Fiber instance with global middleware and routes.
func SetupApp() *fiber.App {
	app := fiber.New(fiber.Config{
		CaseSensitive: true,
		StrictRouting: true,
		ServerHeader:  "Conciliacao",
		BodyLimit:     20 * 1024 * 1024, // carrier report uploads
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": true,
				"msg":   err.Error(),
			})
		},
		// Standard encoders keep UTF-8 payloads (customer names, notes) intact.
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		Immutable:    true,
		AppName:      "Conciliacao API",
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	})

	app.Use(logger.New(logger.Config{
		Format:     "${time} ${status} - ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(recover.New())

	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization,X-User-ID,X-User-Name",
		AllowCredentials: false,
		MaxAge:           int(12 * time.Hour.Seconds()),
	}))

	routes.SetupRoutes(app)

	return app
}
