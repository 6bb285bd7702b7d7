package config

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
)

// GetPort reads the listen port from the environment, defaulting to 8080.
func GetPort() string {
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}
	return port
}

// StartServer listens on the configured port and shuts down gracefully on
// SIGINT/SIGTERM so in-flight reconciliation requests can finish.
func StartServer(app *fiber.App) {
	port := GetPort()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(fmt.Sprintf(":%s", port)); err != nil {
			log.Fatalf("server failed to start: %v", err)
		}
	}()

	log.Printf("server listening on port %s", port)

	<-sigChan
	log.Println("shutdown signal received, draining...")

	if err := app.Shutdown(); err != nil {
		log.Printf("error during shutdown: %v", err)
	}

	log.Println("server stopped")
}
