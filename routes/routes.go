// Package routes registers the HTTP surface of the reconciliation backend.
package routes

import (
	"github.com/gofiber/fiber/v2"

	"conciliacao/middleware"
)

// SetupRoutes wires every module under /api. All routes require an
// attributable actor.
func SetupRoutes(app *fiber.App) {
	api := app.Group("/api", middleware.ActorMiddleware())

	RegisterPeriodRoutes(api)
	RegisterSaleRoutes(api)
	RegisterReconciliationRoutes(api)
	RegisterImportRoutes(api)
}
