package routes

import (
	"github.com/gofiber/fiber/v2"

	"conciliacao/handlers"
)

func RegisterPeriodRoutes(api fiber.Router) {
	periods := api.Group("/periodos")

	periods.Get("/resolver", handlers.ResolvePeriod)
	periods.Get("/comissao", handlers.ResolveCommissionPeriod)
}
