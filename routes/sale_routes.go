package routes

import (
	"github.com/gofiber/fiber/v2"

	"conciliacao/handlers"
)

func RegisterSaleRoutes(api fiber.Router) {
	sales := api.Group("/vendas")

	sales.Post("/", handlers.CreateSale)
	sales.Get("/", handlers.ListSales)
	sales.Get("/:id/historico", handlers.GetAuditTrail)
	sales.Patch("/:id/status", handlers.ChangeInternalStatus)
	sales.Patch("/:id/status-operadora", handlers.ChangeCarrierStatus)
	sales.Patch("/:id/campo", handlers.EditSaleField)
	sales.Patch("/:id/valor", handlers.ChangeSaleValue)
	sales.Post("/:id/confirmar", handlers.ConfirmSale)
	sales.Post("/:id/estornar", handlers.ReverseSale)
	sales.Post("/:id/reabrir-contestacao", handlers.ReopenDispute)
}
