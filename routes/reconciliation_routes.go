package routes

import (
	"github.com/gofiber/fiber/v2"

	"conciliacao/handlers"
)

func RegisterReconciliationRoutes(api fiber.Router) {
	recon := api.Group("/conciliacao")

	recon.Get("/candidatos", handlers.SearchCandidates)
	recon.Post("/vinculos", handlers.CreateManualLink)
	recon.Post("/vinculos/lote", handlers.ReconcileBatch)
	recon.Delete("/vinculos/:id", handlers.RemoveLink)
}
