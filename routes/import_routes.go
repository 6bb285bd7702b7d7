package routes

import (
	"github.com/gofiber/fiber/v2"

	"conciliacao/handlers"
)

func RegisterImportRoutes(api fiber.Router) {
	imports := api.Group("/importacoes")

	imports.Post("/", handlers.ImportCarrierReport)
	imports.Delete("/:batch", handlers.RemoveImport)
}
