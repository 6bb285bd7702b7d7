// Package handlers exposes the reconciliation core over HTTP. Handlers
// parse and validate input, call the service layer and map error kinds to
// status codes; they hold no business logic of their own.
package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"conciliacao/database"
	"conciliacao/models"
	"conciliacao/services"
)

var validate = validator.New()

func auditService() *services.AuditService {
	return services.NewAuditService(database.GetDB())
}

func reconciliationService() *services.ReconciliationService {
	return services.NewReconciliationService(database.GetDB(), auditService())
}

func saleService() *services.SaleService {
	return services.NewSaleService(database.GetDB(), auditService())
}

func importService() *services.ImportService {
	return services.NewImportService(database.GetDB(), auditService())
}

// actorFromCtx rebuilds the acting identity placed in locals by the auth
// middleware.
func actorFromCtx(c *fiber.Ctx) services.Actor {
	actor := services.Actor{Origin: models.AuditOriginAPI}

	if id, ok := c.Locals("user_id").(uint); ok {
		actor.ID = &id
	}
	if name, ok := c.Locals("user_name").(string); ok && name != "" {
		actor.Name = &name
	}
	if origin, ok := c.Locals("origin").(models.AuditOrigin); ok {
		actor.Origin = origin
	}
	return actor
}

// respondError maps service error kinds to HTTP statuses: validation 400,
// conflict 409, anything else 500 with the store diagnostic.
func respondError(c *fiber.Ctx, err error) error {
	var ve *services.ValidationError
	if errors.As(err, &ve) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": ve.Msg,
		})
	}

	var ce *services.ConflictError
	if errors.As(err, &ce) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":    ce.Msg,
			"conflict": true,
		})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": err.Error(),
	})
}
