package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"conciliacao/models"
	"conciliacao/services"
)

// SearchCandidates looks up reconciliation candidates of the opposite record
// type for the given anchor.
func SearchCandidates(c *fiber.Ctx) error {
	anchorType := c.Query("tipo")
	anchorID, _ := strconv.Atoi(c.Query("id"))
	query := c.Query("busca")

	candidates, err := reconciliationService().SearchCandidates(c.Context(), anchorType, uint(anchorID), query)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"total": len(candidates),
		"data":  candidates,
	})
}

// CreateLinkRequest is the body of a manual link creation.
type CreateLinkRequest struct {
	SaleID    uint   `json:"venda_id" validate:"required"`
	CarrierID uint   `json:"linha_id" validate:"required"`
	Note      string `json:"observacao"`
}

// CreateManualLink links one sale to one carrier line. A 409 means the pair
// (or one of its ends) is already reconciled.
func CreateManualLink(c *fiber.Ctx) error {
	var req CreateLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body: " + err.Error(),
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	link, err := reconciliationService().CreateManualLink(c.Context(), req.SaleID, req.CarrierID, actorFromCtx(c), req.Note)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": link})
}

// ReconcileBatchRequest is the body of a batch reconcile call.
type ReconcileBatchRequest struct {
	Pairs []services.LinkPair `json:"pares" validate:"required,min=1,dive"`
}

// ReconcileBatch applies manual-link semantics to each pair, skipping
// conflicting pairs, and reports a per-pair outcome.
func ReconcileBatch(c *fiber.Ctx) error {
	var req ReconcileBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body: " + err.Error(),
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	results, err := reconciliationService().ReconcileBatch(c.Context(), req.Pairs, actorFromCtx(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"total": len(results),
		"data":  results,
	})
}

// RemoveLink demotes a reconciled link. The optional body field status_final
// selects the target status (divergente by default, nao_encontrada accepted).
func RemoveLink(c *fiber.Ctx) error {
	linkID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid link id",
		})
	}

	var req struct {
		FinalStatus models.LinkFinalStatus `json:"status_final"`
	}
	// The body is optional; an empty status falls back to divergente.
	_ = c.BodyParser(&req)

	if err := reconciliationService().RemoveLink(c.Context(), uint(linkID), actorFromCtx(c), req.FinalStatus); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "link removed"})
}
