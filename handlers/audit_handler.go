package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"conciliacao/utils"
)

// GetAuditTrail returns one page of a sale's audit trail, most recent first.
// Each entry carries display-rendered before/after values alongside the raw
// serialized form.
func GetAuditTrail(c *fiber.Ctx) error {
	saleID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid sale id",
		})
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "20"))

	result, err := auditService().Query(c.Context(), uint(saleID), page, pageSize)
	if err != nil {
		return respondError(c, err)
	}

	rendered := make([]fiber.Map, 0, len(result.Items))
	for _, entry := range result.Items {
		rendered = append(rendered, fiber.Map{
			"entry":          entry,
			"valor_anterior": utils.RenderAuditValue(entry.PriorValue),
			"valor_novo":     utils.RenderAuditValue(entry.NewValue),
		})
	}

	return c.JSON(fiber.Map{
		"total": result.Total,
		"page":  page,
		"size":  pageSize,
		"data":  rendered,
	})
}
