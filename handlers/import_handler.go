package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// ImportCarrierReport ingests an uploaded xlsx carrier report. The form
// fields operadora and quinzena tag every imported row.
func ImportCarrierReport(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("arquivo")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing report file: " + err.Error(),
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "could not open upload: " + err.Error(),
		})
	}
	defer file.Close()

	result, err := importService().ImportCarrierReport(
		c.Context(),
		fileHeader.Filename,
		file,
		c.FormValue("operadora"),
		c.FormValue("quinzena"),
	)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": result})
}

// RemoveImport deletes an imported batch, demoting any reconciled links onto
// its rows.
func RemoveImport(c *fiber.Ctx) error {
	batchID := c.Params("batch")

	removed, err := importService().RemoveImport(c.Context(), batchID, actorFromCtx(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "import removed",
		"removed": removed,
	})
}
