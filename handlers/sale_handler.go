package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"conciliacao/models"
	"conciliacao/services"
)

// CreateSale registers a new internal sale for a seller.
func CreateSale(c *fiber.Ctx) error {
	var input services.SaleInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body: " + err.Error(),
		})
	}
	if err := validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	sale, err := saleService().CreateSale(c.Context(), input)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": sale})
}

// ListSales returns a filtered, paginated listing. The periodo query
// parameter scopes sale dates through the period calculator.
func ListSales(c *fiber.Ctx) error {
	var query models.SaleRecordQuery
	if err := c.QueryParser(&query); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid query parameters: " + err.Error(),
		})
	}

	result, err := saleService().ListSales(c.Context(), query, time.Now())
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"total": result.Total,
		"page":  query.Page,
		"size":  query.PageSize,
		"data":  result.Items,
	})
}

func saleIDParam(c *fiber.Ctx) (uint, error) {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return 0, services.NewValidationError("invalid sale id")
	}
	return uint(id), nil
}

// ChangeInternalStatus applies a state-machine transition to a sale.
func ChangeInternalStatus(c *fiber.Ctx) error {
	saleID, err := saleIDParam(c)
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		Status models.InternalStatus `json:"status_interno" validate:"required"`
	}
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

	sale, err := saleService().ChangeInternalStatus(c.Context(), saleID, req.Status, actorFromCtx(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": sale})
}

// ConfirmSale confirms an awaiting sale.
func ConfirmSale(c *fiber.Ctx) error {
	saleID, err := saleIDParam(c)
	if err != nil {
		return respondError(c, err)
	}

	sale, err := saleService().ConfirmSale(c.Context(), saleID, actorFromCtx(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": sale})
}

// ReverseSale applies an estorno to a confirmed sale.
func ReverseSale(c *fiber.Ctx) error {
	saleID, err := saleIDParam(c)
	if err != nil {
		return respondError(c, err)
	}

	sale, err := saleService().ReverseSale(c.Context(), saleID, actorFromCtx(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": sale})
}

// ReopenDispute reopens a settled dispute.
func ReopenDispute(c *fiber.Ctx) error {
	saleID, err := saleIDParam(c)
	if err != nil {
		return respondError(c, err)
	}

	sale, err := saleService().ReopenDispute(c.Context(), saleID, actorFromCtx(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": sale})
}

// ChangeCarrierStatus updates the carrier-reported status of a line,
// audited against the sale in the path.
func ChangeCarrierStatus(c *fiber.Ctx) error {
	saleID, err := saleIDParam(c)
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		CarrierID uint                 `json:"linha_id" validate:"required"`
		Status    models.CarrierStatus `json:"status_operadora" validate:"required"`
	}
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

	carrier, err := saleService().ChangeCarrierStatus(c.Context(), saleID, req.CarrierID, req.Status, actorFromCtx(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": carrier})
}

// EditSaleField applies a whitelisted field-level edit.
func EditSaleField(c *fiber.Ctx) error {
	saleID, err := saleIDParam(c)
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		Field string `json:"campo" validate:"required"`
		Value string `json:"valor"`
	}
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

	sale, err := saleService().EditField(c.Context(), saleID, req.Field, req.Value, actorFromCtx(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": sale})
}

// ChangeSaleValue updates the monetary value of a sale.
func ChangeSaleValue(c *fiber.Ctx) error {
	saleID, err := saleIDParam(c)
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		Value decimal.Decimal `json:"valor"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body: " + err.Error(),
		})
	}

	sale, err := saleService().ChangeValue(c.Context(), saleID, req.Value, actorFromCtx(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": sale})
}
