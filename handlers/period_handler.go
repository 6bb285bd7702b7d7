package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"conciliacao/services"
)

// ResolvePeriod computes the date window for a named preset. For the custom
// preset the caller supplies inicio/fim as YYYY-MM-DD.
func ResolvePeriod(c *fiber.Ctx) error {
	preset := services.PeriodPreset(c.Query("preset"))
	if preset == "" {
		preset = services.PeriodCurrentMonth
	}

	var custom *services.PeriodWindow
	if preset == services.PeriodCustom {
		loc := services.BusinessLocation()
		start, err := time.ParseInLocation("2006-01-02", c.Query("inicio"), loc)
		if err != nil {
			return respondError(c, services.NewValidationError("invalid inicio date: %s", c.Query("inicio")))
		}
		end, err := time.ParseInLocation("2006-01-02", c.Query("fim"), loc)
		if err != nil {
			return respondError(c, services.NewValidationError("invalid fim date: %s", c.Query("fim")))
		}
		custom = &services.PeriodWindow{Start: start, End: end}
	}

	window, err := services.ResolvePeriod(preset, time.Now(), custom)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"data": window})
}

// ResolveCommissionPeriod computes the payday-aware commission window.
func ResolveCommissionPeriod(c *fiber.Ctx) error {
	window := services.ResolveCommissionPeriod(time.Now())
	return c.JSON(fiber.Map{"data": window})
}
