package services

import "time"

// PeriodPreset names a date window that can be resolved against "now".
type PeriodPreset string

const (
	PeriodCurrentMonth  PeriodPreset = "current_month"
	PeriodPreviousMonth PeriodPreset = "previous_month"
	PeriodCommission    PeriodPreset = "commission"
	PeriodCustom        PeriodPreset = "custom"
)

// PeriodWindow is a closed calendar interval [Start, End], both at midnight
// in the business timezone. PaymentDate is set only for the commission preset.
type PeriodWindow struct {
	Start       time.Time  `json:"inicio"`
	End         time.Time  `json:"fim"`
	PaymentDate *time.Time `json:"data_pagamento,omitempty"`
}

// businessLocation is the fixed timezone all period arithmetic happens in,
// regardless of caller locale.
var businessLocation = loadBusinessLocation()

func loadBusinessLocation() *time.Location {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		return time.FixedZone("-03", -3*60*60)
	}
	return loc
}

// BusinessLocation exposes the fixed business timezone for callers that
// parse user-supplied dates.
func BusinessLocation() *time.Location {
	return businessLocation
}

// monthWindow returns the first and last calendar day of the given month.
// Day 0 of the following month normalizes to the last day of this one.
func monthWindow(year int, month time.Month) PeriodWindow {
	start := time.Date(year, month, 1, 0, 0, 0, 0, businessLocation)
	end := time.Date(year, month+1, 0, 0, 0, 0, 0, businessLocation)
	return PeriodWindow{Start: start, End: end}
}

// ResolvePeriod derives the window for a named preset evaluated at now.
// The custom preset passes the caller-supplied window through untouched.
func ResolvePeriod(preset PeriodPreset, now time.Time, custom *PeriodWindow) (PeriodWindow, error) {
	now = now.In(businessLocation)

	switch preset {
	case PeriodCurrentMonth:
		return monthWindow(now.Year(), now.Month()), nil
	case PeriodPreviousMonth:
		prev := now.AddDate(0, 0, -now.Day()) // last day of the previous month
		return monthWindow(prev.Year(), prev.Month()), nil
	case PeriodCommission:
		return ResolveCommissionPeriod(now), nil
	case PeriodCustom:
		if custom == nil {
			return PeriodWindow{}, NewValidationError("custom period requires start and end dates")
		}
		return *custom, nil
	default:
		return PeriodWindow{}, NewValidationError("unknown period preset: %s", preset)
	}
}

// ResolveCommissionPeriod applies the payday cutoff rule. Commissions for a
// month are paid on the 15th of the month one or two months later:
//
//	day < 15:  referenced month is now-2 months, paid on the 15th of this month
//	day >= 15: referenced month is now-1 month, paid on the 15th of next month
//
// Day 15 itself counts as after payday. Total over any valid instant.
func ResolveCommissionPeriod(now time.Time) PeriodWindow {
	now = now.In(businessLocation)

	var refYear int
	var refMonth time.Month
	var payment time.Time

	if now.Day() < 15 {
		ref := time.Date(now.Year(), now.Month()-2, 1, 0, 0, 0, 0, businessLocation)
		refYear, refMonth = ref.Year(), ref.Month()
		payment = time.Date(now.Year(), now.Month(), 15, 0, 0, 0, 0, businessLocation)
	} else {
		ref := time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, businessLocation)
		refYear, refMonth = ref.Year(), ref.Month()
		payment = time.Date(now.Year(), now.Month()+1, 15, 0, 0, 0, 0, businessLocation)
	}

	window := monthWindow(refYear, refMonth)
	window.PaymentDate = &payment
	return window
}
