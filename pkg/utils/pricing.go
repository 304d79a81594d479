package utils

import (
	"math"
	"time"
)

// RentalQuote contains the computed rental price and its inputs.
type RentalQuote struct {
	Days        int   `json:"days"`
	PricePerDay int64 `json:"pricePerDay"`
	TotalPrice  int64 `json:"totalPrice"`
}

// startOfDay truncates t to midnight in its own location.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// RentalDays counts billable days between rentDate and returnDate. Both
// dates are floored to midnight before differencing, the difference is
// rounded to whole days and never drops below one. Renting on the 1st and
// returning on the 4th bills three days; a same-day return still bills one.
func RentalDays(rentDate, returnDate time.Time) int {
	start := startOfDay(rentDate)
	end := startOfDay(returnDate)

	days := int(math.Round(end.Sub(start).Hours() / 24))
	if days < 1 {
		days = 1
	}
	return days
}

// ValidRentalWindow reports whether the return date falls strictly after
// the rent date at day granularity. Same-day and reversed windows are
// rejected at booking time even though pricing would floor them to one day.
func ValidRentalWindow(rentDate, returnDate time.Time) bool {
	return startOfDay(returnDate).After(startOfDay(rentDate))
}

// CalculateRentalPrice computes the total price for renting a bike at
// pricePerDay VND over the given rental window.
func CalculateRentalPrice(rentDate, returnDate time.Time, pricePerDay int64) RentalQuote {
	days := RentalDays(rentDate, returnDate)
	return RentalQuote{
		Days:        days,
		PricePerDay: pricePerDay,
		TotalPrice:  pricePerDay * int64(days),
	}
}
