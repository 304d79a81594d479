package utils

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRentalDays(t *testing.T) {
	tests := []struct {
		name       string
		rentDate   time.Time
		returnDate time.Time
		want       int
	}{
		{"same day floors to one", date(2025, 1, 1), date(2025, 1, 1), 1},
		{"next day is one day", date(2025, 1, 1), date(2025, 1, 2), 1},
		{"first to fourth is three days", date(2025, 1, 1), date(2025, 1, 4), 3},
		{"reversed dates floor to one", date(2025, 1, 4), date(2025, 1, 1), 1},
		{"time of day is ignored", time.Date(2025, 1, 1, 23, 59, 0, 0, time.UTC), time.Date(2025, 1, 2, 0, 1, 0, 0, time.UTC), 1},
		{"across a month boundary", date(2025, 1, 30), date(2025, 2, 2), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RentalDays(tt.rentDate, tt.returnDate); got != tt.want {
				t.Errorf("RentalDays(%v, %v) = %d, want %d", tt.rentDate, tt.returnDate, got, tt.want)
			}
		})
	}
}

func TestCalculateRentalPrice(t *testing.T) {
	quote := CalculateRentalPrice(date(2025, 1, 1), date(2025, 1, 4), 30000)

	if quote.Days != 3 {
		t.Errorf("Days = %d, want 3", quote.Days)
	}
	if quote.TotalPrice != 90000 {
		t.Errorf("TotalPrice = %d, want 90000", quote.TotalPrice)
	}
	if quote.PricePerDay != 30000 {
		t.Errorf("PricePerDay = %d, want 30000", quote.PricePerDay)
	}
}

func TestValidRentalWindow(t *testing.T) {
	if ValidRentalWindow(date(2025, 1, 1), date(2025, 1, 1)) {
		t.Error("same-day window should be invalid")
	}
	if ValidRentalWindow(date(2025, 1, 4), date(2025, 1, 1)) {
		t.Error("reversed window should be invalid")
	}
	if !ValidRentalWindow(date(2025, 1, 1), date(2025, 1, 2)) {
		t.Error("next-day window should be valid")
	}
	// Late rent time, early return time, still different days
	if !ValidRentalWindow(time.Date(2025, 1, 1, 23, 0, 0, 0, time.UTC), time.Date(2025, 1, 2, 1, 0, 0, 0, time.UTC)) {
		t.Error("window spanning midnight should be valid")
	}
}
