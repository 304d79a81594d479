package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gobikevn/bikerental-backend/internal/models"
	"gorm.io/gorm"
)

// seedTransaction inserts a completed rental backdated by ageDays.
func seedTransaction(t *testing.T, db *gorm.DB, bikeName, userEmail string, stationID *uint, price int64, ageDays int) {
	t.Helper()

	rental := models.Transaction{
		BikeID:     1,
		BikeName:   bikeName,
		UserID:     1,
		UserEmail:  userEmail,
		StationID:  stationID,
		RentDate:   time.Now().AddDate(0, 0, -ageDays),
		ReturnDate: time.Now().AddDate(0, 0, -ageDays+1),
		TotalPrice: price,
		Status:     models.TransactionStatusCompleted,
	}
	if err := db.Create(&rental).Error; err != nil {
		t.Fatalf("failed to seed transaction: %v", err)
	}

	createdAt := time.Now().AddDate(0, 0, -ageDays)
	if err := db.Model(&models.Transaction{}).Where("id = ?", rental.ID).
		Update("created_at", createdAt).Error; err != nil {
		t.Fatalf("failed to backdate transaction: %v", err)
	}
}

func TestRevenueForWindow(t *testing.T) {
	db := testDB(t)
	svc := NewReportService(db)

	// 5 and 10 days old fall inside the 30-day month window, 40 does not
	seedTransaction(t, db, "Bike A", "a@example.com", nil, 100, 5)
	seedTransaction(t, db, "Bike B", "b@example.com", nil, 200, 40)
	seedTransaction(t, db, "Bike C", "c@example.com", nil, 300, 10)

	summary, err := svc.RevenueForWindow(context.Background(), WindowMonth)
	if err != nil {
		t.Fatalf("RevenueForWindow: %v", err)
	}

	if summary.TotalRevenue != 400 {
		t.Errorf("totalRevenue = %d, want 400", summary.TotalRevenue)
	}
	if summary.Transactions != 2 {
		t.Errorf("transactions = %d, want 2", summary.Transactions)
	}
}

func TestRevenueForWindowRejectsUnknownWindow(t *testing.T) {
	db := testDB(t)
	svc := NewReportService(db)

	if _, err := svc.RevenueForWindow(context.Background(), "fortnight"); !errors.Is(err, ErrUnknownWindow) {
		t.Errorf("error = %v, want ErrUnknownWindow", err)
	}
}

func TestRevenueByBike(t *testing.T) {
	db := testDB(t)
	svc := NewReportService(db)

	seedTransaction(t, db, "Bike A", "a@example.com", nil, 100, 1)
	seedTransaction(t, db, "Bike A", "b@example.com", nil, 150, 2)
	seedTransaction(t, db, "Bike B", "a@example.com", nil, 50, 3)
	seedTransaction(t, db, "Bike A", "a@example.com", nil, 999, 40) // outside window

	groups, err := svc.RevenueByBike(context.Background(), WindowWeek)
	if err != nil {
		t.Fatalf("RevenueByBike: %v", err)
	}

	if len(groups) != 2 {
		t.Fatalf("group count = %d, want 2", len(groups))
	}
	// Ordered by revenue, Bike A first
	if groups[0].Label != "Bike A" || groups[0].TotalRevenue != 250 {
		t.Errorf("groups[0] = %+v, want Bike A with 250", groups[0])
	}
	if groups[1].Label != "Bike B" || groups[1].TotalRevenue != 50 {
		t.Errorf("groups[1] = %+v, want Bike B with 50", groups[1])
	}
}

func TestRevenueByStation(t *testing.T) {
	db := testDB(t)
	svc := NewReportService(db)

	station := models.Station{
		StationName: "Ben Thanh Station",
		Address:     "Le Loi, District 1",
		Latitude:    10.7721,
		Longitude:   106.6983,
		Status:      models.StationStatusActive,
	}
	if err := db.Create(&station).Error; err != nil {
		t.Fatalf("failed to seed station: %v", err)
	}

	seedTransaction(t, db, "Bike A", "a@example.com", &station.ID, 100, 1)
	seedTransaction(t, db, "Bike B", "b@example.com", nil, 70, 2)

	groups, err := svc.RevenueByStation(context.Background(), WindowWeek)
	if err != nil {
		t.Fatalf("RevenueByStation: %v", err)
	}

	byLabel := map[string]int64{}
	for _, g := range groups {
		byLabel[g.Label] = g.TotalRevenue
	}
	if byLabel["Ben Thanh Station"] != 100 {
		t.Errorf("station revenue = %d, want 100", byLabel["Ben Thanh Station"])
	}
	if byLabel["Unknown"] != 70 {
		t.Errorf("unknown-station revenue = %d, want 70", byLabel["Unknown"])
	}
}

func TestTopCustomersIsWindowed(t *testing.T) {
	db := testDB(t)
	svc := NewReportService(db)

	// Heavy all-time renter with only old transactions
	for i := 0; i < 5; i++ {
		seedTransaction(t, db, "Bike A", "old@example.com", nil, 100, 60)
	}
	seedTransaction(t, db, "Bike A", "recent@example.com", nil, 100, 2)
	seedTransaction(t, db, "Bike B", "recent@example.com", nil, 100, 3)

	rankings, err := svc.TopCustomers(context.Background(), WindowMonth, 5)
	if err != nil {
		t.Fatalf("TopCustomers: %v", err)
	}

	if len(rankings) != 1 {
		t.Fatalf("ranking count = %d, want 1 (old transactions filtered out)", len(rankings))
	}
	if rankings[0].UserEmail != "recent@example.com" || rankings[0].Transactions != 2 {
		t.Errorf("rankings[0] = %+v, want recent@example.com with 2", rankings[0])
	}
}

func TestDashboard(t *testing.T) {
	db := testDB(t)
	svc := NewReportService(db)

	user, bike, _ := seedRentalFixtures(t, db)

	seedTransaction(t, db, bike.Name, user.Email, bike.StationID, 120, 0)
	seedTransaction(t, db, bike.Name, user.Email, bike.StationID, 80, 3)

	stats, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}

	if stats.TotalUsers != 1 {
		t.Errorf("totalUsers = %d, want 1", stats.TotalUsers)
	}
	if stats.TotalBikes != 1 {
		t.Errorf("totalBikes = %d, want 1", stats.TotalBikes)
	}
	if stats.TotalTransactions != 2 {
		t.Errorf("totalTransactions = %d, want 2", stats.TotalTransactions)
	}
	if stats.TransactionsToday != 1 {
		t.Errorf("transactionsToday = %d, want 1", stats.TransactionsToday)
	}
	if stats.TotalRevenue != 200 {
		t.Errorf("totalRevenue = %d, want 200", stats.TotalRevenue)
	}
	if stats.TopStation != "Ben Thanh Station" {
		t.Errorf("topStation = %q, want Ben Thanh Station", stats.TopStation)
	}
	if len(stats.Last7Days) != 7 {
		t.Fatalf("series length = %d, want 7", len(stats.Last7Days))
	}

	var seriesTotal int64
	for _, d := range stats.Last7Days {
		seriesTotal += d.Count
	}
	if seriesTotal != 2 {
		t.Errorf("series total = %d, want 2", seriesTotal)
	}
}
