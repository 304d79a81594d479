package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gobikevn/bikerental-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Station{},
		&models.Bike{},
		&models.Transaction{},
		&models.CatalogService{},
		&models.OTP{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func seedRentalFixtures(t *testing.T, db *gorm.DB) (models.User, models.Bike, models.Station) {
	t.Helper()

	station := models.Station{
		StationName: "Ben Thanh Station",
		Address:     "Le Loi, District 1",
		Latitude:    10.7721,
		Longitude:   106.6983,
		TotalBikes:  1,
		Status:      models.StationStatusActive,
	}
	if err := db.Create(&station).Error; err != nil {
		t.Fatalf("failed to seed station: %v", err)
	}

	user := models.User{
		FullName: "Nguyen Van A",
		Email:    "nguyenvana@example.com",
		Password: "secret123",
		Role:     models.UserRoleCustomer,
	}
	if err := user.HashPassword(); err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	bike := models.Bike{
		Name:        "Asama City Rider",
		Type:        "city",
		PricePerDay: 30000,
		Status:      models.BikeStatusAvailable,
		StationID:   &station.ID,
	}
	if err := db.Create(&bike).Error; err != nil {
		t.Fatalf("failed to seed bike: %v", err)
	}

	return user, bike, station
}

func day(offset int) time.Time {
	return time.Now().AddDate(0, 0, offset)
}

func TestCreateRentalHoldsBikeAndPrices(t *testing.T) {
	db := testDB(t)
	user, bike, _ := seedRentalFixtures(t, db)
	svc := NewRentalService(db, nil)

	rental, err := svc.CreateRental(context.Background(), user.ID, bike.ID, day(0), day(3))
	if err != nil {
		t.Fatalf("CreateRental: %v", err)
	}

	if rental.Status != models.TransactionStatusConfirmed {
		t.Errorf("status = %s, want confirmed", rental.Status)
	}
	if rental.TotalPrice != 90000 {
		t.Errorf("totalPrice = %d, want 90000", rental.TotalPrice)
	}
	if rental.BikeName != bike.Name {
		t.Errorf("bikeName = %q, want %q", rental.BikeName, bike.Name)
	}
	if rental.UserEmail != user.Email {
		t.Errorf("userEmail = %q, want %q", rental.UserEmail, user.Email)
	}

	var updated models.Bike
	if err := db.First(&updated, bike.ID).Error; err != nil {
		t.Fatalf("failed to reload bike: %v", err)
	}
	if updated.Status != models.BikeStatusRented {
		t.Errorf("bike status = %s, want rented", updated.Status)
	}
}

func TestCreateRentalRejectsUnavailableBike(t *testing.T) {
	db := testDB(t)
	user, bike, _ := seedRentalFixtures(t, db)
	svc := NewRentalService(db, nil)

	if _, err := svc.CreateRental(context.Background(), user.ID, bike.ID, day(0), day(2)); err != nil {
		t.Fatalf("first CreateRental: %v", err)
	}

	_, err := svc.CreateRental(context.Background(), user.ID, bike.ID, day(0), day(2))
	if !errors.Is(err, ErrBikeUnavailable) {
		t.Errorf("second CreateRental error = %v, want ErrBikeUnavailable", err)
	}

	var count int64
	db.Model(&models.Transaction{}).Count(&count)
	if count != 1 {
		t.Errorf("transaction count = %d, want 1", count)
	}
}

func TestCreateRentalRejectsBadWindow(t *testing.T) {
	db := testDB(t)
	user, bike, _ := seedRentalFixtures(t, db)
	svc := NewRentalService(db, nil)

	if _, err := svc.CreateRental(context.Background(), user.ID, bike.ID, day(0), day(0)); !errors.Is(err, ErrInvalidRentalWindow) {
		t.Errorf("same-day window error = %v, want ErrInvalidRentalWindow", err)
	}
	if _, err := svc.CreateRental(context.Background(), user.ID, bike.ID, day(3), day(0)); !errors.Is(err, ErrInvalidRentalWindow) {
		t.Errorf("reversed window error = %v, want ErrInvalidRentalWindow", err)
	}

	var bikeAfter models.Bike
	db.First(&bikeAfter, bike.ID)
	if bikeAfter.Status != models.BikeStatusAvailable {
		t.Errorf("bike status = %s, want available after rejected rentals", bikeAfter.Status)
	}
}

func TestCreateRentalUnknownReferences(t *testing.T) {
	db := testDB(t)
	user, bike, _ := seedRentalFixtures(t, db)
	svc := NewRentalService(db, nil)

	if _, err := svc.CreateRental(context.Background(), user.ID, bike.ID+99, day(0), day(2)); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown bike error = %v, want ErrNotFound", err)
	}
	if _, err := svc.CreateRental(context.Background(), user.ID+99, bike.ID, day(0), day(2)); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown user error = %v, want ErrNotFound", err)
	}
}

func TestReturnFlow(t *testing.T) {
	db := testDB(t)
	user, bike, _ := seedRentalFixtures(t, db)
	svc := NewRentalService(db, nil)

	rental, err := svc.CreateRental(context.Background(), user.ID, bike.ID, day(0), day(2))
	if err != nil {
		t.Fatalf("CreateRental: %v", err)
	}

	requested, err := svc.RequestReturn(context.Background(), rental.ID, user.ID)
	if err != nil {
		t.Fatalf("RequestReturn: %v", err)
	}
	if requested.Status != models.TransactionStatusReturnRequested {
		t.Errorf("status = %s, want return_requested", requested.Status)
	}
	if requested.ActualReturnDate == nil {
		t.Error("actualReturnDate should be set on return request")
	}

	// Bike stays held until the admin confirms
	var held models.Bike
	db.First(&held, bike.ID)
	if held.Status != models.BikeStatusRented {
		t.Errorf("bike status = %s, want rented before confirmation", held.Status)
	}

	// SMTP is not configured in tests, so the email step degrades to a
	// partial failure while the transition itself commits
	completed, err := svc.ConfirmReturn(context.Background(), rental.ID)
	if err != nil && !errors.Is(err, ErrPartialFailure) {
		t.Fatalf("ConfirmReturn: %v", err)
	}
	if completed == nil {
		t.Fatal("ConfirmReturn must return the rental on partial failure")
	}
	if completed.Status != models.TransactionStatusCompleted {
		t.Errorf("status = %s, want completed", completed.Status)
	}

	var released models.Bike
	db.First(&released, bike.ID)
	if released.Status != models.BikeStatusAvailable {
		t.Errorf("bike status = %s, want available after confirmation", released.Status)
	}
}

func TestCancelReleasesBike(t *testing.T) {
	db := testDB(t)
	user, bike, _ := seedRentalFixtures(t, db)
	svc := NewRentalService(db, nil)

	rental, err := svc.CreateRental(context.Background(), user.ID, bike.ID, day(0), day(2))
	if err != nil {
		t.Fatalf("CreateRental: %v", err)
	}

	cancelled, err := svc.CancelRental(context.Background(), rental.ID, user.ID, false)
	if err != nil {
		t.Fatalf("CancelRental: %v", err)
	}
	if cancelled.Status != models.TransactionStatusCancelled {
		t.Errorf("status = %s, want cancelled", cancelled.Status)
	}

	var released models.Bike
	db.First(&released, bike.ID)
	if released.Status != models.BikeStatusAvailable {
		t.Errorf("bike status = %s, want available after cancel", released.Status)
	}
}

func TestInvalidTransitions(t *testing.T) {
	db := testDB(t)
	user, bike, _ := seedRentalFixtures(t, db)
	svc := NewRentalService(db, nil)

	rental, err := svc.CreateRental(context.Background(), user.ID, bike.ID, day(0), day(2))
	if err != nil {
		t.Fatalf("CreateRental: %v", err)
	}

	// Confirm before any return was requested
	if _, err := svc.ConfirmReturn(context.Background(), rental.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("ConfirmReturn on confirmed error = %v, want ErrInvalidTransition", err)
	}

	if _, err := svc.CancelRental(context.Background(), rental.ID, user.ID, false); err != nil {
		t.Fatalf("CancelRental: %v", err)
	}

	// Every action on a terminal rental fails without mutating it
	if _, err := svc.RequestReturn(context.Background(), rental.ID, user.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("RequestReturn on cancelled error = %v, want ErrInvalidTransition", err)
	}
	if _, err := svc.CancelRental(context.Background(), rental.ID, user.ID, false); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("CancelRental on cancelled error = %v, want ErrInvalidTransition", err)
	}
	if _, err := svc.ConfirmReturn(context.Background(), rental.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("ConfirmReturn on cancelled error = %v, want ErrInvalidTransition", err)
	}

	var after models.Transaction
	db.First(&after, rental.ID)
	if after.Status != models.TransactionStatusCancelled {
		t.Errorf("status = %s, want cancelled unchanged", after.Status)
	}
	if after.ActualReturnDate != nil {
		t.Error("actualReturnDate must stay unset on failed transitions")
	}
}

func TestRentalOwnership(t *testing.T) {
	db := testDB(t)
	user, bike, _ := seedRentalFixtures(t, db)
	svc := NewRentalService(db, nil)

	other := models.User{FullName: "Tran Thi B", Email: "tranthib@example.com", Role: models.UserRoleCustomer}
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("failed to seed second user: %v", err)
	}

	rental, err := svc.CreateRental(context.Background(), user.ID, bike.ID, day(0), day(2))
	if err != nil {
		t.Fatalf("CreateRental: %v", err)
	}

	if _, err := svc.RequestReturn(context.Background(), rental.ID, other.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("RequestReturn by non-owner error = %v, want ErrForbidden", err)
	}
	if _, err := svc.CancelRental(context.Background(), rental.ID, other.ID, false); !errors.Is(err, ErrForbidden) {
		t.Errorf("CancelRental by non-owner error = %v, want ErrForbidden", err)
	}

	// Admin may cancel someone else's rental
	if _, err := svc.CancelRental(context.Background(), rental.ID, other.ID, true); err != nil {
		t.Errorf("admin CancelRental error = %v, want nil", err)
	}
}

func TestSnapshotsSurviveRenames(t *testing.T) {
	db := testDB(t)
	user, bike, _ := seedRentalFixtures(t, db)
	svc := NewRentalService(db, nil)

	rental, err := svc.CreateRental(context.Background(), user.ID, bike.ID, day(0), day(2))
	if err != nil {
		t.Fatalf("CreateRental: %v", err)
	}

	if err := db.Model(&models.Bike{}).Where("id = ?", bike.ID).Update("name", "Renamed Bike").Error; err != nil {
		t.Fatalf("failed to rename bike: %v", err)
	}

	var after models.Transaction
	db.First(&after, rental.ID)
	if after.BikeName != "Asama City Rider" {
		t.Errorf("bikeName = %q, want original snapshot", after.BikeName)
	}
}

func TestUpdateReturnDateReprices(t *testing.T) {
	db := testDB(t)
	user, bike, _ := seedRentalFixtures(t, db)
	svc := NewRentalService(db, nil)

	rental, err := svc.CreateRental(context.Background(), user.ID, bike.ID, day(0), day(2))
	if err != nil {
		t.Fatalf("CreateRental: %v", err)
	}

	updated, err := svc.UpdateReturnDate(context.Background(), rental.ID, day(5))
	if err != nil {
		t.Fatalf("UpdateReturnDate: %v", err)
	}
	if updated.TotalPrice != 5*30000 {
		t.Errorf("totalPrice = %d, want %d", updated.TotalPrice, 5*30000)
	}

	if _, err := svc.UpdateReturnDate(context.Background(), rental.ID, day(-1)); !errors.Is(err, ErrInvalidRentalWindow) {
		t.Errorf("backdated return error = %v, want ErrInvalidRentalWindow", err)
	}

	if _, err := svc.RequestReturn(context.Background(), rental.ID, user.ID); err != nil {
		t.Fatalf("RequestReturn: %v", err)
	}
	if _, err := svc.UpdateReturnDate(context.Background(), rental.ID, day(7)); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("update after return request error = %v, want ErrInvalidTransition", err)
	}
}
