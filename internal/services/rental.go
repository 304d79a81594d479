package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gobikevn/bikerental-backend/internal/models"
	"github.com/gobikevn/bikerental-backend/pkg/utils"
	"gorm.io/gorm"
)

// RentalService owns the rental transaction state machine and the paired
// bike availability flag. Every transition touches the transaction row and
// the bike row inside one database transaction, with compare-and-set guards
// on both statuses so concurrent writers lose cleanly instead of corrupting
// the pairing.
type RentalService struct {
	db  *gorm.DB
	hub *Hub
}

// NewRentalService creates a rental service. hub may be nil (e.g. in tests);
// events are then not broadcast.
func NewRentalService(db *gorm.DB, hub *Hub) *RentalService {
	return &RentalService{db: db, hub: hub}
}

// CreateRental places a rental for userID on bikeID over the given window.
// The transaction starts in the confirmed state and the bike flips to
// rented atomically with it. Price: billable days (dates floored to
// midnight, difference rounded, minimum one) times the bike's daily price.
func (s *RentalService) CreateRental(ctx context.Context, userID, bikeID uint, rentDate, returnDate time.Time) (*models.Transaction, error) {
	if !utils.ValidRentalWindow(rentDate, returnDate) {
		return nil, ErrInvalidRentalWindow
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	var bike models.Bike
	if err := s.db.WithContext(ctx).First(&bike, bikeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("bike %d: %w", bikeID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load bike: %w", err)
	}

	if bike.Status != models.BikeStatusAvailable {
		return nil, ErrBikeUnavailable
	}

	quote := utils.CalculateRentalPrice(rentDate, returnDate, bike.PricePerDay)

	rental := &models.Transaction{
		BikeID:     bike.ID,
		BikeName:   bike.Name, // snapshot, not kept in sync with later renames
		UserID:     user.ID,
		UserEmail:  user.Email,
		StationID:  bike.StationID,
		RentDate:   rentDate,
		ReturnDate: returnDate,
		TotalPrice: quote.TotalPrice,
		Status:     models.TransactionStatusConfirmed,
	}

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	// Compare-and-set on the bike status: a concurrent rental of the same
	// bike makes this update match zero rows.
	result := tx.Model(&models.Bike{}).
		Where("id = ? AND status = ?", bike.ID, models.BikeStatusAvailable).
		Update("status", models.BikeStatusRented)
	if result.Error != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to hold bike: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		return nil, ErrBikeUnavailable
	}

	if err := tx.Create(rental).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create rental: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit rental: %w", err)
	}

	log.Printf("Rental %d created: user %d holds bike %d for %d day(s), %d VND",
		rental.ID, user.ID, bike.ID, quote.Days, quote.TotalPrice)

	s.notify(ctx, rental, "created")
	s.refreshStationAvailability(ctx, bike.StationID)
	return rental, nil
}

// RequestReturn moves the customer's rental from confirmed to
// return-requested and records the actual return date. The bike stays held
// until an admin confirms.
func (s *RentalService) RequestReturn(ctx context.Context, transactionID, actorID uint) (*models.Transaction, error) {
	rental, err := s.ownedRental(ctx, transactionID, actorID, false)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.transition(ctx, rental, models.TransactionStatusReturnRequested, map[string]interface{}{
		"actual_return_date": now,
	}, nil); err != nil {
		return nil, err
	}
	rental.ActualReturnDate = &now

	s.notify(ctx, rental, "return_requested")
	return rental, nil
}

// CancelRental cancels a confirmed rental and releases the bike.
func (s *RentalService) CancelRental(ctx context.Context, transactionID, actorID uint, admin bool) (*models.Transaction, error) {
	rental, err := s.ownedRental(ctx, transactionID, actorID, admin)
	if err != nil {
		return nil, err
	}

	if err := s.transition(ctx, rental, models.TransactionStatusCancelled, nil, releaseBike); err != nil {
		return nil, err
	}

	s.notify(ctx, rental, "cancelled")
	s.refreshStationAvailability(ctx, rental.StationID)
	return rental, nil
}

// ConfirmReturn completes a return-requested rental and releases the bike.
// Admin only; the handler enforces the role. When the confirmation email
// fails after the transition committed, the rental is returned alongside
// ErrPartialFailure so the caller can report the degraded outcome.
func (s *RentalService) ConfirmReturn(ctx context.Context, transactionID uint) (*models.Transaction, error) {
	rental, err := s.loadRental(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if err := s.transition(ctx, rental, models.TransactionStatusCompleted, nil, releaseBike); err != nil {
		return nil, err
	}

	s.notify(ctx, rental, "completed")
	s.refreshStationAvailability(ctx, rental.StationID)

	if err := utils.SendReturnConfirmedEmail(rental.UserEmail, rental.BikeName, rental.TotalPrice); err != nil {
		log.Printf("Failed to send return confirmation email for rental %d: %v", rental.ID, err)
		return rental, fmt.Errorf("return confirmed but the notification email failed: %w", ErrPartialFailure)
	}

	return rental, nil
}

// UpdateReturnDate changes the planned return date of a confirmed rental
// and reprices it. Admin only.
func (s *RentalService) UpdateReturnDate(ctx context.Context, transactionID uint, returnDate time.Time) (*models.Transaction, error) {
	rental, err := s.loadRental(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if rental.Status != models.TransactionStatusConfirmed {
		return nil, ErrInvalidTransition
	}

	if !utils.ValidRentalWindow(rental.RentDate, returnDate) {
		return nil, ErrInvalidRentalWindow
	}

	var bike models.Bike
	if err := s.db.WithContext(ctx).First(&bike, rental.BikeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("bike %d: %w", rental.BikeID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load bike: %w", err)
	}

	quote := utils.CalculateRentalPrice(rental.RentDate, returnDate, bike.PricePerDay)

	result := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ? AND status = ?", rental.ID, models.TransactionStatusConfirmed).
		Updates(map[string]interface{}{
			"return_date": returnDate,
			"total_price": quote.TotalPrice,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update rental: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrInvalidTransition
	}

	rental.ReturnDate = returnDate
	rental.TotalPrice = quote.TotalPrice

	s.notify(ctx, rental, "updated")
	return rental, nil
}

// loadRental fetches a transaction or reports ErrNotFound.
func (s *RentalService) loadRental(ctx context.Context, transactionID uint) (*models.Transaction, error) {
	var rental models.Transaction
	if err := s.db.WithContext(ctx).First(&rental, transactionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("transaction %d: %w", transactionID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}
	return &rental, nil
}

// ownedRental fetches a transaction and checks the actor may change it.
func (s *RentalService) ownedRental(ctx context.Context, transactionID, actorID uint, admin bool) (*models.Transaction, error) {
	rental, err := s.loadRental(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if !admin && rental.UserID != actorID {
		return nil, ErrForbidden
	}
	return rental, nil
}

// releaseBike flips a rental's bike back to available inside the
// surrounding transaction. The bike row may have been deleted by an admin
// in the meantime; the rental transition still proceeds then.
func releaseBike(tx *gorm.DB, rental *models.Transaction) error {
	result := tx.Model(&models.Bike{}).
		Where("id = ? AND status = ?", rental.BikeID, models.BikeStatusRented).
		Update("status", models.BikeStatusAvailable)
	if result.Error != nil {
		return fmt.Errorf("failed to release bike %d: %w", rental.BikeID, result.Error)
	}
	return nil
}

// transition applies a guarded status change to the rental plus optional
// extra column updates and a paired bike mutation, all in one database
// transaction. The guard re-checks the current status in SQL so a racing
// transition makes exactly one caller win.
func (s *RentalService) transition(ctx context.Context, rental *models.Transaction, next models.TransactionStatus, extra map[string]interface{}, pair func(*gorm.DB, *models.Transaction) error) error {
	if !rental.Status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	updates := map[string]interface{}{"status": next}
	for k, v := range extra {
		updates[k] = v
	}

	result := tx.Model(&models.Transaction{}).
		Where("id = ? AND status = ?", rental.ID, rental.Status).
		Updates(updates)
	if result.Error != nil {
		tx.Rollback()
		return fmt.Errorf("failed to update rental status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		return ErrInvalidTransition
	}

	if pair != nil {
		if err := pair(tx, rental); err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transition: %w", err)
	}

	rental.Status = next
	log.Printf("Rental %d transitioned to %s", rental.ID, next)
	return nil
}

// notify fans the change out to WebSocket subscribers and Redis. Both are
// best-effort: the database commit already happened and the policy is to
// log, not fail, on fan-out problems.
func (s *RentalService) notify(ctx context.Context, rental *models.Transaction, action string) {
	if s.hub != nil {
		s.hub.PublishRentalEvent(rental.UserID, DocumentEvent{
			Collection: "transactions",
			Action:     action,
			Document:   rental,
		})
	}

	if RedisClient != nil {
		if err := PublishRentalUpdate(ctx, rental.ID, string(rental.Status), map[string]interface{}{
			"bikeId": rental.BikeID,
			"userId": rental.UserID,
		}); err != nil {
			log.Printf("Failed to publish rental update for %d: %v", rental.ID, err)
		}
	}
}

// refreshStationAvailability recounts available bikes at the station and
// updates the Redis cache. Best-effort.
func (s *RentalService) refreshStationAvailability(ctx context.Context, stationID *uint) {
	if stationID == nil || RedisClient == nil {
		return
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Bike{}).
		Where("station_id = ? AND status = ?", *stationID, models.BikeStatusAvailable).
		Count(&count).Error; err != nil {
		log.Printf("Failed to count available bikes for station %d: %v", *stationID, err)
		return
	}

	if err := SetStationAvailability(ctx, *stationID, int(count)); err != nil {
		log.Printf("Failed to cache availability for station %d: %v", *stationID, err)
	}
}
