package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gobikevn/bikerental-backend/internal/models"
	"github.com/gobikevn/bikerental-backend/internal/services"
	"gorm.io/gorm"
)

type RentalInput struct {
	BikeID     uint      `json:"bikeId" binding:"required"`
	RentDate   time.Time `json:"rentDate" binding:"required"`
	ReturnDate time.Time `json:"returnDate" binding:"required"`
}

// CreateRental books a bike for the authenticated customer.
func CreateRental(svc *services.RentalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		var input RentalInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		rental, err := svc.CreateRental(c.Request.Context(), userID, input.BikeID, input.RentDate, input.ReturnDate)
		if err != nil {
			rentalError(c, err)
			return
		}

		c.JSON(201, gin.H{
			"message": "Rental confirmed",
			"rental":  rental,
		})
	}
}

// MyActiveRentals lists the caller's confirmed and return-requested rentals.
func MyActiveRentals(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		var rentals []models.Transaction
		if result := db.Preload("Bike").
			Where("user_id = ? AND status IN ?", userID,
				[]models.TransactionStatus{models.TransactionStatusConfirmed, models.TransactionStatusReturnRequested}).
			Order("created_at DESC").
			Find(&rentals); result.Error != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch rentals"})
			return
		}

		c.JSON(200, gin.H{"rentals": rentals})
	}
}

// MyRentalHistory lists the caller's completed and cancelled rentals.
func MyRentalHistory(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		var rentals []models.Transaction
		if result := db.Preload("Bike").
			Where("user_id = ? AND status IN ?", userID,
				[]models.TransactionStatus{models.TransactionStatusCompleted, models.TransactionStatusCancelled}).
			Order("created_at DESC").
			Find(&rentals); result.Error != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch rental history"})
			return
		}

		c.JSON(200, gin.H{"rentals": rentals})
	}
}

// RequestReturn asks to hand the bike back; an admin must confirm.
func RequestReturn(svc *services.RentalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")
		rentalID, ok := parseID(c, "id")
		if !ok {
			return
		}

		rental, err := svc.RequestReturn(c.Request.Context(), rentalID, userID)
		if err != nil {
			rentalError(c, err)
			return
		}

		c.JSON(200, gin.H{
			"message": "Return requested",
			"rental":  rental,
		})
	}
}

// CancelRental cancels the caller's confirmed rental. Admins may cancel any
// confirmed rental.
func CancelRental(svc *services.RentalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")
		admin := c.GetString("role") == "admin"
		rentalID, ok := parseID(c, "id")
		if !ok {
			return
		}

		rental, err := svc.CancelRental(c.Request.Context(), rentalID, userID, admin)
		if err != nil {
			rentalError(c, err)
			return
		}

		c.JSON(200, gin.H{
			"message": "Rental cancelled",
			"rental":  rental,
		})
	}
}

// ListRentals returns all rentals for the admin panel, optionally filtered
// by status or a search term over the snapshotted bike name and user email.
func ListRentals(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := db.Preload("Bike").Preload("User")

		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}
		if search := c.Query("search"); search != "" {
			like := "%" + search + "%"
			query = query.Where("bike_name ILIKE ? OR user_email ILIKE ?", like, like)
		}

		var rentals []models.Transaction
		if result := query.Order("created_at DESC").Find(&rentals); result.Error != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch rentals"})
			return
		}

		c.JSON(200, gin.H{"rentals": rentals})
	}
}

// ConfirmReturn completes a return-requested rental and releases the bike.
func ConfirmReturn(svc *services.RentalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		rentalID, ok := parseID(c, "id")
		if !ok {
			return
		}

		rental, err := svc.ConfirmReturn(c.Request.Context(), rentalID)
		if err != nil {
			// The transition may have committed even though a follow-up step
			// failed; report the degraded outcome instead of an error.
			if errors.Is(err, services.ErrPartialFailure) {
				c.JSON(200, gin.H{
					"message": err.Error(),
					"rental":  rental,
				})
				return
			}
			rentalError(c, err)
			return
		}

		c.JSON(200, gin.H{
			"message": "Return confirmed",
			"rental":  rental,
		})
	}
}

type AdminRentalInput struct {
	UserID     uint      `json:"userId" binding:"required"`
	BikeID     uint      `json:"bikeId" binding:"required"`
	RentDate   time.Time `json:"rentDate" binding:"required"`
	ReturnDate time.Time `json:"returnDate" binding:"required"`
}

// CreateRentalForUser books a bike on behalf of a customer, for walk-in
// rentals handled at the counter.
func CreateRentalForUser(svc *services.RentalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input AdminRentalInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		rental, err := svc.CreateRental(c.Request.Context(), input.UserID, input.BikeID, input.RentDate, input.ReturnDate)
		if err != nil {
			rentalError(c, err)
			return
		}

		c.JSON(201, gin.H{
			"message": "Rental confirmed",
			"rental":  rental,
		})
	}
}

type UpdateRentalInput struct {
	ReturnDate time.Time `json:"returnDate" binding:"required"`
}

// UpdateRental changes the planned return date of a confirmed rental and
// reprices it.
func UpdateRental(svc *services.RentalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		rentalID, ok := parseID(c, "id")
		if !ok {
			return
		}

		var input UpdateRentalInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		rental, err := svc.UpdateReturnDate(c.Request.Context(), rentalID, input.ReturnDate)
		if err != nil {
			rentalError(c, err)
			return
		}

		c.JSON(200, gin.H{
			"message": "Rental updated",
			"rental":  rental,
		})
	}
}

// rentalError maps rental service errors onto HTTP responses.
func rentalError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(404, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidRentalWindow):
		c.JSON(400, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(403, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrBikeUnavailable),
		errors.Is(err, services.ErrInvalidTransition):
		c.JSON(409, gin.H{"error": err.Error()})
	default:
		c.JSON(500, gin.H{"error": "Internal server error"})
	}
}
