package handlers

import (
	"log"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gobikevn/bikerental-backend/internal/models"
	"github.com/gobikevn/bikerental-backend/internal/services"
	"gorm.io/gorm"
)

// ListBikes returns all bikes, optionally filtered by status, type or
// station.
func ListBikes(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := db.Preload("Station")

		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}
		if bikeType := c.Query("type"); bikeType != "" {
			query = query.Where("type = ?", bikeType)
		}
		if stationID := c.Query("stationId"); stationID != "" {
			query = query.Where("station_id = ?", stationID)
		}

		var bikes []models.Bike
		if result := query.Order("created_at DESC").Find(&bikes); result.Error != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch bikes"})
			return
		}

		c.JSON(200, gin.H{"bikes": bikes})
	}
}

func GetBike(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var bike models.Bike
		if result := db.Preload("Station").First(&bike, c.Param("id")); result.Error != nil {
			c.JSON(404, gin.H{"error": "Bike not found"})
			return
		}

		c.JSON(200, gin.H{"bike": bike})
	}
}

type BikeInput struct {
	Name        string `form:"name" json:"name" binding:"required"`
	Type        string `form:"type" json:"type" binding:"required"`
	PricePerDay int64  `form:"pricePerDay" json:"pricePerDay" binding:"required,gt=0"`
	StationID   *uint  `form:"stationId" json:"stationId"`
}

// CreateBike adds a bike to the fleet. Accepts multipart form data so an
// image can be attached in the same request.
func CreateBike(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input BikeInput
		if err := c.ShouldBind(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		if !models.IsValidBikeType(input.Type) {
			c.JSON(400, gin.H{"error": "Unknown bike type: " + input.Type})
			return
		}

		if input.StationID != nil {
			var station models.Station
			if result := db.First(&station, *input.StationID); result.Error != nil {
				c.JSON(400, gin.H{"error": "Station not found"})
				return
			}
		}

		bike := models.Bike{
			Name:        input.Name,
			Type:        input.Type,
			PricePerDay: input.PricePerDay,
			Status:      models.BikeStatusAvailable,
			StationID:   input.StationID,
		}

		if file, err := c.FormFile("image"); err == nil {
			url, err := services.UploadImage(file, services.FolderBikes)
			if err != nil {
				c.JSON(500, gin.H{"error": "Failed to upload image: " + err.Error()})
				return
			}
			bike.ImageURL = url
		}

		if result := db.Create(&bike); result.Error != nil {
			c.JSON(500, gin.H{"error": "Failed to create bike"})
			return
		}

		hub.PublishDocumentEvent(services.TopicBikes, services.DocumentEvent{
			Collection: "bikes",
			Action:     "created",
			Document:   bike,
		})

		c.JSON(201, gin.H{
			"message": "Bike created successfully",
			"bike":    bike,
		})
	}
}

type UpdateBikeInput struct {
	Name        string `form:"name" json:"name"`
	Type        string `form:"type" json:"type"`
	PricePerDay int64  `form:"pricePerDay" json:"pricePerDay"`
	Status      string `form:"status" json:"status"`
	StationID   *uint  `form:"stationId" json:"stationId"`
}

func UpdateBike(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var bike models.Bike
		if result := db.First(&bike, c.Param("id")); result.Error != nil {
			c.JSON(404, gin.H{"error": "Bike not found"})
			return
		}

		var input UpdateBikeInput
		if err := c.ShouldBind(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		updates := map[string]interface{}{}
		if input.Name != "" {
			updates["name"] = input.Name
		}
		if input.Type != "" {
			if !models.IsValidBikeType(input.Type) {
				c.JSON(400, gin.H{"error": "Unknown bike type: " + input.Type})
				return
			}
			updates["type"] = input.Type
		}
		if input.PricePerDay > 0 {
			updates["price_per_day"] = input.PricePerDay
		}
		if input.Status != "" {
			status := models.BikeStatus(input.Status)
			switch status {
			case models.BikeStatusAvailable, models.BikeStatusRented, models.BikeStatusMaintenance:
			default:
				c.JSON(400, gin.H{"error": "Unknown bike status: " + input.Status})
				return
			}
			// A bike held by an active rental cannot be forced out of the
			// rented state here; the rental flow releases it.
			if bike.Status == models.BikeStatusRented && status != models.BikeStatusRented {
				var active int64
				db.Model(&models.Transaction{}).
					Where("bike_id = ? AND status IN ?", bike.ID,
						[]models.TransactionStatus{models.TransactionStatusConfirmed, models.TransactionStatusReturnRequested}).
					Count(&active)
				if active > 0 {
					c.JSON(409, gin.H{"error": "Bike has an active rental"})
					return
				}
			}
			updates["status"] = status
		}
		if input.StationID != nil {
			var station models.Station
			if result := db.First(&station, *input.StationID); result.Error != nil {
				c.JSON(400, gin.H{"error": "Station not found"})
				return
			}
			updates["station_id"] = *input.StationID
		}

		if file, err := c.FormFile("image"); err == nil {
			url, err := services.UploadImage(file, services.FolderBikes)
			if err != nil {
				c.JSON(500, gin.H{"error": "Failed to upload image: " + err.Error()})
				return
			}
			if bike.ImageURL != "" {
				if err := services.DeleteImage(bike.ImageURL); err != nil {
					log.Printf("Failed to delete old bike image %s: %v", bike.ImageURL, err)
				}
			}
			updates["image_url"] = url
		}

		if len(updates) > 0 {
			if result := db.Model(&bike).Updates(updates); result.Error != nil {
				c.JSON(500, gin.H{"error": "Failed to update bike"})
				return
			}
		}

		hub.PublishDocumentEvent(services.TopicBikes, services.DocumentEvent{
			Collection: "bikes",
			Action:     "updated",
			Document:   bike,
		})

		c.JSON(200, gin.H{
			"message": "Bike updated successfully",
			"bike":    bike,
		})
	}
}

func DeleteBike(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var bike models.Bike
		if result := db.First(&bike, c.Param("id")); result.Error != nil {
			c.JSON(404, gin.H{"error": "Bike not found"})
			return
		}

		var active int64
		db.Model(&models.Transaction{}).
			Where("bike_id = ? AND status IN ?", bike.ID,
				[]models.TransactionStatus{models.TransactionStatusConfirmed, models.TransactionStatusReturnRequested}).
			Count(&active)
		if active > 0 {
			c.JSON(409, gin.H{"error": "Bike has an active rental"})
			return
		}

		if result := db.Delete(&bike); result.Error != nil {
			c.JSON(500, gin.H{"error": "Failed to delete bike"})
			return
		}

		if bike.ImageURL != "" {
			if err := services.DeleteImage(bike.ImageURL); err != nil {
				log.Printf("Failed to delete bike image %s: %v", bike.ImageURL, err)
			}
		}

		hub.PublishDocumentEvent(services.TopicBikes, services.DocumentEvent{
			Collection: "bikes",
			Action:     "deleted",
			Document:   gin.H{"id": bike.ID},
		})

		c.JSON(200, gin.H{"message": "Bike deleted successfully"})
	}
}

// BikeTypes lists the supported bike categories for the client's filters.
func BikeTypes() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{"types": models.BikeTypes})
	}
}

// parseID converts a path parameter to a uint ID.
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(400, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}
