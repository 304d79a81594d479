package handlers

import (
	"context"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gobikevn/bikerental-backend/internal/models"
	"github.com/gobikevn/bikerental-backend/internal/services"
	"github.com/gobikevn/bikerental-backend/pkg/utils"
	"gorm.io/gorm"
)

func ListStations(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := db.Order("station_name ASC")
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}

		var stations []models.Station
		if result := query.Find(&stations); result.Error != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch stations"})
			return
		}

		c.JSON(200, gin.H{"stations": stations})
	}
}

func GetStation(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var station models.Station
		if result := db.First(&station, c.Param("id")); result.Error != nil {
			c.JSON(404, gin.H{"error": "Station not found"})
			return
		}

		// Prefer the cached live count when Redis is up
		availableBikes := station.AvailableBikes
		if services.RedisClient != nil {
			if cached, err := services.GetStationAvailability(context.Background(), station.ID); err == nil {
				availableBikes = cached
			}
		}

		c.JSON(200, gin.H{
			"station":        station,
			"availableBikes": availableBikes,
		})
	}
}

// NearbyStations returns active stations within radiusKm of the given
// coordinates, closest first.
func NearbyStations(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		lat, err := strconv.ParseFloat(c.Query("lat"), 64)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid lat"})
			return
		}
		lng, err := strconv.ParseFloat(c.Query("lng"), 64)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid lng"})
			return
		}
		radiusKm := 5.0
		if raw := c.Query("radius"); raw != "" {
			radiusKm, err = strconv.ParseFloat(raw, 64)
			if err != nil || radiusKm <= 0 {
				c.JSON(400, gin.H{"error": "Invalid radius"})
				return
			}
		}

		var stations []models.Station
		if result := db.Where("status = ?", models.StationStatusActive).Find(&stations); result.Error != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch stations"})
			return
		}

		type nearbyStation struct {
			models.Station
			DistanceKm float64 `json:"distanceKm"`
		}

		nearby := make([]nearbyStation, 0)
		for _, station := range stations {
			if !utils.IsWithinRadius(lat, lng, station.Latitude, station.Longitude, radiusKm) {
				continue
			}
			nearby = append(nearby, nearbyStation{
				Station:    station,
				DistanceKm: utils.HaversineDistance(lat, lng, station.Latitude, station.Longitude),
			})
		}
		sort.Slice(nearby, func(i, j int) bool {
			return nearby[i].DistanceKm < nearby[j].DistanceKm
		})

		c.JSON(200, gin.H{"stations": nearby})
	}
}

type StationInput struct {
	StationName    string  `json:"stationName" binding:"required"`
	Address        string  `json:"address" binding:"required"`
	Latitude       float64 `json:"latitude" binding:"required"`
	Longitude      float64 `json:"longitude" binding:"required"`
	TotalBikes     int     `json:"totalBikes"`
	AvailableBikes int     `json:"availableBikes"`
	Status         string  `json:"status" binding:"omitempty,oneof=active maintenance closed"`
}

func CreateStation(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input StationInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		status := models.StationStatus(input.Status)
		if status == "" {
			status = models.StationStatusActive
		}

		station := models.Station{
			StationName:    input.StationName,
			Address:        input.Address,
			Latitude:       input.Latitude,
			Longitude:      input.Longitude,
			TotalBikes:     input.TotalBikes,
			AvailableBikes: input.AvailableBikes,
			Status:         status,
		}
		if !station.ValidCounts() {
			c.JSON(400, gin.H{"error": "availableBikes must be between 0 and totalBikes"})
			return
		}

		if result := db.Create(&station); result.Error != nil {
			c.JSON(500, gin.H{"error": "Failed to create station"})
			return
		}

		hub.PublishDocumentEvent(services.TopicStations, services.DocumentEvent{
			Collection: "stations",
			Action:     "created",
			Document:   station,
		})

		c.JSON(201, gin.H{
			"message": "Station created successfully",
			"station": station,
		})
	}
}

type UpdateStationInput struct {
	StationName    string   `json:"stationName"`
	Address        string   `json:"address"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	TotalBikes     *int     `json:"totalBikes"`
	AvailableBikes *int     `json:"availableBikes"`
	Status         string   `json:"status" binding:"omitempty,oneof=active maintenance closed"`
}

func UpdateStation(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var station models.Station
		if result := db.First(&station, c.Param("id")); result.Error != nil {
			c.JSON(404, gin.H{"error": "Station not found"})
			return
		}

		var input UpdateStationInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		if input.StationName != "" {
			station.StationName = input.StationName
		}
		if input.Address != "" {
			station.Address = input.Address
		}
		if input.Latitude != nil {
			station.Latitude = *input.Latitude
		}
		if input.Longitude != nil {
			station.Longitude = *input.Longitude
		}
		if input.TotalBikes != nil {
			station.TotalBikes = *input.TotalBikes
		}
		if input.AvailableBikes != nil {
			station.AvailableBikes = *input.AvailableBikes
		}
		if input.Status != "" {
			station.Status = models.StationStatus(input.Status)
		}

		if !station.ValidCounts() {
			c.JSON(400, gin.H{"error": "availableBikes must be between 0 and totalBikes"})
			return
		}

		if result := db.Save(&station); result.Error != nil {
			c.JSON(500, gin.H{"error": "Failed to update station"})
			return
		}

		hub.PublishDocumentEvent(services.TopicStations, services.DocumentEvent{
			Collection: "stations",
			Action:     "updated",
			Document:   station,
		})

		c.JSON(200, gin.H{
			"message": "Station updated successfully",
			"station": station,
		})
	}
}

func DeleteStation(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var station models.Station
		if result := db.First(&station, c.Param("id")); result.Error != nil {
			c.JSON(404, gin.H{"error": "Station not found"})
			return
		}

		var bikeCount int64
		db.Model(&models.Bike{}).Where("station_id = ?", station.ID).Count(&bikeCount)
		if bikeCount > 0 {
			c.JSON(409, gin.H{"error": "Station still has bikes assigned"})
			return
		}

		if result := db.Delete(&station); result.Error != nil {
			c.JSON(500, gin.H{"error": "Failed to delete station"})
			return
		}

		hub.PublishDocumentEvent(services.TopicStations, services.DocumentEvent{
			Collection: "stations",
			Action:     "deleted",
			Document:   gin.H{"id": station.ID},
		})

		c.JSON(200, gin.H{"message": "Station deleted successfully"})
	}
}
