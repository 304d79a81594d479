package services

import (
	"context"
	"log"

	"github.com/gobikevn/bikerental-backend/internal/models"
	"gorm.io/gorm"
)

// ReconcileStationAvailability recomputes every station's available-bike
// count from the bikes table and corrects drifted rows. Rentals keep the
// counts fresh in the happy path; this job repairs drift after crashes or
// manual database edits. Runs on a cron schedule from main.
func ReconcileStationAvailability(ctx context.Context, db *gorm.DB) error {
	var stations []models.Station
	if err := db.WithContext(ctx).Find(&stations).Error; err != nil {
		return err
	}

	for _, station := range stations {
		var total, available int64
		if err := db.WithContext(ctx).Model(&models.Bike{}).
			Where("station_id = ?", station.ID).
			Count(&total).Error; err != nil {
			return err
		}
		if err := db.WithContext(ctx).Model(&models.Bike{}).
			Where("station_id = ? AND status = ?", station.ID, models.BikeStatusAvailable).
			Count(&available).Error; err != nil {
			return err
		}

		if station.TotalBikes != int(total) || station.AvailableBikes != int(available) {
			log.Printf("Station %d counts drifted (total %d->%d, available %d->%d), correcting",
				station.ID, station.TotalBikes, total, station.AvailableBikes, available)
			if err := db.WithContext(ctx).Model(&models.Station{}).
				Where("id = ?", station.ID).
				Updates(map[string]interface{}{
					"total_bikes":     total,
					"available_bikes": available,
				}).Error; err != nil {
				return err
			}
		}

		if RedisClient != nil {
			if err := SetStationAvailability(ctx, station.ID, int(available)); err != nil {
				log.Printf("Failed to cache availability for station %d: %v", station.ID, err)
			}
		}
	}

	return nil
}
