package models

import (
	"gorm.io/gorm"
)

type StationStatus string

const (
	StationStatusActive      StationStatus = "active"
	StationStatusMaintenance StationStatus = "maintenance"
	StationStatusClosed      StationStatus = "closed"
)

type Station struct {
	gorm.Model
	StationName    string        `json:"stationName" gorm:"not null"`
	Address        string        `json:"address" gorm:"not null"`
	Latitude       float64       `json:"latitude" gorm:"not null"`
	Longitude      float64       `json:"longitude" gorm:"not null"`
	TotalBikes     int           `json:"totalBikes" gorm:"not null;default:0"`
	AvailableBikes int           `json:"availableBikes" gorm:"not null;default:0"`
	Status         StationStatus `json:"status" gorm:"not null;default:'active'"`
}

// TableName specifies the table name
func (Station) TableName() string {
	return "stations"
}

// ValidCounts checks the 0 <= available <= total invariant.
func (s *Station) ValidCounts() bool {
	return s.AvailableBikes >= 0 && s.AvailableBikes <= s.TotalBikes
}
