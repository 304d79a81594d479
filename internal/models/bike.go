package models

import (
	"gorm.io/gorm"
)

type BikeStatus string

const (
	BikeStatusAvailable   BikeStatus = "available"
	BikeStatusRented      BikeStatus = "rented"
	BikeStatusMaintenance BikeStatus = "maintenance"
)

// BikeTypes lists the eight rentable bike categories shown in the app.
var BikeTypes = []string{
	"road",
	"touring",
	"city",
	"mountain",
	"hybrid",
	"folding",
	"electric",
	"tricycle",
}

type Bike struct {
	gorm.Model
	Name        string     `json:"name" gorm:"not null"`
	Type        string     `json:"type" gorm:"not null"`
	PricePerDay int64      `json:"pricePerDay" gorm:"not null"` // VND per rental day
	Status      BikeStatus `json:"status" gorm:"not null;default:'available'"`
	StationID   *uint      `json:"stationId,omitempty"`
	ImageURL    string     `json:"imageUrl"`
	Station     *Station   `json:"station,omitempty" gorm:"foreignKey:StationID"`
}

// TableName specifies the table name
func (Bike) TableName() string {
	return "bikes"
}

// IsValidBikeType reports whether t is one of the supported categories.
func IsValidBikeType(t string) bool {
	for _, bt := range BikeTypes {
		if bt == t {
			return true
		}
	}
	return false
}
