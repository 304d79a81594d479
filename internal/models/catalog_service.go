package models

import "gorm.io/gorm"

// CatalogService is an entry of the rental service catalog shown on the
// app's home screen.
type CatalogService struct {
	gorm.Model
	Name        string `json:"name" gorm:"not null"`
	Price       int64  `json:"price" gorm:"not null"` // VND
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

// TableName specifies the table name
func (CatalogService) TableName() string {
	return "catalog_services"
}
