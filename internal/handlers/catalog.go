package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/gobikevn/bikerental-backend/internal/models"
	"github.com/gobikevn/bikerental-backend/internal/services"
	"gorm.io/gorm"
)

func ListCatalogServices(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var catalog []models.CatalogService
		if result := db.Order("name ASC").Find(&catalog); result.Error != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch services"})
			return
		}

		c.JSON(200, gin.H{"services": catalog})
	}
}

type CatalogServiceInput struct {
	Name        string `json:"name" binding:"required"`
	Price       int64  `json:"price" binding:"required,gte=0"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

func CreateCatalogService(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input CatalogServiceInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		service := models.CatalogService{
			Name:        input.Name,
			Price:       input.Price,
			Icon:        input.Icon,
			Description: input.Description,
		}
		if result := db.Create(&service); result.Error != nil {
			c.JSON(500, gin.H{"error": "Failed to create service"})
			return
		}

		hub.PublishDocumentEvent(services.TopicCatalog, services.DocumentEvent{
			Collection: "catalog_services",
			Action:     "created",
			Document:   service,
		})

		c.JSON(201, gin.H{
			"message": "Service created successfully",
			"service": service,
		})
	}
}

type UpdateCatalogServiceInput struct {
	Name        string `json:"name"`
	Price       *int64 `json:"price" binding:"omitempty,gte=0"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

func UpdateCatalogService(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var service models.CatalogService
		if result := db.First(&service, c.Param("id")); result.Error != nil {
			c.JSON(404, gin.H{"error": "Service not found"})
			return
		}

		var input UpdateCatalogServiceInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		if input.Name != "" {
			service.Name = input.Name
		}
		if input.Price != nil {
			service.Price = *input.Price
		}
		if input.Icon != "" {
			service.Icon = input.Icon
		}
		if input.Description != "" {
			service.Description = input.Description
		}

		if result := db.Save(&service); result.Error != nil {
			c.JSON(500, gin.H{"error": "Failed to update service"})
			return
		}

		hub.PublishDocumentEvent(services.TopicCatalog, services.DocumentEvent{
			Collection: "catalog_services",
			Action:     "updated",
			Document:   service,
		})

		c.JSON(200, gin.H{
			"message": "Service updated successfully",
			"service": service,
		})
	}
}

func DeleteCatalogService(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var service models.CatalogService
		if result := db.First(&service, c.Param("id")); result.Error != nil {
			c.JSON(404, gin.H{"error": "Service not found"})
			return
		}

		if result := db.Delete(&service); result.Error != nil {
			c.JSON(500, gin.H{"error": "Failed to delete service"})
			return
		}

		hub.PublishDocumentEvent(services.TopicCatalog, services.DocumentEvent{
			Collection: "catalog_services",
			Action:     "deleted",
			Document:   gin.H{"id": service.ID},
		})

		c.JSON(200, gin.H{"message": "Service deleted successfully"})
	}
}
