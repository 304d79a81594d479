package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/gobikevn/bikerental-backend/internal/models"
	"gorm.io/gorm"
)

// ListCustomers returns customer accounts for the admin panel, optionally
// filtered by a search term over name, email and phone.
func ListCustomers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := db.Where("role = ?", models.UserRoleCustomer)

		if search := c.Query("search"); search != "" {
			like := "%" + search + "%"
			query = query.Where("full_name ILIKE ? OR email ILIKE ? OR phone ILIKE ?", like, like, like)
		}

		var customers []models.User
		if result := query.Order("created_at DESC").Find(&customers); result.Error != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch customers"})
			return
		}

		out := make([]gin.H, 0, len(customers))
		for i := range customers {
			out = append(out, publicUser(&customers[i]))
		}
		c.JSON(200, gin.H{"customers": out})
	}
}

// GetCustomer returns one customer with their rental history.
func GetCustomer(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var customer models.User
		if result := db.Where("role = ?", models.UserRoleCustomer).First(&customer, c.Param("id")); result.Error != nil {
			c.JSON(404, gin.H{"error": "Customer not found"})
			return
		}

		var rentals []models.Transaction
		if result := db.Where("user_id = ?", customer.ID).
			Order("created_at DESC").
			Find(&rentals); result.Error != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch rental history"})
			return
		}

		c.JSON(200, gin.H{
			"customer": publicUser(&customer),
			"rentals":  rentals,
		})
	}
}

type UpdateCustomerInput struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Gender   string `json:"gender" binding:"omitempty,oneof=male female"`
}

func UpdateCustomer(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var customer models.User
		if result := db.Where("role = ?", models.UserRoleCustomer).First(&customer, c.Param("id")); result.Error != nil {
			c.JSON(404, gin.H{"error": "Customer not found"})
			return
		}

		var input UpdateCustomerInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		updates := map[string]interface{}{}
		if input.FullName != "" {
			updates["full_name"] = input.FullName
		}
		if input.Phone != "" {
			updates["phone"] = input.Phone
		}
		if input.Address != "" {
			updates["address"] = input.Address
		}
		if input.Gender != "" {
			updates["gender"] = input.Gender
		}

		if len(updates) > 0 {
			if result := db.Model(&customer).Updates(updates); result.Error != nil {
				c.JSON(500, gin.H{"error": "Failed to update customer"})
				return
			}
		}

		c.JSON(200, gin.H{
			"message":  "Customer updated successfully",
			"customer": publicUser(&customer),
		})
	}
}

// DeleteCustomer removes a customer account. Blocked while the customer
// still holds a bike.
func DeleteCustomer(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var customer models.User
		if result := db.Where("role = ?", models.UserRoleCustomer).First(&customer, c.Param("id")); result.Error != nil {
			c.JSON(404, gin.H{"error": "Customer not found"})
			return
		}

		var active int64
		db.Model(&models.Transaction{}).
			Where("user_id = ? AND status IN ?", customer.ID,
				[]models.TransactionStatus{models.TransactionStatusConfirmed, models.TransactionStatusReturnRequested}).
			Count(&active)
		if active > 0 {
			c.JSON(409, gin.H{"error": "Customer has an active rental"})
			return
		}

		if result := db.Delete(&customer); result.Error != nil {
			c.JSON(500, gin.H{"error": "Failed to delete customer"})
			return
		}

		c.JSON(200, gin.H{"message": "Customer deleted successfully"})
	}
}
