package handlers

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/gobikevn/bikerental-backend/internal/models"
	"github.com/gobikevn/bikerental-backend/internal/services"
	"gorm.io/gorm"
)

func GetProfile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		var user models.User
		if result := db.First(&user, userID); result.Error != nil {
			c.JSON(404, gin.H{"error": "User not found"})
			return
		}

		c.JSON(200, gin.H{"user": publicUser(&user)})
	}
}

type UpdateProfileInput struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Gender   string `json:"gender" binding:"omitempty,oneof=male female"`
}

func UpdateProfile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		var input UpdateProfileInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var user models.User
		if result := db.First(&user, userID); result.Error != nil {
			c.JSON(404, gin.H{"error": "User not found"})
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
			if result := db.Model(&user).Updates(updates); result.Error != nil {
				c.JSON(500, gin.H{"error": "Failed to update profile"})
				return
			}
		}

		c.JSON(200, gin.H{
			"message": "Profile updated successfully",
			"user":    publicUser(&user),
		})
	}
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}

// ChangePassword requires the current password before accepting a new one.
func ChangePassword(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		var input ChangePasswordInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var user models.User
		if result := db.First(&user, userID); result.Error != nil {
			c.JSON(404, gin.H{"error": "User not found"})
			return
		}

		if err := user.CheckPassword(input.CurrentPassword); err != nil {
			c.JSON(401, gin.H{"error": "Current password is incorrect"})
			return
		}

		user.Password = input.NewPassword
		if err := user.HashPassword(); err != nil {
			c.JSON(500, gin.H{"error": "Failed to hash password"})
			return
		}
		if result := db.Model(&user).Update("password_hash", user.PasswordHash); result.Error != nil {
			c.JSON(500, gin.H{"error": "Failed to update password"})
			return
		}

		c.JSON(200, gin.H{"message": "Password changed successfully"})
	}
}

// UploadAvatar replaces the user's avatar image.
func UploadAvatar(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		var user models.User
		if result := db.First(&user, userID); result.Error != nil {
			c.JSON(404, gin.H{"error": "User not found"})
			return
		}

		file, err := c.FormFile("avatar")
		if err != nil {
			c.JSON(400, gin.H{"error": "Avatar file is required"})
			return
		}

		url, err := services.UploadImage(file, services.FolderAvatars)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to upload avatar: " + err.Error()})
			return
		}

		oldURL := user.AvatarURL
		if result := db.Model(&user).Update("avatar_url", url); result.Error != nil {
			c.JSON(500, gin.H{"error": "Failed to save avatar"})
			return
		}

		if oldURL != "" {
			if err := services.DeleteImage(oldURL); err != nil {
				// The new avatar is already saved; the orphan file stays
				// behind for manual cleanup.
				log.Printf("Failed to delete old avatar %s: %v", oldURL, err)
			}
		}

		c.JSON(200, gin.H{
			"message":   "Avatar updated successfully",
			"avatarUrl": url,
		})
	}
}
