package handlers

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gobikevn/bikerental-backend/internal/models"
	"github.com/gobikevn/bikerental-backend/pkg/utils"
	"gorm.io/gorm"
)

type RegisterInput struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Gender   string `json:"gender" binding:"omitempty,oneof=male female"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func Register(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input RegisterInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		user := models.User{
			FullName: input.FullName,
			Email:    input.Email,
			Password: input.Password,
			Phone:    input.Phone,
			Address:  input.Address,
			Gender:   models.Gender(input.Gender),
			Role:     models.UserRoleCustomer,
		}
		if err := user.HashPassword(); err != nil {
			c.JSON(500, gin.H{"error": "Failed to hash password"})
			return
		}

		if result := db.Create(&user); result.Error != nil {
			c.JSON(500, gin.H{"error": "Failed to create user: " + result.Error.Error()})
			return
		}

		token, err := utils.GenerateToken(&user)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to generate token"})
			return
		}

		c.JSON(201, gin.H{
			"message": "User created successfully",
			"token":   token,
			"user":    publicUser(&user),
		})
	}
}

func Login(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input LoginInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var user models.User
		if result := db.Where("email = ?", input.Email).First(&user); result.Error != nil {
			c.JSON(401, gin.H{"error": "Invalid credentials"})
			return
		}

		if err := user.CheckPassword(input.Password); err != nil {
			c.JSON(401, gin.H{"error": "Invalid credentials"})
			return
		}

		token, err := utils.GenerateToken(&user)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to generate token"})
			return
		}

		c.JSON(200, gin.H{
			"token": token,
			"user":  publicUser(&user),
		})
	}
}

type ForgotPasswordInput struct {
	Email string `json:"email" binding:"required,email"`
}

// ForgotPassword issues a password-reset OTP by email. The response does
// not reveal whether the address exists.
func ForgotPassword(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input ForgotPasswordInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var user models.User
		if result := db.Where("email = ?", input.Email).First(&user); result.Error != nil {
			c.JSON(200, gin.H{"message": "If the email exists, a reset code has been sent"})
			return
		}

		timestamp := time.Now().Format("20060102150405")
		uniqueKey := fmt.Sprintf("%s-password-reset-%s", user.Email, timestamp)
		otp := utils.GenerateOTP(uniqueKey)

		// Invalidate any existing reset OTPs for this user
		db.Model(&models.OTP{}).
			Where("user_id = ? AND type = ? AND used = ? AND expires_at > ?",
				user.ID, models.OTPTypePasswordReset, false, time.Now()).
			Update("used", true)

		otpRecord := models.OTP{
			UserID:    user.ID,
			Code:      otp,
			Type:      models.OTPTypePasswordReset,
			ExpiresAt: time.Now().Add(utils.OTPExpiration),
		}
		if result := db.Create(&otpRecord); result.Error != nil {
			c.JSON(500, gin.H{"error": "Failed to generate reset code"})
			return
		}

		if err := utils.SendPasswordResetEmail(user.Email, otp); err != nil {
			c.JSON(500, gin.H{"error": "Failed to send reset email: " + err.Error()})
			return
		}

		c.JSON(200, gin.H{"message": "If the email exists, a reset code has been sent"})
	}
}

type VerifyOTPInput struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=4"`
}

func VerifyOTP(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input VerifyOTPInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		otpRecord, err := findValidOTP(db, input.Email, input.Code)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid or expired code"})
			return
		}

		c.JSON(200, gin.H{
			"message":   "Code verified",
			"expiresAt": otpRecord.ExpiresAt,
		})
	}
}

type ResetPasswordInput struct {
	Email       string `json:"email" binding:"required,email"`
	Code        string `json:"code" binding:"required,len=4"`
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}

func ResetPassword(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input ResetPasswordInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		otpRecord, err := findValidOTP(db, input.Email, input.Code)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid or expired code"})
			return
		}

		var user models.User
		if result := db.First(&user, otpRecord.UserID); result.Error != nil {
			c.JSON(404, gin.H{"error": "User not found"})
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

		if err := otpRecord.MarkAsUsed(db); err != nil {
			c.JSON(500, gin.H{"error": "Failed to invalidate code"})
			return
		}

		c.JSON(200, gin.H{"message": "Password reset successfully"})
	}
}

// findValidOTP loads the newest unused, unexpired reset OTP matching the
// email and code.
func findValidOTP(db *gorm.DB, email, code string) (*models.OTP, error) {
	var user models.User
	if result := db.Where("email = ?", email).First(&user); result.Error != nil {
		return nil, result.Error
	}

	var otpRecord models.OTP
	result := db.Where("user_id = ? AND code = ? AND type = ? AND used = ? AND expires_at > ?",
		user.ID, code, models.OTPTypePasswordReset, false, time.Now()).
		Order("created_at DESC").
		First(&otpRecord)
	if result.Error != nil {
		return nil, result.Error
	}
	return &otpRecord, nil
}

// publicUser strips credential fields for API responses.
func publicUser(user *models.User) gin.H {
	return gin.H{
		"id":        user.ID,
		"fullName":  user.FullName,
		"email":     user.Email,
		"phone":     user.Phone,
		"address":   user.Address,
		"gender":    user.Gender,
		"role":      user.Role,
		"avatarUrl": user.AvatarURL,
		"createdAt": user.CreatedAt,
	}
}
