package models

import (
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserRole string

const (
	UserRoleAdmin    UserRole = "admin"
	UserRoleCustomer UserRole = "customer"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

type User struct {
	gorm.Model
	FullName     string   `json:"fullName" gorm:"column:full_name;not null"`
	Email        string   `json:"email" gorm:"column:email;uniqueIndex;not null"`
	Password     string   `json:"-" gorm:"-"`
	PasswordHash string   `json:"-" gorm:"column:password_hash;not null"`
	Phone        string   `json:"phone" gorm:"column:phone"`
	Address      string   `json:"address" gorm:"column:address"`
	Gender       Gender   `json:"gender" gorm:"column:gender"`
	Role         UserRole `json:"role" gorm:"column:role;not null;default:'customer'"`
	AvatarURL    string   `json:"avatarUrl" gorm:"column:avatar_url"`
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}

func (u *User) HashPassword() error {
	if u.Password == "" {
		return nil
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}
