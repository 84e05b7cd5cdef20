package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User describes a registered account. Username and email are stored
// lowercased so the unique indexes enforce case-insensitive uniqueness.
type User struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	EmailVerified bool `gorm:"default:false" json:"email_verified"`
	IsActive      bool `gorm:"default:true" json:"is_active"`
	IsStaff       bool `gorm:"default:false" json:"is_staff"`
	IsSuperuser   bool `gorm:"default:false" json:"is_superuser"`

	LastLoginAt *time.Time `json:"last_login_at"`

	JobApplications []JobApplication `gorm:"foreignKey:UserID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID != "" {
		return nil
	}
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	u.ID = id.String()
	return nil
}
