package models

import (
	"time"

	"gorm.io/gorm"
)

// Admin is a separate identity namespace from participants: presence of a
// row for an email grants elevated access during session resolution. The
// same email may be both an admin and a participant.
type Admin struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Email     string    `gorm:"not null;unique" json:"email" validate:"required,email"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func GetAdminByEmail(db *gorm.DB, email string) (*Admin, error) {
	var a Admin
	result := db.Where("email = ?", email).First(&a)
	if result.Error != nil {
		return nil, result.Error
	}
	return &a, nil
}
