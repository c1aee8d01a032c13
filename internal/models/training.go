package models

import (
	"time"

	"gorm.io/gorm"
)

// Training is a scheduled training session. Deactivating a training hides it
// from assignment pickers but keeps its history intact.
type Training struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Topic     string    `gorm:"not null" json:"topic" validate:"required"`
	Date      time.Time `gorm:"not null" json:"date" validate:"required"`
	Trainer   string    `gorm:"not null" json:"trainer" validate:"required"`
	IsActive  bool      `gorm:"default:true" json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func GetTrainingByID(db *gorm.DB, id uint) (*Training, error) {
	var t Training
	result := db.First(&t, id)
	if result.Error != nil {
		return nil, result.Error
	}
	return &t, nil
}

// ListTrainings returns trainings newest-first, optionally restricted to
// active ones (the assignment dropdown only offers active trainings).
func ListTrainings(db *gorm.DB, activeOnly bool) ([]Training, error) {
	var trainings []Training
	query := db.Order("id desc")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Find(&trainings).Error; err != nil {
		return nil, err
	}
	return trainings, nil
}
