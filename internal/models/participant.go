package models

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Participant is someone who can be assigned to trainings and submit
// feedback. Participants are never hard-deleted, only deactivated.
type Participant struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `gorm:"not null" json:"name" validate:"required"`
	Email       string    `gorm:"not null;unique" json:"email" validate:"required,email"`
	Designation string    `json:"designation"`
	Dept        string    `json:"dept"`
	IsActive    bool      `gorm:"default:true" json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func GetParticipantByEmail(db *gorm.DB, email string) (*Participant, error) {
	var p Participant
	result := db.Where("email = ?", email).First(&p)
	if result.Error != nil {
		return nil, result.Error
	}
	return &p, nil
}

func GetParticipantByID(db *gorm.DB, id uint) (*Participant, error) {
	var p Participant
	result := db.First(&p, id)
	if result.Error != nil {
		return nil, result.Error
	}
	return &p, nil
}

// ListUnassignedParticipants returns active participants that have no
// assignment for the given training, ordered by name ascending. The ordering
// is byte-wise (no collation) so it is stable across drivers.
func ListUnassignedParticipants(db *gorm.DB, trainingID uint) ([]Participant, error) {
	var participants []Participant
	sub := db.Model(&Assignment{}).Select("participant_id").Where("training_id = ?", trainingID)
	err := db.Where("is_active = ?", true).
		Where("id NOT IN (?)", sub).
		Order("name asc").
		Find(&participants).Error
	if err != nil {
		return nil, err
	}
	return participants, nil
}

// BulkImportParticipants inserts the given rows, silently skipping rows whose
// email already exists. Skips use ON CONFLICT DO NOTHING rather than catching
// the unique violation, which would abort the surrounding transaction on
// Postgres. Returns the number of rows actually created.
func BulkImportParticipants(db *gorm.DB, rows []Participant) (int, error) {
	created := 0
	err := db.Transaction(func(tx *gorm.DB) error {
		for i := range rows {
			result := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "email"}},
				DoNothing: true,
			}).Create(&rows[i])
			if result.Error != nil {
				return result.Error
			}
			created += int(result.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}
