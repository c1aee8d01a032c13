package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Assignment links a participant to a training. The composite unique index is
// the authoritative guard against assigning the same pair twice; handler-level
// pre-checks only exist to produce a friendly error message.
type Assignment struct {
	ID            uint         `json:"id" gorm:"primaryKey"`
	TrainingID    uint         `gorm:"not null;uniqueIndex:idx_training_participant" json:"trainingId"`
	ParticipantID uint         `gorm:"not null;uniqueIndex:idx_training_participant" json:"participantId"`
	Training      *Training    `json:"training,omitempty"`
	Participant   *Participant `json:"participant,omitempty"`
	Feedback      *Feedback    `json:"feedback,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
}

// ErrAlreadyAssigned is returned when the (training, participant) pair
// already has an assignment row.
var ErrAlreadyAssigned = errors.New("participant already assigned to this training")

// AssignParticipant creates the link between a participant and a training.
// A duplicate pair reports ErrAlreadyAssigned whether it is caught by the
// pre-check or by the unique index under a concurrent insert.
func AssignParticipant(db *gorm.DB, trainingID, participantID uint) (*Assignment, error) {
	var existing Assignment
	err := db.Where("training_id = ? AND participant_id = ?", trainingID, participantID).
		First(&existing).Error
	if err == nil {
		return nil, ErrAlreadyAssigned
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	a := Assignment{TrainingID: trainingID, ParticipantID: participantID}
	result := db.Create(&a)
	if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
		return nil, ErrAlreadyAssigned
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &a, nil
}

// UnassignParticipant removes every assignment row for the pair along with
// any feedback attached to it. Removing a pair that was never assigned is not
/// an error. Feedback is cascade-deleted rather than blocking the removal:
// an orphaned survey response has no owner to read it through.
func UnassignParticipant(db *gorm.DB, trainingID, participantID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var assignments []Assignment
		if err := tx.Where("training_id = ? AND participant_id = ?", trainingID, participantID).
			Find(&assignments).Error; err != nil {
			return err
		}
		for _, a := range assignments {
			if err := tx.Where("assignment_id = ?", a.ID).Delete(&Feedback{}).Error; err != nil {
				return err
			}
		}
		return tx.Where("training_id = ? AND participant_id = ?", trainingID, participantID).
			Delete(&Assignment{}).Error
	})
}

// GetAssignmentForPair resolves the assignment for (training, participant),
// or gorm.ErrRecordNotFound when the participant is not assigned.
func GetAssignmentForPair(db *gorm.DB, trainingID, participantID uint) (*Assignment, error) {
	var a Assignment
	err := db.Where("training_id = ? AND participant_id = ?", trainingID, participantID).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetAssignmentWithRelations loads an assignment by id together with its
// participant and feedback, feeding the ownership and duplicate checks of
// feedback submission.
func GetAssignmentWithRelations(db *gorm.DB, id uint) (*Assignment, error) {
	var a Assignment
	err := db.Preload("Participant").Preload("Feedback").First(&a, id).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAssignmentsForParticipant returns a participant's assignments with the
// training loaded and the feedback reduced to an id stub, newest training
// first.
func ListAssignmentsForParticipant(db *gorm.DB, participantID uint) ([]Assignment, error) {
	var assignments []Assignment
	err := db.Where("participant_id = ?", participantID).
		Preload("Training").
		Preload("Feedback", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "assignment_id")
		}).
		Order("training_id desc").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

// ListAssignmentsForTraining returns a training's roster with participants
// loaded and feedback reduced to an id stub.
func ListAssignmentsForTraining(db *gorm.DB, trainingID uint) ([]Assignment, error) {
	var assignments []Assignment
	err := db.Where("training_id = ?", trainingID).
		Preload("Participant").
		Preload("Feedback", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "assignment_id")
		}).
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}
