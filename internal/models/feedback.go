package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Feedback is the single survey response attached to one assignment. The
// unique index on AssignmentID is the authoritative duplicate guard; once a
// row exists it is immutable.
type Feedback struct {
	ID           uint `json:"id" gorm:"primaryKey"`
	AssignmentID uint `json:"tpId" gorm:"not null;uniqueIndex"`

	TrainerExplanation    string `gorm:"not null" json:"trainerExplanation"`
	TrainerKnowledge      string `gorm:"not null" json:"trainerKnowledge"`
	TrainerEngagement     string `gorm:"not null" json:"trainerEngagement"`
	TrainerAnswering      string `gorm:"not null" json:"trainerAnswering"`
	ContentRelevance      string `gorm:"not null" json:"contentRelevance"`
	ContentClarity        string `gorm:"not null" json:"contentClarity"`
	ContentOrganization   string `gorm:"not null" json:"contentOrganization"`
	InfrastructureComfort string `gorm:"not null" json:"infrastructureComfort"`
	SeatingArrangement    string `gorm:"not null" json:"seatingArrangement"`
	VenueLocation         string `gorm:"not null" json:"venueLocation"`
	OverallSatisfaction   string `gorm:"not null" json:"overallSatisfaction"`
	RecommendTraining     bool   `gorm:"not null" json:"recommendTraining"`
	AdditionalComments    string `json:"additionalComments,omitempty"`

	// Serial printed on the completion certificate rendered from this record.
	CertificateID string    `json:"certificateId" gorm:"unique;not null"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ErrFeedbackExists is returned when an assignment already has a feedback row.
var ErrFeedbackExists = errors.New("feedback already submitted for this assignment")

// ErrFeedbackImmutable is returned by the update hook; feedback has no edit
// path at any layer.
var ErrFeedbackImmutable = errors.New("feedback records cannot be modified")

func (f *Feedback) BeforeCreate(tx *gorm.DB) (err error) {
	// Using uuid v7 to be indexable with B-tree
	uuidV7, err := uuid.NewV7()
	if err != nil {
		return err
	}
	f.CertificateID = uuidV7.String()
	return
}

func (f *Feedback) BeforeUpdate(tx *gorm.DB) error {
	return ErrFeedbackImmutable
}

// CreateFeedback inserts the record, reporting ErrFeedbackExists when the
// assignment already has one. Concurrent duplicate submissions race past any
// handler pre-check; the unique index decides, and the loser sees the same
// error as a sequential duplicate.
func CreateFeedback(db *gorm.DB, f *Feedback) error {
	result := db.Create(f)
	if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
		return ErrFeedbackExists
	}
	return result.Error
}

// GetFeedbackForAssignment returns the feedback for an assignment, or
// (nil, nil) when none has been submitted yet. An absent response is a
// normal state, not an error.
func GetFeedbackForAssignment(db *gorm.DB, assignmentID uint) (*Feedback, error) {
	var f Feedback
	result := db.Where("assignment_id = ?", assignmentID).First(&f)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &f, nil
}

// Rating scales as they appear on the survey form. Each answer field accepts
// exactly one scale; the `level` validator resolves its tag param against
// this table.
var RatingScales = map[string][]string{
	"quality":      {"Excellent", "Good", "Average", "Poor"},
	"agreement":    {"Strongly Agree", "Agree", "Neutral", "Disagree"},
	"engagement":   {"Very Engaging", "Engaging", "Somewhat Engaging", "Not Engaging"},
	"frequency":    {"Always", "Most of the time", "Sometimes", "Rarely"},
	"relevance":    {"Very Relevant", "Somewhat Relevant", "Neutral", "Not Relevant"},
	"satisfaction": {"Very Satisfied", "Satisfied", "Neutral", "Unsatisfied"},
}

// ValidLevel reports whether value is one of the named scale's levels.
func ValidLevel(scale, value string) bool {
	for _, level := range RatingScales[scale] {
		if level == value {
			return true
		}
	}
	return false
}
