package models

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB opens a named shared-cache in-memory database so every pooled
// connection sees the same data.
func openTestDB(t *testing.T, name string) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&Participant{}, &Training{}, &Assignment{}, &Feedback{}, &Admin{})
	require.NoError(t, err)
	return db
}

func seedAssignment(t *testing.T, db *gorm.DB, email string) *Assignment {
	p := &Participant{Name: "Test Person", Email: email, IsActive: true}
	require.NoError(t, db.Create(p).Error)

	tr := &Training{Topic: "Test Topic", Trainer: "Test Trainer", Date: time.Now(), IsActive: true}
	require.NoError(t, db.Create(tr).Error)

	assignment, err := AssignParticipant(db, tr.ID, p.ID)
	require.NoError(t, err)
	return assignment
}

func sampleFeedback(assignmentID uint) *Feedback {
	return &Feedback{
		AssignmentID:          assignmentID,
		TrainerExplanation:    "Excellent",
		TrainerKnowledge:      "Strongly Agree",
		TrainerEngagement:     "Very Engaging",
		TrainerAnswering:      "Always",
		ContentRelevance:      "Very Relevant",
		ContentClarity:        "Good",
		ContentOrganization:   "Agree",
		InfrastructureComfort: "Agree",
		SeatingArrangement:    "Neutral",
		VenueLocation:         "Agree",
		OverallSatisfaction:   "Satisfied",
		RecommendTraining:     true,
	}
}

func TestValidLevel(t *testing.T) {
	tests := []struct {
		name     string
		scale    string
		value    string
		expected bool
	}{
		{"Quality top level", "quality", "Excellent", true},
		{"Quality bottom level", "quality", "Poor", true},
		{"Agreement multi-word level", "agreement", "Strongly Agree", true},
		{"Frequency multi-word level", "frequency", "Most of the time", true},
		{"Wrong scale for value", "quality", "Strongly Agree", false},
		{"Case sensitive", "quality", "excellent", false},
		{"Unknown scale", "mood", "Good", false},
		{"Empty value", "satisfaction", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidLevel(tt.scale, tt.value))
		})
	}
}

func TestCreateFeedback_DuplicateAssignment(t *testing.T) {
	db := openTestDB(t, "feedback_dup")
	assignment := seedAssignment(t, db, "dup@test.example")

	first := sampleFeedback(assignment.ID)
	require.NoError(t, CreateFeedback(db, first))
	assert.NotZero(t, first.ID)
	assert.NotEmpty(t, first.CertificateID, "certificate serial should be assigned on create")

	second := sampleFeedback(assignment.ID)
	second.OverallSatisfaction = "Unsatisfied"
	err := CreateFeedback(db, second)
	assert.ErrorIs(t, err, ErrFeedbackExists)

	var count int64
	require.NoError(t, db.Model(&Feedback{}).Where("assignment_id = ?", assignment.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestFeedback_Immutable(t *testing.T) {
	db := openTestDB(t, "feedback_immutable")
	assignment := seedAssignment(t, db, "immutable@test.example")

	f := sampleFeedback(assignment.ID)
	require.NoError(t, CreateFeedback(db, f))

	var loaded Feedback
	require.NoError(t, db.First(&loaded, f.ID).Error)
	loaded.OverallSatisfaction = "Unsatisfied"
	err := db.Save(&loaded).Error
	assert.ErrorIs(t, err, ErrFeedbackImmutable)

	err = db.Model(&Feedback{}).Where("id = ?", f.ID).Update("recommend_training", false).Error
	assert.ErrorIs(t, err, ErrFeedbackImmutable)

	var check Feedback
	require.NoError(t, db.First(&check, f.ID).Error)
	assert.Equal(t, "Satisfied", check.OverallSatisfaction)
	assert.True(t, check.RecommendTraining)
}

func TestGetFeedbackForAssignment_Absent(t *testing.T) {
	db := openTestDB(t, "feedback_absent")
	assignment := seedAssignment(t, db, "absent@test.example")

	f, err := GetFeedbackForAssignment(db, assignment.ID)
	require.NoError(t, err)
	assert.Nil(t, f)
}

func TestAssignParticipant_DuplicatePair(t *testing.T) {
	db := openTestDB(t, "assignment_dup")
	assignment := seedAssignment(t, db, "pair@test.example")

	_, err := AssignParticipant(db, assignment.TrainingID, assignment.ParticipantID)
	assert.ErrorIs(t, err, ErrAlreadyAssigned)
}

func TestUnassignParticipant_CascadesFeedback(t *testing.T) {
	db := openTestDB(t, "assignment_cascade")
	assignment := seedAssignment(t, db, "cascade@test.example")
	require.NoError(t, CreateFeedback(db, sampleFeedback(assignment.ID)))

	require.NoError(t, UnassignParticipant(db, assignment.TrainingID, assignment.ParticipantID))

	var assignments, feedbacks int64
	require.NoError(t, db.Model(&Assignment{}).Where("id = ?", assignment.ID).Count(&assignments).Error)
	require.NoError(t, db.Model(&Feedback{}).Where("assignment_id = ?", assignment.ID).Count(&feedbacks).Error)
	assert.Zero(t, assignments)
	assert.Zero(t, feedbacks)

	// Removing a pair that no longer exists is not an error.
	require.NoError(t, UnassignParticipant(db, assignment.TrainingID, assignment.ParticipantID))
}
