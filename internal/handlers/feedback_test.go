package handlers

import (
	"testing"
	"time"

	"trainboard-backend/internal/models"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func levelValidator(t *testing.T) *validator.Validate {
	v := validator.New()
	err := v.RegisterValidation("level", func(fl validator.FieldLevel) bool {
		return models.ValidLevel(fl.Param(), fl.Field().String())
	})
	require.NoError(t, err)
	return v
}

func validSubmission() *SubmitFeedbackRequest {
	recommend := true
	return &SubmitFeedbackRequest{
		TpID:                  1,
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
		RecommendTraining:     &recommend,
	}
}

func TestSubmitFeedbackRequest_Validation(t *testing.T) {
	v := levelValidator(t)

	t.Run("complete submission passes", func(t *testing.T) {
		assert.NoError(t, v.Struct(validSubmission()))
	})

	t.Run("explicit false recommendation passes", func(t *testing.T) {
		req := validSubmission()
		recommend := false
		req.RecommendTraining = &recommend
		assert.NoError(t, v.Struct(req))
	})

	t.Run("missing recommendation fails", func(t *testing.T) {
		req := validSubmission()
		req.RecommendTraining = nil
		assert.Error(t, v.Struct(req))
	})

	t.Run("off-scale rating fails", func(t *testing.T) {
		req := validSubmission()
		req.TrainerAnswering = "Excellent" // quality level on a frequency field
		err := v.Struct(req)
		require.Error(t, err)

		details := validationDetails(err)
		assert.Contains(t, details, "trainerAnswering")
		assert.Contains(t, details["trainerAnswering"], "Most of the time")
	})

	t.Run("missing rating reported per field", func(t *testing.T) {
		req := validSubmission()
		req.OverallSatisfaction = ""
		req.VenueLocation = ""
		err := v.Struct(req)
		require.Error(t, err)

		details := validationDetails(err)
		assert.Equal(t, "This field is required", details["overallSatisfaction"])
		assert.Equal(t, "This field is required", details["venueLocation"])
	})
}

func TestValidationDetails_NonValidatorError(t *testing.T) {
	details := validationDetails(assert.AnError)
	assert.Equal(t, assert.AnError.Error(), details["_"])
}

func TestLowerFirst(t *testing.T) {
	assert.Equal(t, "trainerExplanation", lowerFirst("TrainerExplanation"))
	assert.Equal(t, "id", lowerFirst("Id"))
	assert.Equal(t, "", lowerFirst(""))
}

func TestParseTrainingDate(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected time.Time
		hasError bool
	}{
		{"RFC3339", "2025-01-10T09:30:00Z", time.Date(2025, 1, 10, 9, 30, 0, 0, time.UTC), false},
		{"Date only", "2025-01-10", time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), false},
		{"Garbage", "next tuesday", time.Time{}, true},
		{"Empty", "", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTrainingDate(tt.raw)
			if tt.hasError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.expected), "parsed %v, expected %v", got, tt.expected)
		})
	}
}
