package handlers

import (
	"errors"
	"net/http"

	"trainboard-backend/internal/common"
	"trainboard-backend/internal/models"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// AssignmentHandler manages the links between participants and trainings.
type AssignmentHandler struct {
	common.ServerState
}

func NewAssignmentHandler(state common.ServerState) *AssignmentHandler {
	return &AssignmentHandler{ServerState: state}
}

type AssignmentRequest struct {
	ParticipantID uint `json:"participantId"`
	TrainingID    uint `json:"trainingId"`
}

// List returns every assignment with participant, training and feedback stub,
// for the admin assignments overview.
func (ah *AssignmentHandler) List(c echo.Context) error {
	var assignments []models.Assignment
	err := ah.DB.
		Preload("Participant").
		Preload("Training").
		Preload("Feedback", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "assignment_id")
		}).
		Find(&assignments).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load assignments")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"assignments": assignments})
}

// Assign links a participant to a training. The pre-check gives the friendly
// 409; the composite unique index settles concurrent duplicates the same way.
func (ah *AssignmentHandler) Assign(c echo.Context) error {
	req := new(AssignmentRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing fields"})
	}
	if req.ParticipantID == 0 || req.TrainingID == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing fields"})
	}

	if _, err := models.GetParticipantByID(ah.DB, req.ParticipantID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Participant not found"})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load participant")
	}
	training, err := models.GetTrainingByID(ah.DB, req.TrainingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Training not found"})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load training")
	}

	if _, err := models.AssignParticipant(ah.DB, req.TrainingID, req.ParticipantID); err != nil {
		if errors.Is(err, models.ErrAlreadyAssigned) {
			return c.JSON(http.StatusConflict, map[string]string{"error": "Already assigned"})
		}
		c.Logger().Errorf("Failed to create assignment: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create assignment")
	}

	if ah.EmailClient != nil {
		if participant, err := models.GetParticipantByID(ah.DB, req.ParticipantID); err == nil {
			ah.EmailClient.SendAssignmentEmail(participant, training)
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"success": true})
}

// Unassign removes the pair's link. Removing a pair that was never assigned
// succeeds; any feedback attached to the link goes with it.
func (ah *AssignmentHandler) Unassign(c echo.Context) error {
	req := new(AssignmentRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing fields"})
	}
	if req.ParticipantID == 0 || req.TrainingID == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing fields"})
	}

	if err := models.UnassignParticipant(ah.DB, req.TrainingID, req.ParticipantID); err != nil {
		c.Logger().Errorf("Failed to remove assignment: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to remove assignment")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"success": true})
}
