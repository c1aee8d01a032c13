package handlers

import (
	"errors"
	"net/http"
	"time"

	"trainboard-backend/internal/common"
	"trainboard-backend/internal/models"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// TrainingHandler serves the admin training-management surface.
type TrainingHandler struct {
	common.ServerState
}

func NewTrainingHandler(state common.ServerState) *TrainingHandler {
	return &TrainingHandler{ServerState: state}
}

type CreateTrainingRequest struct {
	Topic   string `json:"topic" validate:"required"`
	Date    string `json:"date" validate:"required"`
	Trainer string `json:"trainer" validate:"required"`
}

type UpdateTrainingRequest struct {
	ID       uint    `json:"id"`
	Topic    *string `json:"topic"`
	Date     *string `json:"date"`
	Trainer  *string `json:"trainer"`
	IsActive *bool   `json:"isActive"`
}

// parseTrainingDate accepts both full timestamps and bare dates, which is
// what the admin form sends.
func parseTrainingDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

func (th *TrainingHandler) List(c echo.Context) error {
	activeOnly := c.QueryParam("activeOnly") != ""

	trainings, err := models.ListTrainings(th.DB, activeOnly)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load trainings")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"trainings": trainings})
}

func (th *TrainingHandler) Create(c echo.Context) error {
	req := new(CreateTrainingRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing fields"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing fields"})
	}

	date, err := parseTrainingDate(req.Date)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid date"})
	}

	training := models.Training{
		Topic:    req.Topic,
		Date:     date,
		Trainer:  req.Trainer,
		IsActive: true,
	}

	if err := th.DB.Create(&training).Error; err != nil {
		c.Logger().Errorf("Failed to create training: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create training")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "training": training})
}

func (th *TrainingHandler) Update(c echo.Context) error {
	req := new(UpdateTrainingRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if req.ID == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing id"})
	}

	training, err := models.GetTrainingByID(th.DB, req.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Training not found"})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load training")
	}

	updates := map[string]interface{}{}
	if req.Topic != nil {
		updates["topic"] = *req.Topic
	}
	if req.Date != nil {
		date, err := parseTrainingDate(*req.Date)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid date"})
		}
		updates["date"] = date
	}
	if req.Trainer != nil {
		updates["trainer"] = *req.Trainer
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := th.DB.Model(training).Updates(updates).Error; err != nil {
			c.Logger().Errorf("Failed to update training: %v", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update training")
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "training": training})
}

func (th *TrainingHandler) GetOne(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing or invalid training id"})
	}

	training, err := models.GetTrainingByID(th.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Training not found"})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load training")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"training": training})
}

// Assignments returns the roster for one training with feedback id stubs.
func (th *TrainingHandler) Assignments(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing or invalid training id"})
	}

	assignments, err := models.ListAssignmentsForTraining(th.DB, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load assignments")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"assignments": assignments})
}

// Unassigned lists active participants that can still be added to the
// training's roster, for the assignment picker.
func (th *TrainingHandler) Unassigned(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing or invalid training id"})
	}

	participants, err := models.ListUnassignedParticipants(th.DB, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load participants")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"participants": participants})
}

// Feedbacks returns every assignment for the training with the participant
// and the full feedback record, for the admin review page.
func (th *TrainingHandler) Feedbacks(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing or invalid training id"})
	}

	var assignments []models.Assignment
	if err := th.DB.Where("training_id = ?", id).
		Preload("Participant").
		Preload("Feedback").
		Find(&assignments).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load feedbacks")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"feedbacks": assignments})
}
