package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"trainboard-backend/internal/common"
	"trainboard-backend/internal/models"
	"trainboard-backend/internal/utils"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// ParticipantHandler serves the admin roster-management surface.
type ParticipantHandler struct {
	common.ServerState
}

func NewParticipantHandler(state common.ServerState) *ParticipantHandler {
	return &ParticipantHandler{ServerState: state}
}

type CreateParticipantRequest struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Designation string `json:"designation"`
	Dept        string `json:"dept"`
}

type UpdateParticipantRequest struct {
	ID          uint    `json:"id"`
	Name        *string `json:"name"`
	Email       *string `json:"email"`
	Designation *string `json:"designation"`
	Dept        *string `json:"dept"`
	IsActive    *bool   `json:"isActive"`
}

// List returns all participants, active ones first, newest first within each
// group.
func (ph *ParticipantHandler) List(c echo.Context) error {
	var participants []models.Participant
	if err := ph.DB.Order("is_active desc, id desc").Find(&participants).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load participants")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"participants": participants})
}

func (ph *ParticipantHandler) Create(c echo.Context) error {
	req := new(CreateParticipantRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing fields"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing fields"})
	}

	if err := utils.ValidateEmailAddress(req.Email); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	participant := models.Participant{
		Name:        req.Name,
		Email:       req.Email,
		Designation: req.Designation,
		Dept:        req.Dept,
		IsActive:    true,
	}

	result := ph.DB.Create(&participant)
	if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
		return c.JSON(http.StatusConflict, map[string]string{"error": "Email already exists"})
	}
	if result.Error != nil {
		c.Logger().Errorf("Failed to create participant: %v", result.Error)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create participant")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"participant": participant})
}

// Update applies a partial edit. Toggling IsActive is the only way a
// participant ever leaves the roster; rows are not deleted.
func (ph *ParticipantHandler) Update(c echo.Context) error {
	req := new(UpdateParticipantRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if req.ID == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing id"})
	}

	participant, err := models.GetParticipantByID(ph.DB, req.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Participant not found"})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load participant")
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Email != nil {
		if err := utils.ValidateEmailAddress(*req.Email); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		updates["email"] = *req.Email
	}
	if req.Designation != nil {
		updates["designation"] = *req.Designation
	}
	if req.Dept != nil {
		updates["dept"] = *req.Dept
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		result := ph.DB.Model(participant).Updates(updates)
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return c.JSON(http.StatusConflict, map[string]string{"error": "Email already exists"})
		}
		if result.Error != nil {
			c.Logger().Errorf("Failed to update participant: %v", result.Error)
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update participant")
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"participant": participant})
}

type BulkImportRequest struct {
	Participants []CreateParticipantRequest `json:"participants"`
}

// BulkImport inserts a batch of participants, dropping rows that lack a name
// or a usable email and silently skipping emails that already exist. Only a
// batch with nothing importable is an error.
func (ph *ParticipantHandler) BulkImport(c echo.Context) error {
	req := new(BulkImportRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid data"})
	}
	if req.Participants == nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid data"})
	}

	var rows []models.Participant
	for _, p := range req.Participants {
		if p.Name == "" || p.Email == "" {
			continue
		}
		if err := utils.ValidateEmailAddress(p.Email); err != nil {
			continue
		}
		rows = append(rows, models.Participant{
			Name:        p.Name,
			Email:       p.Email,
			Designation: p.Designation,
			Dept:        p.Dept,
			IsActive:    true,
		})
	}

	if len(rows) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "No valid participants"})
	}

	created, err := models.BulkImportParticipants(ph.DB, rows)
	if err != nil {
		c.Logger().Errorf("Bulk import failed: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to import participants")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "created": created})
}

func (ph *ParticipantHandler) GetOne(c echo.Context) error {
	id, err := parseIDParam(c, "participantId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing or invalid participantId"})
	}

	participant, err := models.GetParticipantByID(ph.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Participant not found"})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load participant")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"participant": participant})
}

// Trainings lists one participant's assignments for the admin detail page.
func (ph *ParticipantHandler) Trainings(c echo.Context) error {
	id, err := parseIDParam(c, "participantId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing or invalid participantId"})
	}

	assignments, err := models.ListAssignmentsForParticipant(ph.DB, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load trainings")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"trainings": assignments})
}

// parseIDParam reads a positive numeric path parameter.
func parseIDParam(c echo.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id parameter")
	}
	return uint(id), nil
}
