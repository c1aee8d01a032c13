package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"trainboard-backend/internal/common"
	"trainboard-backend/internal/models"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// FeedbackHandler enforces the one-shot feedback contract: a participant may
// submit exactly one immutable survey response per assignment, and only for
// assignments that reference them.
type FeedbackHandler struct {
	common.ServerState
}

func NewFeedbackHandler(state common.ServerState) *FeedbackHandler {
	return &FeedbackHandler{ServerState: state}
}

// SubmitFeedbackRequest carries the survey answers. Each rating field is
// constrained to its scale via the custom `level` validator; the recommend
// flag is a pointer so an explicit false still passes `required`.
type SubmitFeedbackRequest struct {
	TpID                  uint   `json:"tpId" validate:"required"`
	TrainerExplanation    string `json:"trainerExplanation" validate:"required,level=quality"`
	TrainerKnowledge      string `json:"trainerKnowledge" validate:"required,level=agreement"`
	TrainerEngagement     string `json:"trainerEngagement" validate:"required,level=engagement"`
	TrainerAnswering      string `json:"trainerAnswering" validate:"required,level=frequency"`
	ContentRelevance      string `json:"contentRelevance" validate:"required,level=relevance"`
	ContentClarity        string `json:"contentClarity" validate:"required,level=quality"`
	ContentOrganization   string `json:"contentOrganization" validate:"required,level=agreement"`
	InfrastructureComfort string `json:"infrastructureComfort" validate:"required,level=agreement"`
	SeatingArrangement    string `json:"seatingArrangement" validate:"required,level=agreement"`
	VenueLocation         string `json:"venueLocation" validate:"required,level=agreement"`
	OverallSatisfaction   string `json:"overallSatisfaction" validate:"required,level=satisfaction"`
	RecommendTraining     *bool  `json:"recommendTraining" validate:"required"`
	AdditionalComments    string `json:"additionalComments"`
}

// Submit creates the feedback record for an assignment the caller owns.
// Order matters: ownership before duplicate check before insert, with the
// unique index on the assignment reference as the authority under concurrent
// double-submits.
func (fh *FeedbackHandler) Submit(c echo.Context) error {
	identity, err := fh.JwtIssuer.GetIdentity(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	req := new(SubmitFeedbackRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid input"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "Invalid input",
			"details": validationDetails(err),
		})
	}

	assignment, err := models.GetAssignmentWithRelations(fh.DB, req.TpID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "Forbidden"})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load assignment")
	}
	if assignment.Participant == nil || assignment.Participant.Email != identity.Email {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "Forbidden"})
	}

	if assignment.Feedback != nil {
		return c.JSON(http.StatusConflict, map[string]string{"error": "Feedback already submitted"})
	}

	feedback := models.Feedback{
		AssignmentID:          assignment.ID,
		TrainerExplanation:    req.TrainerExplanation,
		TrainerKnowledge:      req.TrainerKnowledge,
		TrainerEngagement:     req.TrainerEngagement,
		TrainerAnswering:      req.TrainerAnswering,
		ContentRelevance:      req.ContentRelevance,
		ContentClarity:        req.ContentClarity,
		ContentOrganization:   req.ContentOrganization,
		InfrastructureComfort: req.InfrastructureComfort,
		SeatingArrangement:    req.SeatingArrangement,
		VenueLocation:         req.VenueLocation,
		OverallSatisfaction:   req.OverallSatisfaction,
		RecommendTraining:     *req.RecommendTraining,
		AdditionalComments:    req.AdditionalComments,
	}

	if err := models.CreateFeedback(fh.DB, &feedback); err != nil {
		if errors.Is(err, models.ErrFeedbackExists) {
			return c.JSON(http.StatusConflict, map[string]string{"error": "Feedback already submitted"})
		}
		c.Logger().Errorf("Failed to create feedback: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create feedback")
	}

	if fh.EmailClient != nil {
		if training, err := models.GetTrainingByID(fh.DB, assignment.TrainingID); err == nil {
			fh.EmailClient.SendFeedbackReceiptEmail(assignment.Participant, training, feedback.CertificateID)
		}
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{"success": true, "feedback": feedback})
}

// Get returns the caller's feedback for an assignment, after the same
// ownership check as Submit. "Not submitted yet" is {feedback: null}, never
// an error.
func (fh *FeedbackHandler) Get(c echo.Context) error {
	identity, err := fh.JwtIssuer.GetIdentity(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	tpIDParam := c.QueryParam("tpId")
	tpID, err := strconv.ParseUint(tpIDParam, 10, 32)
	if err != nil || tpID == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "tpId query required"})
	}

	assignment, err := models.GetAssignmentWithRelations(fh.DB, uint(tpID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "Forbidden"})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load assignment")
	}
	if assignment.Participant == nil || assignment.Participant.Email != identity.Email {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "Forbidden"})
	}

	if assignment.Feedback == nil {
		return c.JSON(http.StatusOK, map[string]interface{}{"feedback": nil})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"feedback": assignment.Feedback})
}

// validationDetails flattens validator errors into a per-field message map
// the UI can render next to each question.
func validationDetails(err error) map[string]string {
	details := map[string]string{}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		details["_"] = err.Error()
		return details
	}

	for _, fe := range verrs {
		field := lowerFirst(fe.Field())
		switch fe.Tag() {
		case "required":
			details[field] = "This field is required"
		case "level":
			levels := models.RatingScales[fe.Param()]
			details[field] = "Must be one of: " + strings.Join(levels, ", ")
		default:
			details[field] = "Invalid value"
		}
	}
	return details
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
