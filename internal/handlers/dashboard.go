package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"trainboard-backend/internal/common"
	"trainboard-backend/internal/models"

	"github.com/labstack/echo/v4"
)

// DashboardHandler serves the read-only reporting surface.
type DashboardHandler struct {
	common.ServerState
}

func NewDashboardHandler(state common.ServerState) *DashboardHandler {
	return &DashboardHandler{ServerState: state}
}

const statsCacheKey = "trainboard:dashboard-stats"
const statsCacheTTL = 30 * time.Second

// TopTraining is one row of the assignment-count ranking.
type TopTraining struct {
	ID          uint      `json:"id"`
	Topic       string    `json:"topic"`
	Date        time.Time `json:"date"`
	Trainer     string    `json:"trainer"`
	Count       int64     `json:"count"`
	Feedbacks   int64     `json:"feedbacks"`
	FeedbackPct float64   `json:"feedbackPct"`
}

// DashboardStats aggregates the portal-wide counters plus the top-5
// trainings by roster size.
type DashboardStats struct {
	Trainings         int64         `json:"trainings"`
	ActiveTrainings   int64         `json:"activeTrainings"`
	Participants      int64         `json:"participants"`
	Assignments       int64         `json:"assignments"`
	FeedbackSubmitted int64         `json:"feedbackSubmitted"`
	PendingFeedback   int64         `json:"pendingFeedback"`
	TopTrainings      []TopTraining `json:"topTrainings"`
}

// Stats computes the dashboard aggregates, serving a short-lived Redis copy
// when one is available.
func (dh *DashboardHandler) Stats(c echo.Context) error {
	ctx := context.Background()

	if dh.Redis != nil {
		if cached, err := dh.Redis.Get(ctx, statsCacheKey).Bytes(); err == nil {
			return c.JSONBlob(http.StatusOK, cached)
		}
	}

	stats, err := dh.computeStats()
	if err != nil {
		c.Logger().Errorf("Failed to compute dashboard stats: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to compute stats")
	}

	if dh.Redis != nil {
		if payload, err := json.Marshal(stats); err == nil {
			if err := dh.Redis.Set(ctx, statsCacheKey, payload, statsCacheTTL).Err(); err != nil {
				c.Logger().Warnf("Failed to cache dashboard stats: %v", err)
			}
		}
	}

	return c.JSON(http.StatusOK, stats)
}

func (dh *DashboardHandler) computeStats() (*DashboardStats, error) {
	stats := &DashboardStats{TopTrainings: []TopTraining{}}

	if err := dh.DB.Model(&models.Training{}).Count(&stats.Trainings).Error; err != nil {
		return nil, err
	}
	if err := dh.DB.Model(&models.Participant{}).Count(&stats.Participants).Error; err != nil {
		return nil, err
	}
	if err := dh.DB.Model(&models.Assignment{}).Count(&stats.Assignments).Error; err != nil {
		return nil, err
	}
	if err := dh.DB.Model(&models.Feedback{}).Count(&stats.FeedbackSubmitted).Error; err != nil {
		return nil, err
	}
	stats.PendingFeedback = stats.Assignments - stats.FeedbackSubmitted

	activeTrainings, err := models.ListTrainings(dh.DB, true)
	if err != nil {
		return nil, err
	}
	stats.ActiveTrainings = int64(len(activeTrainings))

	type countRow struct {
		TrainingID uint
		Total      int64
	}

	var assignmentCounts []countRow
	if err := dh.DB.Model(&models.Assignment{}).
		Select("training_id, count(*) as total").
		Group("training_id").
		Scan(&assignmentCounts).Error; err != nil {
		return nil, err
	}

	var feedbackCounts []countRow
	if err := dh.DB.Model(&models.Feedback{}).
		Select("assignments.training_id, count(*) as total").
		Joins("JOIN assignments ON assignments.id = feedbacks.assignment_id").
		Group("assignments.training_id").
		Scan(&feedbackCounts).Error; err != nil {
		return nil, err
	}

	assignmentsByTraining := map[uint]int64{}
	for _, row := range assignmentCounts {
		assignmentsByTraining[row.TrainingID] = row.Total
	}
	feedbacksByTraining := map[uint]int64{}
	for _, row := range feedbackCounts {
		feedbacksByTraining[row.TrainingID] = row.Total
	}

	for _, t := range activeTrainings {
		row := TopTraining{
			ID:        t.ID,
			Topic:     t.Topic,
			Date:      t.Date,
			Trainer:   t.Trainer,
			Count:     assignmentsByTraining[t.ID],
			Feedbacks: feedbacksByTraining[t.ID],
		}
		// An empty roster reports 0%, never a division by zero.
		if row.Count > 0 {
			row.FeedbackPct = float64(row.Feedbacks) / float64(row.Count)
		}
		stats.TopTrainings = append(stats.TopTrainings, row)
	}

	sort.SliceStable(stats.TopTrainings, func(i, j int) bool {
		return stats.TopTrainings[i].Count > stats.TopTrainings[j].Count
	})
	if len(stats.TopTrainings) > 5 {
		stats.TopTrainings = stats.TopTrainings[:5]
	}

	return stats, nil
}
