package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"github.com/authdeck/authdeck/internal/models"
	"github.com/authdeck/authdeck/internal/reports"
	"github.com/authdeck/authdeck/internal/tasks"
)

const (
	reportListLimit   = 50
	reportMaxRetry    = 3
	reportTaskTimeout = 5 * time.Minute
)

// CreateReportRequest requests a report
type CreateReportRequest struct {
	Type string `json:"type" binding:"required"`
}

// @Summary List reports
// @Description Lists the caller's reports, newest first
// @Tags reports
// @Produce json
// @Success 200 {array} models.Report
// @Router /api/reports [get]
// @Security BearerAuth
func (s *Server) listReports(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	list := []models.Report{}
	if err := s.db.WithContext(c.Request.Context()).
		Where("user_id = ?", sessionData.UserID).
		Order("created_at DESC").
		Limit(reportListLimit).
		Find(&list).Error; err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to list reports")
		return
	}

	c.JSON(http.StatusOK, list)
}

// @Summary Generate report
// @Description Queues a report for the worker
// @Tags reports
// @Accept json
// @Produce json
// @Param request body CreateReportRequest true "Report type"
// @Success 202 {object} models.Report
// @Failure 400 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /api/reports [post]
// @Security BearerAuth
func (s *Server) createReport(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var req CreateReportRequest
	if !s.bindJSON(c, &req) {
		return
	}
	if !reports.Valid(req.Type) {
		respondWithError(c, s.logger, http.StatusBadRequest, reports.ErrUnknownReportType, "Unknown report type")
		return
	}

	ctx := c.Request.Context()
	db := s.db.WithContext(ctx)

	report := models.Report{
		UserID: sessionData.UserID,
		Type:   req.Type,
		Status: models.ReportPending,
	}
	if err := db.Create(&report).Error; err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to create report")
		return
	}

	task, err := tasks.NewGenerateReportTask(report.ID)
	if err == nil {
		_, err = s.enqueuer.EnqueueContext(ctx, task,
			asynq.MaxRetry(reportMaxRetry),
			asynq.Timeout(reportTaskTimeout),
		)
	}
	if err != nil {
		now := time.Now().UTC()
		report.Status = models.ReportFailed
		report.Error = "could not be queued"
		report.CompletedAt = &now
		if updateErr := db.Select("status", "error", "completed_at").Updates(&report).Error; updateErr != nil {
			s.logger.Error().Err(updateErr).Str("report_id", report.ID).Msg("Failed to mark report failed")
		}
		respondWithError(c, s.logger, http.StatusServiceUnavailable, err, "Report queue unavailable")
		return
	}

	s.logger.Info().
		Str("report_id", report.ID).
		Str("type", report.Type).
		Str("user_id", sessionData.UserID).
		Msg("Report queued")

	c.JSON(http.StatusAccepted, report)
}

// @Summary Get report
// @Tags reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} models.Report
// @Failure 404 {object} map[string]interface{}
// @Router /api/reports/{id} [get]
// @Security BearerAuth
func (s *Server) getReport(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var report models.Report
	err := s.db.WithContext(c.Request.Context()).
		Where("id = ? AND user_id = ?", c.Param("id"), sessionData.UserID).
		First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondWithError(c, s.logger, http.StatusNotFound, err, "Report not found")
		return
	}
	if err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to load report")
		return
	}

	c.JSON(http.StatusOK, report)
}
