package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/authdeck/authdeck/internal/analytics"
	"github.com/authdeck/authdeck/internal/models"
)

// AnalyticsSummary is the dashboard analytics payload
type AnalyticsSummary struct {
	TotalUsers     int64                `json:"totalUsers"`
	ActiveUsers    int64                `json:"activeUsers"`
	NewUsers       int64                `json:"newUsers"`
	ConversionRate float64              `json:"conversionRate"`
	UserGrowth     []models.GrowthPoint `json:"userGrowth"`
	CapturedAt     time.Time            `json:"capturedAt"`
}

// @Summary Analytics summary
// @Description Returns the latest captured snapshot, computed live before the first capture
// @Tags analytics
// @Produce json
// @Success 200 {object} AnalyticsSummary
// @Router /api/analytics/summary [get]
// @Security BearerAuth
func (s *Server) getAnalyticsSummary(c *gin.Context) {
	ctx := c.Request.Context()

	snap, err := analytics.Latest(ctx, s.db)
	if errors.Is(err, analytics.ErrNoSnapshot) {
		snap, err = analytics.Compute(ctx, s.db, time.Now())
	}
	if err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to load analytics")
		return
	}

	c.JSON(http.StatusOK, AnalyticsSummary{
		TotalUsers:     snap.TotalUsers,
		ActiveUsers:    snap.ActiveUsers,
		NewUsers:       snap.NewUsers,
		ConversionRate: snap.ConversionRate,
		UserGrowth:     snap.UserGrowth,
		CapturedAt:     snap.CreatedAt,
	})
}
