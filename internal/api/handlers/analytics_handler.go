package handlers

import (
	"strconv"
	"strings"

	"github.com/andresuchdata/stockcast/internal/analytics"
	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	service *analytics.Service
}

func NewAnalyticsHandler(service *analytics.Service) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

// Sales handles GET /analytics/sales?mode=&days=&granularity=&limit=
func (h *AnalyticsHandler) Sales(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	query := analytics.Query{
		Mode:        strings.TrimSpace(c.DefaultQuery("mode", analytics.ModeOverview)),
		Days:        days,
		Granularity: strings.TrimSpace(c.Query("granularity")),
		Limit:       limit,
	}

	report, err := h.service.Run(c.Request.Context(), query)
	if err != nil {
		respondError(c, "analytics_sales", err)
		return
	}
	respondOK(c, "analytics_sales", report)
}
