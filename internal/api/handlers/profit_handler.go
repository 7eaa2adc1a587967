package handlers

import (
	"strconv"
	"strings"

	"github.com/andresuchdata/stockcast/internal/profit"
	"github.com/gin-gonic/gin"
)

type ProfitHandler struct {
	engine *profit.Engine
}

func NewProfitHandler(engine *profit.Engine) *ProfitHandler {
	return &ProfitHandler{engine: engine}
}

// Analysis handles GET /analytics/profit?days=&trend=&granularity=
func (h *ProfitHandler) Analysis(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))

	query := profit.Query{
		Days:         days,
		IncludeTrend: c.DefaultQuery("trend", "false") == "true",
		Granularity:  strings.TrimSpace(c.Query("granularity")),
	}

	report, err := h.engine.Run(c.Request.Context(), query)
	if err != nil {
		respondError(c, "analytics_profit", err)
		return
	}
	respondOK(c, "analytics_profit", report)
}
