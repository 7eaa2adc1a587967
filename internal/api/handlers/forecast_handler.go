package handlers

import (
	"strconv"
	"strings"

	"github.com/andresuchdata/stockcast/internal/forecast"
	"github.com/gin-gonic/gin"
)

type ForecastHandler struct {
	engine *forecast.Engine
}

func NewForecastHandler(engine *forecast.Engine) *ForecastHandler {
	return &ForecastHandler{engine: engine}
}

// Forecast handles GET /forecast?product=&days=
func (h *ForecastHandler) Forecast(c *gin.Context) {
	product := strings.TrimSpace(c.DefaultQuery("product", "all"))
	days, _ := strconv.Atoi(c.DefaultQuery("days", "0"))

	if product == "all" || product == "" {
		batch, err := h.engine.ForecastAll(c.Request.Context(), days)
		if err != nil {
			respondError(c, "forecast", err)
			return
		}
		respondOK(c, "forecast", batch)
		return
	}

	result, err := h.engine.Forecast(c.Request.Context(), product, days)
	if err != nil {
		respondError(c, "forecast", err)
		return
	}
	respondOK(c, "forecast", result)
}
