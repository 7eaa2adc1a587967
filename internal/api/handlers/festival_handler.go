package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/festival"
	"github.com/gin-gonic/gin"
)

type FestivalHandler struct {
	cache *festival.Cache
}

func NewFestivalHandler(cache *festival.Cache) *FestivalHandler {
	return &FestivalHandler{cache: cache}
}

// Upcoming handles GET /festivals/upcoming?days=&country=
func (h *FestivalHandler) Upcoming(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "0"))

	result, err := h.cache.Upcoming(c.Request.Context(), days, c.Query("country"))
	if err != nil {
		respondError(c, "festivals", err)
		return
	}
	respondOK(c, "festivals", result)
}

type multiplierRequest struct {
	Name       string  `json:"name" binding:"required"`
	Date       string  `json:"date" binding:"required"`
	Multiplier float64 `json:"multiplier" binding:"required"`
}

// SetMultiplier handles PUT /festivals/multiplier
func (h *FestivalHandler) SetMultiplier(c *gin.Context) {
	var req multiplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, date and multiplier are required"})
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		respondError(c, "festivals", domain.NewValidationError("date",
			"date must be formatted YYYY-MM-DD", nil))
		return
	}

	if err := h.cache.SetMultiplier(c.Request.Context(), req.Name, date, req.Multiplier); err != nil {
		respondError(c, "festivals", err)
		return
	}
	respondOK(c, "festivals", gin.H{"status": "ok"})
}
