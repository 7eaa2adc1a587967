package handlers

import (
	"strconv"
	"strings"

	"github.com/andresuchdata/stockcast/internal/service"
	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	service *service.InventoryService
}

func NewInventoryHandler(service *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: service}
}

// Check handles GET /inventory/check?product=&days=
func (h *InventoryHandler) Check(c *gin.Context) {
	product := strings.TrimSpace(c.DefaultQuery("product", "all"))
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))

	result, err := h.service.Check(c.Request.Context(), product, days)
	if err != nil {
		respondError(c, "inventory_check", err)
		return
	}
	respondOK(c, "inventory_check", result)
}
