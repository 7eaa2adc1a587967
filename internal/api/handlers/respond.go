package handlers

import (
	"errors"
	"net/http"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// respondError translates the domain error taxonomy into structured
// payloads. Nothing raises past the API boundary.
func respondError(c *gin.Context, operation string, err error) {
	metrics.OperationTotal.WithLabelValues(operation, "error").Inc()

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		payload := gin.H{"error": ve.Error(), "field": ve.Field}
		if len(ve.Valid) > 0 {
			payload["valid_options"] = ve.Valid
		}
		c.JSON(http.StatusBadRequest, payload)
		return
	}

	var da *domain.DataAbsent
	if errors.As(err, &da) {
		c.JSON(http.StatusNotFound, gin.H{"error": da.Error()})
		return
	}

	var uu *domain.UpstreamUnavailable
	if errors.As(err, &uu) {
		log.Error().Err(err).Str("operation", operation).Msg("upstream unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": uu.Error()})
		return
	}

	log.Error().Err(err).Str("operation", operation).Msg("operation failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func respondOK(c *gin.Context, operation string, payload interface{}) {
	metrics.OperationTotal.WithLabelValues(operation, "ok").Inc()
	c.JSON(http.StatusOK, payload)
}
