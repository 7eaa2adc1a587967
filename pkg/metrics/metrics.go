// pkg/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OperationTotal counts invocations of the five public operations,
	// labeled by operation name and outcome (ok / error).
	OperationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stockcast",
		Name:      "operation_total",
		Help:      "Public operation invocations by outcome",
	}, []string{"operation", "outcome"})

	// ForecastFallbackTotal counts forecasts answered by the statistical
	// fallback because the ML service was unavailable.
	ForecastFallbackTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "stockcast",
		Name:      "forecast_fallback_total",
		Help:      "Forecasts served by the seasonal moving-average fallback",
	})

	// FestivalRefreshTotal counts festival cache refreshes by result.
	FestivalRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stockcast",
		Name:      "festival_refresh_total",
		Help:      "Festival cache refresh attempts by result",
	}, []string{"result"})
)
