package service

import (
	"context"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
)

const defaultLookbackDays = 30

// ConsumptionSource is the aggregation slice the estimator needs.
type ConsumptionSource interface {
	ConsumptionStats(ctx context.Context, product domain.Product, since time.Time) (domain.ConsumptionStats, error)
}

// ConsumptionEstimator derives average daily usage from sales history.
type ConsumptionEstimator struct {
	source ConsumptionSource
}

func NewConsumptionEstimator(source ConsumptionSource) *ConsumptionEstimator {
	return &ConsumptionEstimator{source: source}
}

// AverageDaily returns total quantity sold divided by the number of
// distinct days with at least one sale in the lookback window. Days
// with no sales do not dilute the average. Returns 0 when the window
// has no sales.
func (e *ConsumptionEstimator) AverageDaily(ctx context.Context, product domain.Product, lookbackDays int) (float64, error) {
	if lookbackDays <= 0 {
		lookbackDays = defaultLookbackDays
	}
	since := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -lookbackDays)

	stats, err := e.source.ConsumptionStats(ctx, product, since)
	if err != nil {
		return 0, err
	}
	if stats.ActiveDays == 0 {
		return 0, nil
	}
	return stats.TotalQuantity / float64(stats.ActiveDays), nil
}
