// Package forecast predicts future demand. The primary path delegates
// to the external ML service; when it is unreachable the seasonal
// moving-average fallback takes over.
package forecast

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/pkg/metrics"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Models and confidence markers carried on every result.
const (
	ModelPrimary  = "prophet"
	ModelFallback = "fallback"

	ConfidenceHigh = "high"
	ConfidenceLow  = "low"
)

const (
	minDaysAhead     = 1
	maxDaysAhead     = 90
	defaultDaysAhead = 30
)

// DailyPrediction is one forecast day, shared by both result paths.
type DailyPrediction struct {
	Date            string  `json:"date"`
	DayName         string  `json:"day_name"`
	Quantity        float64 `json:"predicted_quantity"`
	LowerBound      float64 `json:"lower_bound"`
	UpperBound      float64 `json:"upper_bound"`
	IsWeekend       bool    `json:"is_weekend"`
	FestivalName    string  `json:"festival_name,omitempty"`
	SpikeMultiplier float64 `json:"spike_multiplier,omitempty"`
}

// Summary aggregates one product's forecast window.
type Summary struct {
	TotalQuantity float64 `json:"total_predicted_quantity"`
	AvgDaily      float64 `json:"avg_daily"`
	MinDaily      float64 `json:"min_daily"`
	MaxDaily      float64 `json:"max_daily"`
	PeakDate      string  `json:"peak_date"`
	PeakDayName   string  `json:"peak_day_name"`
	WeekendAvg    float64 `json:"weekend_avg"`
	WeekdayAvg    float64 `json:"weekday_avg"`
	FestivalDays  int     `json:"festival_days"`
}

// ProfitProjection is the dollar view of a forecast window.
type ProfitProjection struct {
	TotalUnits     float64 `json:"total_units"`
	TotalRevenue   float64 `json:"total_revenue"`
	TotalCost      float64 `json:"total_cost"`
	TotalProfit    float64 `json:"total_profit"`
	AvgDailyProfit float64 `json:"avg_daily_profit"`
	MarginPct      float64 `json:"margin_pct"`
}

// Result is one product's forecast. Model and Confidence discriminate
// the primary and fallback paths; PrimaryUnavailable is the
// machine-readable degradation marker.
type Result struct {
	Product            string            `json:"product"`
	DaysAhead          int               `json:"days_ahead"`
	Model              string            `json:"model"`
	Confidence         string            `json:"confidence"`
	PrimaryUnavailable bool              `json:"primary_unavailable"`
	GeneratedAt        string            `json:"generated_at"`
	Daily              []DailyPrediction `json:"daily_forecast"`
	Summary            Summary           `json:"summary"`
	Profit             ProfitProjection  `json:"profit"`
}

// BatchResult is the all-products response with the combined profit
// view across the portfolio.
type BatchResult struct {
	DaysAhead int              `json:"days_ahead"`
	Results   []Result         `json:"results"`
	Combined  ProfitProjection `json:"combined_profit"`
}

// Catalog provides cost prices for the fallback profit projection.
type Catalog interface {
	GetAll(ctx context.Context) ([]domain.ProductConfig, error)
	GetByName(ctx context.Context, name domain.Product) (*domain.ProductConfig, error)
}

// Engine runs the forecast state machine: attempt the primary service,
// fall back on any failure.
type Engine struct {
	client   *Client
	fallback *Fallback
	catalog  Catalog
	timeout  time.Duration
}

func NewEngine(client *Client, fallback *Fallback, catalog Catalog, timeout time.Duration) *Engine {
	return &Engine{client: client, fallback: fallback, catalog: catalog, timeout: timeout}
}

// Forecast predicts demand for one product.
func (e *Engine) Forecast(ctx context.Context, product string, days int) (*Result, error) {
	name, ok := domain.ParseProduct(product)
	if !ok {
		return nil, domain.NewValidationError("product",
			fmt.Sprintf("unknown product %q", product), append(domain.ProductNames(), "all"))
	}
	days, err := normalizeDays(days)
	if err != nil {
		return nil, err
	}
	return e.forecastOne(ctx, name, days)
}

// ForecastAll predicts demand for every product concurrently and folds
// the profit projections into one combined view.
func (e *Engine) ForecastAll(ctx context.Context, days int) (*BatchResult, error) {
	days, err := normalizeDays(days)
	if err != nil {
		return nil, err
	}

	products := domain.AllProducts
	results := make([]*Result, len(products))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range products {
		i, p := i, p
		g.Go(func() error {
			result, err := e.forecastOne(gctx, p, days)
			if err != nil {
				if domain.IsDataAbsent(err) {
					log.Warn().Str("product", string(p)).Msg("forecast: no history, omitting from batch")
					return nil
				}
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	batch := &BatchResult{DaysAhead: days}
	for _, r := range results {
		if r == nil {
			continue
		}
		batch.Results = append(batch.Results, *r)
		batch.Combined.TotalUnits += r.Profit.TotalUnits
		batch.Combined.TotalRevenue += r.Profit.TotalRevenue
		batch.Combined.TotalCost += r.Profit.TotalCost
		batch.Combined.TotalProfit += r.Profit.TotalProfit
	}
	if len(batch.Results) == 0 {
		return nil, &domain.DataAbsent{Scope: "sales history"}
	}

	sort.Slice(batch.Results, func(i, j int) bool { return batch.Results[i].Product < batch.Results[j].Product })

	batch.Combined.TotalRevenue = round2(batch.Combined.TotalRevenue)
	batch.Combined.TotalCost = round2(batch.Combined.TotalCost)
	batch.Combined.TotalProfit = round2(batch.Combined.TotalProfit)
	batch.Combined.AvgDailyProfit = round2(batch.Combined.TotalProfit / float64(days))
	if batch.Combined.TotalRevenue > 0 {
		batch.Combined.MarginPct = round1(batch.Combined.TotalProfit / batch.Combined.TotalRevenue * 100)
	}
	return batch, nil
}

func (e *Engine) forecastOne(ctx context.Context, product domain.Product, days int) (*Result, error) {
	result, err := e.attemptPrimary(ctx, product, days)
	if err != nil {
		log.Warn().Err(err).Str("product", string(product)).Msg("forecast: primary unavailable, using fallback")
		metrics.ForecastFallbackTotal.Inc()

		cfg, err := e.catalog.GetByName(ctx, product)
		if err != nil {
			return nil, err
		}
		result, err = e.fallback.Forecast(ctx, product, cfg, days)
		if err != nil {
			return nil, err
		}
	}

	result.GeneratedAt = time.Now().UTC().Format(time.RFC3339)
	for _, d := range result.Daily {
		if d.FestivalName != "" {
			result.Summary.FestivalDays++
		}
	}
	return result, nil
}

// attemptPrimary issues the demand and profit calls in parallel under
// one deadline. Partial success is treated as total failure so the
// combined response stays internally consistent.
func (e *Engine) attemptPrimary(ctx context.Context, product domain.Product, days int) (*Result, error) {
	cctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var demand *PrimaryForecast
	var profit *PrimaryProfit

	g, gctx := errgroup.WithContext(cctx)
	g.Go(func() error {
		var err error
		demand, err = e.client.GetForecast(gctx, product, days)
		return err
	})
	g.Go(func() error {
		var err error
		profit, err = e.client.GetProfit(gctx, product, days)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return buildPrimaryResult(product, days, demand, profit), nil
}

func buildPrimaryResult(product domain.Product, days int, demand *PrimaryForecast, profit *PrimaryProfit) *Result {
	daily := make([]DailyPrediction, len(demand.DailyForecast))
	for i, d := range demand.DailyForecast {
		daily[i] = DailyPrediction{
			Date:            d.Date,
			DayName:         d.DayName,
			Quantity:        d.PredictedDemand,
			LowerBound:      d.LowerBound,
			UpperBound:      d.UpperBound,
			IsWeekend:       d.IsWeekend,
			FestivalName:    d.FestivalName,
			SpikeMultiplier: d.SpikeMultiplier,
		}
	}

	s := demand.Summary
	return &Result{
		Product:    string(product),
		DaysAhead:  days,
		Model:      ModelPrimary,
		Confidence: ConfidenceHigh,
		Daily:      daily,
		Summary: Summary{
			TotalQuantity: s.TotalPredicted,
			AvgDaily:      s.AvgDailyDemand,
			MinDaily:      s.MinDailyDemand,
			MaxDaily:      s.MaxDailyDemand,
			PeakDate:      s.PeakDay,
			PeakDayName:   s.PeakDayName,
			WeekendAvg:    s.WeekendAvg,
			WeekdayAvg:    s.WeekdayAvg,
		},
		Profit: ProfitProjection{
			TotalUnits:     profit.Totals.TotalUnits,
			TotalRevenue:   profit.Totals.TotalRevenue,
			TotalCost:      profit.Totals.TotalCost,
			TotalProfit:    profit.Totals.TotalProfit,
			AvgDailyProfit: profit.Totals.AvgDailyProfit,
			MarginPct:      profit.Totals.MarginPercent,
		},
	}
}

func normalizeDays(days int) (int, error) {
	if days == 0 {
		return defaultDaysAhead, nil
	}
	if days < minDaysAhead || days > maxDaysAhead {
		return 0, domain.NewValidationError("days",
			fmt.Sprintf("days must be between %d and %d, got %d", minDaysAhead, maxDaysAhead, days), nil)
	}
	return days, nil
}
