package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
)

// Client talks to the external ML forecasting service. Every failure is
// reported as UpstreamUnavailable so the engine can fall back; nothing
// here throws past the forecast boundary.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// PrimaryDay is one day of the upstream demand forecast.
type PrimaryDay struct {
	Date            string  `json:"date"`
	DayName         string  `json:"day_name"`
	PredictedDemand float64 `json:"predicted_demand"`
	LowerBound      float64 `json:"lower_bound"`
	UpperBound      float64 `json:"upper_bound"`
	IsWeekend       bool    `json:"is_weekend"`
	IsFestival      bool    `json:"is_festival"`
	FestivalName    string  `json:"festival_name"`
	SpikeMultiplier float64 `json:"spike_multiplier"`
}

// PrimarySummary is the upstream forecast's aggregate block.
type PrimarySummary struct {
	Product        string  `json:"product"`
	ForecastDays   int     `json:"forecast_days"`
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	TotalPredicted float64 `json:"total_predicted"`
	AvgDailyDemand float64 `json:"avg_daily_demand"`
	MinDailyDemand float64 `json:"min_daily_demand"`
	MaxDailyDemand float64 `json:"max_daily_demand"`
	PeakDay        string  `json:"peak_day"`
	PeakDayName    string  `json:"peak_day_name"`
	WeekendAvg     float64 `json:"weekend_avg"`
	WeekdayAvg     float64 `json:"weekday_avg"`
}

// PrimaryForecast is the demand half of the primary response pair.
type PrimaryForecast struct {
	Summary       PrimarySummary `json:"summary"`
	DailyForecast []PrimaryDay   `json:"daily_forecast"`
	LastTrained   string         `json:"last_trained"`
}

// PrimaryProfitTotals is the aggregate block of the profit projection.
type PrimaryProfitTotals struct {
	ForecastDays   int     `json:"forecast_days"`
	TotalUnits     float64 `json:"total_units"`
	TotalRevenue   float64 `json:"total_revenue"`
	TotalCost      float64 `json:"total_cost"`
	TotalProfit    float64 `json:"total_profit"`
	AvgDailyProfit float64 `json:"avg_daily_profit"`
	MarginPercent  float64 `json:"margin_percent"`
}

// PrimaryProfit is the profit half of the primary response pair.
type PrimaryProfit struct {
	Product string              `json:"product"`
	Totals  PrimaryProfitTotals `json:"totals"`
}

// GetForecast fetches the demand forecast for one product.
func (c *Client) GetForecast(ctx context.Context, product domain.Product, days int) (*PrimaryForecast, error) {
	var result PrimaryForecast
	if err := c.get(ctx, fmt.Sprintf("/forecast/%s", url.PathEscape(string(product))), days, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetProfit fetches the profit projection for one product.
func (c *Client) GetProfit(ctx context.Context, product domain.Product, days int) (*PrimaryProfit, error) {
	var result PrimaryProfit
	if err := c.get(ctx, fmt.Sprintf("/profit/%s", url.PathEscape(string(product))), days, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) get(ctx context.Context, path string, days int, dest interface{}) error {
	endpoint := fmt.Sprintf("%s%s?days=%d", c.baseURL, path, days)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &domain.UpstreamUnavailable{Upstream: "forecast service", Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.UpstreamUnavailable{Upstream: "forecast service", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &domain.UpstreamUnavailable{
			Upstream: "forecast service",
			Err:      fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return &domain.UpstreamUnavailable{
			Upstream: "forecast service",
			Err:      fmt.Errorf("decode response from %s: %w", path, err),
		}
	}
	return nil
}
