package forecast

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
)

type fakeHistory struct {
	totals []domain.DailyTotal
}

func (f *fakeHistory) DailyTotals(ctx context.Context, product domain.Product, since time.Time) ([]domain.DailyTotal, error) {
	return f.totals, nil
}

func flatHistory(days int, qty, revenue float64) []domain.DailyTotal {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	totals := make([]domain.DailyTotal, days)
	for i := range totals {
		totals[i] = domain.DailyTotal{Date: start.AddDate(0, 0, i), Quantity: qty, Revenue: revenue}
	}
	return totals
}

func newFallback(totals []domain.DailyTotal, unif func() float64) *Fallback {
	f := NewFallback(&fakeHistory{totals: totals})
	f.now = func() time.Time { return time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC) }
	if unif != nil {
		f.junif = unif
	}
	return f
}

func TestFallbackHorizonAndBounds(t *testing.T) {
	fb := newFallback(flatHistory(30, 100, 349), nil)

	for _, days := range []int{1, 7, 30, 90} {
		result, err := fb.Forecast(context.Background(), domain.ProductFries, nil, days)
		if err != nil {
			t.Fatalf("horizon %d: %v", days, err)
		}
		if len(result.Daily) != days {
			t.Fatalf("horizon %d: got %d entries", days, len(result.Daily))
		}

		var sum float64
		for _, d := range result.Daily {
			if d.Quantity < 0 {
				t.Errorf("horizon %d: negative prediction %v on %s", days, d.Quantity, d.Date)
			}
			// Flat history means every weekday multiplier is 1; jitter
			// bounds the prediction to [90, 110].
			if d.Quantity < 90 || d.Quantity > 110 {
				t.Errorf("horizon %d: prediction %v outside jitter bounds", days, d.Quantity)
			}
			sum += d.Quantity
		}
		if math.Abs(result.Summary.TotalQuantity-sum) > 0.01 {
			t.Errorf("horizon %d: total %v != sum of dailies %v", days, result.Summary.TotalQuantity, sum)
		}
	}
}

func TestFallbackWeekdayMultipliers(t *testing.T) {
	// Weekends sell double. With jitter pinned to 1.0 the multiplier is
	// the only thing moving predictions.
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	var totals []domain.DailyTotal
	for i := 0; i < 28; i++ {
		date := start.AddDate(0, 0, i)
		qty := 50.0
		if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
			qty = 100.0
		}
		totals = append(totals, domain.DailyTotal{Date: date, Quantity: qty, Revenue: qty * 3.49})
	}

	fb := newFallback(totals, func() float64 { return 0.5 }) // variance exactly 1.0

	result, err := fb.Forecast(context.Background(), domain.ProductFries, nil, 14)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}

	for _, d := range result.Daily {
		date, _ := time.Parse("2006-01-02", d.Date)
		weekend := date.Weekday() == time.Saturday || date.Weekday() == time.Sunday
		if weekend && d.Quantity <= result.Summary.WeekdayAvg {
			t.Errorf("%s (weekend) predicted %v, not above weekday average %v",
				d.Date, d.Quantity, result.Summary.WeekdayAvg)
		}
		if weekend != d.IsWeekend {
			t.Errorf("%s: weekend flag = %v", d.Date, d.IsWeekend)
		}
	}
	if result.Summary.WeekendAvg <= result.Summary.WeekdayAvg {
		t.Errorf("weekend avg %v should exceed weekday avg %v",
			result.Summary.WeekendAvg, result.Summary.WeekdayAvg)
	}
}

func TestFallbackMarkers(t *testing.T) {
	fb := newFallback(flatHistory(10, 20, 69.8), nil)

	result, err := fb.Forecast(context.Background(), domain.ProductFries, nil, 7)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if result.Model != ModelFallback {
		t.Errorf("model = %q, want %q", result.Model, ModelFallback)
	}
	if result.Confidence != ConfidenceLow {
		t.Errorf("confidence = %q, want %q", result.Confidence, ConfidenceLow)
	}
	if !result.PrimaryUnavailable {
		t.Error("expected the primary-unavailable marker")
	}
}

func TestFallbackProfitUsesCatalogPrices(t *testing.T) {
	fb := newFallback(flatHistory(30, 100, 349), func() float64 { return 0.5 })
	cfg := &domain.ProductConfig{Name: domain.ProductFries, SellPrice: 3.49, CostPrice: 0.80}

	result, err := fb.Forecast(context.Background(), domain.ProductFries, cfg, 10)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}

	p := result.Profit
	if p.TotalUnits != 1000 {
		t.Fatalf("total units = %v, want 1000", p.TotalUnits)
	}
	if p.TotalRevenue != 3490 {
		t.Errorf("revenue = %v, want 3490", p.TotalRevenue)
	}
	if p.TotalProfit != p.TotalRevenue-p.TotalCost {
		t.Errorf("profit %v != revenue %v - cost %v", p.TotalProfit, p.TotalRevenue, p.TotalCost)
	}
	if p.MarginPct != 77.1 {
		t.Errorf("margin = %v, want 77.1", p.MarginPct)
	}
}

func TestFallbackNoHistory(t *testing.T) {
	fb := newFallback(nil, nil)

	_, err := fb.Forecast(context.Background(), domain.ProductFries, nil, 7)
	if !domain.IsDataAbsent(err) {
		t.Fatalf("expected data-absent error, got %v", err)
	}
}
