package forecast

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
)

type fakeCatalog struct {
	configs map[domain.Product]*domain.ProductConfig
}

func (f *fakeCatalog) GetAll(ctx context.Context) ([]domain.ProductConfig, error) {
	var all []domain.ProductConfig
	for _, cfg := range f.configs {
		all = append(all, *cfg)
	}
	return all, nil
}

func (f *fakeCatalog) GetByName(ctx context.Context, name domain.Product) (*domain.ProductConfig, error) {
	return f.configs[name], nil
}

func friesCatalog() *fakeCatalog {
	return &fakeCatalog{configs: map[domain.Product]*domain.ProductConfig{
		domain.ProductFries: {Name: domain.ProductFries, SellPrice: 3.49, CostPrice: 0.80},
	}}
}

func primaryServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/forecast/"):
			json.NewEncoder(w).Encode(PrimaryForecast{
				Summary: PrimarySummary{
					Product:        "Fries",
					ForecastDays:   7,
					TotalPredicted: 700,
					AvgDailyDemand: 100,
				},
				DailyForecast: []PrimaryDay{
					{Date: "2024-04-01", DayName: "Monday", PredictedDemand: 100, LowerBound: 80, UpperBound: 120},
				},
			})
		case strings.HasPrefix(r.URL.Path, "/profit/"):
			json.NewEncoder(w).Encode(PrimaryProfit{
				Product: "Fries",
				Totals:  PrimaryProfitTotals{TotalUnits: 700, TotalRevenue: 2443, TotalCost: 560, TotalProfit: 1883},
			})
		default:
			http.NotFound(w, r)
		}
	}))
}

func newEngine(baseURL string, timeout time.Duration, totals []domain.DailyTotal) *Engine {
	fb := NewFallback(&fakeHistory{totals: totals})
	fb.now = func() time.Time { return time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC) }
	return NewEngine(NewClient(baseURL, timeout), fb, friesCatalog(), timeout)
}

func TestPrimaryPathSuccess(t *testing.T) {
	srv := primaryServer(t)
	defer srv.Close()

	engine := newEngine(srv.URL, time.Second, nil)

	result, err := engine.Forecast(context.Background(), "Fries", 7)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if result.Model != ModelPrimary {
		t.Errorf("model = %q, want %q", result.Model, ModelPrimary)
	}
	if result.Confidence != ConfidenceHigh {
		t.Errorf("confidence = %q, want %q", result.Confidence, ConfidenceHigh)
	}
	if result.PrimaryUnavailable {
		t.Error("primary marker set on a successful primary result")
	}
	if result.Summary.TotalQuantity != 700 {
		t.Errorf("total = %v, want 700", result.Summary.TotalQuantity)
	}
	if result.Profit.TotalProfit != 1883 {
		t.Errorf("profit = %v, want 1883", result.Profit.TotalProfit)
	}
}

func TestPrimaryTimeoutFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	engine := newEngine(srv.URL, 20*time.Millisecond, flatHistory(30, 100, 349))

	result, err := engine.Forecast(context.Background(), "Fries", 7)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if result.Model != ModelFallback {
		t.Errorf("model = %q, want %q", result.Model, ModelFallback)
	}
	if !result.PrimaryUnavailable {
		t.Error("expected the primary-unavailable marker")
	}
	if len(result.Daily) != 7 {
		t.Errorf("entries = %d, want 7", len(result.Daily))
	}
}

func TestPartialPrimaryFailureFallsBack(t *testing.T) {
	// Demand succeeds, profit returns 500. Partial success must be
	// treated as total failure.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/profit/") {
			http.Error(w, "model not trained", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(PrimaryForecast{
			DailyForecast: []PrimaryDay{{Date: "2024-04-01", PredictedDemand: 100}},
		})
	}))
	defer srv.Close()

	engine := newEngine(srv.URL, time.Second, flatHistory(30, 100, 349))

	result, err := engine.Forecast(context.Background(), "Fries", 7)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if result.Model != ModelFallback {
		t.Errorf("model = %q, want %q after partial failure", result.Model, ModelFallback)
	}
}

func TestForecastValidation(t *testing.T) {
	engine := newEngine("http://localhost:0", time.Second, nil)

	if _, err := engine.Forecast(context.Background(), "Pizza", 7); !domain.IsValidation(err) {
		t.Errorf("unknown product: got %v, want validation error", err)
	}
	if _, err := engine.Forecast(context.Background(), "Fries", 91); !domain.IsValidation(err) {
		t.Errorf("days out of range: got %v, want validation error", err)
	}
	if _, err := engine.Forecast(context.Background(), "Fries", -1); !domain.IsValidation(err) {
		t.Errorf("negative days: got %v, want validation error", err)
	}
}

func TestForecastNoHistoryAnywhere(t *testing.T) {
	engine := newEngine("http://localhost:0", 20*time.Millisecond, nil)

	_, err := engine.Forecast(context.Background(), "Fries", 7)
	if !domain.IsDataAbsent(err) {
		t.Fatalf("expected data-absent error, got %v", err)
	}
}

func TestForecastAllCombinesProfit(t *testing.T) {
	srv := primaryServer(t)
	defer srv.Close()

	engine := newEngine(srv.URL, time.Second, nil)

	batch, err := engine.ForecastAll(context.Background(), 7)
	if err != nil {
		t.Fatalf("forecast all: %v", err)
	}
	if len(batch.Results) != 5 {
		t.Fatalf("results = %d, want 5", len(batch.Results))
	}
	if batch.Combined.TotalProfit != 5*1883 {
		t.Errorf("combined profit = %v, want %v", batch.Combined.TotalProfit, 5*1883.0)
	}
	if batch.Combined.MarginPct == 0 {
		t.Error("expected a blended margin on the combined view")
	}
	for i := 1; i < len(batch.Results); i++ {
		if batch.Results[i-1].Product > batch.Results[i].Product {
			t.Errorf("results not sorted: %q before %q", batch.Results[i-1].Product, batch.Results[i].Product)
		}
	}
}
