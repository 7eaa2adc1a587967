package profit

import (
	"context"
	"testing"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/repository"
)

type fakeSource struct {
	count     int
	byProduct []domain.DimensionSales
	periods   []domain.ProductPeriodSales
}

func (f *fakeSource) Count(ctx context.Context) (int, error) { return f.count, nil }

func (f *fakeSource) AggregateByProduct(ctx context.Context, since time.Time) ([]domain.DimensionSales, error) {
	return f.byProduct, nil
}

func (f *fakeSource) AggregateByPeriodAndProduct(ctx context.Context, since time.Time, g repository.TrendGranularity) ([]domain.ProductPeriodSales, error) {
	return f.periods, nil
}

type fakeCatalog struct {
	configs []domain.ProductConfig
}

func (f *fakeCatalog) GetAll(ctx context.Context) ([]domain.ProductConfig, error) {
	return f.configs, nil
}

func config(name domain.Product, sell, cost float64) domain.ProductConfig {
	return domain.ProductConfig{
		Name:      name,
		SellPrice: sell,
		CostPrice: cost,
		Policy:    domain.InventoryPolicy{MinStockDaily: 2, ReorderPoint: 5, MaxStockDaily: 50},
	}
}

func dim(key string, revenue float64, qty, orders int) domain.DimensionSales {
	return domain.DimensionSales{
		Key:            key,
		SalesAggregate: domain.SalesAggregate{Revenue: revenue, Quantity: qty, Orders: orders},
	}
}

func standardCatalog() *fakeCatalog {
	return &fakeCatalog{configs: []domain.ProductConfig{
		config(domain.ProductBurgers, 12.99, 5.50),
		config(domain.ProductFries, 3.49, 0.80),
		config(domain.ProductBeverages, 2.95, 0.50),
	}}
}

func TestPerProductJoin(t *testing.T) {
	src := &fakeSource{
		count: 100,
		byProduct: []domain.DimensionSales{
			dim("Burgers", 1299.00, 100, 80),
		},
	}
	engine := NewEngine(src, standardCatalog())

	report, err := engine.Run(context.Background(), Query{Days: 30})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	line := report.ByProduct[0]
	if line.CostOfGoods != 550.00 {
		t.Errorf("cost = %v, want 550.00", line.CostOfGoods)
	}
	if line.GrossProfit != 749.00 {
		t.Errorf("profit = %v, want 749.00", line.GrossProfit)
	}
	if line.MarginPct != 57.7 {
		t.Errorf("margin = %v, want 57.7", line.MarginPct)
	}
	if line.AvgSellingPrice != 12.99 || line.ProfitPerUnit != 7.49 {
		t.Errorf("unit economics = (%v, %v), want (12.99, 7.49)", line.AvgSellingPrice, line.ProfitPerUnit)
	}
}

func TestProfitIdentityHolds(t *testing.T) {
	src := &fakeSource{
		count: 100,
		byProduct: []domain.DimensionSales{
			dim("Burgers", 1037.337, 83, 60),
			dim("Fries", 299.993, 86, 70),
			dim("Beverages", 0, 0, 0),
		},
	}
	engine := NewEngine(src, standardCatalog())

	report, err := engine.Run(context.Background(), Query{Days: 7})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, line := range report.ByProduct {
		if line.GrossProfit != line.Revenue-line.CostOfGoods {
			t.Errorf("%s: profit %v != revenue %v - cost %v",
				line.Product, line.GrossProfit, line.Revenue, line.CostOfGoods)
		}
		if line.Revenue == 0 && line.MarginPct != 0 {
			t.Errorf("%s: margin %v with zero revenue, want 0", line.Product, line.MarginPct)
		}
	}
}

func TestTotalsAndInsights(t *testing.T) {
	src := &fakeSource{
		count: 100,
		byProduct: []domain.DimensionSales{
			dim("Burgers", 1299.00, 100, 80),  // margin 57.7, profit 749.00
			dim("Fries", 349.00, 100, 90),     // margin 77.1, profit 269.00
			dim("Beverages", 295.00, 100, 95), // margin 83.1, profit 245.00
		},
	}
	engine := NewEngine(src, standardCatalog())

	report, err := engine.Run(context.Background(), Query{Days: 30})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if report.Totals.Revenue != 1943.00 {
		t.Errorf("total revenue = %v, want 1943.00", report.Totals.Revenue)
	}
	if report.Totals.GrossProfit != 1263.00 {
		t.Errorf("total profit = %v, want 1263.00", report.Totals.GrossProfit)
	}
	if report.Totals.BlendedMarginPct != 65.0 {
		t.Errorf("blended margin = %v, want 65.0", report.Totals.BlendedMarginPct)
	}

	ins := report.Insights
	if ins.HighestMargin != "Beverages" {
		t.Errorf("highest margin = %q, want Beverages", ins.HighestMargin)
	}
	if ins.LowestMargin != "Burgers" {
		t.Errorf("lowest margin = %q, want Burgers", ins.LowestMargin)
	}
	if ins.MostProfitable != "Burgers" {
		t.Errorf("most profitable = %q, want Burgers", ins.MostProfitable)
	}
	if ins.Tip == "" {
		t.Error("expected a qualitative tip")
	}
}

func TestUnconfiguredProductSkipped(t *testing.T) {
	src := &fakeSource{
		count: 10,
		byProduct: []domain.DimensionSales{
			dim("Burgers", 100, 10, 8),
			dim("Milkshakes", 50, 10, 9),
		},
	}
	engine := NewEngine(src, standardCatalog())

	report, err := engine.Run(context.Background(), Query{Days: 30})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.ByProduct) != 1 {
		t.Fatalf("lines = %d, want 1", len(report.ByProduct))
	}
	if len(report.Skipped) != 1 || report.Skipped[0] != "Milkshakes" {
		t.Errorf("skipped = %v, want [Milkshakes]", report.Skipped)
	}
}

func TestTrendUsesPerProductCosts(t *testing.T) {
	day1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	src := &fakeSource{
		count: 10,
		byProduct: []domain.DimensionSales{
			dim("Burgers", 129.90, 10, 8),
			dim("Fries", 34.90, 10, 9),
		},
		periods: []domain.ProductPeriodSales{
			{Period: day1, Product: domain.ProductBurgers, Quantity: 10, Revenue: 129.90},
			{Period: day2, Product: domain.ProductFries, Quantity: 10, Revenue: 34.90},
		},
	}
	engine := NewEngine(src, standardCatalog())

	report, err := engine.Run(context.Background(), Query{Days: 30, IncludeTrend: true, Granularity: "day"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Trend) != 2 {
		t.Fatalf("trend rows = %d, want 2", len(report.Trend))
	}

	// Day one is all Burgers (cost 5.50/unit), day two all Fries
	// (0.80/unit). A single blended rate would get both wrong.
	if report.Trend[0].CostOfGoods != 55.00 {
		t.Errorf("day 1 cost = %v, want 55.00", report.Trend[0].CostOfGoods)
	}
	if report.Trend[1].CostOfGoods != 8.00 {
		t.Errorf("day 2 cost = %v, want 8.00", report.Trend[1].CostOfGoods)
	}
	if report.Trend[0].Period != "2024-03-01" {
		t.Errorf("period = %q, want 2024-03-01", report.Trend[0].Period)
	}
}

func TestEmptyHistoryIsDataAbsent(t *testing.T) {
	engine := NewEngine(&fakeSource{count: 0}, standardCatalog())

	_, err := engine.Run(context.Background(), Query{})
	if !domain.IsDataAbsent(err) {
		t.Fatalf("expected data-absent error, got %v", err)
	}
}
