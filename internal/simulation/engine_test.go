package simulation

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func friesConfig() domain.ProductConfig {
	return domain.ProductConfig{
		Name:      domain.ProductFries,
		SellPrice: 3.49,
		CostPrice: 0.80,
		Policy: domain.InventoryPolicy{
			MinStockDaily: 2,
			ReorderPoint:  5,
			MaxStockDaily: 50,
			LeadTimeDays:  1,
		},
	}
}

func TestSimulateProductWalksDaysChronologically(t *testing.T) {
	sales := []domain.DailyProductSales{
		{Product: domain.ProductFries, Day: day("2024-01-01"), Quantity: 10},
		{Product: domain.ProductFries, Day: day("2024-01-02"), Quantity: 20},
		{Product: domain.ProductFries, Day: day("2024-01-03"), Quantity: 0},
	}

	snaps := SimulateProduct(friesConfig(), sales)
	if len(snaps) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(snaps))
	}

	wantStock := []float64{40, 20, 20}
	for i, want := range wantStock {
		if snaps[i].StockLevel != want {
			t.Fatalf("day %d: expected stock %.0f, got %.2f", i, want, snaps[i].StockLevel)
		}
		if snaps[i].Status != domain.StatusGreen {
			t.Fatalf("day %d: expected green, got %s", i, snaps[i].Status)
		}
	}
}

func TestSimulateProductRestocksBelowReorderPoint(t *testing.T) {
	sales := []domain.DailyProductSales{
		{Product: domain.ProductFries, Day: day("2024-01-01"), Quantity: 48},
	}

	snaps := SimulateProduct(friesConfig(), sales)
	if snaps[0].StockLevel != 50 {
		t.Fatalf("expected restock back to 50, got %.2f", snaps[0].StockLevel)
	}
	if snaps[0].Restocked != 48 {
		t.Fatalf("expected restocked delta 48, got %.2f", snaps[0].Restocked)
	}
}

func TestSimulateProductStockNeverNegative(t *testing.T) {
	sales := []domain.DailyProductSales{
		{Product: domain.ProductFries, Day: day("2024-01-01"), Quantity: 120},
		{Product: domain.ProductFries, Day: day("2024-01-02"), Quantity: 80},
		{Product: domain.ProductFries, Day: day("2024-01-03"), Quantity: 49.5},
	}

	for _, s := range SimulateProduct(friesConfig(), sales) {
		if s.StockLevel < 0 {
			t.Fatalf("negative stock on %s: %.2f", s.Day.Format("2006-01-02"), s.StockLevel)
		}
	}
}

func TestSimulateProductSortsUnorderedInput(t *testing.T) {
	sales := []domain.DailyProductSales{
		{Product: domain.ProductFries, Day: day("2024-01-03"), Quantity: 5},
		{Product: domain.ProductFries, Day: day("2024-01-01"), Quantity: 10},
		{Product: domain.ProductFries, Day: day("2024-01-02"), Quantity: 20},
	}

	snaps := SimulateProduct(friesConfig(), sales)
	if !snaps[0].Day.Equal(day("2024-01-01")) {
		t.Fatalf("expected first snapshot on Jan 1, got %s", snaps[0].Day)
	}
	if snaps[2].StockLevel != 15 {
		t.Fatalf("expected final stock 15, got %.2f", snaps[2].StockLevel)
	}
}

func TestSimulateProductDeterministic(t *testing.T) {
	sales := []domain.DailyProductSales{
		{Product: domain.ProductFries, Day: day("2024-01-01"), Quantity: 17.25},
		{Product: domain.ProductFries, Day: day("2024-01-02"), Quantity: 31.5},
		{Product: domain.ProductFries, Day: day("2024-01-03"), Quantity: 8},
	}

	first := SimulateProduct(friesConfig(), sales)
	second := SimulateProduct(friesConfig(), sales)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("two runs over the same input diverged:\n%+v\n%+v", first, second)
	}
}

type fakeSales struct {
	rows []domain.DailyProductSales
}

func (f *fakeSales) DailyProductSales(ctx context.Context) ([]domain.DailyProductSales, error) {
	return f.rows, nil
}

type fakeCatalog struct {
	configs []domain.ProductConfig
}

func (f *fakeCatalog) GetAll(ctx context.Context) ([]domain.ProductConfig, error) {
	return f.configs, nil
}

type fakeSink struct {
	replaced [][]domain.InventorySnapshot
}

func (f *fakeSink) ReplaceAll(ctx context.Context, snapshots []domain.InventorySnapshot) error {
	f.replaced = append(f.replaced, snapshots)
	return nil
}

func TestEngineSkipsUnconfiguredProducts(t *testing.T) {
	sales := &fakeSales{rows: []domain.DailyProductSales{
		{Product: domain.ProductFries, Day: day("2024-01-01"), Quantity: 10},
		{Product: domain.Product("Milkshakes"), Day: day("2024-01-01"), Quantity: 4},
	}}
	catalog := &fakeCatalog{configs: []domain.ProductConfig{friesConfig()}}
	sink := &fakeSink{}

	summary, err := NewEngine(sales, catalog, sink).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Products != 1 {
		t.Fatalf("expected 1 simulated product, got %d", summary.Products)
	}
	if len(summary.Skipped) != 1 || summary.Skipped[0] != "Milkshakes" {
		t.Fatalf("expected Milkshakes skipped, got %v", summary.Skipped)
	}
	if len(sink.replaced) != 1 || len(sink.replaced[0]) != 1 {
		t.Fatalf("expected one snapshot written, got %+v", sink.replaced)
	}
}

func TestEngineNoTransactionsIsDataAbsent(t *testing.T) {
	engine := NewEngine(&fakeSales{}, &fakeCatalog{configs: []domain.ProductConfig{friesConfig()}}, &fakeSink{})
	_, err := engine.Run(context.Background())
	if !domain.IsDataAbsent(err) {
		t.Fatalf("expected DataAbsent, got %v", err)
	}
}

func TestEngineReplacesWholeSeries(t *testing.T) {
	sales := &fakeSales{rows: []domain.DailyProductSales{
		{Product: domain.ProductFries, Day: day("2024-01-01"), Quantity: 10},
		{Product: domain.ProductBurgers, Day: day("2024-01-01"), Quantity: 30},
	}}
	burgers := friesConfig()
	burgers.Name = domain.ProductBurgers
	burgers.Policy = domain.InventoryPolicy{MinStockDaily: 100, ReorderPoint: 250, MaxStockDaily: 800, LeadTimeDays: 2}
	catalog := &fakeCatalog{configs: []domain.ProductConfig{friesConfig(), burgers}}
	sink := &fakeSink{}

	engine := NewEngine(sales, catalog, sink)
	for i := 0; i < 2; i++ {
		if _, err := engine.Run(context.Background()); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}

	if len(sink.replaced) != 2 {
		t.Fatalf("expected 2 full replacements, got %d", len(sink.replaced))
	}
	if !reflect.DeepEqual(sink.replaced[0], sink.replaced[1]) {
		t.Fatalf("re-run produced a different snapshot set")
	}
}
