// internal/simulation/engine.go
package simulation

import (
	"context"
	"fmt"
	"sort"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// SalesSource provides the grouped daily consumption history.
type SalesSource interface {
	DailyProductSales(ctx context.Context) ([]domain.DailyProductSales, error)
}

// CatalogSource provides the product configuration set.
type CatalogSource interface {
	GetAll(ctx context.Context) ([]domain.ProductConfig, error)
}

// SnapshotSink receives the rebuilt snapshot series.
type SnapshotSink interface {
	ReplaceAll(ctx context.Context, snapshots []domain.InventorySnapshot) error
}

// Engine rebuilds the full inventory snapshot series from transaction
// history. It runs offline (seed CLI), once per reload, and fully
// replaces the prior snapshot set.
type Engine struct {
	transactions SalesSource
	products     CatalogSource
	snapshots    SnapshotSink
}

func NewEngine(transactions SalesSource, products CatalogSource, snapshots SnapshotSink) *Engine {
	return &Engine{
		transactions: transactions,
		products:     products,
		snapshots:    snapshots,
	}
}

// Summary reports what a simulation run produced.
type Summary struct {
	Products  int      `json:"products"`
	Snapshots int      `json:"snapshots"`
	Skipped   []string `json:"skipped,omitempty"`
}

// Run loads the grouped daily consumption, simulates every configured
// product in parallel, and atomically replaces the snapshot series.
// Products that appear in transactions but not in the catalog are
// logged and skipped; they never abort the batch.
func (e *Engine) Run(ctx context.Context) (*Summary, error) {
	configs, err := e.products.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(configs) == 0 {
		return nil, &domain.DataAbsent{Scope: "product catalog"}
	}

	configByName := make(map[domain.Product]domain.ProductConfig, len(configs))
	for _, c := range configs {
		configByName[c.Name] = c
	}

	rows, err := e.transactions.DailyProductSales(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.DataAbsent{Scope: "transactions"}
	}

	// rows arrive ordered by (product, day); split into per-product runs
	byProduct := make(map[domain.Product][]domain.DailyProductSales)
	for _, row := range rows {
		byProduct[row.Product] = append(byProduct[row.Product], row)
	}

	summary := &Summary{}
	var simulated []domain.Product
	for product := range byProduct {
		if _, ok := configByName[product]; !ok {
			inconsistency := &domain.ConfigurationInconsistency{Product: string(product)}
			log.Warn().Str("product", string(product)).Msg(inconsistency.Error())
			summary.Skipped = append(summary.Skipped, string(product))
			continue
		}
		simulated = append(simulated, product)
	}
	sort.Slice(simulated, func(i, j int) bool { return simulated[i] < simulated[j] })
	sort.Strings(summary.Skipped)

	// Each product's walk is an order-dependent fold, but products are
	// independent of each other and run in parallel.
	results := make([][]domain.InventorySnapshot, len(simulated))
	g, gctx := errgroup.WithContext(ctx)
	for i, product := range simulated {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			results[i] = SimulateProduct(configByName[product], byProduct[product])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("simulation failed: %w", err)
	}

	var all []domain.InventorySnapshot
	for _, series := range results {
		all = append(all, series...)
	}

	if err := e.snapshots.ReplaceAll(ctx, all); err != nil {
		return nil, err
	}

	summary.Products = len(simulated)
	summary.Snapshots = len(all)

	log.Info().
		Int("products", summary.Products).
		Int("snapshots", summary.Snapshots).
		Int("skipped", len(summary.Skipped)).
		Msg("inventory simulation complete")

	return summary, nil
}

// SimulateProduct walks one product's sale days in ascending order,
// starting from a full stock of MaxStockDaily. Each day consumes that
// day's quantity; when the remainder falls below the reorder point an
// idealized zero-lead-time restock tops the stock back up to
// MaxStockDaily and the delta is recorded as restocked.
func SimulateProduct(cfg domain.ProductConfig, days []domain.DailyProductSales) []domain.InventorySnapshot {
	ordered := make([]domain.DailyProductSales, len(days))
	copy(ordered, days)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Day.Before(ordered[j].Day) })

	stock := cfg.Policy.MaxStockDaily
	snapshots := make([]domain.InventorySnapshot, 0, len(ordered))

	for _, day := range ordered {
		stock -= day.Quantity

		var restocked float64
		if stock < cfg.Policy.ReorderPoint {
			restocked = cfg.Policy.MaxStockDaily - stock
			stock = cfg.Policy.MaxStockDaily
		}

		snapshots = append(snapshots, domain.InventorySnapshot{
			Product:    cfg.Name,
			Day:        day.Day,
			StockLevel: round2(stock),
			Consumed:   round2(day.Quantity),
			Restocked:  round2(restocked),
			Status:     domain.ClassifyStock(stock, cfg.Policy.MinStockDaily, cfg.Policy.ReorderPoint),
		})
	}

	return snapshots
}
