// backend/internal/repository/repositories.go
package repository

import (
	"context"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
)

// TrendGranularity selects the calendar bucket for trend queries.
type TrendGranularity string

const (
	GranularityDay   TrendGranularity = "day"
	GranularityWeek  TrendGranularity = "week"
	GranularityMonth TrendGranularity = "month"
)

// ParseGranularity resolves a trend granularity, defaulting to day when
// empty.
func ParseGranularity(s string) (TrendGranularity, bool) {
	switch TrendGranularity(s) {
	case "", GranularityDay:
		return GranularityDay, true
	case GranularityWeek:
		return GranularityWeek, true
	case GranularityMonth:
		return GranularityMonth, true
	}
	return "", false
}

// GranularityNames returns the valid granularity values for validation
// payloads.
func GranularityNames() []string {
	return []string{string(GranularityDay), string(GranularityWeek), string(GranularityMonth)}
}

// TransactionRepository owns the immutable sales history and every
// aggregation the analytics, profit, consumption and forecast engines
// run over it. All "since" parameters are inclusive lower bounds; the
// zero time means unfiltered.
type TransactionRepository interface {
	InsertBatch(ctx context.Context, txs []domain.Transaction) error
	DeleteAll(ctx context.Context) error
	Count(ctx context.Context) (int, error)

	// Overview returns the portfolio-wide aggregate plus distinct
	// product/channel counts for the window.
	Overview(ctx context.Context, since time.Time) (domain.SalesAggregate, int, int, error)
	// AggregateByProduct / AggregateByChannel group the window by one
	// dimension, sorted by revenue descending.
	AggregateByProduct(ctx context.Context, since time.Time) ([]domain.DimensionSales, error)
	AggregateByChannel(ctx context.Context, since time.Time) ([]domain.DimensionSales, error)
	// AggregateByPeriod groups by calendar period ascending.
	AggregateByPeriod(ctx context.Context, since time.Time, g TrendGranularity) ([]domain.PeriodSales, error)
	// AggregateByPeriodAndProduct feeds the profit trend, which needs
	// per-product quantities before costs can be attached.
	AggregateByPeriodAndProduct(ctx context.Context, since time.Time, g TrendGranularity) ([]domain.ProductPeriodSales, error)
	// TopByQuantity / TopByRevenue return the independently ranked
	// top-N product lists.
	TopByQuantity(ctx context.Context, since time.Time, limit int) ([]domain.DimensionSales, error)
	TopByRevenue(ctx context.Context, since time.Time, limit int) ([]domain.DimensionSales, error)

	// ConsumptionStats sums quantity and counts distinct sale days for
	// one product in the window.
	ConsumptionStats(ctx context.Context, product domain.Product, since time.Time) (domain.ConsumptionStats, error)
	// DailyTotals returns per-day quantity and revenue for one product,
	// ascending by day.
	DailyTotals(ctx context.Context, product domain.Product, since time.Time) ([]domain.DailyTotal, error)
	// DailyProductSales returns every (product, day) consumption total in
	// chronological order, the simulation engine's input.
	DailyProductSales(ctx context.Context) ([]domain.DailyProductSales, error)
}

// ProductRepository owns the product catalog loaded from configuration.
type ProductRepository interface {
	ReplaceAll(ctx context.Context, configs []domain.ProductConfig) error
	GetAll(ctx context.Context) ([]domain.ProductConfig, error)
	GetByName(ctx context.Context, name domain.Product) (*domain.ProductConfig, error)
}

// SnapshotRepository owns the simulated inventory series.
type SnapshotRepository interface {
	// ReplaceAll atomically swaps the whole snapshot set; the simulation
	// fully replaces, never merges.
	ReplaceAll(ctx context.Context, snapshots []domain.InventorySnapshot) error
	Latest(ctx context.Context, product domain.Product) (*domain.InventorySnapshot, error)
	Series(ctx context.Context, product domain.Product) ([]domain.InventorySnapshot, error)
}

// FestivalRepository owns the cached calendar events.
type FestivalRepository interface {
	// Upsert inserts or refreshes an entry by (name, date), preserving a
	// previously learned demand multiplier unless one is explicitly set.
	Upsert(ctx context.Context, entry domain.FestivalEntry) error
	// LatestFetch returns the most recent fetch time for a country, or
	// nil when the country has never been fetched.
	LatestFetch(ctx context.Context, countryCode string) (*time.Time, error)
	// Range returns entries with date in [from, to], ascending.
	Range(ctx context.Context, countryCode string, from, to time.Time) ([]domain.FestivalEntry, error)
}
