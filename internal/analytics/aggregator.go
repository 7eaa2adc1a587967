// internal/analytics/aggregator.go
package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/andresuchdata/stockcast/internal/cache"
	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/repository"
	"github.com/rs/zerolog/log"
)

// Query modes.
const (
	ModeOverview   = "overview"
	ModeByProduct  = "by_product"
	ModeByChannel  = "by_channel"
	ModeTrend      = "trend"
	ModeTopSellers = "top_sellers"
)

// ModeNames lists the valid analytics modes for validation payloads.
func ModeNames() []string {
	return []string{ModeOverview, ModeByProduct, ModeByChannel, ModeTrend, ModeTopSellers}
}

const defaultTopLimit = 5

// Source is the slice of the transaction store the aggregator reads.
type Source interface {
	Count(ctx context.Context) (int, error)
	Overview(ctx context.Context, since time.Time) (domain.SalesAggregate, int, int, error)
	AggregateByProduct(ctx context.Context, since time.Time) ([]domain.DimensionSales, error)
	AggregateByChannel(ctx context.Context, since time.Time) ([]domain.DimensionSales, error)
	AggregateByPeriod(ctx context.Context, since time.Time, g repository.TrendGranularity) ([]domain.PeriodSales, error)
	TopByQuantity(ctx context.Context, since time.Time, limit int) ([]domain.DimensionSales, error)
	TopByRevenue(ctx context.Context, since time.Time, limit int) ([]domain.DimensionSales, error)
}

// Query selects one analysis mode over a trailing date window.
// Days <= 0 means the whole history.
type Query struct {
	Mode        string
	Days        int
	Granularity string
	Limit       int
}

// Overview is the portfolio-wide aggregate.
type Overview struct {
	TotalRevenue     float64 `json:"total_revenue"`
	TotalQuantity    int     `json:"total_quantity"`
	Orders           int     `json:"orders"`
	AvgOrderValue    float64 `json:"avg_order_value"`
	AvgUnitPrice     float64 `json:"avg_unit_price"`
	DistinctProducts int     `json:"distinct_products"`
	DistinctChannels int     `json:"distinct_channels"`
}

// BreakdownRow is one dimension value's share of the window.
type BreakdownRow struct {
	Key        string  `json:"key"`
	Revenue    float64 `json:"revenue"`
	Quantity   int     `json:"quantity"`
	Orders     int     `json:"orders"`
	RevenuePct float64 `json:"revenue_pct"`
}

// TrendRow is one calendar period's aggregate.
type TrendRow struct {
	Period   string  `json:"period"`
	Revenue  float64 `json:"revenue"`
	Quantity int     `json:"quantity"`
	Orders   int     `json:"orders"`
}

// RankedProduct is one entry of a top-sellers list.
type RankedProduct struct {
	Product  string  `json:"product"`
	Quantity int     `json:"quantity"`
	Revenue  float64 `json:"revenue"`
}

// Report is the discriminated result of one analytics query; exactly one
// payload field is set, matching Mode.
type Report struct {
	Mode        string          `json:"mode"`
	WindowDays  int             `json:"window_days"`
	Overview    *Overview       `json:"overview,omitempty"`
	Breakdown   []BreakdownRow  `json:"breakdown,omitempty"`
	Granularity string          `json:"granularity,omitempty"`
	Trend       []TrendRow      `json:"trend,omitempty"`
	ByQuantity  []RankedProduct `json:"top_by_quantity,omitempty"`
	ByRevenue   []RankedProduct `json:"top_by_revenue,omitempty"`
}

// Service runs the five analytics modes. Aggregation happens in the
// store; the service shapes, ranks and rounds.
type Service struct {
	source Source
	cache  cache.QueryCache
}

func NewService(source Source, cacheImpl cache.QueryCache) *Service {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopQueryCache()
	}
	return &Service{source: source, cache: cacheImpl}
}

// Run dispatches a query to its mode. Unknown modes are a caller error,
// never a silent default.
func (s *Service) Run(ctx context.Context, q Query) (*Report, error) {
	total, err := s.source.Count(ctx)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, &domain.DataAbsent{Scope: "sales history"}
	}

	since := windowStart(q.Days)

	switch q.Mode {
	case ModeOverview:
		return s.overview(ctx, q.Days, since)
	case ModeByProduct:
		return s.breakdown(ctx, q.Mode, q.Days, since, s.source.AggregateByProduct)
	case ModeByChannel:
		return s.breakdown(ctx, q.Mode, q.Days, since, s.source.AggregateByChannel)
	case ModeTrend:
		return s.trend(ctx, q, since)
	case ModeTopSellers:
		return s.topSellers(ctx, q, since)
	default:
		return nil, domain.NewValidationError("mode",
			fmt.Sprintf("unknown analytics mode %q", q.Mode), ModeNames())
	}
}

func (s *Service) overview(ctx context.Context, days int, since time.Time) (*Report, error) {
	key := cache.BuildKey("analytics:overview", fmt.Sprintf("days=%d", days))

	var cached Report
	if ok, err := s.cache.Get(ctx, key, &cached); err == nil && ok {
		return &cached, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("analytics: overview cache get failed")
	}

	agg, products, channels, err := s.source.Overview(ctx, since)
	if err != nil {
		return nil, err
	}

	o := &Overview{
		TotalRevenue:     round2(agg.Revenue),
		TotalQuantity:    agg.Quantity,
		Orders:           agg.Orders,
		DistinctProducts: products,
		DistinctChannels: channels,
	}
	if agg.Orders > 0 {
		o.AvgOrderValue = round2(agg.Revenue / float64(agg.Orders))
	}
	if agg.Quantity > 0 {
		o.AvgUnitPrice = round2(agg.Revenue / float64(agg.Quantity))
	}

	report := &Report{Mode: ModeOverview, WindowDays: days, Overview: o}
	if err := s.cache.Set(ctx, key, report); err != nil {
		log.Warn().Err(err).Msg("analytics: overview cache set failed")
	}
	return report, nil
}

func (s *Service) breakdown(ctx context.Context, mode string, days int, since time.Time,
	load func(context.Context, time.Time) ([]domain.DimensionSales, error)) (*Report, error) {

	rows, err := load(ctx, since)
	if err != nil {
		return nil, err
	}

	var totalRevenue float64
	for _, row := range rows {
		totalRevenue += row.Revenue
	}

	breakdown := make([]BreakdownRow, len(rows))
	for i, row := range rows {
		var pct float64
		if totalRevenue > 0 {
			pct = round1(row.Revenue / totalRevenue * 100)
		}
		breakdown[i] = BreakdownRow{
			Key:        row.Key,
			Revenue:    round2(row.Revenue),
			Quantity:   row.Quantity,
			Orders:     row.Orders,
			RevenuePct: pct,
		}
	}

	return &Report{Mode: mode, WindowDays: days, Breakdown: breakdown}, nil
}

func (s *Service) trend(ctx context.Context, q Query, since time.Time) (*Report, error) {
	granularity, ok := repository.ParseGranularity(q.Granularity)
	if !ok {
		return nil, domain.NewValidationError("granularity",
			fmt.Sprintf("unknown granularity %q", q.Granularity), repository.GranularityNames())
	}

	rows, err := s.source.AggregateByPeriod(ctx, since, granularity)
	if err != nil {
		return nil, err
	}

	trend := make([]TrendRow, len(rows))
	for i, row := range rows {
		trend[i] = TrendRow{
			Period:   formatPeriod(row.Period, granularity),
			Revenue:  round2(row.Revenue),
			Quantity: row.Quantity,
			Orders:   row.Orders,
		}
	}

	return &Report{Mode: ModeTrend, WindowDays: q.Days, Granularity: string(granularity), Trend: trend}, nil
}

func (s *Service) topSellers(ctx context.Context, q Query, since time.Time) (*Report, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultTopLimit
	}

	byQty, err := s.source.TopByQuantity(ctx, since, limit)
	if err != nil {
		return nil, err
	}
	byRev, err := s.source.TopByRevenue(ctx, since, limit)
	if err != nil {
		return nil, err
	}

	return &Report{
		Mode:       ModeTopSellers,
		WindowDays: q.Days,
		ByQuantity: rank(byQty),
		ByRevenue:  rank(byRev),
	}, nil
}

func rank(rows []domain.DimensionSales) []RankedProduct {
	ranked := make([]RankedProduct, len(rows))
	for i, row := range rows {
		ranked[i] = RankedProduct{
			Product:  row.Key,
			Quantity: row.Quantity,
			Revenue:  round2(row.Revenue),
		}
	}
	return ranked
}

// windowStart converts a trailing day count into an inclusive lower
// bound; days <= 0 means unfiltered.
func windowStart(days int) time.Time {
	if days <= 0 {
		return time.Time{}
	}
	return time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -days)
}

func formatPeriod(t time.Time, g repository.TrendGranularity) string {
	switch g {
	case repository.GranularityWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case repository.GranularityMonth:
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
