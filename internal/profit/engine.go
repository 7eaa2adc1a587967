// Package profit joins sales aggregates with catalog cost prices to
// produce margin breakdowns, portfolio totals and a profit trend.
package profit

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/repository"
	"github.com/rs/zerolog/log"
)

// Source is the slice of the transaction store the engine reads.
type Source interface {
	Count(ctx context.Context) (int, error)
	AggregateByProduct(ctx context.Context, since time.Time) ([]domain.DimensionSales, error)
	AggregateByPeriodAndProduct(ctx context.Context, since time.Time, g repository.TrendGranularity) ([]domain.ProductPeriodSales, error)
}

// Catalog provides the cost side of the join.
type Catalog interface {
	GetAll(ctx context.Context) ([]domain.ProductConfig, error)
}

// Query selects the analysis window and whether to include the trend.
type Query struct {
	Days         int
	IncludeTrend bool
	Granularity  string
}

// ProductProfit is one product's revenue/cost/margin line.
type ProductProfit struct {
	Product         string  `json:"product"`
	Revenue         float64 `json:"revenue"`
	CostOfGoods     float64 `json:"cost_of_goods"`
	GrossProfit     float64 `json:"gross_profit"`
	MarginPct       float64 `json:"margin_pct"`
	UnitsSold       int     `json:"units_sold"`
	Orders          int     `json:"orders"`
	AvgSellingPrice float64 `json:"avg_selling_price"`
	ProfitPerUnit   float64 `json:"profit_per_unit"`
}

// Totals sums the portfolio. BlendedMarginPct weights every product by
// its revenue share.
type Totals struct {
	Revenue          float64 `json:"revenue"`
	CostOfGoods      float64 `json:"cost_of_goods"`
	GrossProfit      float64 `json:"gross_profit"`
	UnitsSold        int     `json:"units_sold"`
	Orders           int     `json:"orders"`
	BlendedMarginPct float64 `json:"blended_margin_pct"`
}

// Insights names the margin extremes and carries a qualitative tip.
type Insights struct {
	HighestMargin  string `json:"highest_margin_product"`
	LowestMargin   string `json:"lowest_margin_product"`
	MostProfitable string `json:"most_profitable_product"`
	Tip            string `json:"tip"`
}

// TrendRow is one calendar period's portfolio profit. Costs are
// attached per product before periods are folded, so mixed-margin
// periods stay exact.
type TrendRow struct {
	Period      string  `json:"period"`
	Revenue     float64 `json:"revenue"`
	CostOfGoods float64 `json:"cost_of_goods"`
	GrossProfit float64 `json:"gross_profit"`
	UnitsSold   int     `json:"units_sold"`
}

// Report is the full profit analysis for one window.
type Report struct {
	WindowDays int             `json:"window_days"`
	ByProduct  []ProductProfit `json:"by_product"`
	Totals     Totals          `json:"totals"`
	Insights   Insights        `json:"insights"`
	Trend      []TrendRow      `json:"trend,omitempty"`
	Skipped    []string        `json:"skipped_products,omitempty"`
}

type Engine struct {
	source  Source
	catalog Catalog
}

func NewEngine(source Source, catalog Catalog) *Engine {
	return &Engine{source: source, catalog: catalog}
}

// Run executes the profit analysis. Products that sold but have no
// catalog entry are logged and skipped, never fatal.
func (e *Engine) Run(ctx context.Context, q Query) (*Report, error) {
	total, err := e.source.Count(ctx)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, &domain.DataAbsent{Scope: "sales history"}
	}

	configs, err := e.catalog.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(configs) == 0 {
		return nil, &domain.DataAbsent{Scope: "product catalog"}
	}
	costs := make(map[domain.Product]domain.ProductConfig, len(configs))
	for _, cfg := range configs {
		costs[cfg.Name] = cfg
	}

	since := windowStart(q.Days)

	rows, err := e.source.AggregateByProduct(ctx, since)
	if err != nil {
		return nil, err
	}

	report := &Report{WindowDays: q.Days}
	for _, row := range rows {
		cfg, ok := costs[domain.Product(row.Key)]
		if !ok {
			inc := &domain.ConfigurationInconsistency{Product: row.Key}
			log.Warn().Str("product", row.Key).Msg(inc.Error())
			report.Skipped = append(report.Skipped, row.Key)
			continue
		}
		report.ByProduct = append(report.ByProduct, buildLine(row, cfg))
	}
	if len(report.ByProduct) == 0 {
		return nil, &domain.DataAbsent{Scope: "configured product sales"}
	}

	report.Totals = sumTotals(report.ByProduct)
	report.Insights = buildInsights(report.ByProduct, report.Totals)

	if q.IncludeTrend {
		trend, err := e.trend(ctx, q, since, costs)
		if err != nil {
			return nil, err
		}
		report.Trend = trend
	}

	return report, nil
}

func buildLine(row domain.DimensionSales, cfg domain.ProductConfig) ProductProfit {
	cost := cfg.CostPrice * float64(row.Quantity)
	gross := row.Revenue - cost

	line := ProductProfit{
		Product:     row.Key,
		Revenue:     round2(row.Revenue),
		CostOfGoods: round2(cost),
		UnitsSold:   row.Quantity,
		Orders:      row.Orders,
	}
	// Keep the identity gross == revenue - cost exact after rounding.
	line.GrossProfit = round2(line.Revenue - line.CostOfGoods)
	if line.Revenue > 0 {
		line.MarginPct = round1(line.GrossProfit / line.Revenue * 100)
	}
	if row.Quantity > 0 {
		line.AvgSellingPrice = round2(row.Revenue / float64(row.Quantity))
		line.ProfitPerUnit = round2(gross / float64(row.Quantity))
	}
	return line
}

func sumTotals(lines []ProductProfit) Totals {
	var t Totals
	for _, l := range lines {
		t.Revenue += l.Revenue
		t.CostOfGoods += l.CostOfGoods
		t.GrossProfit += l.GrossProfit
		t.UnitsSold += l.UnitsSold
		t.Orders += l.Orders
	}
	t.Revenue = round2(t.Revenue)
	t.CostOfGoods = round2(t.CostOfGoods)
	t.GrossProfit = round2(t.GrossProfit)
	if t.Revenue > 0 {
		t.BlendedMarginPct = round1(t.GrossProfit / t.Revenue * 100)
	}
	return t
}

func buildInsights(lines []ProductProfit, totals Totals) Insights {
	highest, lowest, richest := lines[0], lines[0], lines[0]
	for _, l := range lines[1:] {
		if l.MarginPct > highest.MarginPct {
			highest = l
		}
		if l.MarginPct < lowest.MarginPct {
			lowest = l
		}
		if l.GrossProfit > richest.GrossProfit {
			richest = l
		}
	}

	var tip string
	switch {
	case totals.BlendedMarginPct >= 60:
		tip = "Excellent blended margin. Promote the high-margin items to grow profit further."
	case totals.BlendedMarginPct >= 40:
		tip = "Healthy blended margin. Watch cost creep on the lower-margin products."
	default:
		tip = "Blended margin is thin. Review cost prices and supplier terms."
	}

	return Insights{
		HighestMargin:  highest.Product,
		LowestMargin:   lowest.Product,
		MostProfitable: richest.Product,
		Tip:            tip,
	}
}

// trend attaches per-product costs before folding periods together. A
// single blended cost rate would misprice any period whose product mix
// differs from the window average.
func (e *Engine) trend(ctx context.Context, q Query, since time.Time, costs map[domain.Product]domain.ProductConfig) ([]TrendRow, error) {
	granularity, ok := repository.ParseGranularity(q.Granularity)
	if !ok {
		return nil, domain.NewValidationError("granularity",
			"unknown granularity "+q.Granularity, repository.GranularityNames())
	}

	rows, err := e.source.AggregateByPeriodAndProduct(ctx, since, granularity)
	if err != nil {
		return nil, err
	}

	var trend []TrendRow
	index := make(map[time.Time]int)
	for _, row := range rows {
		cfg, ok := costs[row.Product]
		if !ok {
			continue
		}
		i, seen := index[row.Period]
		if !seen {
			i = len(trend)
			index[row.Period] = i
			trend = append(trend, TrendRow{Period: formatPeriod(row.Period, granularity)})
		}
		cost := cfg.CostPrice * float64(row.Quantity)
		trend[i].Revenue += row.Revenue
		trend[i].CostOfGoods += cost
		trend[i].GrossProfit += row.Revenue - cost
		trend[i].UnitsSold += row.Quantity
	}

	for i := range trend {
		trend[i].Revenue = round2(trend[i].Revenue)
		trend[i].CostOfGoods = round2(trend[i].CostOfGoods)
		trend[i].GrossProfit = round2(trend[i].GrossProfit)
	}
	return trend, nil
}

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
