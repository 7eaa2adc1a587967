package forecast

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
)

const fallbackLookbackDays = 30

// HistorySource provides the daily sales totals the fallback model
// trains on.
type HistorySource interface {
	DailyTotals(ctx context.Context, product domain.Product, since time.Time) ([]domain.DailyTotal, error)
}

// Fallback is the seasonal moving-average model used when the primary
// service is unreachable. It learns one multiplier per weekday from the
// last 30 days and jitters each prediction by a bounded uniform factor
// so the output is not perfectly flat.
type Fallback struct {
	source HistorySource
	now    func() time.Time
	junif  func() float64 // uniform [0, 1)
}

func NewFallback(source HistorySource) *Fallback {
	return &Fallback{source: source, now: time.Now, junif: rand.Float64}
}

type weekdayModel struct {
	avgQuantity  float64
	avgUnitPrice float64
	multipliers  [7]float64
}

// Forecast predicts the next days of demand for one product. Returns
// DataAbsent when the product has no sales in the lookback window.
func (f *Fallback) Forecast(ctx context.Context, product domain.Product, cfg *domain.ProductConfig, days int) (*Result, error) {
	today := f.now().UTC().Truncate(24 * time.Hour)
	since := today.AddDate(0, 0, -fallbackLookbackDays)

	totals, err := f.source.DailyTotals(ctx, product, since)
	if err != nil {
		return nil, err
	}
	if len(totals) == 0 {
		return nil, &domain.DataAbsent{Scope: string(product) + " sales history"}
	}

	model := trainWeekdayModel(totals)

	daily := make([]DailyPrediction, days)
	for i := range daily {
		date := today.AddDate(0, 0, i+1)
		weekday := int(date.Weekday())

		variance := 0.9 + 0.2*f.junif()
		quantity := math.Max(0, round1(model.avgQuantity*model.multipliers[weekday]*variance))

		daily[i] = DailyPrediction{
			Date:       date.Format("2006-01-02"),
			DayName:    date.Weekday().String(),
			Quantity:   quantity,
			LowerBound: round1(quantity * 0.8),
			UpperBound: round1(quantity * 1.2),
			IsWeekend:  weekday == 0 || weekday == 6,
		}
	}

	result := &Result{
		Product:            string(product),
		DaysAhead:          days,
		Model:              ModelFallback,
		Confidence:         ConfidenceLow,
		PrimaryUnavailable: true,
		Daily:              daily,
		Summary:            summarize(daily),
	}
	result.Profit = projectProfit(daily, cfg, model.avgUnitPrice, days)
	return result, nil
}

// trainWeekdayModel folds the history into an overall daily average and
// one multiplier per observed weekday. Unobserved weekdays keep the
// neutral multiplier 1.0.
func trainWeekdayModel(totals []domain.DailyTotal) weekdayModel {
	var sumQty, sumRevenue float64
	var qtyByWeekday [7]float64
	var daysByWeekday [7]int

	for _, t := range totals {
		sumQty += t.Quantity
		sumRevenue += t.Revenue
		w := int(t.Date.Weekday())
		qtyByWeekday[w] += t.Quantity
		daysByWeekday[w]++
	}

	model := weekdayModel{avgQuantity: sumQty / float64(len(totals))}
	if sumQty > 0 {
		model.avgUnitPrice = sumRevenue / sumQty
	}
	for w := range model.multipliers {
		model.multipliers[w] = 1.0
		if daysByWeekday[w] > 0 && model.avgQuantity > 0 {
			model.multipliers[w] = (qtyByWeekday[w] / float64(daysByWeekday[w])) / model.avgQuantity
		}
	}
	return model
}

// projectProfit attaches dollar projections to the fallback forecast.
// Catalog prices win; the observed average unit price is the fallback
// when the product has no catalog entry.
func projectProfit(daily []DailyPrediction, cfg *domain.ProductConfig, observedUnitPrice float64, days int) ProfitProjection {
	sellPrice := observedUnitPrice
	var costPrice float64
	if cfg != nil {
		sellPrice = cfg.SellPrice
		costPrice = cfg.CostPrice
	}

	var units float64
	for _, d := range daily {
		units += d.Quantity
	}

	p := ProfitProjection{
		TotalUnits:   round1(units),
		TotalRevenue: round2(units * sellPrice),
		TotalCost:    round2(units * costPrice),
	}
	p.TotalProfit = round2(p.TotalRevenue - p.TotalCost)
	if days > 0 {
		p.AvgDailyProfit = round2(p.TotalProfit / float64(days))
	}
	if p.TotalRevenue > 0 {
		p.MarginPct = round1(p.TotalProfit / p.TotalRevenue * 100)
	}
	return p
}

func summarize(daily []DailyPrediction) Summary {
	s := Summary{MinDaily: math.Inf(1)}
	var weekendSum, weekdaySum float64
	var weekendN, weekdayN int

	for _, d := range daily {
		s.TotalQuantity += d.Quantity
		if d.Quantity < s.MinDaily {
			s.MinDaily = d.Quantity
		}
		if d.Quantity > s.MaxDaily {
			s.MaxDaily = d.Quantity
			s.PeakDate = d.Date
			s.PeakDayName = d.DayName
		}
		if d.IsWeekend {
			weekendSum += d.Quantity
			weekendN++
		} else {
			weekdaySum += d.Quantity
			weekdayN++
		}
	}

	s.TotalQuantity = round1(s.TotalQuantity)
	if len(daily) > 0 {
		s.AvgDaily = round1(s.TotalQuantity / float64(len(daily)))
	}
	if math.IsInf(s.MinDaily, 1) {
		s.MinDaily = 0
	}
	if weekendN > 0 {
		s.WeekendAvg = round1(weekendSum / float64(weekendN))
	}
	if weekdayN > 0 {
		s.WeekdayAvg = round1(weekdaySum / float64(weekdayN))
	}
	return s
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
