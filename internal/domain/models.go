// internal/domain/models.go
package domain

import (
	"fmt"
	"time"
)

// Transaction is one immutable sale line. Created by bulk load, never
// mutated, only removed by a full reload.
type Transaction struct {
	ID            string        `json:"id" db:"id"`
	Product       Product       `json:"product" db:"product"`
	Date          time.Time     `json:"date" db:"date"`
	Price         float64       `json:"price" db:"price"`
	Quantity      int           `json:"quantity" db:"quantity"`
	Channel       Channel       `json:"channel" db:"channel"`
	PaymentMethod PaymentMethod `json:"payment_method" db:"payment_method"`
}

// InventoryPolicy holds the stocking thresholds for one product.
// Invariant: 0 <= MinStockDaily < ReorderPoint < MaxStockDaily.
type InventoryPolicy struct {
	MinStockDaily float64 `json:"min_stock_daily" db:"min_stock_daily" yaml:"min_stock_daily"`
	ReorderPoint  float64 `json:"reorder_point" db:"reorder_point" yaml:"reorder_point"`
	MaxStockDaily float64 `json:"max_stock_daily" db:"max_stock_daily" yaml:"max_stock_daily"`
	LeadTimeDays  int     `json:"lead_time_days" db:"lead_time_days" yaml:"lead_time_days"`
}

// Validate enforces the threshold ordering invariant.
func (p InventoryPolicy) Validate() error {
	if p.MinStockDaily < 0 {
		return fmt.Errorf("min_stock_daily must be >= 0, got %.2f", p.MinStockDaily)
	}
	if p.MinStockDaily >= p.ReorderPoint {
		return fmt.Errorf("min_stock_daily (%.2f) must be below reorder_point (%.2f)", p.MinStockDaily, p.ReorderPoint)
	}
	if p.ReorderPoint >= p.MaxStockDaily {
		return fmt.Errorf("reorder_point (%.2f) must be below max_stock_daily (%.2f)", p.ReorderPoint, p.MaxStockDaily)
	}
	return nil
}

// ProductConfig is the per-product pricing and stocking configuration.
// Loaded once from the catalog file; read-only afterwards.
type ProductConfig struct {
	Name      Product         `json:"name" db:"name" yaml:"name"`
	Category  string          `json:"category" db:"category" yaml:"category"`
	SellPrice float64         `json:"sell_price" db:"sell_price" yaml:"sell_price"`
	CostPrice float64         `json:"cost_price" db:"cost_price" yaml:"cost_price"`
	Policy    InventoryPolicy `json:"inventory_policy" yaml:"inventory_policy"`
}

// ProfitPerUnit is the gross profit earned on one unit.
func (c ProductConfig) ProfitPerUnit() float64 {
	return c.SellPrice - c.CostPrice
}

// MarginPercent is the gross margin as a percentage of the sell price.
func (c ProductConfig) MarginPercent() float64 {
	if c.SellPrice == 0 {
		return 0
	}
	return (c.SellPrice - c.CostPrice) / c.SellPrice * 100
}

func (c ProductConfig) Validate() error {
	if _, ok := ParseProduct(string(c.Name)); !ok {
		return fmt.Errorf("unknown product %q", c.Name)
	}
	if c.SellPrice <= 0 {
		return fmt.Errorf("%s: sell_price must be positive", c.Name)
	}
	if c.CostPrice < 0 || c.CostPrice > c.SellPrice {
		return fmt.Errorf("%s: cost_price must be within [0, sell_price]", c.Name)
	}
	if err := c.Policy.Validate(); err != nil {
		return fmt.Errorf("%s: %w", c.Name, err)
	}
	return nil
}

// InventorySnapshot is one product-day record produced by the simulation
// engine. Immutable once written; unique on (product, day). The current
// value for a product is the snapshot with the maximum day.
type InventorySnapshot struct {
	Product    Product     `json:"product" db:"product"`
	Day        time.Time   `json:"day" db:"day"`
	StockLevel float64     `json:"stock_level" db:"stock_level"`
	Consumed   float64     `json:"consumed" db:"consumed"`
	Restocked  float64     `json:"restocked" db:"restocked"`
	Status     StockStatus `json:"status" db:"status"`
}

// FestivalEntry is one cached calendar event. Unique on (name, date).
type FestivalEntry struct {
	Name             string    `json:"name" db:"name"`
	Date             time.Time `json:"date" db:"date"`
	LocalName        string    `json:"local_name" db:"local_name"`
	CountryCode      string    `json:"country_code" db:"country_code"`
	Source           string    `json:"source" db:"source"`
	DemandMultiplier float64   `json:"demand_multiplier" db:"demand_multiplier"`
	FetchedAt        time.Time `json:"fetched_at" db:"fetched_at"`
}

// Festival entry sources.
const (
	FestivalSourceFetched = "fetched"
	FestivalSourceManual  = "manual"
)

// DailyProductSales is one (product, day) consumption total, the input
// granularity of the inventory simulation.
type DailyProductSales struct {
	Product  Product   `db:"product"`
	Day      time.Time `db:"day"`
	Quantity float64   `db:"quantity"`
}

// SalesAggregate carries the revenue/quantity/order sums shared by the
// analytics grouping queries.
type SalesAggregate struct {
	Revenue  float64 `db:"revenue"`
	Quantity int     `db:"quantity"`
	Orders   int     `db:"orders"`
}

// DimensionSales is a SalesAggregate grouped by one dimension value
// (product name or channel).
type DimensionSales struct {
	Key string `db:"key"`
	SalesAggregate
}

// PeriodSales is a SalesAggregate grouped by calendar period.
type PeriodSales struct {
	Period time.Time `db:"period"`
	SalesAggregate
}

// ProductPeriodSales is a (period, product) aggregate used by the profit
// trend, which must attach per-product cost before folding per period.
type ProductPeriodSales struct {
	Period   time.Time `db:"period"`
	Product  Product   `db:"product"`
	Quantity int       `db:"quantity"`
	Revenue  float64   `db:"revenue"`
}

// ConsumptionStats feeds the consumption estimator: total quantity sold
// and the number of distinct days with at least one sale in the window.
type ConsumptionStats struct {
	TotalQuantity float64 `db:"total_quantity"`
	ActiveDays    int     `db:"active_days"`
}

// DailyTotal is one day's sales total for a product, the input of the
// fallback forecaster.
type DailyTotal struct {
	Date     time.Time `db:"day"`
	Quantity float64   `db:"quantity"`
	Revenue  float64   `db:"revenue"`
}
