// Package service holds the query-time inventory logic: the consumption
// estimator and the online inventory check that combines the latest
// simulated snapshot with catalog thresholds.
package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/andresuchdata/stockcast/internal/cache"
	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DaysToStockoutCap is the display ceiling for the stockout estimate;
// it doubles as the unbounded indicator when consumption is zero.
const DaysToStockoutCap = 999

const allHealthyMessage = "All products healthy"

// SnapshotSource provides the latest simulated snapshot per product.
type SnapshotSource interface {
	Latest(ctx context.Context, product domain.Product) (*domain.InventorySnapshot, error)
}

// CatalogSource provides the product configuration for threshold checks.
type CatalogSource interface {
	GetAll(ctx context.Context) ([]domain.ProductConfig, error)
	GetByName(ctx context.Context, name domain.Product) (*domain.ProductConfig, error)
}

// ProductCheck is one product's inventory position at query time.
type ProductCheck struct {
	Product             string             `json:"product"`
	CurrentStock        float64            `json:"current_stock"`
	Status              domain.StockStatus `json:"status"`
	RecommendedAction   string             `json:"recommended_action"`
	AvgDailyConsumption float64            `json:"avg_daily_consumption"`
	DaysToStockout      float64            `json:"days_to_stockout"`
	RestockQuantity     float64            `json:"restock_quantity"`
	AsOf                time.Time          `json:"as_of"`
}

// CheckSummary counts status bands and lists the non-green products.
type CheckSummary struct {
	Green   int      `json:"green"`
	Yellow  int      `json:"yellow"`
	Red     int      `json:"red"`
	Alerts  []string `json:"alerts"`
	Message string   `json:"message,omitempty"`
}

// CheckResult is the full inventory check response.
type CheckResult struct {
	Products []ProductCheck `json:"products"`
	Summary  CheckSummary   `json:"summary"`
}

// InventoryService runs the online inventory check.
type InventoryService struct {
	snapshots   SnapshotSource
	catalog     CatalogSource
	consumption *ConsumptionEstimator
	cache       cache.QueryCache
}

func NewInventoryService(snapshots SnapshotSource, catalog CatalogSource, consumption *ConsumptionEstimator, cacheImpl cache.QueryCache) *InventoryService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopQueryCache()
	}
	return &InventoryService{snapshots: snapshots, catalog: catalog, consumption: consumption, cache: cacheImpl}
}

// Check evaluates one product, or every catalog product when product is
// empty or "all". Products are evaluated concurrently; no product's
// result depends on a sibling's. The all-products summary is cached.
func (s *InventoryService) Check(ctx context.Context, product string, lookbackDays int) (*CheckResult, error) {
	all := product == "" || product == "all"
	key := cache.BuildKey("inventory:summary", fmt.Sprintf("days=%d", lookbackDays))
	if all {
		var cached CheckResult
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	configs, err := s.targetConfigs(ctx, product)
	if err != nil {
		return nil, err
	}

	checks := make([]*ProductCheck, len(configs))
	g, gctx := errgroup.WithContext(ctx)
	for i, cfg := range configs {
		i, cfg := i, cfg
		g.Go(func() error {
			check, err := s.checkProduct(gctx, cfg, lookbackDays)
			if err != nil {
				return err
			}
			checks[i] = check
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &CheckResult{Summary: CheckSummary{Alerts: []string{}}}
	for _, check := range checks {
		if check == nil {
			continue
		}
		result.Products = append(result.Products, *check)
		switch check.Status {
		case domain.StatusGreen:
			result.Summary.Green++
		case domain.StatusYellow:
			result.Summary.Yellow++
			result.Summary.Alerts = append(result.Summary.Alerts, check.Product)
		case domain.StatusRed:
			result.Summary.Red++
			result.Summary.Alerts = append(result.Summary.Alerts, check.Product)
		}
	}
	if len(result.Products) == 0 {
		return nil, &domain.DataAbsent{Scope: "inventory snapshots"}
	}
	if len(result.Summary.Alerts) == 0 {
		result.Summary.Message = allHealthyMessage
	}

	if all {
		if err := s.cache.Set(ctx, key, result); err != nil {
			log.Warn().Err(err).Msg("inventory: cache write failed")
		}
	}
	return result, nil
}

func (s *InventoryService) targetConfigs(ctx context.Context, product string) ([]domain.ProductConfig, error) {
	if product == "" || product == "all" {
		configs, err := s.catalog.GetAll(ctx)
		if err != nil {
			return nil, err
		}
		if len(configs) == 0 {
			return nil, &domain.DataAbsent{Scope: "product catalog"}
		}
		sort.Slice(configs, func(i, j int) bool { return configs[i].Name < configs[j].Name })
		return configs, nil
	}

	name, ok := domain.ParseProduct(product)
	if !ok {
		return nil, domain.NewValidationError("product",
			fmt.Sprintf("unknown product %q", product), append(domain.ProductNames(), "all"))
	}
	cfg, err := s.catalog.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, &domain.DataAbsent{Scope: fmt.Sprintf("catalog entry for %s", name)}
	}
	return []domain.ProductConfig{*cfg}, nil
}

func (s *InventoryService) checkProduct(ctx context.Context, cfg domain.ProductConfig, lookbackDays int) (*ProductCheck, error) {
	latest, err := s.snapshots.Latest(ctx, cfg.Name)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		// No simulated series yet for this product. Skip it rather than
		// fail the whole check.
		log.Warn().Str("product", string(cfg.Name)).Msg("inventory: no snapshot, skipping")
		return nil, nil
	}

	avg, err := s.consumption.AverageDaily(ctx, cfg.Name, lookbackDays)
	if err != nil {
		return nil, err
	}

	status := domain.ClassifyStock(latest.StockLevel, cfg.Policy.MinStockDaily, cfg.Policy.ReorderPoint)

	days := float64(DaysToStockoutCap)
	if avg > 0 {
		days = math.Min(DaysToStockoutCap, round1(latest.StockLevel/avg))
	}

	return &ProductCheck{
		Product:             string(cfg.Name),
		CurrentStock:        latest.StockLevel,
		Status:              status,
		RecommendedAction:   domain.RecommendedAction(status),
		AvgDailyConsumption: round2(avg),
		DaysToStockout:      days,
		RestockQuantity:     math.Max(0, round2(cfg.Policy.MaxStockDaily-latest.StockLevel)),
		AsOf:                latest.Day,
	}, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
