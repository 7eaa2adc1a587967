package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Products []domain.ProductConfig `yaml:"products"`
}

func runCatalog(c *cli.Context) error {
	path := c.String("file")

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read catalog file %s: %w", path, err)
	}

	var catalog catalogFile
	if err := yaml.Unmarshal(raw, &catalog); err != nil {
		return fmt.Errorf("failed to parse catalog file %s: %w", path, err)
	}
	if len(catalog.Products) == 0 {
		return fmt.Errorf("catalog file %s contains no products", path)
	}

	for _, cfg := range catalog.Products {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid catalog entry %s: %w", cfg.Name, err)
		}
	}

	ctx := context.Background()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO products (name, category, sell_price, cost_price,
			min_stock_daily, reorder_point, max_stock_daily, lead_time_days, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (name) DO UPDATE SET
			category = EXCLUDED.category,
			sell_price = EXCLUDED.sell_price,
			cost_price = EXCLUDED.cost_price,
			min_stock_daily = EXCLUDED.min_stock_daily,
			reorder_point = EXCLUDED.reorder_point,
			max_stock_daily = EXCLUDED.max_stock_daily,
			lead_time_days = EXCLUDED.lead_time_days,
			updated_at = NOW()
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare product upsert: %w", err)
	}
	defer stmt.Close()

	for _, cfg := range catalog.Products {
		_, err := stmt.ExecContext(ctx, cfg.Name, cfg.Category, cfg.SellPrice, cfg.CostPrice,
			cfg.Policy.MinStockDaily, cfg.Policy.ReorderPoint, cfg.Policy.MaxStockDaily, cfg.Policy.LeadTimeDays)
		if err != nil {
			return fmt.Errorf("failed to upsert product %s: %w", cfg.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Printf("Loaded %d products from %s\n", len(catalog.Products), path)
	return nil
}
