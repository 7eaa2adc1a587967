package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/simulation"
	"github.com/urfave/cli/v2"
)

func runSimulate(c *cli.Context) error {
	ctx := context.Background()
	store := &seedStore{db: db}

	summary, err := simulation.NewEngine(store, store, store).Run(ctx)
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}

	log.Printf("Simulated %d products into %d snapshots (skipped: %d)\n",
		summary.Products, summary.Snapshots, len(summary.Skipped))
	return nil
}

// seedStore backs the simulation engine with direct queries over the
// seed connection, so the CLI does not need the server's pooled handle.
type seedStore struct {
	db *sql.DB
}

func (s *seedStore) DailyProductSales(ctx context.Context) ([]domain.DailyProductSales, error) {
	query := `
		SELECT
			product,
			date AS day,
			COALESCE(SUM(quantity), 0) AS quantity
		FROM transactions
		GROUP BY product, date
		ORDER BY product ASC, date ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily product sales: %w", err)
	}
	defer rows.Close()

	var result []domain.DailyProductSales
	for rows.Next() {
		var row domain.DailyProductSales
		if err := rows.Scan(&row.Product, &row.Day, &row.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan daily product sales: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate daily product sales: %w", err)
	}
	return result, nil
}

func (s *seedStore) GetAll(ctx context.Context) ([]domain.ProductConfig, error) {
	query := `
		SELECT name, category, sell_price, cost_price,
			min_stock_daily, reorder_point, max_stock_daily, lead_time_days
		FROM products
		ORDER BY name ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load product catalog: %w", err)
	}
	defer rows.Close()

	var configs []domain.ProductConfig
	for rows.Next() {
		var cfg domain.ProductConfig
		if err := rows.Scan(&cfg.Name, &cfg.Category, &cfg.SellPrice, &cfg.CostPrice,
			&cfg.Policy.MinStockDaily, &cfg.Policy.ReorderPoint, &cfg.Policy.MaxStockDaily, &cfg.Policy.LeadTimeDays); err != nil {
			return nil, fmt.Errorf("failed to scan product config: %w", err)
		}
		configs = append(configs, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate product catalog: %w", err)
	}
	return configs, nil
}

func (s *seedStore) ReplaceAll(ctx context.Context, snapshots []domain.InventorySnapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM inventory_snapshots`); err != nil {
		return fmt.Errorf("failed to clear snapshots: %w", err)
	}

	query := `
		INSERT INTO inventory_snapshots (product, day, stock_level, consumed, restocked, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	for _, snap := range snapshots {
		if _, err := stmt.ExecContext(ctx, snap.Product, snap.Day, snap.StockLevel, snap.Consumed, snap.Restocked, snap.Status); err != nil {
			return fmt.Errorf("failed to insert snapshot %s/%s: %w", snap.Product, snap.Day.Format("2006-01-02"), err)
		}
	}

	return tx.Commit()
}
