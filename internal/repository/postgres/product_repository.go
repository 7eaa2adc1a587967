package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/repository"
)

type productRepository struct {
	db *DB
}

func NewProductRepository(db *DB) repository.ProductRepository {
	return &productRepository{db: db}
}

type productRow struct {
	Name         domain.Product `db:"name"`
	Category     string         `db:"category"`
	SellPrice    float64        `db:"sell_price"`
	CostPrice    float64        `db:"cost_price"`
	MinStock     float64        `db:"min_stock_daily"`
	ReorderPoint float64        `db:"reorder_point"`
	MaxStock     float64        `db:"max_stock_daily"`
	LeadTimeDays int            `db:"lead_time_days"`
}

func (row productRow) toConfig() domain.ProductConfig {
	return domain.ProductConfig{
		Name:      row.Name,
		Category:  row.Category,
		SellPrice: row.SellPrice,
		CostPrice: row.CostPrice,
		Policy: domain.InventoryPolicy{
			MinStockDaily: row.MinStock,
			ReorderPoint:  row.ReorderPoint,
			MaxStockDaily: row.MaxStock,
			LeadTimeDays:  row.LeadTimeDays,
		},
	}
}

func (r *productRepository) ReplaceAll(ctx context.Context, configs []domain.ProductConfig) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
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

		for _, c := range configs {
			_, err := stmt.ExecContext(ctx, c.Name, c.Category, c.SellPrice, c.CostPrice,
				c.Policy.MinStockDaily, c.Policy.ReorderPoint, c.Policy.MaxStockDaily, c.Policy.LeadTimeDays)
			if err != nil {
				return fmt.Errorf("failed to upsert product %s: %w", c.Name, err)
			}
		}
		return nil
	})
}

func (r *productRepository) GetAll(ctx context.Context) ([]domain.ProductConfig, error) {
	query := `
		SELECT name, category, sell_price, cost_price,
			min_stock_daily, reorder_point, max_stock_daily, lead_time_days
		FROM products
		ORDER BY name ASC
	`

	var rows []productRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to load product catalog: %w", err)
	}

	configs := make([]domain.ProductConfig, len(rows))
	for i, row := range rows {
		configs[i] = row.toConfig()
	}
	return configs, nil
}

func (r *productRepository) GetByName(ctx context.Context, name domain.Product) (*domain.ProductConfig, error) {
	query := `
		SELECT name, category, sell_price, cost_price,
			min_stock_daily, reorder_point, max_stock_daily, lead_time_days
		FROM products
		WHERE name = $1
	`

	var row productRow
	if err := r.db.GetContext(ctx, &row, query, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load product %s: %w", name, err)
	}

	cfg := row.toConfig()
	return &cfg, nil
}
