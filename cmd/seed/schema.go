package main

import (
	"context"
	"fmt"
	"log"

	"github.com/urfave/cli/v2"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		product TEXT NOT NULL,
		date DATE NOT NULL,
		price NUMERIC(10, 2) NOT NULL,
		quantity INTEGER NOT NULL,
		channel TEXT NOT NULL,
		payment_method TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions (date)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_product_date ON transactions (product, date)`,
	`CREATE TABLE IF NOT EXISTS products (
		name TEXT PRIMARY KEY,
		category TEXT NOT NULL,
		sell_price NUMERIC(10, 2) NOT NULL,
		cost_price NUMERIC(10, 2) NOT NULL,
		min_stock_daily NUMERIC(10, 2) NOT NULL,
		reorder_point NUMERIC(10, 2) NOT NULL,
		max_stock_daily NUMERIC(10, 2) NOT NULL,
		lead_time_days INTEGER NOT NULL DEFAULT 1,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS inventory_snapshots (
		id BIGSERIAL PRIMARY KEY,
		product TEXT NOT NULL,
		day DATE NOT NULL,
		stock_level NUMERIC(12, 2) NOT NULL,
		consumed NUMERIC(12, 2) NOT NULL,
		restocked NUMERIC(12, 2) NOT NULL,
		status TEXT NOT NULL,
		UNIQUE (product, day)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_inventory_snapshots_product_day ON inventory_snapshots (product, day DESC)`,
	`CREATE TABLE IF NOT EXISTS festivals (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		date DATE NOT NULL,
		local_name TEXT NOT NULL DEFAULT '',
		country_code TEXT NOT NULL,
		source TEXT NOT NULL,
		demand_multiplier NUMERIC(6, 2) NOT NULL DEFAULT 1.0,
		fetched_at TIMESTAMPTZ NOT NULL,
		UNIQUE (name, date)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_festivals_country_date ON festivals (country_code, date)`,
}

func runSchema(c *cli.Context) error {
	ctx := context.Background()

	log.Println("Creating database schema...")
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}

	log.Println("Schema created successfully!")
	return nil
}
