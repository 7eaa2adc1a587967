package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/repository"
)

type snapshotRepository struct {
	db *DB
}

func NewSnapshotRepository(db *DB) repository.SnapshotRepository {
	return &snapshotRepository{db: db}
}

// ReplaceAll swaps the full snapshot series in one transaction: the
// simulation is a deterministic rebuild, never an incremental merge.
func (r *snapshotRepository) ReplaceAll(ctx context.Context, snapshots []domain.InventorySnapshot) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
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

		for _, s := range snapshots {
			if _, err := stmt.ExecContext(ctx, s.Product, s.Day, s.StockLevel, s.Consumed, s.Restocked, s.Status); err != nil {
				return fmt.Errorf("failed to insert snapshot %s/%s: %w", s.Product, s.Day.Format("2006-01-02"), err)
			}
		}
		return nil
	})
}

func (r *snapshotRepository) Latest(ctx context.Context, product domain.Product) (*domain.InventorySnapshot, error) {
	query := `
		SELECT product, day, stock_level, consumed, restocked, status
		FROM inventory_snapshots
		WHERE product = $1
		ORDER BY day DESC
		LIMIT 1
	`

	var snap domain.InventorySnapshot
	if err := r.db.GetContext(ctx, &snap, query, product); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load latest snapshot for %s: %w", product, err)
	}
	return &snap, nil
}

func (r *snapshotRepository) Series(ctx context.Context, product domain.Product) ([]domain.InventorySnapshot, error) {
	query := `
		SELECT product, day, stock_level, consumed, restocked, status
		FROM inventory_snapshots
		WHERE product = $1
		ORDER BY day ASC
	`

	var series []domain.InventorySnapshot
	if err := r.db.SelectContext(ctx, &series, query, product); err != nil {
		return nil, fmt.Errorf("failed to load snapshot series for %s: %w", product, err)
	}
	return series, nil
}
