// backend/internal/repository/postgres/transaction_repository.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/repository"
)

type transactionRepository struct {
	db *DB
}

func NewTransactionRepository(db *DB) repository.TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) InsertBatch(ctx context.Context, txs []domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO transactions (id, product, date, price, quantity, channel, payment_method)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO NOTHING
		`

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare transaction insert: %w", err)
		}
		defer stmt.Close()

		for _, t := range txs {
			if _, err := stmt.ExecContext(ctx, t.ID, t.Product, t.Date, t.Price, t.Quantity, t.Channel, t.PaymentMethod); err != nil {
				return fmt.Errorf("failed to insert transaction %s: %w", t.ID, err)
			}
		}
		return nil
	})
}

func (r *transactionRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("failed to clear transactions: %w", err)
	}
	return nil
}

func (r *transactionRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM transactions`); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

// sinceClause builds the optional date filter. A zero since means the
// whole history.
func sinceClause(since time.Time, argPos int) (string, []interface{}) {
	if since.IsZero() {
		return "", nil
	}
	return fmt.Sprintf(" WHERE date >= $%d", argPos), []interface{}{since}
}

type overviewRow struct {
	domain.SalesAggregate
	Products int `db:"products"`
	Channels int `db:"channels"`
}

func (r *transactionRepository) Overview(ctx context.Context, since time.Time) (domain.SalesAggregate, int, int, error) {
	query := `
		SELECT
			COALESCE(SUM(price * quantity), 0) AS revenue,
			COALESCE(SUM(quantity), 0) AS quantity,
			COUNT(*) AS orders,
			COUNT(DISTINCT product) AS products,
			COUNT(DISTINCT channel) AS channels
		FROM transactions
	`
	clause, args := sinceClause(since, 1)

	var row overviewRow
	if err := r.db.GetContext(ctx, &row, query+clause, args...); err != nil {
		return domain.SalesAggregate{}, 0, 0, fmt.Errorf("failed to aggregate overview: %w", err)
	}
	return row.SalesAggregate, row.Products, row.Channels, nil
}

func (r *transactionRepository) AggregateByProduct(ctx context.Context, since time.Time) ([]domain.DimensionSales, error) {
	return r.aggregateByDimension(ctx, "product", since)
}

func (r *transactionRepository) AggregateByChannel(ctx context.Context, since time.Time) ([]domain.DimensionSales, error) {
	return r.aggregateByDimension(ctx, "channel", since)
}

func (r *transactionRepository) aggregateByDimension(ctx context.Context, dimension string, since time.Time) ([]domain.DimensionSales, error) {
	// dimension is one of two fixed column names, never caller input
	query := fmt.Sprintf(`
		SELECT
			%s AS key,
			COALESCE(SUM(price * quantity), 0) AS revenue,
			COALESCE(SUM(quantity), 0) AS quantity,
			COUNT(*) AS orders
		FROM transactions
	`, dimension)
	clause, args := sinceClause(since, 1)
	query += clause + fmt.Sprintf(" GROUP BY %s ORDER BY revenue DESC", dimension)

	var rows []domain.DimensionSales
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to aggregate by %s: %w", dimension, err)
	}
	return rows, nil
}

func granularityTrunc(g repository.TrendGranularity) string {
	switch g {
	case repository.GranularityWeek:
		return "week"
	case repository.GranularityMonth:
		return "month"
	default:
		return "day"
	}
}

func (r *transactionRepository) AggregateByPeriod(ctx context.Context, since time.Time, g repository.TrendGranularity) ([]domain.PeriodSales, error) {
	query := fmt.Sprintf(`
		SELECT
			date_trunc('%s', date) AS period,
			COALESCE(SUM(price * quantity), 0) AS revenue,
			COALESCE(SUM(quantity), 0) AS quantity,
			COUNT(*) AS orders
		FROM transactions
	`, granularityTrunc(g))
	clause, args := sinceClause(since, 1)
	query += clause + " GROUP BY period ORDER BY period ASC"

	var rows []domain.PeriodSales
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to aggregate trend: %w", err)
	}
	return rows, nil
}

func (r *transactionRepository) AggregateByPeriodAndProduct(ctx context.Context, since time.Time, g repository.TrendGranularity) ([]domain.ProductPeriodSales, error) {
	query := fmt.Sprintf(`
		SELECT
			date_trunc('%s', date) AS period,
			product,
			COALESCE(SUM(quantity), 0) AS quantity,
			COALESCE(SUM(price * quantity), 0) AS revenue
		FROM transactions
	`, granularityTrunc(g))
	clause, args := sinceClause(since, 1)
	query += clause + " GROUP BY period, product ORDER BY period ASC, product ASC"

	var rows []domain.ProductPeriodSales
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to aggregate profit trend: %w", err)
	}
	return rows, nil
}

func (r *transactionRepository) TopByQuantity(ctx context.Context, since time.Time, limit int) ([]domain.DimensionSales, error) {
	return r.topBy(ctx, "quantity", since, limit)
}

func (r *transactionRepository) TopByRevenue(ctx context.Context, since time.Time, limit int) ([]domain.DimensionSales, error) {
	return r.topBy(ctx, "revenue", since, limit)
}

func (r *transactionRepository) topBy(ctx context.Context, metric string, since time.Time, limit int) ([]domain.DimensionSales, error) {
	query := `
		SELECT
			product AS key,
			COALESCE(SUM(price * quantity), 0) AS revenue,
			COALESCE(SUM(quantity), 0) AS quantity,
			COUNT(*) AS orders
		FROM transactions
	`
	clause, args := sinceClause(since, 1)
	query += clause + fmt.Sprintf(" GROUP BY product ORDER BY %s DESC LIMIT $%d", metric, len(args)+1)
	args = append(args, limit)

	var rows []domain.DimensionSales
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to rank products by %s: %w", metric, err)
	}
	return rows, nil
}

func (r *transactionRepository) ConsumptionStats(ctx context.Context, product domain.Product, since time.Time) (domain.ConsumptionStats, error) {
	query := `
		SELECT
			COALESCE(SUM(quantity), 0) AS total_quantity,
			COUNT(DISTINCT date) AS active_days
		FROM transactions
		WHERE product = $1 AND date >= $2
	`

	var stats domain.ConsumptionStats
	if err := r.db.GetContext(ctx, &stats, query, product, since); err != nil {
		return domain.ConsumptionStats{}, fmt.Errorf("failed to compute consumption stats for %s: %w", product, err)
	}
	return stats, nil
}

func (r *transactionRepository) DailyTotals(ctx context.Context, product domain.Product, since time.Time) ([]domain.DailyTotal, error) {
	query := `
		SELECT
			date AS day,
			COALESCE(SUM(quantity), 0) AS quantity,
			COALESCE(SUM(price * quantity), 0) AS revenue
		FROM transactions
		WHERE product = $1 AND date >= $2
		GROUP BY date
		ORDER BY date ASC
	`

	var rows []domain.DailyTotal
	if err := r.db.SelectContext(ctx, &rows, query, product, since); err != nil {
		return nil, fmt.Errorf("failed to load daily totals for %s: %w", product, err)
	}
	return rows, nil
}

func (r *transactionRepository) DailyProductSales(ctx context.Context) ([]domain.DailyProductSales, error) {
	query := `
		SELECT
			product,
			date AS day,
			COALESCE(SUM(quantity), 0) AS quantity
		FROM transactions
		GROUP BY product, date
		ORDER BY product ASC, date ASC
	`

	var rows []domain.DailyProductSales
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to load daily product sales: %w", err)
	}
	return rows, nil
}
