package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/repository"
)

type festivalRepository struct {
	db *DB
}

func NewFestivalRepository(db *DB) repository.FestivalRepository {
	return &festivalRepository{db: db}
}

// Upsert refreshes an entry by (name, date). A DemandMultiplier <= 0
// means "not set": the stored multiplier survives the refresh, so
// learned or manually tuned values are never clobbered by a fetch.
// Manually entered rows also keep their source tag.
func (r *festivalRepository) Upsert(ctx context.Context, entry domain.FestivalEntry) error {
	query := `
		INSERT INTO festivals (name, date, local_name, country_code, source, demand_multiplier, fetched_at)
		VALUES ($1, $2, $3, $4, $5, CASE WHEN $6 > 0 THEN $6 ELSE 1.0 END, $7)
		ON CONFLICT (name, date) DO UPDATE SET
			local_name = EXCLUDED.local_name,
			country_code = EXCLUDED.country_code,
			fetched_at = EXCLUDED.fetched_at,
			demand_multiplier = CASE WHEN $6 > 0 THEN $6 ELSE festivals.demand_multiplier END,
			source = CASE WHEN festivals.source = $8 THEN festivals.source ELSE EXCLUDED.source END
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.Name, entry.Date, entry.LocalName, entry.CountryCode, entry.Source,
		entry.DemandMultiplier, entry.FetchedAt, domain.FestivalSourceManual)
	if err != nil {
		return fmt.Errorf("failed to upsert festival %s/%s: %w", entry.Name, entry.Date.Format("2006-01-02"), err)
	}
	return nil
}

func (r *festivalRepository) LatestFetch(ctx context.Context, countryCode string) (*time.Time, error) {
	query := `
		SELECT fetched_at
		FROM festivals
		WHERE country_code = $1
		ORDER BY fetched_at DESC
		LIMIT 1
	`

	var fetchedAt time.Time
	if err := r.db.GetContext(ctx, &fetchedAt, query, countryCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load latest festival fetch for %s: %w", countryCode, err)
	}
	return &fetchedAt, nil
}

func (r *festivalRepository) Range(ctx context.Context, countryCode string, from, to time.Time) ([]domain.FestivalEntry, error) {
	query := `
		SELECT name, date, local_name, country_code, source, demand_multiplier, fetched_at
		FROM festivals
		WHERE country_code = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC
	`

	var entries []domain.FestivalEntry
	if err := r.db.SelectContext(ctx, &entries, query, countryCode, from, to); err != nil {
		return nil, fmt.Errorf("failed to load festivals for %s: %w", countryCode, err)
	}
	return entries, nil
}
