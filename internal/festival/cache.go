// Package festival maintains a time-bounded cache of public-holiday
// events with demand-impact classification. Queries run a mandatory
// freshness gate: a stale cache is refreshed from the external calendar
// source before being served.
package festival

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/repository"
	"github.com/andresuchdata/stockcast/pkg/metrics"
	"github.com/rs/zerolog/log"
)

const (
	defaultDaysAhead = 60
	maxDaysAhead     = 365
)

// Calendar is the external holiday source.
type Calendar interface {
	PublicHolidays(ctx context.Context, year int, countryCode string) ([]Holiday, error)
}

// UpcomingEvent is one cached event annotated for display.
type UpcomingEvent struct {
	Name             string  `json:"name"`
	LocalName        string  `json:"local_name"`
	Date             string  `json:"date"`
	DaysUntil        int     `json:"days_until"`
	Impact           Impact  `json:"impact"`
	DemandMultiplier float64 `json:"demand_multiplier"`
}

// UpcomingResult is the festival query response. Stale marks results
// served from an expired cache after a failed refresh.
type UpcomingResult struct {
	CountryCode string          `json:"country_code"`
	DaysAhead   int             `json:"days_ahead"`
	Stale       bool            `json:"stale,omitempty"`
	Events      []UpcomingEvent `json:"events"`
}

// Cache is the refresh-or-serve view over the festival store.
type Cache struct {
	store       repository.FestivalRepository
	calendar    Calendar
	countryCode string
	maxAge      time.Duration
	now         func() time.Time
}

func NewCache(store repository.FestivalRepository, calendar Calendar, countryCode string, maxAge time.Duration) *Cache {
	return &Cache{
		store:       store,
		calendar:    calendar,
		countryCode: countryCode,
		maxAge:      maxAge,
		now:         time.Now,
	}
}

// Upcoming returns events with date in [today, today+daysAhead],
// ascending, after the freshness gate. An empty country falls back to
// the configured one. When a refresh fails and the cache still holds
// entries, they are served with the stale marker; an empty cache
// propagates the refresh failure.
func (c *Cache) Upcoming(ctx context.Context, daysAhead int, country string) (*UpcomingResult, error) {
	if daysAhead == 0 {
		daysAhead = defaultDaysAhead
	}
	if daysAhead < 1 || daysAhead > maxDaysAhead {
		return nil, domain.NewValidationError("days",
			fmt.Sprintf("days must be between 1 and %d, got %d", maxDaysAhead, daysAhead), nil)
	}

	country = strings.ToUpper(strings.TrimSpace(country))
	if country == "" {
		country = c.countryCode
	}

	today := c.today()
	stale := false

	if err := c.refreshIfStale(ctx, country); err != nil {
		log.Warn().Err(err).Str("country", country).Msg("festival: refresh failed, serving cached entries")
		stale = true
	}

	entries, err := c.store.Range(ctx, country, today, today.AddDate(0, 0, daysAhead))
	if err != nil {
		return nil, err
	}
	if stale && len(entries) == 0 {
		return nil, &domain.UpstreamUnavailable{
			Upstream: "calendar source",
			Err:      fmt.Errorf("refresh failed and cache is empty for %s", country),
		}
	}

	result := &UpcomingResult{
		CountryCode: country,
		DaysAhead:   daysAhead,
		Stale:       stale,
		Events:      make([]UpcomingEvent, len(entries)),
	}
	for i, entry := range entries {
		result.Events[i] = annotate(entry, today)
	}
	return result, nil
}

// SetMultiplier records a manually tuned demand multiplier for one
// event. Manual entries survive later refreshes untouched.
func (c *Cache) SetMultiplier(ctx context.Context, name string, date time.Time, multiplier float64) error {
	if multiplier <= 0 {
		return domain.NewValidationError("multiplier",
			fmt.Sprintf("multiplier must be positive, got %v", multiplier), nil)
	}
	return c.store.Upsert(ctx, domain.FestivalEntry{
		Name:             name,
		Date:             date,
		CountryCode:      c.countryCode,
		Source:           domain.FestivalSourceManual,
		DemandMultiplier: multiplier,
		FetchedAt:        c.now().UTC(),
	})
}

// refreshIfStale fetches the current year, plus the next year during
// the last quarter, whenever the newest cached fetch is older than the
// configured maximum age.
func (c *Cache) refreshIfStale(ctx context.Context, country string) error {
	latest, err := c.store.LatestFetch(ctx, country)
	if err != nil {
		return err
	}
	now := c.now().UTC()
	if latest != nil && now.Sub(*latest) <= c.maxAge {
		return nil
	}

	years := []int{now.Year()}
	if now.Month() >= time.October {
		years = append(years, now.Year()+1)
	}

	for _, year := range years {
		holidays, err := c.calendar.PublicHolidays(ctx, year, country)
		if err != nil {
			metrics.FestivalRefreshTotal.WithLabelValues("error").Inc()
			return err
		}
		for _, h := range holidays {
			date, err := time.Parse("2006-01-02", h.Date)
			if err != nil {
				log.Warn().Str("date", h.Date).Str("name", h.Name).Msg("festival: unparseable date, skipping")
				continue
			}
			// Multiplier 0 tells the store to keep a learned value or
			// fall back to the neutral default.
			entry := domain.FestivalEntry{
				Name:        h.Name,
				Date:        date,
				LocalName:   h.LocalName,
				CountryCode: country,
				Source:      domain.FestivalSourceFetched,
				FetchedAt:   now,
			}
			if err := c.store.Upsert(ctx, entry); err != nil {
				return err
			}
		}
	}

	metrics.FestivalRefreshTotal.WithLabelValues("ok").Inc()
	return nil
}

func annotate(entry domain.FestivalEntry, today time.Time) UpcomingEvent {
	impact := ClassifyImpact(entry.Name)

	// A learned or manual multiplier beats the keyword default.
	multiplier := entry.DemandMultiplier
	if multiplier == 0 || multiplier == 1.0 {
		multiplier = DefaultMultiplier(impact)
	}

	daysUntil := int(math.Ceil(entry.Date.Sub(today).Hours() / 24))
	if daysUntil < 0 {
		daysUntil = 0
	}

	return UpcomingEvent{
		Name:             entry.Name,
		LocalName:        entry.LocalName,
		Date:             entry.Date.Format("2006-01-02"),
		DaysUntil:        daysUntil,
		Impact:           impact,
		DemandMultiplier: multiplier,
	}
}

func (c *Cache) today() time.Time {
	return c.now().UTC().Truncate(24 * time.Hour)
}
