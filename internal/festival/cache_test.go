package festival

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
)

type memStore struct {
	entries map[string]domain.FestivalEntry
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[string]domain.FestivalEntry)}
}

func key(name string, date time.Time) string {
	return name + "|" + date.Format("2006-01-02")
}

func (s *memStore) Upsert(ctx context.Context, entry domain.FestivalEntry) error {
	k := key(entry.Name, entry.Date)
	if existing, ok := s.entries[k]; ok {
		if entry.DemandMultiplier <= 0 {
			entry.DemandMultiplier = existing.DemandMultiplier
		}
		if existing.Source == domain.FestivalSourceManual {
			entry.Source = existing.Source
		}
	} else if entry.DemandMultiplier <= 0 {
		entry.DemandMultiplier = 1.0
	}
	s.entries[k] = entry
	return nil
}

func (s *memStore) LatestFetch(ctx context.Context, countryCode string) (*time.Time, error) {
	var latest *time.Time
	for _, e := range s.entries {
		if e.CountryCode != countryCode {
			continue
		}
		t := e.FetchedAt
		if latest == nil || t.After(*latest) {
			latest = &t
		}
	}
	return latest, nil
}

func (s *memStore) Range(ctx context.Context, countryCode string, from, to time.Time) ([]domain.FestivalEntry, error) {
	var out []domain.FestivalEntry
	for _, e := range s.entries {
		if e.CountryCode == countryCode && !e.Date.Before(from) && !e.Date.After(to) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

type fakeCalendar struct {
	holidays map[int][]Holiday
	calls    []int
	err      error
}

func (f *fakeCalendar) PublicHolidays(ctx context.Context, year int, countryCode string) ([]Holiday, error) {
	f.calls = append(f.calls, year)
	if f.err != nil {
		return nil, f.err
	}
	return f.holidays[year], nil
}

func fixedNow(month time.Month, day int) func() time.Time {
	return func() time.Time { return time.Date(2024, month, day, 12, 0, 0, 0, time.UTC) }
}

func newCache(store *memStore, cal *fakeCalendar, now func() time.Time) *Cache {
	c := NewCache(store, cal, "US", 24*time.Hour)
	c.now = now
	return c
}

func TestImpactClassification(t *testing.T) {
	tests := []struct {
		name string
		want Impact
	}{
		{"Thanksgiving Day", ImpactHigh},
		{"Christmas Day", ImpactHigh},
		{"Independence Day", ImpactHigh},
		{"New Year's Day", ImpactHigh},
		{"SUPER BOWL Sunday", ImpactHigh},
		{"Memorial Day", ImpactMedium},
		{"Labor Day", ImpactMedium},
		{"Mother's Day", ImpactMedium},
		{"Valentine's Day", ImpactMedium},
		{"Black Friday", ImpactMedium},
		{"Halloween", ImpactMedium},
		{"Columbus Day", ImpactLow},
		{"Juneteenth", ImpactLow},
	}
	for _, tt := range tests {
		if got := ClassifyImpact(tt.name); got != tt.want {
			t.Errorf("ClassifyImpact(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestRefreshPopulatesCache(t *testing.T) {
	cal := &fakeCalendar{holidays: map[int][]Holiday{
		2024: {
			{Date: "2024-07-04", Name: "Independence Day", LocalName: "Independence Day"},
			{Date: "2024-05-27", Name: "Memorial Day", LocalName: "Memorial Day"},
		},
	}}
	cache := newCache(newMemStore(), cal, fixedNow(time.May, 20))

	result, err := cache.Upcoming(context.Background(), 60, "")
	if err != nil {
		t.Fatalf("upcoming: %v", err)
	}
	if len(cal.calls) != 1 || cal.calls[0] != 2024 {
		t.Errorf("fetched years = %v, want [2024]", cal.calls)
	}
	if len(result.Events) != 2 {
		t.Fatalf("events = %d, want 2", len(result.Events))
	}
	// Ascending by date.
	if result.Events[0].Name != "Memorial Day" {
		t.Errorf("first event = %q, want Memorial Day", result.Events[0].Name)
	}
	if result.Events[0].DaysUntil != 7 {
		t.Errorf("days until = %d, want 7", result.Events[0].DaysUntil)
	}
	if result.Events[0].Impact != ImpactMedium || result.Events[0].DemandMultiplier != MultiplierMedium {
		t.Errorf("Memorial Day annotation = %+v", result.Events[0])
	}
	if result.Events[1].Impact != ImpactHigh || result.Events[1].DemandMultiplier != MultiplierHigh {
		t.Errorf("Independence Day annotation = %+v", result.Events[1])
	}
	if result.Stale {
		t.Error("fresh refresh marked stale")
	}
}

func TestFreshCacheSkipsFetch(t *testing.T) {
	store := newMemStore()
	now := fixedNow(time.May, 20)
	store.Upsert(context.Background(), domain.FestivalEntry{
		Name: "Memorial Day", Date: time.Date(2024, 5, 27, 0, 0, 0, 0, time.UTC),
		CountryCode: "US", Source: domain.FestivalSourceFetched,
		FetchedAt: now().Add(-1 * time.Hour),
	})
	cal := &fakeCalendar{}
	cache := newCache(store, cal, now)

	if _, err := cache.Upcoming(context.Background(), 30, ""); err != nil {
		t.Fatalf("upcoming: %v", err)
	}
	if len(cal.calls) != 0 {
		t.Errorf("fresh cache still fetched years %v", cal.calls)
	}
}

func TestStaleCacheRefetches(t *testing.T) {
	store := newMemStore()
	now := fixedNow(time.May, 20)
	store.Upsert(context.Background(), domain.FestivalEntry{
		Name: "Memorial Day", Date: time.Date(2024, 5, 27, 0, 0, 0, 0, time.UTC),
		CountryCode: "US", Source: domain.FestivalSourceFetched,
		FetchedAt: now().Add(-25 * time.Hour),
	})
	cal := &fakeCalendar{holidays: map[int][]Holiday{2024: {}}}
	cache := newCache(store, cal, now)

	if _, err := cache.Upcoming(context.Background(), 30, ""); err != nil {
		t.Fatalf("upcoming: %v", err)
	}
	if len(cal.calls) != 1 {
		t.Errorf("stale cache fetched %v times, want 1", len(cal.calls))
	}
}

func TestFourthQuarterFetchesNextYear(t *testing.T) {
	cal := &fakeCalendar{holidays: map[int][]Holiday{
		2024: {{Date: "2024-12-25", Name: "Christmas Day", LocalName: "Christmas Day"}},
		2025: {{Date: "2025-01-01", Name: "New Year's Day", LocalName: "New Year's Day"}},
	}}
	cache := newCache(newMemStore(), cal, fixedNow(time.December, 20))

	result, err := cache.Upcoming(context.Background(), 30, "")
	if err != nil {
		t.Fatalf("upcoming: %v", err)
	}
	if len(cal.calls) != 2 || cal.calls[0] != 2024 || cal.calls[1] != 2025 {
		t.Errorf("fetched years = %v, want [2024 2025]", cal.calls)
	}
	// The window crosses the year border and picks up both.
	if len(result.Events) != 2 {
		t.Errorf("events = %d, want 2", len(result.Events))
	}
}

func TestLearnedMultiplierWins(t *testing.T) {
	store := newMemStore()
	now := fixedNow(time.November, 1)
	date := time.Date(2024, 11, 28, 0, 0, 0, 0, time.UTC)

	cal := &fakeCalendar{holidays: map[int][]Holiday{
		2024: {{Date: "2024-11-28", Name: "Thanksgiving Day", LocalName: "Thanksgiving Day"}},
		2025: {},
	}}
	cache := newCache(store, cal, now)

	// Manually tuned entry whose fetch timestamp has long expired.
	store.Upsert(context.Background(), domain.FestivalEntry{
		Name: "Thanksgiving Day", Date: date, CountryCode: "US",
		Source: domain.FestivalSourceManual, DemandMultiplier: 1.8,
		FetchedAt: now().Add(-48 * time.Hour),
	})

	result, err := cache.Upcoming(context.Background(), 30, "")
	if err != nil {
		t.Fatalf("upcoming: %v", err)
	}
	if len(cal.calls) == 0 {
		t.Fatal("expected the stale cache to trigger a refresh")
	}
	if len(result.Events) != 1 {
		t.Fatalf("events = %d, want 1", len(result.Events))
	}
	// The refresh upserted the same (name, date); the tuned multiplier
	// must survive it.
	if result.Events[0].DemandMultiplier != 1.8 {
		t.Errorf("multiplier = %v, want the learned 1.8", result.Events[0].DemandMultiplier)
	}
}

func TestRefreshFailureServesStale(t *testing.T) {
	store := newMemStore()
	now := fixedNow(time.May, 20)
	store.Upsert(context.Background(), domain.FestivalEntry{
		Name: "Memorial Day", Date: time.Date(2024, 5, 27, 0, 0, 0, 0, time.UTC),
		CountryCode: "US", Source: domain.FestivalSourceFetched,
		FetchedAt: now().Add(-48 * time.Hour),
	})
	cal := &fakeCalendar{err: errors.New("connection refused")}
	cache := newCache(store, cal, now)

	result, err := cache.Upcoming(context.Background(), 30, "")
	if err != nil {
		t.Fatalf("upcoming: %v", err)
	}
	if !result.Stale {
		t.Error("expected the stale marker after a failed refresh")
	}
	if len(result.Events) != 1 {
		t.Errorf("events = %d, want the cached entry", len(result.Events))
	}
}

func TestRefreshFailureEmptyCacheFails(t *testing.T) {
	cal := &fakeCalendar{err: errors.New("connection refused")}
	cache := newCache(newMemStore(), cal, fixedNow(time.May, 20))

	_, err := cache.Upcoming(context.Background(), 30, "")
	if !domain.IsUpstreamUnavailable(err) {
		t.Fatalf("expected upstream-unavailable error, got %v", err)
	}
}

func TestUpcomingValidation(t *testing.T) {
	cache := newCache(newMemStore(), &fakeCalendar{}, fixedNow(time.May, 20))

	if _, err := cache.Upcoming(context.Background(), 400, ""); !domain.IsValidation(err) {
		t.Errorf("days over max: got %v, want validation error", err)
	}
	if _, err := cache.Upcoming(context.Background(), -1, ""); !domain.IsValidation(err) {
		t.Errorf("negative days: got %v, want validation error", err)
	}
}

func TestSetMultiplier(t *testing.T) {
	store := newMemStore()
	cache := newCache(store, &fakeCalendar{}, fixedNow(time.May, 20))
	date := time.Date(2024, 11, 28, 0, 0, 0, 0, time.UTC)

	if err := cache.SetMultiplier(context.Background(), "Thanksgiving Day", date, 0); !domain.IsValidation(err) {
		t.Errorf("zero multiplier: got %v, want validation error", err)
	}
	if err := cache.SetMultiplier(context.Background(), "Thanksgiving Day", date, 1.6); err != nil {
		t.Fatalf("set multiplier: %v", err)
	}
	entry := store.entries[key("Thanksgiving Day", date)]
	if entry.DemandMultiplier != 1.6 || entry.Source != domain.FestivalSourceManual {
		t.Errorf("stored entry = %+v, want manual source with multiplier 1.6", entry)
	}
}

func TestCountryOverride(t *testing.T) {
	store := newMemStore()
	cal := &fakeCalendar{holidays: map[int][]Holiday{
		2024: {{Date: "2024-07-01", Name: "Canada Day", LocalName: "Fête du Canada"}},
	}}
	cache := newCache(store, cal, fixedNow(time.June, 20))

	result, err := cache.Upcoming(context.Background(), 30, "ca")
	if err != nil {
		t.Fatalf("upcoming: %v", err)
	}
	if result.CountryCode != "CA" {
		t.Errorf("CountryCode = %q, want CA", result.CountryCode)
	}
	if len(result.Events) != 1 || result.Events[0].Name != "Canada Day" {
		t.Fatalf("events = %+v, want Canada Day", result.Events)
	}
	entry := store.entries[key("Canada Day", time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))]
	if entry.CountryCode != "CA" {
		t.Errorf("stored country = %q, want CA", entry.CountryCode)
	}
}
