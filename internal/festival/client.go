package festival

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
)

// Holiday is one entry of the public-holiday calendar response.
type Holiday struct {
	Date      string `json:"date"`
	LocalName string `json:"localName"`
	Name      string `json:"name"`
}

// CalendarClient fetches public holidays from the external calendar
// source (Nager.Date compatible).
type CalendarClient struct {
	baseURL string
	http    *http.Client
}

func NewCalendarClient(baseURL string, timeout time.Duration) *CalendarClient {
	return &CalendarClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// PublicHolidays fetches one country-year. A non-2xx status is a hard
// error for this refresh attempt.
func (c *CalendarClient) PublicHolidays(ctx context.Context, year int, countryCode string) ([]Holiday, error) {
	endpoint := fmt.Sprintf("%s/api/v3/PublicHolidays/%d/%s", c.baseURL, year, countryCode)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &domain.UpstreamUnavailable{Upstream: "calendar source", Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.UpstreamUnavailable{Upstream: "calendar source", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.UpstreamUnavailable{
			Upstream: "calendar source",
			Err:      fmt.Errorf("unexpected status %d for %d/%s", resp.StatusCode, year, countryCode),
		}
	}

	var holidays []Holiday
	if err := json.NewDecoder(resp.Body).Decode(&holidays); err != nil {
		return nil, &domain.UpstreamUnavailable{
			Upstream: "calendar source",
			Err:      fmt.Errorf("decode holidays for %d/%s: %w", year, countryCode, err),
		}
	}
	return holidays, nil
}
