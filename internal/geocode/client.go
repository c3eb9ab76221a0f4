package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"photo-index/internal/logging"
	"photo-index/internal/metrics"
)

// Config controls the reverse-geocoding client.
type Config struct {
	// Enabled gates network access. When false, cache misses return no
	// location instead of calling the upstream API.
	Enabled bool
	// BaseURL of the reverse-geocoding endpoint. The client appends
	// latitude/longitude query parameters.
	BaseURL string
	// Precision is the default decimal precision for cache keys.
	Precision int
	// Timeout bounds each individual HTTP attempt.
	Timeout time.Duration
	// Retries is the number of additional attempts after the first failure.
	Retries int
	// InitialBackoff is the delay before the first retry; it doubles on each
	// subsequent attempt.
	InitialBackoff time.Duration
}

// DefaultConfig returns sensible defaults for the BigDataCloud-style API.
func DefaultConfig() Config {
	return Config{
		Enabled:        true,
		BaseURL:        "https://api.bigdatacloud.net/data/reverse-geocode-client",
		Precision:      3,
		Timeout:        5 * time.Second,
		Retries:        2,
		InitialBackoff: time.Second,
	}
}

// Client resolves coordinates through the cache and, on a miss, the upstream
// HTTP API.
type Client struct {
	cfg        Config
	store      Store
	httpClient *http.Client
	sleep      func(time.Duration)
	now        func() time.Time
}

// New creates a geocoding client backed by the given cache store.
func New(cfg Config, store Store) *Client {
	if cfg.Precision < 0 {
		cfg.Precision = 0
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = time.Second
	}
	return &Client{
		cfg:        cfg,
		store:      store,
		httpClient: &http.Client{},
		sleep:      time.Sleep,
		now:        time.Now,
	}
}

// apiResponse is the subset of the provider's JSON body we consume. The
// provider reports small places in "locality" and leaves "city" empty, so
// city falls back to locality during mapping.
type apiResponse struct {
	City                 string `json:"city"`
	Locality             string `json:"locality"`
	PrincipalSubdivision string `json:"principalSubdivision"`
	CountryName          string `json:"countryName"`
}

// ReverseGeocode resolves lat/lon at the configured precision. It returns nil
// when no location could be determined: geocoding disabled, or the upstream
// API failed past its retry budget. Callers must treat nil the same as
// "file has no GPS data".
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) *Result {
	return c.ReverseGeocodeWithPrecision(ctx, lat, lon, c.cfg.Precision)
}

// ReverseGeocodeWithPrecision is ReverseGeocode with an explicit cache-key
// precision. Distinct precisions are distinct cache entries.
func (c *Client) ReverseGeocodeWithPrecision(ctx context.Context, lat, lon float64, precision int) *Result {
	if precision < 0 {
		precision = 0
	}
	latRounded := RoundCoord(lat, precision)
	lonRounded := RoundCoord(lon, precision)

	cached, err := c.store.Lookup(ctx, latRounded, lonRounded, precision)
	if err != nil {
		// A broken cache read degrades to a miss; the network path below can
		// still answer.
		logging.Warn("geocode cache lookup failed for (%v, %v, p=%d): %v", latRounded, lonRounded, precision, err)
	}
	if cached != nil {
		metrics.GeocodeCacheHits.Inc()
		logging.Debug("geocode cache hit: (%v, %v, p=%d) source=%s", latRounded, lonRounded, precision, cached.Source)
		return &Result{
			Country: cached.Country,
			State:   cached.State,
			City:    cached.City,
			Source:  SourceBigDataCloud,
		}
	}
	metrics.GeocodeCacheMisses.Inc()

	if !c.cfg.Enabled {
		logging.Debug("geocoding disabled; skipping network lookup")
		return nil
	}

	// The upstream call uses the unrounded coordinates; rounding only forms
	// the cache key.
	resp := c.fetchWithRetry(ctx, lat, lon)
	if resp == nil {
		return nil
	}

	result := &Result{
		Country: resp.CountryName,
		State:   resp.PrincipalSubdivision,
		City:    resp.City,
		Source:  SourceBigDataCloud,
	}
	if result.City == "" {
		result.City = resp.Locality
	}

	entry := CachedLocation{
		LatRounded: latRounded,
		LonRounded: lonRounded,
		Precision:  precision,
		Country:    result.Country,
		State:      result.State,
		City:       result.City,
		Source:     SourceBigDataCloud,
		UpdatedAt:  c.now().UTC(),
	}
	if err := c.store.Insert(ctx, entry); err != nil {
		// Losing a cache write only costs a future network call.
		logging.Warn("failed to cache geocode result for (%v, %v, p=%d): %v", latRounded, lonRounded, precision, err)
	}

	return result
}

func (c *Client) fetchWithRetry(ctx context.Context, lat, lon float64) *apiResponse {
	var lastErr error

	for attempt := 0; attempt <= c.cfg.Retries; attempt++ {
		resp, err := c.fetchOnce(ctx, lat, lon)
		if err == nil {
			metrics.GeocodeRequests.WithLabelValues("success").Inc()
			return resp
		}
		lastErr = err
		metrics.GeocodeRequests.WithLabelValues("error").Inc()

		if attempt < c.cfg.Retries {
			backoff := c.cfg.InitialBackoff << attempt
			metrics.GeocodeRetries.Inc()
			logging.Warn("geocode request failed (attempt %d/%d), retrying in %v: %v",
				attempt+1, c.cfg.Retries+1, backoff, err)
			c.sleep(backoff)
		}
	}

	logging.Error("geocode request failed after %d attempts: %v", c.cfg.Retries+1, lastErr)
	return nil
}

func (c *Client) fetchOnce(ctx context.Context, lat, lon float64) (*apiResponse, error) {
	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid geocoder base URL: %w", err)
	}
	q := u.Query()
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	u.RawQuery = q.Encode()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Error("error closing geocode response body: %v", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("geocoder returned HTTP %d", resp.StatusCode)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode geocoder response: %w", err)
	}
	return &body, nil
}
