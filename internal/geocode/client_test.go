package geocode

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// memStore is an in-memory Store with first-writer-wins semantics, matching
// the behavior of the sqlite-backed cache.
type memStore struct {
	mu      sync.Mutex
	entries map[string]CachedLocation
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[string]CachedLocation)}
}

func memKey(lat, lon float64, precision int) string {
	return fmt.Sprintf("%v/%v/%d", lat, lon, precision)
}

func (s *memStore) Lookup(_ context.Context, latRounded, lonRounded float64, precision int) (*CachedLocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[memKey(latRounded, lonRounded, precision)]; ok {
		return &e, nil
	}
	return nil, nil
}

func (s *memStore) Insert(_ context.Context, loc CachedLocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memKey(loc.LatRounded, loc.LonRounded, loc.Precision)
	if _, ok := s.entries[key]; ok {
		return nil // duplicate insert is swallowed
	}
	s.entries[key] = loc
	return nil
}

func (s *memStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func newTestClient(t *testing.T, handler http.HandlerFunc, store Store) (*Client, *int64) {
	t.Helper()

	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c := New(Config{
		Enabled:        true,
		BaseURL:        srv.URL,
		Precision:      3,
		Timeout:        2 * time.Second,
		Retries:        2,
		InitialBackoff: time.Millisecond,
	}, store)
	c.sleep = func(time.Duration) {} // no real backoff in tests
	return c, &calls
}

func geocodeOK(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"city":"Lisbon","principalSubdivision":"Lisboa","countryName":"Portugal"}`)
}

func TestRoundCoord(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value     float64
		precision int
		want      float64
	}{
		{1.23456, 3, 1.235},
		{1.23444, 3, 1.234},
		{-1.2345, 3, -1.235}, // half away from zero
		{1.5, 0, 2},
		{-1.5, 0, -2},
		{1.23456, -2, 1}, // negative precision clamps to 0
		{38.7223, 2, 38.72},
	}

	for _, tt := range tests {
		if got := RoundCoord(tt.value, tt.precision); got != tt.want {
			t.Errorf("RoundCoord(%v, %d) = %v, want %v", tt.value, tt.precision, got, tt.want)
		}
	}
}

func TestReverseGeocodeMapsResponse(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	c, _ := newTestClient(t, geocodeOK, store)

	got := c.ReverseGeocode(context.Background(), 38.7223, -9.1393)
	if got == nil {
		t.Fatal("ReverseGeocode() = nil, want result")
	}
	if got.Country != "Portugal" || got.State != "Lisboa" || got.City != "Lisbon" {
		t.Errorf("ReverseGeocode() = %+v", got)
	}
	if got.Source != SourceBigDataCloud {
		t.Errorf("Source = %q, want %q", got.Source, SourceBigDataCloud)
	}
	if store.len() != 1 {
		t.Errorf("cache entries = %d, want 1", store.len())
	}
}

func TestReverseGeocodeFallsBackToLocality(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"locality":"Alvor","principalSubdivision":"Faro","countryName":"Portugal"}`)
	}, newMemStore())

	got := c.ReverseGeocode(context.Background(), 37.1288, -8.5937)
	if got == nil {
		t.Fatal("ReverseGeocode() = nil, want result")
	}
	if got.City != "Alvor" {
		t.Errorf("City = %q, want locality fallback %q", got.City, "Alvor")
	}
}

func TestReverseGeocodeCacheHitSkipsNetwork(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	c, calls := newTestClient(t, geocodeOK, store)
	ctx := context.Background()

	first := c.ReverseGeocode(ctx, 38.72231, -9.13934)
	if first == nil {
		t.Fatal("first ReverseGeocode() = nil")
	}
	if got := atomic.LoadInt64(calls); got != 1 {
		t.Fatalf("network calls after first lookup = %d, want 1", got)
	}

	// Slightly different raw coordinates that round to the same key.
	second := c.ReverseGeocode(ctx, 38.72198, -9.13921)
	if second == nil {
		t.Fatal("second ReverseGeocode() = nil")
	}
	if got := atomic.LoadInt64(calls); got != 1 {
		t.Errorf("network calls after cache hit = %d, want 1", got)
	}
	if *second != *first {
		t.Errorf("cache hit result %+v differs from original %+v", second, first)
	}
}

func TestReverseGeocodePrecisionFormsDistinctKeys(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	c, calls := newTestClient(t, geocodeOK, store)
	ctx := context.Background()

	c.ReverseGeocodeWithPrecision(ctx, 38.7223, -9.1393, 2)
	c.ReverseGeocodeWithPrecision(ctx, 38.7223, -9.1393, 3)

	if got := atomic.LoadInt64(calls); got != 2 {
		t.Errorf("network calls = %d, want 2 (one per precision)", got)
	}
	if store.len() != 2 {
		t.Errorf("cache entries = %d, want 2", store.len())
	}
}

func TestReverseGeocodeCacheHitUsesCurrentSourceLabel(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	// Legacy entry written by a different resolver implementation.
	if err := store.Insert(context.Background(), CachedLocation{
		LatRounded: 38.722, LonRounded: -9.139, Precision: 3,
		Country: "Portugal", State: "Lisboa", City: "Lisbon",
		Source: "offline",
	}); err != nil {
		t.Fatal(err)
	}

	c, calls := newTestClient(t, geocodeOK, store)

	got := c.ReverseGeocode(context.Background(), 38.7223, -9.1393)
	if got == nil {
		t.Fatal("ReverseGeocode() = nil, want cached result")
	}
	if got.Source != SourceBigDataCloud {
		t.Errorf("Source = %q, want current resolver label %q", got.Source, SourceBigDataCloud)
	}
	if atomic.LoadInt64(calls) != 0 {
		t.Errorf("network calls = %d, want 0 for cache hit", atomic.LoadInt64(calls))
	}
}

func TestReverseGeocodeRetriesThenGivesUp(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	c, calls := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, store)

	got := c.ReverseGeocode(context.Background(), 38.7223, -9.1393)
	if got != nil {
		t.Errorf("ReverseGeocode() = %+v, want nil after exhausted retries", got)
	}
	// First attempt plus the configured retries.
	if want := int64(3); atomic.LoadInt64(calls) != want {
		t.Errorf("network calls = %d, want %d", atomic.LoadInt64(calls), want)
	}
	if store.len() != 0 {
		t.Errorf("cache entries = %d, want 0 (failures must not be cached)", store.len())
	}
}

func TestReverseGeocodeRetryBackoffDoubles(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}, newMemStore())

	var delays []time.Duration
	c.sleep = func(d time.Duration) { delays = append(delays, d) }

	c.ReverseGeocode(context.Background(), 1, 1)

	want := []time.Duration{time.Millisecond, 2 * time.Millisecond}
	if len(delays) != len(want) {
		t.Fatalf("backoff sleeps = %v, want %v", delays, want)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("backoff[%d] = %v, want %v", i, delays[i], want[i])
		}
	}
}

func TestReverseGeocodeDisabledSkipsNetwork(t *testing.T) {
	t.Parallel()

	store := newMemStore()

	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		geocodeOK(w, r)
	}))
	defer srv.Close()

	c := New(Config{Enabled: false, BaseURL: srv.URL, Precision: 3}, store)

	if got := c.ReverseGeocode(context.Background(), 38.7223, -9.1393); got != nil {
		t.Errorf("ReverseGeocode() = %+v, want nil when disabled", got)
	}
	if atomic.LoadInt64(&calls) != 0 {
		t.Errorf("network calls = %d, want 0 when disabled", atomic.LoadInt64(&calls))
	}
	if store.len() != 0 {
		t.Errorf("cache entries = %d, want 0 when disabled", store.len())
	}
}

func TestReverseGeocodeUsesUnroundedCoordinatesUpstream(t *testing.T) {
	t.Parallel()

	var gotLat, gotLon string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotLat = r.URL.Query().Get("latitude")
		gotLon = r.URL.Query().Get("longitude")
		geocodeOK(w, r)
	}, newMemStore())

	c.ReverseGeocode(context.Background(), 38.72231107, -9.13933074)

	if gotLat != "38.72231107" || gotLon != "-9.13933074" {
		t.Errorf("upstream coordinates = (%s, %s), want unrounded (38.72231107, -9.13933074)", gotLat, gotLon)
	}
}
