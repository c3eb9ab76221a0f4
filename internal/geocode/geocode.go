package geocode

import (
	"context"
	"math"
	"time"
)

// SourceBigDataCloud labels results produced by this resolver.
const SourceBigDataCloud = "bigdatacloud"

// Result is a resolved location. Source names the resolver that produced it;
// a cache hit is reported with the current resolver's label even when the
// entry was written by an older resolver implementation.
type Result struct {
	Country string `json:"country,omitempty"`
	State   string `json:"state,omitempty"`
	City    string `json:"city,omitempty"`
	Source  string `json:"source"`
}

// CachedLocation is one persistent cache entry, keyed by the rounded
// coordinates plus the precision they were rounded to.
type CachedLocation struct {
	LatRounded float64
	LonRounded float64
	Precision  int
	Country    string
	State      string
	City       string
	Source     string
	UpdatedAt  time.Time
}

// Store is the persistence seam for the geocode cache. Lookup returns
// (nil, nil) on a miss. Insert must treat a duplicate key as a no-op: under
// concurrent misses for the same key the first writer wins and later writers
// are silently discarded.
type Store interface {
	Lookup(ctx context.Context, latRounded, lonRounded float64, precision int) (*CachedLocation, error)
	Insert(ctx context.Context, loc CachedLocation) error
}

// RoundCoord rounds a coordinate to the given number of decimal places,
// half away from zero. Negative precision is clamped to zero.
func RoundCoord(value float64, precision int) float64 {
	if precision < 0 {
		precision = 0
	}
	factor := math.Pow(10, float64(precision))
	return math.Round(value*factor) / factor
}
