package placeholder

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"photo-index/internal/geocode"
	"photo-index/internal/metrics"
)

// Token identifies one expandable placeholder.
type Token string

const (
	TokenYear    Token = "year"
	TokenMonth   Token = "month"
	TokenDay     Token = "day"
	TokenWeekday Token = "weekday"
	TokenCountry Token = "country"
	TokenState   Token = "state"
	TokenCity    Token = "city"
)

// Valid reports whether t names a known token.
func (t Token) Valid() bool {
	switch t {
	case TokenYear, TokenMonth, TokenDay, TokenWeekday, TokenCountry, TokenState, TokenCity:
		return true
	}
	return false
}

// tagLabels prefix each emitted tag string, so the derived tags read
// "Year 2023", "Country Germany" and never collide with plain values.
var tagLabels = map[Token]string{
	TokenYear:    "Year",
	TokenMonth:   "Month",
	TokenDay:     "Day",
	TokenWeekday: "Weekday",
	TokenCountry: "Country",
	TokenState:   "State",
	TokenCity:    "City",
}

// MaxFileIDs caps how many files a single expansion request may name.
const MaxFileIDs = 1000

// Canonical emission order: date tags first, then location tags.
var (
	dateTokens     = []Token{TokenYear, TokenMonth, TokenDay, TokenWeekday}
	locationTokens = []Token{TokenCountry, TokenState, TokenCity}
)

// Request is one expansion request.
type Request struct {
	FileIDs []int64 `json:"fileIds"`
	Tokens  []Token `json:"tokens"`
}

// Validate checks request shape before any metadata is loaded.
func (r Request) Validate() error {
	if len(r.FileIDs) == 0 {
		return fmt.Errorf("fileIds must not be empty")
	}
	if len(r.FileIDs) > MaxFileIDs {
		return fmt.Errorf("too many fileIds: %d exceeds limit of %d", len(r.FileIDs), MaxFileIDs)
	}
	if len(r.Tokens) == 0 {
		return fmt.Errorf("tokens must not be empty")
	}
	for _, t := range r.Tokens {
		if !t.Valid() {
			return fmt.Errorf("unknown token %q", t)
		}
	}
	return nil
}

// Response maps file id (decimal string) to the tag values derived for it.
// Files with no derivable values are omitted.
type Response struct {
	Expansions map[string][]string `json:"expansions"`
}

// FileMeta is the slice of indexed metadata expansion needs per file.
type FileMeta struct {
	ID      int64
	TakenAt string
	Lat     *float64
	Lon     *float64
	Country string
	State   string
	City    string
}

// MetadataSource loads metadata for a set of files. Unknown ids are simply
// absent from the result.
type MetadataSource interface {
	FilesMeta(ctx context.Context, fileIDs []int64) ([]FileMeta, error)
}

// Geocoder resolves coordinates to a location, or nil when unavailable.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) *geocode.Result
}

// Expander derives tag values for files from indexed metadata.
type Expander struct {
	meta MetadataSource
	geo  Geocoder
}

func NewExpander(meta MetadataSource, geo Geocoder) *Expander {
	return &Expander{meta: meta, geo: geo}
}

// Expand resolves the requested tokens for every file in the request.
// Results are deterministic for fixed inputs: repeating a request yields the
// same expansions.
func (e *Expander) Expand(ctx context.Context, req Request) (Response, error) {
	start := time.Now()

	metas, err := e.meta.FilesMeta(ctx, req.FileIDs)
	if err != nil {
		return Response{}, fmt.Errorf("loading file metadata: %w", err)
	}

	requested := make(map[Token]bool, len(req.Tokens))
	for _, t := range req.Tokens {
		requested[t] = true
	}

	resp := Response{Expansions: make(map[string][]string, len(metas))}
	for _, meta := range metas {
		values := e.expandFile(ctx, meta, requested)
		if len(values) > 0 {
			resp.Expansions[strconv.FormatInt(meta.ID, 10)] = values
		}
	}

	metrics.PlaceholderExpansionDuration.Observe(time.Since(start).Seconds())
	metrics.PlaceholderFilesExpanded.Add(float64(len(metas)))
	return resp, nil
}

// expandFile emits the requested tokens for one file in canonical order:
// date tags first, location tags after.
func (e *Expander) expandFile(ctx context.Context, meta FileMeta, requested map[Token]bool) []string {
	var values []string

	date := ExpandTakenAt(meta.TakenAt)
	byToken := map[Token]string{
		TokenYear:    date.Year,
		TokenMonth:   date.Month,
		TokenDay:     date.Day,
		TokenWeekday: date.Weekday,
	}
	for _, t := range dateTokens {
		if requested[t] && byToken[t] != "" {
			values = append(values, tagLabels[t]+" "+byToken[t])
		}
	}

	wantLocation := requested[TokenCountry] || requested[TokenState] || requested[TokenCity]
	if wantLocation {
		loc := e.resolveLocation(ctx, meta)
		locByToken := map[Token]string{
			TokenCountry: loc.Country,
			TokenState:   loc.State,
			TokenCity:    loc.City,
		}
		for _, t := range locationTokens {
			if requested[t] && locByToken[t] != "" {
				values = append(values, tagLabels[t]+" "+locByToken[t])
			}
		}
	}

	return values
}

// resolveLocation applies the location precedence: EXIF text wins as a whole
// triple; otherwise coordinates go to the geocoder; otherwise nothing.
func (e *Expander) resolveLocation(ctx context.Context, meta FileMeta) TextLocation {
	if text := LocationFromEXIFText(meta.Country, meta.State, meta.City); !text.Empty() {
		return text
	}
	if meta.Lat != nil && meta.Lon != nil && e.geo != nil {
		if res := e.geo.ReverseGeocode(ctx, *meta.Lat, *meta.Lon); res != nil {
			return TextLocation{Country: res.Country, State: res.State, City: res.City}
		}
	}
	return TextLocation{}
}
