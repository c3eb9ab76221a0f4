package database

import "time"

// IndexedFile is one photo in the index.
type IndexedFile struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Dir      string    `json:"dir"`
	Size     int64     `json:"size"`
	ModTime  time.Time `json:"modTime"`
	MimeType string    `json:"mimeType,omitempty"`
	TakenAt  string    `json:"takenAt,omitempty"`
	Lat      *float64  `json:"lat,omitempty"`
	Lon      *float64  `json:"lon,omitempty"`
	Country  string    `json:"country,omitempty"`
	State    string    `json:"state,omitempty"`
	City     string    `json:"city,omitempty"`
	Tags     []string  `json:"tags,omitempty"`
}

// Tag is a user-defined label applied to files.
type Tag struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color,omitempty"`
	ItemCount int       `json:"itemCount"`
	CreatedAt time.Time `json:"createdAt"`
}

// TagCount is one row of an aggregation result: how many files in the scope
// carry the tag.
type TagCount struct {
	TagID int64  `json:"tagId"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Sort fields accepted by SearchFiles. Anything else falls back to SortTakenAt.
const (
	SortTakenAt = "takenAt"
	SortModTime = "mtime"
	SortSize    = "size"
	SortName    = "name"
	SortID      = "id"
)

const (
	// DefaultSearchLimit applies when the caller does not set a limit.
	DefaultSearchLimit = 100
	// MaxSearchLimit is the hard cap on a single page of results.
	MaxSearchLimit = 500
)

// sortColumns maps the accepted sort fields to their SQL columns.
var sortColumns = map[string]string{
	SortTakenAt: "f.taken_at",
	SortModTime: "f.mod_time",
	SortSize:    "f.size",
	SortName:    "f.name COLLATE NOCASE",
	SortID:      "f.id",
}

// SearchOptions control ordering and paging of a filter search.
type SearchOptions struct {
	SortBy  string `json:"sortBy"`
	SortDir string `json:"sortDir"`
	Limit   int    `json:"limit"`
	Offset  int    `json:"offset"`
}

// normalize clamps the options to the accepted whitelist and bounds.
func (o SearchOptions) normalize() SearchOptions {
	if _, ok := sortColumns[o.SortBy]; !ok {
		o.SortBy = SortTakenAt
	}
	if o.SortDir != "asc" && o.SortDir != "desc" {
		o.SortDir = "desc"
	}
	if o.Limit <= 0 {
		o.Limit = DefaultSearchLimit
	}
	if o.Limit > MaxSearchLimit {
		o.Limit = MaxSearchLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// SearchResult is one page of filter search results.
type SearchResult struct {
	Items      []IndexedFile `json:"items"`
	TotalItems int           `json:"totalItems"`
	Limit      int           `json:"limit"`
	Offset     int           `json:"offset"`
}

// IndexStats summarizes the last indexer run for the stats endpoint.
type IndexStats struct {
	TotalFiles    int       `json:"totalFiles"`
	TotalTags     int       `json:"totalTags"`
	LastIndexed   time.Time `json:"lastIndexed"`
	IndexDuration string    `json:"indexDuration"`
}
