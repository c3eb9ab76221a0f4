package placeholder

import "time"

// DateParts are the date-derived tag values for one timestamp. All fields are
// empty when the timestamp is missing or unparseable.
type DateParts struct {
	Year    string // "2023"
	Month   string // "2023-03"
	Day     string // "2023-03-06"
	Weekday string // "Mon" (English, locale-independent)
}

// takenAtLayouts are the timestamp shapes the EXIF mapper writes into the
// index, most specific first.
var takenAtLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ExpandTakenAt derives date parts from a stored taken-at timestamp. The
// derivation uses UTC so results do not depend on the server's timezone.
func ExpandTakenAt(takenAt string) DateParts {
	if takenAt == "" {
		return DateParts{}
	}

	var parsed time.Time
	ok := false
	for _, layout := range takenAtLayouts {
		if t, err := time.Parse(layout, takenAt); err == nil {
			parsed = t
			ok = true
			break
		}
	}
	if !ok {
		return DateParts{}
	}

	utc := parsed.UTC()
	return DateParts{
		Year:    utc.Format("2006"),
		Month:   utc.Format("2006-01"),
		Day:     utc.Format("2006-01-02"),
		Weekday: utc.Format("Mon"),
	}
}
