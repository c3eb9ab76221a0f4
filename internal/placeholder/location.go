package placeholder

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// TextLocation is a location triple taken from EXIF text fields.
type TextLocation struct {
	Country string
	State   string
	City    string
}

// Empty reports whether no component of the triple is set.
func (l TextLocation) Empty() bool {
	return l.Country == "" && l.State == "" && l.City == ""
}

// LocationFromEXIFText builds a normalized location triple from raw EXIF
// strings. The triple is used as a whole: if any field is present the
// geocoder is not consulted for the file.
func LocationFromEXIFText(country, state, city string) TextLocation {
	return TextLocation{
		Country: normalizeText(country),
		State:   normalizeText(state),
		City:    normalizeText(city),
	}
}

// normalizeText collapses whitespace and title-cases each word, so that
// "NEW    york" and "new york" both become "New York".
func normalizeText(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	for i, word := range fields {
		r, size := utf8.DecodeRuneInString(word)
		if r == utf8.RuneError {
			continue
		}
		fields[i] = string(unicode.ToUpper(r)) + strings.ToLower(word[size:])
	}
	return strings.Join(fields, " ")
}
