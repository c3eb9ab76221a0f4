// Package placeholder derives proposed tag strings from indexed file
// metadata.
//
// Callers request tokens (year, month, day, weekday, country, state, city)
// for a batch of file ids; the expander turns each file's timestamp into UTC
// date tags and resolves place names through a precedence chain: textual EXIF
// fields first, then the reverse geocoder when GPS coordinates are present.
// Emitted tags carry their category label, e.g. "Year 2023" or "City Berlin".
// A file with no usable metadata simply contributes no tags; expansion never
// fails because geocoding is unavailable.
//
// Expansion is deterministic: the same request against unchanged metadata
// yields identical output, since results are shown to users as proposed tags
// they may apply repeatedly.
package placeholder
