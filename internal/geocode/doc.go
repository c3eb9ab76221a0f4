// Package geocode resolves latitude/longitude pairs to place names via an
// external reverse-geocoding HTTP API, with a persistent rounded-coordinate
// cache in front of it.
//
// Coordinates are rounded to a configured decimal precision to form the cache
// key, so nearby points share one upstream lookup. Network failures are
// retried with exponential backoff; when the retries are exhausted the client
// degrades to "no location" rather than surfacing an error, and nothing is
// cached so a later call can try the network again.
package geocode
