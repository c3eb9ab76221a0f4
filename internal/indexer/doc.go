// Package indexer keeps the photo database in sync with the photos
// directory. It performs an initial full scan at startup, re-scans on a
// configurable interval, and extracts EXIF metadata (capture time and
// GPS coordinates) from each photo as it is indexed.
//
// Scans walk the directory tree sequentially and fan EXIF extraction
// out to a worker pool sized by the workers package. Database writes
// happen in batched transactions so a large library does not hold a
// write lock for the whole scan.
package indexer
