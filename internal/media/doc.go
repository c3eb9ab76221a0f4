// Package media handles reading photo files: EXIF metadata extraction
// for the indexer, and md5-keyed JPEG thumbnail generation for the
// thumbnail endpoint.
package media
