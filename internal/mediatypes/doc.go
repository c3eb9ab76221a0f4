// Package mediatypes classifies files by extension so the indexer can
// decide which files belong in the photo index and what MIME type to
// record for them.
package mediatypes
