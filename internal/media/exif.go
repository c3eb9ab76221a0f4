package media

import (
	"os"
	"time"

	"photo-index/internal/logging"

	"github.com/rwcarlsen/goexif/exif"
)

// PhotoMeta holds the metadata extracted from a photo's EXIF block.
// Fields are left zero when the photo carries no usable EXIF data.
type PhotoMeta struct {
	TakenAt string
	Lat     *float64
	Lon     *float64
}

// ExtractMeta reads EXIF metadata from the photo at filePath. Photos
// without EXIF data (or with unreadable EXIF) yield an empty PhotoMeta
// rather than an error; indexing should not fail on a bad camera write.
func ExtractMeta(filePath string) PhotoMeta {
	file, err := os.Open(filePath)
	if err != nil {
		logging.Debug("EXIF: cannot open %s: %v", filePath, err)
		return PhotoMeta{}
	}
	defer file.Close()

	x, err := exif.Decode(file)
	if err != nil {
		logging.Debug("EXIF: no metadata in %s: %v", filePath, err)
		return PhotoMeta{}
	}

	var meta PhotoMeta

	if taken, err := x.DateTime(); err == nil {
		meta.TakenAt = taken.Format(time.RFC3339)
	}

	if lat, lon, err := x.LatLong(); err == nil {
		meta.Lat = &lat
		meta.Lon = &lon
	}

	return meta
}
