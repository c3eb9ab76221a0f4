package mediatypes

// FileType represents the classification of a file in the library.
type FileType string

const (
	// FileTypePhoto represents a decodable photo format.
	FileTypePhoto FileType = "photo"
	// FileTypeRaw represents a camera raw format. Raw files are indexed
	// but skipped for thumbnail generation.
	FileTypeRaw FileType = "raw"
	// FileTypeOther represents an unknown or unsupported file type.
	FileTypeOther FileType = "other"
)

// PhotoExtensions maps file extensions to whether they are supported photo formats.
var PhotoExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tiff": true,
	".tif":  true,
	".heic": true,
	".heif": true,
}

// RawExtensions maps file extensions to whether they are recognized camera
// raw formats.
var RawExtensions = map[string]bool{
	".dng": true,
	".cr2": true,
	".cr3": true,
	".nef": true,
	".arw": true,
	".orf": true,
	".raf": true,
	".rw2": true,
}

// MimeTypes maps file extensions to their MIME types.
var MimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".heic": "image/heic",
	".heif": "image/heif",

	".dng": "image/x-adobe-dng",
	".cr2": "image/x-canon-cr2",
	".cr3": "image/x-canon-cr3",
	".nef": "image/x-nikon-nef",
	".arw": "image/x-sony-arw",
	".orf": "image/x-olympus-orf",
	".raf": "image/x-fuji-raf",
	".rw2": "image/x-panasonic-rw2",
}

// GetFileType returns the FileType for a given file extension.
// The extension should be lowercase and include the leading dot (e.g., ".jpg").
// Returns FileTypeOther if the extension is not recognized.
func GetFileType(ext string) FileType {
	if PhotoExtensions[ext] {
		return FileTypePhoto
	}
	if RawExtensions[ext] {
		return FileTypeRaw
	}
	return FileTypeOther
}

// GetMimeType returns the MIME type for a given file extension.
// The extension should be lowercase and include the leading dot (e.g., ".jpg").
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}

// IsPhotoFile returns true if the extension represents an indexable photo.
func IsPhotoFile(ext string) bool {
	return GetFileType(ext) != FileTypeOther
}
