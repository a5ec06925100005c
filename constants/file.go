package constants

import "strings"

// AllowedExtensions holds the plain-text extensions accepted for syllabus ingestion.
// Binary formats are decoded upstream.
var AllowedExtensions = map[string]struct{}{
	"txt":  {},
	"text": {},
	"md":   {},
}

// MimeTypes maps allowed extensions to the declared mime type stored with the syllabus.
var MimeTypes = map[string]string{
	"txt":  "text/plain",
	"text": "text/plain",
	"md":   "text/markdown",
}

const (
	// MaxInputChars bounds the text handed to the pattern extractors.
	MaxInputChars = 12000
	// ExtractionMethod is recorded on every extraction record.
	ExtractionMethod = "ai_extraction"
)

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

func IsAllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}

// MimeTypeForExt returns the declared mime type, or empty for unsupported extensions.
func MimeTypeForExt(ext string) string {
	return MimeTypes[NormalizeExt(ext)]
}
