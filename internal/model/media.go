package model

import (
	"mime"
	"path/filepath"
	"strings"
)

// mediaTypes covers common media extensions missing from Go's builtin table
// when the host has no mime.types file.
var mediaTypes = map[string]string{
	".bmp":  "image/bmp",
	".heic": "image/heic",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".mpeg": "video/mpeg",
	".mpg":  "video/mpeg",
}

// ContentType guesses the MIME type of a file name from its extension,
// falling back to application/octet-stream.
func ContentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ct, ok := mediaTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// IsMedia reports whether name looks like an image or a video.
func IsMedia(name string) bool {
	ct := ContentType(name)
	return strings.HasPrefix(ct, "image/") || strings.HasPrefix(ct, "video/")
}
