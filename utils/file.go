package utils

import (
	"path"
	"regexp"
	"strings"
)

var supportedImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

var trailingExtension = regexp.MustCompile(`\.[^.]+$`)

// IsRasterImage checks if the filename has a common raster image extension
func IsRasterImage(filename string) bool {
	ext := strings.ToLower(path.Ext(filename))
	return supportedImageExtensions[ext]
}

// StripExtension removes the last ".ext" suffix from a file name
func StripExtension(filename string) string {
	return trailingExtension.ReplaceAllString(filename, "")
}

// FormatOf returns the lowercase extension of filename without the dot, or
// fallback when the name has none.
func FormatOf(filename, fallback string) string {
	ext := strings.TrimPrefix(path.Ext(filename), ".")
	if ext == "" {
		return fallback
	}
	return strings.ToLower(ext)
}
