package utils

import (
	"regexp"
	"strings"
)

var (
	invalidPathChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F]`)
	repeatedUnders   = regexp.MustCompile(`_+`)
)

const maxPathComponentLength = 100

// SanitizeFilename turns an arbitrary string (typically a host name) into a
// single safe path component. Empty results become "untitled".
func SanitizeFilename(name string) string {
	cleaned := invalidPathChars.ReplaceAllString(name, "_")
	cleaned = repeatedUnders.ReplaceAllString(cleaned, "_")
	cleaned = strings.Trim(cleaned, "_ ")

	if len(cleaned) > maxPathComponentLength {
		cleaned = strings.Trim(cleaned[:maxPathComponentLength], "_ ")
	}
	if cleaned == "" {
		return "untitled"
	}
	return cleaned
}
