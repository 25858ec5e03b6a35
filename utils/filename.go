package utils

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	renditionSuffix = regexp.MustCompile(`_\d+(x\d+|px)`)
	unsafeChars     = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
)

// SanitizeFilename turns an upload name into a safe stored filename: the
// base name only, with earlier rendition suffixes ("_64x64", "_64px")
// removed and anything outside [A-Za-z0-9._-] replaced by "_".
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == "/" {
		name = ""
	}
	name = renditionSuffix.ReplaceAllString(name, "")
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.TrimLeft(name, ".")
	if name == "" {
		return "image"
	}
	return name
}
