package rendition

import (
	"encoding/base64"
	"strconv"
	"strings"
)

// wrapSVG returns an SVG document of size x size whose only content is
// the PNG as a data URI.
func wrapSVG(pngData []byte, size int) []byte {
	n := strconv.Itoa(size)
	var b strings.Builder
	b.Grow(base64.StdEncoding.EncodedLen(len(pngData)) + 256)

	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" width="` + n + `" height="` + n + `" viewBox="0 0 ` + n + ` ` + n + `">`)
	b.WriteString(`<image href="data:image/png;base64,`)
	b.WriteString(base64.StdEncoding.EncodeToString(pngData))
	b.WriteString(`" width="` + n + `" height="` + n + `"/>`)
	b.WriteString(`</svg>`)
	return []byte(b.String())
}
