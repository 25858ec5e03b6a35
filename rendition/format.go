package rendition

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"
)

// Format is a requested output format name.
type Format string

const (
	FormatPNG Format = "png"
	FormatBMP Format = "bmp"
	FormatICO Format = "ico"
	FormatSVG Format = "svg"
)

// ParseFormat matches name after trimming and lower-casing it.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	switch f {
	case FormatPNG, FormatBMP, FormatICO, FormatSVG:
		return f, nil
	case "":
		return "", fmt.Errorf("%w: format is required", ErrInvalidFormat)
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFormat, name)
	}
}

// OutputFormat is how a requested format is actually produced. Variants
// that hand back a different encoding than the name suggests report
// Substituted.
type OutputFormat interface {
	Format() Format
	ContentType() string
	Extension() string
	// Edge is the square the image is fitted into for a requested size.
	Edge(requested int) int
	Substituted() bool
	// Encode serializes img. requested is the size asked for, which may
	// differ from the image bounds.
	Encode(img image.Image, requested int) ([]byte, error)
}

type PNG struct{}

func (PNG) Format() Format      { return FormatPNG }
func (PNG) ContentType() string { return "image/png" }
func (PNG) Extension() string   { return "png" }
func (PNG) Edge(size int) int   { return size }
func (PNG) Substituted() bool   { return false }
func (PNG) Encode(img image.Image, _ int) ([]byte, error) {
	return encodePNG(img)
}

// BMPEmulated answers bmp requests with PNG bytes.
type BMPEmulated struct{}

func (BMPEmulated) Format() Format      { return FormatBMP }
func (BMPEmulated) ContentType() string { return "image/png" }
func (BMPEmulated) Extension() string   { return "png" }
func (BMPEmulated) Edge(size int) int   { return size }
func (BMPEmulated) Substituted() bool   { return true }
func (BMPEmulated) Encode(img image.Image, _ int) ([]byte, error) {
	return encodePNG(img)
}

// ICOEmulated answers ico requests with a PNG no larger than MaxSize.
type ICOEmulated struct {
	MaxSize int
}

func (ICOEmulated) Format() Format      { return FormatICO }
func (ICOEmulated) ContentType() string { return "image/png" }
func (ICOEmulated) Extension() string   { return "png" }
func (v ICOEmulated) Edge(size int) int { return min(size, v.MaxSize) }
func (ICOEmulated) Substituted() bool   { return true }
func (ICOEmulated) Encode(img image.Image, _ int) ([]byte, error) {
	return encodePNG(img)
}

// SVGWrapped embeds a PNG rendition in an SVG document.
type SVGWrapped struct{}

func (SVGWrapped) Format() Format      { return FormatSVG }
func (SVGWrapped) ContentType() string { return "image/svg+xml" }
func (SVGWrapped) Extension() string   { return "svg" }
func (SVGWrapped) Edge(size int) int   { return size }
func (SVGWrapped) Substituted() bool   { return false }
func (SVGWrapped) Encode(img image.Image, requested int) ([]byte, error) {
	data, err := encodePNG(img)
	if err != nil {
		return nil, err
	}
	return wrapSVG(data, requested), nil
}

const maxICOSize = 256

// Resolve returns the variant that produces f.
func Resolve(f Format) (OutputFormat, error) {
	switch f {
	case FormatPNG:
		return PNG{}, nil
	case FormatBMP:
		return BMPEmulated{}, nil
	case FormatICO:
		return ICOEmulated{MaxSize: maxICOSize}, nil
	case FormatSVG:
		return SVGWrapped{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, string(f))
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: encode png: %v", ErrProcessingFailed, err)
	}
	return buf.Bytes(), nil
}
