// Package rendition re-encodes stored images at one of a fixed set of
// sizes and output formats.
package rendition

import (
	"bytes"
	"fmt"
	"image"
	"path/filepath"
	"strconv"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// maxSourcePixels bounds the decoded size of a stored image.
const maxSourcePixels = 64 << 20

// Output is one encoded rendition.
type Output struct {
	Data        []byte
	ContentType string
	Extension   string
	Width       int
	Height      int
	Format      Format
	Substituted bool
}

// Process renders data as format at size. format and size are validated
// before the image is decoded.
func Process(data []byte, format string, size int) (*Output, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	if !ValidSize(size) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	variant, err := Resolve(f)
	if err != nil {
		return nil, err
	}

	src, err := decode(data)
	if err != nil {
		return nil, err
	}

	img := resize(src, variant.Edge(size))
	encoded, err := variant.Encode(img, size)
	if err != nil {
		return nil, err
	}

	return &Output{
		Data:        encoded,
		ContentType: variant.ContentType(),
		Extension:   variant.Extension(),
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		Format:      f,
		Substituted: variant.Substituted(),
	}, nil
}

// Inspect reports the dimensions and codec of an encoded image without
// decoding its pixels.
func Inspect(data []byte) (width, height int, codec string, err error) {
	cfg, codec, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, "", fmt.Errorf("%w: %v", ErrProcessingFailed, err)
	}
	return cfg.Width, cfg.Height, codec, nil
}

func decode(data []byte) (image.Image, error) {
	w, h, _, err := Inspect(data)
	if err != nil {
		return nil, err
	}
	if w <= 0 || h <= 0 || w*h > maxSourcePixels {
		return nil, fmt.Errorf("%w: unsupported dimensions %dx%d", ErrProcessingFailed, w, h)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrProcessingFailed, err)
	}
	return img, nil
}

// Filename names a download: the original name without its last
// extension, the requested size and the extension actually produced.
func Filename(originalName string, size int, ext string) string {
	base := filepath.Base(strings.ReplaceAll(originalName, `\`, "/"))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." || stem == "/" {
		stem = "image"
	}
	return stem + "_" + strconv.Itoa(size) + "px." + ext
}
