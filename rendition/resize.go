package rendition

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// fitInside scales w x h so the longer edge equals edge. Smaller sources
// are enlarged.
func fitInside(w, h, edge int) (int, int) {
	if w <= 0 || h <= 0 {
		return edge, edge
	}
	if w >= h {
		return edge, max(1, int(math.Round(float64(h)*float64(edge)/float64(w))))
	}
	return max(1, int(math.Round(float64(w)*float64(edge)/float64(h)))), edge
}

func resize(src image.Image, edge int) *image.NRGBA {
	b := src.Bounds()
	w, h := fitInside(b.Dx(), b.Dy(), edge)

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}
