package rendition

import "slices"

// DefaultSize is used when a download does not name a size.
const DefaultSize = 1024

// AllowedSizes are the only edge lengths a rendition can be requested at.
var AllowedSizes = []int{1024, 512, 256, 128, 100, 96, 70, 64, 50, 46, 40, 38, 32, 24, 20, 16}

func ValidSize(size int) bool {
	return slices.Contains(AllowedSizes, size)
}
