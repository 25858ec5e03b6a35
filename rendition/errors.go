package rendition

import "errors"

var (
	ErrInvalidFormat    = errors.New("invalid output format")
	ErrInvalidSize      = errors.New("invalid output size")
	ErrProcessingFailed = errors.New("image processing failed")
)
