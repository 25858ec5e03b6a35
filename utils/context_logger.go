package utils

import (
	"context"

	"github.com/rs/zerolog"
)

// ContextLogger returns the request logger carried by ctx, tagged with
// component. Without one it returns fallback.
func ContextLogger(ctx context.Context, fallback zerolog.Logger, component string) *zerolog.Logger {
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		return &fallback
	}
	tagged := l.With().Str("component", component).Logger()
	return &tagged
}
