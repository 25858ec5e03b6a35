package utils

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"cat.png", "cat.png"},
		{"cat_100x100.png", "cat.png"},
		{"cat_64px.png", "cat.png"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\photo 1.png`, "photo_1.png"},
		{"ïcon!!.png", "_con_.png"},
		{"", "image"},
		{".hidden", "hidden"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.in))
		})
	}
}

func TestParseTags(t *testing.T) {
	assert.Nil(t, ParseTags(""))
	assert.Nil(t, ParseTags("   "))
	assert.Equal(t, []string{"a", "b"}, ParseTags(" a , b ,"))
	assert.Equal(t, []string{"Nature", "nature"}, ParseTags("Nature,nature,Nature"))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger("warn", "json", &buf)

	log.Info().Msg("dropped")
	log.Warn().Str("k", "v").Msg("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), `"k":"v"`)
	assert.Equal(t, zerolog.WarnLevel, log.GetLevel())
}

func TestNewLogger_BadLevelDefaultsToInfo(t *testing.T) {
	log := NewLogger("loud", "json", &bytes.Buffer{})
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
}

func TestContextLogger(t *testing.T) {
	var fallbackBuf, reqBuf bytes.Buffer
	fallback := zerolog.New(&fallbackBuf)

	ContextLogger(context.Background(), fallback, "store").Info().Msg("no request")
	assert.Contains(t, fallbackBuf.String(), "no request")

	reqLog := zerolog.New(&reqBuf).With().Str("request_id", "abc").Logger()
	ctx := reqLog.WithContext(context.Background())
	ContextLogger(ctx, fallback, "store").Info().Msg("in request")

	assert.Contains(t, reqBuf.String(), `"request_id":"abc"`)
	assert.Contains(t, reqBuf.String(), `"component":"store"`)
	assert.NotContains(t, fallbackBuf.String(), "in request")
}
