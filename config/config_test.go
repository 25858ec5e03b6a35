package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultHTTPAddr, cfg.Server.Addr)
	assert.Equal(t, "file", cfg.Storage.MetadataBackend)
	assert.Equal(t, "local", cfg.Storage.BlobBackend)
	assert.Equal(t, int64(10<<20), cfg.Upload.MaxBytes)
	assert.Equal(t, 100, cfg.Upload.RequiredDimension)
	assert.Equal(t, 20, cfg.Search.DefaultLimit)
	assert.Equal(t, filepath.Join("data", "metadata.json"), cfg.MetadataPath())
	assert.Equal(t, filepath.Join("data", "images"), cfg.ImagesDir())
	assert.Equal(t, filepath.Join("data", "metadata.db"), cfg.SQLitePath())
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
addr = ":9000"

[storage]
data_dir = "/srv/gallery"
metadata_backend = "sqlite"

[upload]
required_dimension = 0

[log]
level = "debug"
`), 0o644))

	t.Setenv("HTTP_ADDR", ":9100")
	t.Setenv("SEARCH_DEFAULT_LIMIT", "35")
	t.Setenv("CORS_ALLOWED_ORIGIN_PREFIXES", "https://gallery.example, ,http://localhost:")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9100", cfg.Server.Addr, "env wins over file")
	assert.Equal(t, "/srv/gallery", cfg.Storage.DataDir)
	assert.Equal(t, "sqlite", cfg.Storage.MetadataBackend)
	assert.Equal(t, 0, cfg.Upload.RequiredDimension)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 35, cfg.Search.DefaultLimit)
	assert.Equal(t, []string{"https://gallery.example", "http://localhost:"}, cfg.Server.AllowedOriginPrefixes)
	assert.Equal(t, "/srv/gallery/metadata.db", filepath.ToSlash(cfg.SQLitePath()))
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown metadata backend", map[string]string{"METADATA_BACKEND": "redis"}},
		{"unknown log level", map[string]string{"LOG_LEVEL": "loud"}},
		{"mongo without uri", map[string]string{"METADATA_BACKEND": "mongo"}},
		{"s3 without bucket", map[string]string{"BLOB_BACKEND": "s3"}},
		{"minio without endpoint", map[string]string{"BLOB_BACKEND": "minio", "BUCKET_NAME": "b"}},
		{"non-numeric limit", map[string]string{"SEARCH_DEFAULT_LIMIT": "many"}},
		{"zero limit", map[string]string{"SEARCH_DEFAULT_LIMIT": "0"}},
		{"bad bool", map[string]string{"MINIO_USE_SSL": "maybe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
			assert.Error(t, err)
		})
	}
}

func TestLoad_BackendSettings(t *testing.T) {
	t.Setenv("METADATA_BACKEND", "mongo")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("BLOB_BACKEND", "minio")
	t.Setenv("BUCKET_NAME", "gallery")
	t.Setenv("MINIO_ENDPOINT", "localhost:9000")
	t.Setenv("MINIO_USE_SSL", "true")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URI)
	assert.True(t, cfg.Minio.UseSSL)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server\naddr="), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
