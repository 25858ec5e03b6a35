// Package config loads the server configuration from an optional TOML file
// and the environment. Environment variables win over the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

const (
	DefaultConfigPath      = "config.toml"
	DefaultHTTPAddr        = ":8007"
	DefaultDataDir         = "data"
	DefaultMongoDatabase   = "imagestore"
	DefaultMongoCollection = "images"
	DefaultBlobPrefix      = "images"
	DefaultUploadMaxBytes  = 10 << 20
	DefaultUploadDimension = 100
	DefaultSearchLimit     = 20
	DefaultRateLimitRPS    = 10
	DefaultRateLimitBurst  = 30
	DefaultMetadataBackend = "file"
	DefaultBlobBackend     = "local"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "json"
	metadataFileName       = "metadata.json"
	sqliteFileName         = "metadata.db"
	imagesDirName          = "images"
)

type Config struct {
	Server    ServerConfig    `toml:"server"`
	Storage   StorageConfig   `toml:"storage"`
	Mongo     MongoConfig     `toml:"mongo"`
	S3        S3Config        `toml:"s3"`
	Minio     MinioConfig     `toml:"minio"`
	Log       LogConfig       `toml:"log"`
	Upload    UploadConfig    `toml:"upload"`
	Search    SearchConfig    `toml:"search"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
}

type ServerConfig struct {
	Addr                  string   `toml:"addr" validate:"required"`
	AllowedOriginPrefixes []string `toml:"allowed_origin_prefixes"`
}

// StorageConfig selects the metadata and payload backends.
type StorageConfig struct {
	DataDir         string `toml:"data_dir" validate:"required"`
	MetadataBackend string `toml:"metadata_backend" validate:"oneof=file sqlite mongo"`
	BlobBackend     string `toml:"blob_backend" validate:"oneof=local s3 minio"`
	SQLitePath      string `toml:"sqlite_path"`
	BlobPrefix      string `toml:"blob_prefix"`
}

type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database" validate:"required"`
	Collection string `toml:"collection" validate:"required"`
}

type S3Config struct {
	Bucket string `toml:"bucket"`
	Region string `toml:"region"`
}

type MinioConfig struct {
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	UseSSL    bool   `toml:"use_ssl"`
}

type LogConfig struct {
	Level  string `toml:"level" validate:"oneof=debug info warn error"`
	Format string `toml:"format" validate:"oneof=json console"`
}

// UploadConfig bounds accepted uploads. RequiredDimension 0 accepts any
// dimensions.
type UploadConfig struct {
	MaxBytes          int64 `toml:"max_bytes" validate:"min=1"`
	RequiredDimension int   `toml:"required_dimension" validate:"min=0"`
}

type SearchConfig struct {
	DefaultLimit int `toml:"default_limit" validate:"min=1,max=1000"`
}

// RateLimitConfig is applied per client IP. RPS 0 disables limiting.
type RateLimitConfig struct {
	RPS   float64 `toml:"rps" validate:"min=0"`
	Burst int     `toml:"burst" validate:"min=0"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:                  DefaultHTTPAddr,
			AllowedOriginPrefixes: []string{"http://localhost:", "http://127.0.0.1:"},
		},
		Storage: StorageConfig{
			DataDir:         DefaultDataDir,
			MetadataBackend: DefaultMetadataBackend,
			BlobBackend:     DefaultBlobBackend,
			BlobPrefix:      DefaultBlobPrefix,
		},
		Mongo: MongoConfig{
			Database:   DefaultMongoDatabase,
			Collection: DefaultMongoCollection,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Upload: UploadConfig{
			MaxBytes:          DefaultUploadMaxBytes,
			RequiredDimension: DefaultUploadDimension,
		},
		Search: SearchConfig{
			DefaultLimit: DefaultSearchLimit,
		},
		RateLimit: RateLimitConfig{
			RPS:   DefaultRateLimitRPS,
			Burst: DefaultRateLimitBurst,
		},
	}
}

// Load reads the TOML file at path (a missing file is not an error),
// applies environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultConfigPath
	}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("decode %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, err
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) MetadataPath() string { return filepath.Join(c.Storage.DataDir, metadataFileName) }
func (c Config) ImagesDir() string    { return filepath.Join(c.Storage.DataDir, imagesDirName) }

// SQLitePath defaults to a database next to the other data files.
func (c Config) SQLitePath() string {
	if c.Storage.SQLitePath != "" {
		return c.Storage.SQLitePath
	}
	return filepath.Join(c.Storage.DataDir, sqliteFileName)
}

func (c Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(validateBackends, Config{})
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// validateBackends checks settings that only matter for the selected
// backends.
func validateBackends(sl validator.StructLevel) {
	c := sl.Current().Interface().(Config)

	if c.Storage.MetadataBackend == "mongo" && c.Mongo.URI == "" {
		sl.ReportError(c.Mongo.URI, "Mongo.URI", "URI", "required_for_mongo", "")
	}
	switch c.Storage.BlobBackend {
	case "s3":
		if c.S3.Bucket == "" {
			sl.ReportError(c.S3.Bucket, "S3.Bucket", "Bucket", "required_for_s3", "")
		}
	case "minio":
		if c.S3.Bucket == "" {
			sl.ReportError(c.S3.Bucket, "S3.Bucket", "Bucket", "required_for_minio", "")
		}
		if c.Minio.Endpoint == "" {
			sl.ReportError(c.Minio.Endpoint, "Minio.Endpoint", "Endpoint", "required_for_minio", "")
		}
	}
}

type lookupFunc func(key string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	strs := map[string]*string{
		"HTTP_ADDR":        &cfg.Server.Addr,
		"DATA_DIR":         &cfg.Storage.DataDir,
		"METADATA_BACKEND": &cfg.Storage.MetadataBackend,
		"BLOB_BACKEND":     &cfg.Storage.BlobBackend,
		"SQLITE_DB_PATH":   &cfg.Storage.SQLitePath,
		"BLOB_PREFIX":      &cfg.Storage.BlobPrefix,
		"MONGO_URI":        &cfg.Mongo.URI,
		"MONGO_DATABASE":   &cfg.Mongo.Database,
		"MONGO_COLLECTION": &cfg.Mongo.Collection,
		"BUCKET_NAME":      &cfg.S3.Bucket,
		"AWS_REGION":       &cfg.S3.Region,
		"MINIO_ENDPOINT":   &cfg.Minio.Endpoint,
		"MINIO_ACCESS_KEY": &cfg.Minio.AccessKey,
		"MINIO_SECRET_KEY": &cfg.Minio.SecretKey,
		"LOG_LEVEL":        &cfg.Log.Level,
		"LOG_FORMAT":       &cfg.Log.Format,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}

	ints := map[string]*int{
		"UPLOAD_REQUIRED_DIMENSION": &cfg.Upload.RequiredDimension,
		"SEARCH_DEFAULT_LIMIT":      &cfg.Search.DefaultLimit,
		"RATE_LIMIT_BURST":          &cfg.RateLimit.Burst,
	}
	for key, dst := range ints {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}

	if v, ok := lookup("UPLOAD_MAX_BYTES"); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("UPLOAD_MAX_BYTES: %w", err)
		}
		cfg.Upload.MaxBytes = n
	}
	if v, ok := lookup("RATE_LIMIT_RPS"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_RPS: %w", err)
		}
		cfg.RateLimit.RPS = f
	}
	if v, ok := lookup("MINIO_USE_SSL"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("MINIO_USE_SSL: %w", err)
		}
		cfg.Minio.UseSSL = b
	}
	if v, ok := lookup("CORS_ALLOWED_ORIGIN_PREFIXES"); ok {
		var prefixes []string
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				prefixes = append(prefixes, p)
			}
		}
		cfg.Server.AllowedOriginPrefixes = prefixes
	}
	return nil
}
