package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"imagegallery/config"
	"imagegallery/controller"
	"imagegallery/metrics"
	"imagegallery/middlewares"
	"imagegallery/rendition"
	"imagegallery/route"
	"imagegallery/store"
	"imagegallery/utils"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := pflag.String("config", config.DefaultConfigPath, "path to the TOML config file")
	addr := pflag.String("addr", "", "listen address, overrides HTTP_ADDR")
	pflag.Parse()

	envErr := godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	log.Logger = utils.NewLogger(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if envErr != nil {
		log.Debug().Err(envErr).Msg("no .env file loaded")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	meta, closeMeta, err := openMetadata(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open metadata store")
	}
	defer closeMeta()

	blobs, err := openBlobs(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open payload store")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewCollector(registry)

	assets := store.New(meta, blobs,
		store.WithLogger(log.Logger),
		store.WithMetrics(recorder),
	)
	renderer := rendition.NewService(assets,
		rendition.WithLogger(log.Logger),
		rendition.WithMetrics(recorder),
	)
	images := controller.NewImageController(assets, renderer, controller.Options{
		MaxUploadBytes:     cfg.Upload.MaxBytes,
		RequiredDimension:  cfg.Upload.RequiredDimension,
		DefaultSearchLimit: cfg.Search.DefaultLimit,
	}, log.Logger)

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middlewares.RequestLogger(log.Logger), middlewares.Recovery(log.Logger))

	prefixes := cfg.Server.AllowedOriginPrefixes
	router.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			for _, p := range prefixes {
				if strings.HasPrefix(origin, p) {
					return true
				}
			}
			return false
		},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept", middlewares.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middlewares.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health and metrics are registered before the limiter and stay unthrottled.
	route.System(router, registry)

	if cfg.RateLimit.RPS > 0 {
		limiter := middlewares.NewRateLimiter(ctx, cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		router.Use(limiter.Middleware())
	}
	route.Images(router, images)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           gzhttp.GzipHandler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).
			Str("metadata", cfg.Storage.MetadataBackend).
			Str("payloads", cfg.Storage.BlobBackend).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown server")
	}
	log.Info().Msg("Server stopped")
}
