package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nutrimind/internal/api"
	"nutrimind/internal/config"
	"nutrimind/internal/favorites"
	"nutrimind/internal/metrics"
	"nutrimind/internal/platform/backend"
	"nutrimind/internal/platform/gemini"
	"nutrimind/internal/platform/logger"
	"nutrimind/internal/platform/unsplash"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
		Development: cfg.App.Development,
	})
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("Server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	backendClient := backend.NewClient(cfg.Backend.BaseURL, log.Named("backend"))

	recommender, closeRecommender, err := newRecommender(ctx, cfg, backendClient, log)
	if err != nil {
		return err
	}
	defer closeRecommender()

	storage, closeStorage, err := newFavoritesBackend(ctx, cfg.Favorites)
	if err != nil {
		return err
	}
	defer closeStorage()

	store := favorites.NewStore(storage, log.Named("favorites"))
	photos := unsplash.NewClient(cfg.Unsplash.AccessKey, cfg.Unsplash.BaseURL, cfg.Unsplash.Timeout, log.Named("unsplash"))
	collector := metrics.NewCollector()

	handler := api.NewHandler(recommender, backendClient, store, photos, collector, log)
	handler.DefaultDays = cfg.MealPlan.DefaultDays

	if !cfg.App.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           setupRouter(handler, collector, cfg.Server.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting server",
			zap.String("addr", srv.Addr),
			zap.String("provider", cfg.Backend.Provider),
			zap.String("favorites_driver", cfg.Favorites.Driver))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// setupRouter builds the gin engine with CORS, metrics and every API route.
func setupRouter(handler *api.Handler, collector *metrics.Collector, allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(collector.HTTPMiddleware())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", api.ProfileHeader},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	handler.Register(r)
	r.GET("/metrics", gin.WrapH(collector.Handler()))

	return r
}

func newRecommender(ctx context.Context, cfg *config.Config, remote *backend.Client, log *zap.Logger) (api.Recommender, func(), error) {
	if cfg.Backend.Provider != config.ProviderGemini {
		return remote, func() {}, nil
	}

	client, err := gemini.NewClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, log.Named("gemini"))
	if err != nil {
		return nil, nil, fmt.Errorf("error creating gemini client: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

func newFavoritesBackend(ctx context.Context, cfg config.FavoritesConfig) (favorites.Backend, func(), error) {
	noop := func() {}

	switch cfg.Driver {
	case config.DriverMemory:
		return favorites.NewMemoryBackend(), noop, nil
	case config.DriverFile:
		b, err := favorites.NewFileBackend(cfg.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("error creating file favorites backend: %w", err)
		}
		return b, noop, nil
	case config.DriverRedis:
		b, err := favorites.NewRedisBackend(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, fmt.Errorf("error creating redis favorites backend: %w", err)
		}
		return b, closer(b), nil
	case config.DriverPostgres:
		b, err := favorites.NewPostgresBackend(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("error creating postgres favorites backend: %w", err)
		}
		return b, closer(b), nil
	default:
		return nil, nil, fmt.Errorf("unknown favorites driver %q", cfg.Driver)
	}
}

func closer(c io.Closer) func() {
	return func() { _ = c.Close() }
}
