package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/neexbeast/saferoute/internal/api"
	"github.com/neexbeast/saferoute/internal/cache"
	"github.com/neexbeast/saferoute/internal/config"
	"github.com/neexbeast/saferoute/internal/notify"
	"github.com/neexbeast/saferoute/internal/observability"
	"github.com/neexbeast/saferoute/internal/routing"
	"github.com/neexbeast/saferoute/internal/safety"
	"github.com/neexbeast/saferoute/internal/storage"
	"github.com/neexbeast/saferoute/internal/weather"
)

func main() {
	// A missing .env is fine; the real environment still applies.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	log := observability.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx := context.Background()

	// Connect to PostgreSQL.
	pool, err := storage.Connect(ctx, cfg.DatabaseURL, 10)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	// Run migrations.
	var migrations fs.FS = storage.Migrations()
	if cfg.MigrationsDir != "" {
		migrations = os.DirFS(cfg.MigrationsDir)
	}
	if err := storage.RunMigrations(ctx, pool, migrations); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("migrations applied", "dir", cfg.MigrationsDir)

	// Connect to Redis.
	redisClient, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() { _ = redisClient.Close() }()

	provider, err := routing.NewProvider(cfg.RoutingProvider, cfg.RoutingAPIKey, cfg.RoutingURL, cfg.ProviderTimeout)
	if err != nil {
		return fmt.Errorf("configuring routing provider: %w", err)
	}

	// Wire dependencies.
	repo := storage.NewRepository(pool)
	deps := safety.Deps{
		Hazards:  repo,
		Routes:   repo,
		Cache:    cache.NewCache(redisClient, safety.CacheWindow),
		Provider: provider,
		Notifier: notify.NewPublisher(redisClient),
		Clock:    clockwork.NewRealClock(),
		Metrics:  observability.NewMetrics(),
		Log:      log,
	}
	if cfg.OpenWeatherAPIKey != "" {
		deps.Weather = weather.NewClientWithURL(cfg.OpenWeatherURL, cfg.OpenWeatherAPIKey, cfg.ProviderTimeout)
	} else {
		log.Warn("OPENWEATHER_API_KEY not set, hazard detection uses neutral conditions")
	}
	log.Info("dependencies wired", "routing_provider", provider.Name(), "weather", deps.Weather != nil)

	handlers := api.NewHandlers(safety.NewEngine(deps), safety.NewAnalyzer(deps), log)

	// Build router with pingers adapted for health check.
	dbPinger := &pgxPoolPinger{pool: pool}
	redisPinger := &redisPingerAdapter{client: redisClient}

	router := api.NewRouter(handlers, cfg.BearerToken, cfg.RateLimitPerMinute, dbPinger, redisPinger, log)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("server goroutine panicked", "recover", r)
				errCh <- fmt.Errorf("server panicked: %v", r)
			}
		}()
		log.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("listening: %w", err)
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown signal received", "signal", sig)
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("server shut down cleanly")
	return nil
}

// pgxPoolPinger adapts pgxpool.Pool to the api.dbPinger interface.
type pgxPoolPinger struct {
	pool interface {
		Ping(ctx context.Context) error
	}
}

func (p *pgxPoolPinger) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// redisPingerAdapter adapts redis.Client to the api.redisPinger interface.
type redisPingerAdapter struct {
	client *redis.Client
}

func (r *redisPingerAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
