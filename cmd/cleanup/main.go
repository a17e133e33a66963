// Command cleanup runs one retention pass over stored hazards and routes.
// It is meant to be scheduled by cron alongside the server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"

	"github.com/neexbeast/saferoute/internal/config"
	"github.com/neexbeast/saferoute/internal/housekeeping"
	"github.com/neexbeast/saferoute/internal/observability"
	"github.com/neexbeast/saferoute/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	log := observability.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("cleanup failed", "err", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	pool, err := storage.Connect(ctx, cfg.DatabaseURL, 2)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	retention := housekeeping.NewRetention(
		storage.NewRepository(pool),
		clockwork.NewRealClock(),
		log,
		cfg.HazardRetention,
		cfg.RouteRetention,
	)

	res, err := retention.Run(ctx)
	if err != nil {
		return err
	}

	log.Info("cleanup finished", "hazards_deleted", res.HazardsDeleted, "routes_deleted", res.RoutesDeleted)
	return nil
}
