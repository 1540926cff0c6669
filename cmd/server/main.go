package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/arjun/caproute/backend/internal/config"
	"github.com/arjun/caproute/backend/internal/graph"
	"github.com/arjun/caproute/backend/internal/history"
	"github.com/arjun/caproute/backend/internal/logging"
	"github.com/arjun/caproute/backend/internal/repository"
	"github.com/arjun/caproute/backend/internal/server"
	"github.com/arjun/caproute/backend/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)

	source, cleanup, err := buildNetworkSource(ctx, logger, cfg)
	if err != nil {
		logger.Error("failed to create network source", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	routingService := service.NewRoutingService(logger, source, service.Options{
		MaxHopsCeiling: cfg.Routing.MaxHopsCeiling,
		DefaultMaxHops: cfg.Routing.DefaultMaxHops,
		DefaultTopK:    cfg.Routing.DefaultTopK,
		ScoreWorkers:   cfg.Routing.ScoreWorkers,
		LoadTimeout:    cfg.Data.LoadTimeout,
		CacheTTL:       cfg.Cache.TTL,
		CacheCleanup:   cfg.Cache.CleanupInterval,
		CacheEnabled:   cfg.Cache.Enabled,
	})

	// Fail fast when the corridor data is unavailable; serving demo numbers
	// instead would be indistinguishable from live results.
	if err := routingService.LoadNetwork(ctx); err != nil {
		logger.Error("failed to load corridor network", "error", err)
		os.Exit(1)
	}

	apiHandlers := server.NewRouteHandlers(logger, routingService, service.DemoScenario{
		Source:      cfg.Demo.Source,
		Destination: cfg.Demo.Destination,
		Amount:      cfg.Demo.Amount,
		Currency:    cfg.Demo.Currency,
	})

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path, cfg.History.Capacity)
		if err != nil {
			logger.Error("failed to open scenario history", "error", err, "path", cfg.History.Path)
			os.Exit(1)
		}
		defer store.Close()
		routingService.WithRecorder(store)
		apiHandlers.WithHistory(store)
	}

	deps := server.RouterDependencies{
		Health:           server.RoutingHealthService{Service: routingService},
		API:              apiHandlers,
		AllowedOrigins:   parseAllowedOrigins(cfg.HTTP.AllowedOriginsCSV),
		AllowCredentials: true,
		RateLimitPerSec:  cfg.HTTP.RateLimitPerSec,
		RateLimitBurst:   cfg.HTTP.RateLimitBurst,
	}
	if cfg.HTTP.MetricsEnabled {
		metrics := server.NewMetrics()
		apiHandlers.WithMetrics(metrics)
		deps.Metrics = metrics
	}

	router := server.NewRouter(logger, deps)
	srv := server.New(logger, cfg.HTTP, router)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped unexpectedly", "error", err)
		os.Exit(1)
	}
}

func buildNetworkSource(ctx context.Context, logger *slog.Logger, cfg config.Config) (repository.NetworkSource, func(), error) {
	if cfg.Data.Source == "file" {
		return repository.NewFileSource(cfg.Data.Dir), func() {}, nil
	}

	if cfg.Graph.URI == "" {
		return nil, nil, graph.ErrMissingURI
	}
	client, err := graph.NewNeo4jClient(ctx, graph.Options{
		URI:            cfg.Graph.URI,
		Database:       cfg.Graph.Database,
		Username:       cfg.Graph.Username,
		Password:       cfg.Graph.Password,
		MaxConnections: cfg.Graph.MaxConnections,
	})
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if err := client.Close(context.Background()); err != nil {
			logger.Warn("closing graph client failed", "error", err)
		}
	}
	return repository.New(client), cleanup, nil
}

func parseAllowedOrigins(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	var origins []string
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		origins = append(origins, origin)
	}
	return origins
}
