package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/arjun/caproute/backend/internal/config"
	"github.com/arjun/caproute/backend/internal/domain"
	"github.com/arjun/caproute/backend/internal/graph"
	"github.com/arjun/caproute/backend/internal/logging"
	"github.com/arjun/caproute/backend/internal/repository"
	"github.com/arjun/caproute/backend/internal/service"
)

var errMissingDataset = errors.New("dataset not found")

func main() {
	var (
		datasetDir    = flag.String("dataset-dir", "./data", "Directory containing jurisdictions.json and corridors.json")
		jurisdictions = flag.String("jurisdictions", "", "Path to jurisdictions.json (overrides dataset-dir)")
		corridors     = flag.String("corridors", "", "Path to corridors.json (overrides dataset-dir)")
		workers       = flag.Int("workers", 4, "Number of concurrent workers for seeding")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging).With("component", "seed")

	jurisdictionFile, corridorFile, err := resolveDatasetPaths(*datasetDir, *jurisdictions, *corridors)
	if err != nil {
		logger.Error("dataset resolution failed", "error", err)
		os.Exit(1)
	}

	jurisdictionInputs, err := loadJurisdictions(jurisdictionFile)
	if err != nil {
		logger.Error("failed to load jurisdictions", "error", err, "path", jurisdictionFile)
		os.Exit(1)
	}

	corridorInputs, err := loadCorridors(corridorFile)
	if err != nil {
		logger.Error("failed to load corridors", "error", err, "path", corridorFile)
		os.Exit(1)
	}
	if len(corridorInputs) == 0 {
		logger.Error("corridors dataset empty", "path", corridorFile)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	graphClient, err := buildGraphClient(ctx, logger, cfg)
	if err != nil {
		logger.Error("failed to create graph client", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := graphClient.Close(context.Background()); err != nil {
			logger.Warn("closing graph client failed", "error", err)
		}
	}()

	repo := repository.New(graphClient)
	loader := service.NewSeedLoader(repo, *workers)

	start := time.Now()
	logger.Info("seeding jurisdictions", "count", len(jurisdictionInputs), "workers", *workers)
	if err := loader.LoadJurisdictions(ctx, jurisdictionInputs); err != nil {
		logger.Error("jurisdiction seeding failed", "error", err)
		os.Exit(1)
	}

	logger.Info("seeding corridors", "count", len(corridorInputs))
	if err := loader.LoadCorridors(ctx, corridorInputs); err != nil {
		logger.Error("corridor seeding failed", "error", err)
		os.Exit(1)
	}

	logger.Info("seeding complete",
		"duration", time.Since(start).String(),
		"jurisdictions", len(jurisdictionInputs),
		"corridors", len(corridorInputs),
	)
}

func resolveDatasetPaths(baseDir, jurisdictionsPath, corridorsPath string) (string, string, error) {
	resolve := func(explicitPath, fallbackFile string) (string, error) {
		if explicitPath != "" {
			if _, err := os.Stat(explicitPath); err != nil {
				return "", fmt.Errorf("stat %s: %w", explicitPath, err)
			}
			return explicitPath, nil
		}
		path := filepath.Join(baseDir, fallbackFile)
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("%w: %s", errMissingDataset, path)
		}
		return path, nil
	}

	jurisdictionFile, err := resolve(jurisdictionsPath, repository.JurisdictionsFile)
	if err != nil {
		return "", "", err
	}
	corridorFile, err := resolve(corridorsPath, repository.CorridorsFile)
	if err != nil {
		return "", "", err
	}
	return jurisdictionFile, corridorFile, nil
}

func loadJurisdictions(path string) ([]domain.Jurisdiction, error) {
	var records []repository.JurisdictionRecord
	if err := loadJSON(path, &records); err != nil {
		return nil, err
	}
	jurisdictions := make([]domain.Jurisdiction, 0, len(records))
	for _, r := range records {
		j := domain.Jurisdiction{Code: r.Code, Name: r.Name, Currency: r.Currency}.Normalize()
		if err := j.Validate(); err != nil {
			return nil, fmt.Errorf("invalid jurisdiction %q: %w", r.Code, err)
		}
		jurisdictions = append(jurisdictions, j)
	}
	return jurisdictions, nil
}

func loadCorridors(path string) ([]domain.Corridor, error) {
	var records []repository.CorridorRecord
	if err := loadJSON(path, &records); err != nil {
		return nil, err
	}
	corridors := make([]domain.Corridor, 0, len(records))
	for _, r := range records {
		c := r.ToDomain()
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("invalid corridor %s->%s: %w", r.From, r.To, err)
		}
		corridors = append(corridors, c)
	}
	return corridors, nil
}

func loadJSON(path string, target any) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func buildGraphClient(ctx context.Context, logger *slog.Logger, cfg config.Config) (graph.Client, error) {
	if cfg.Graph.URI == "" {
		return nil, fmt.Errorf("GRAPH_URI is required for seeding")
	}
	opts := graph.Options{
		URI:            cfg.Graph.URI,
		Database:       cfg.Graph.Database,
		Username:       cfg.Graph.Username,
		Password:       cfg.Graph.Password,
		MaxConnections: cfg.Graph.MaxConnections,
	}
	client, err := graph.NewNeo4jClient(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := client.VerifyConnectivity(ctx); err != nil {
		_ = client.Close(ctx)
		return nil, err
	}
	logger.Info("connected to graph", "uri", cfg.Graph.URI, "database", cfg.Graph.Database)
	return client, nil
}
