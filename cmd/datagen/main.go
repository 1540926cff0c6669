package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/arjun/caproute/backend/internal/generator"
)

func main() {
	cfg := generator.DefaultConfig()
	var (
		jurisdictions  = flag.Int("jurisdictions", cfg.NumJurisdictions, "number of jurisdictions to include")
		density        = flag.Float64("density", cfg.CorridorDensity, "probability of a corridor between any ordered pair")
		treatyChance   = flag.Float64("treaty-chance", cfg.TreatyChance, "probability a corridor carries treaty relief")
		feeChance      = flag.Float64("fee-chance", cfg.FlatFeeChance, "probability a corridor carries a flat bank fee")
		maxWithholding = flag.Float64("max-withholding", cfg.MaxWithholdingPct, "upper bound for withholding tax percentage")
		maxSpread      = flag.Float64("max-fx-spread", cfg.MaxFXSpreadPct, "upper bound for FX spread percentage")
		maxDays        = flag.Float64("max-settlement-days", cfg.MaxSettlementDays, "upper bound for settlement days")
		seed           = flag.Int64("seed", cfg.Seed, "random seed for deterministic generation")
		outputDir      = flag.String("output-dir", "data", "directory to write jurisdictions.json and corridors.json")
		writeStdout    = flag.Bool("stdout", false, "write combined dataset to stdout instead of files")
	)
	flag.Parse()

	genCfg := generator.Config{
		NumJurisdictions:  *jurisdictions,
		CorridorDensity:   clampProbability(*density),
		TreatyChance:      clampProbability(*treatyChance),
		FlatFeeChance:     clampProbability(*feeChance),
		MaxWithholdingPct: *maxWithholding,
		MaxFXSpreadPct:    *maxSpread,
		MaxSettlementDays: *maxDays,
		Seed:              *seed,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	gen := generator.New(genCfg)
	dataset, err := gen.Generate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generation failed: %v\n", err)
		os.Exit(1)
	}

	if *writeStdout {
		if err := json.NewEncoder(os.Stdout).Encode(dataset); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write dataset to stdout: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := generator.WriteDataset(dataset, *outputDir); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write dataset: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "Generated %d jurisdictions and %d corridors into %s\n", len(dataset.Jurisdictions), len(dataset.Corridors), *outputDir)
}

func clampProbability(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
