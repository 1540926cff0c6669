package generator

import (
	"context"
	"testing"

	"github.com/arjun/caproute/backend/internal/repository"
)

func TestGenerateIsDeterministicPerSeed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 7

	a, err := New(cfg).Generate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := New(cfg).Generate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(a.Corridors) != len(b.Corridors) {
		t.Fatalf("corridor counts differ: %d vs %d", len(a.Corridors), len(b.Corridors))
	}
	for i := range a.Corridors {
		if a.Corridors[i] != b.Corridors[i] {
			t.Fatalf("corridor %d differs between runs", i)
		}
	}
}

func TestGenerateProducesValidNetwork(t *testing.T) {
	dataset, err := New(DefaultConfig()).Generate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(dataset.Jurisdictions) != DefaultConfig().NumJurisdictions {
		t.Fatalf("expected %d jurisdictions, got %d", DefaultConfig().NumJurisdictions, len(dataset.Jurisdictions))
	}

	corridors := dataset.Corridors
	seen := map[[2]string]bool{}
	for _, c := range corridors {
		if c.From == c.To {
			t.Fatalf("self-loop corridor %s->%s", c.From, c.To)
		}
		key := [2]string{c.From, c.To}
		if seen[key] {
			t.Fatalf("duplicate corridor %s->%s", c.From, c.To)
		}
		seen[key] = true
		if c.TreatyReliefPct > c.WithholdingTaxPct {
			t.Fatalf("relief %v exceeds withholding %v on %s->%s", c.TreatyReliefPct, c.WithholdingTaxPct, c.From, c.To)
		}
		if c.ComplianceRisk < 0 || c.ComplianceRisk > 10 {
			t.Fatalf("risk out of range on %s->%s: %v", c.From, c.To, c.ComplianceRisk)
		}
	}

	// Every jurisdiction has at least one outbound corridor.
	for _, j := range dataset.Jurisdictions {
		if !hasOutbound(corridors, j.Code) {
			t.Fatalf("jurisdiction %s has no outbound corridor", j.Code)
		}
	}
}

func TestGeneratedDatasetLoadsThroughFileSource(t *testing.T) {
	dir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Seed = 99
	dataset, err := New(cfg).Generate(context.Background())
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if err := WriteDataset(dataset, dir); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	source := repository.NewFileSource(dir)
	n, err := source.LoadNetwork(context.Background())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if n.NodeCount() != len(dataset.Jurisdictions) {
		t.Fatalf("expected %d nodes, got %d", len(dataset.Jurisdictions), n.NodeCount())
	}
	if n.EdgeCount() != len(dataset.Corridors) {
		t.Fatalf("expected %d edges, got %d", len(dataset.Corridors), n.EdgeCount())
	}
}
