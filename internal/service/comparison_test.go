package service

import (
	"context"
	"testing"

	"github.com/arjun/caproute/backend/internal/domain"
)

func TestComparisonCoversFullCandidateSet(t *testing.T) {
	svc, _ := newTestService(t, Options{})

	cmp, err := svc.Comparison(context.Background(), DemoScenario{
		Source:      "IN",
		Destination: "US",
		Amount:      1_000_000,
		Currency:    "USD",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmp.CandidateSize != 3 {
		t.Fatalf("expected 3 candidates, got %d", cmp.CandidateSize)
	}
	if len(cmp.Full) != 3 {
		t.Fatalf("full table should include every candidate, got %d rows", len(cmp.Full))
	}
	if cmp.Full[0].Route != "IN-SG-US" {
		t.Fatalf("expected IN-SG-US first in the full table, got %s", cmp.Full[0].Route)
	}
}

func TestComparisonLabeledRows(t *testing.T) {
	svc, _ := newTestService(t, Options{})

	cmp, err := svc.Comparison(context.Background(), DemoScenario{Source: "IN", Destination: "US", Amount: 1_000_000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := map[string]string{}
	for _, row := range cmp.Labeled {
		if prev, dup := seen[row.Label]; dup {
			t.Fatalf("label %s appears twice (%s and %s)", row.Label, prev, row.Route)
		}
		seen[row.Label] = row.Route
	}
	for _, label := range []string{domain.LabelOptimal, domain.LabelCheapest, domain.LabelFastest, domain.LabelSafest} {
		if _, ok := seen[label]; !ok {
			t.Fatalf("missing labeled row for %s", label)
		}
	}
	if seen[domain.LabelOptimal] != "IN-SG-US" {
		t.Fatalf("expected optimal IN-SG-US, got %s", seen[domain.LabelOptimal])
	}
}

func TestComparisonSavingsVsDirect(t *testing.T) {
	svc, _ := newTestService(t, Options{})

	cmp, err := svc.Comparison(context.Background(), DemoScenario{Source: "IN", Destination: "US", Amount: 1_000_000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, row := range cmp.Full {
		if row.Hops == 1 {
			if row.SavingsVsDirectPct != nil {
				t.Fatalf("direct route %s should have no savings figure", row.Route)
			}
			continue
		}
		if row.SavingsVsDirectPct == nil {
			t.Fatalf("multi-hop route %s missing savings vs direct", row.Route)
		}
		if *row.SavingsVsDirectPct <= 0 {
			t.Fatalf("route %s should beat the expensive direct corridor, got %v", row.Route, *row.SavingsVsDirectPct)
		}
	}
}

func TestComparisonGroupsByHopCount(t *testing.T) {
	svc, _ := newTestService(t, Options{})

	cmp, err := svc.Comparison(context.Background(), DemoScenario{Source: "IN", Destination: "US", Amount: 1_000_000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cmp.ByHops) != 2 {
		t.Fatalf("expected hop groups for 1 and 2 hops, got %d", len(cmp.ByHops))
	}
	if cmp.ByHops[0].Hops != 1 || cmp.ByHops[1].Hops != 2 {
		t.Fatalf("hop groups out of order: %+v", cmp.ByHops)
	}
	one, two := cmp.ByHops[0], cmp.ByHops[1]
	if one.RouteCount != 1 || two.RouteCount != 2 {
		t.Fatalf("unexpected group sizes: %d direct, %d two-hop", one.RouteCount, two.RouteCount)
	}
	if two.BestRoute != "IN-SG-US" {
		t.Fatalf("expected IN-SG-US as best two-hop route, got %s", two.BestRoute)
	}
	if two.MinCostPct >= one.MinCostPct {
		t.Fatalf("two-hop minimum cost %v should undercut direct %v", two.MinCostPct, one.MinCostPct)
	}
}

func TestComparisonValidatesScenario(t *testing.T) {
	svc, _ := newTestService(t, Options{})

	_, err := svc.Comparison(context.Background(), DemoScenario{Source: "IN", Destination: "XX"})
	if err == nil {
		t.Fatal("expected error for unknown demo destination")
	}
	if got := domain.KindOf(err); got != domain.KindUnknownJurisdiction {
		t.Fatalf("expected unknown_jurisdiction, got %s", got)
	}
}
