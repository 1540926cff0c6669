package routing

import (
	"testing"

	"github.com/arjun/caproute/backend/internal/domain"
)

func TestEnumeratePathsTwoHops(t *testing.T) {
	n := testNetwork(t)
	paths := EnumeratePaths(n, "IN", "US", 2)
	if len(paths) != 3 {
		t.Fatalf("expected 3 paths within 2 hops, got %d: %v", len(paths), paths)
	}
	want := map[string]bool{"IN-US": false, "IN-SG-US": false, "IN-NL-US": false}
	for _, p := range paths {
		key := p.String()
		if _, ok := want[key]; !ok {
			t.Fatalf("unexpected path %s", key)
		}
		want[key] = true
	}
	for key, seen := range want {
		if !seen {
			t.Fatalf("missing path %s", key)
		}
	}
}

func TestEnumeratePathsDirectOnly(t *testing.T) {
	n := testNetwork(t)
	paths := EnumeratePaths(n, "IN", "US", 1)
	if len(paths) != 1 {
		t.Fatalf("expected only the direct edge at max_hops=1, got %d", len(paths))
	}
	if paths[0].String() != "IN-US" {
		t.Fatalf("expected IN-US, got %s", paths[0])
	}
}

func TestEnumeratePathsNoRoute(t *testing.T) {
	n := testNetwork(t)
	// US has no outbound corridors in the fixture.
	paths := EnumeratePaths(n, "US", "IN", 4)
	if len(paths) != 0 {
		t.Fatalf("expected no paths, got %v", paths)
	}
}

func TestEnumeratePathsSameSourceDestination(t *testing.T) {
	n := testNetwork(t)
	if paths := EnumeratePaths(n, "IN", "IN", 3); len(paths) != 0 {
		t.Fatalf("self-routes must not be enumerated, got %v", paths)
	}
}

func TestEnumeratePathsSimpleOnly(t *testing.T) {
	// A-B, B-A, A-C, B-C: the cycle through A must not be revisited.
	n, err := NewNetwork(nil, []domain.Corridor{
		{From: "A", To: "B", FXSpreadPct: 1, SettlementDays: 1},
		{From: "B", To: "A", FXSpreadPct: 1, SettlementDays: 1},
		{From: "A", To: "C", FXSpreadPct: 1, SettlementDays: 1},
		{From: "B", To: "C", FXSpreadPct: 1, SettlementDays: 1},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	paths := EnumeratePaths(n, "A", "C", 4)
	if len(paths) != 2 {
		t.Fatalf("expected exactly A-C and A-B-C, got %v", paths)
	}
	for _, p := range paths {
		seen := map[string]bool{}
		for _, node := range p {
			if seen[node] {
				t.Fatalf("path %s revisits %s", p, node)
			}
			seen[node] = true
		}
	}
}

func TestEnumeratePathsRespectsHopBudget(t *testing.T) {
	n := testNetwork(t)
	for _, maxHops := range []int{1, 2, 3, 4} {
		for _, p := range EnumeratePaths(n, "IN", "US", maxHops) {
			if p.Hops() > maxHops {
				t.Fatalf("path %s exceeds max hops %d", p, maxHops)
			}
		}
	}
}
