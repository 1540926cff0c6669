package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/arjun/caproute/backend/internal/domain"
	"github.com/arjun/caproute/backend/internal/routing"
)

// stubSource serves a fixed network snapshot, or a fixed error.
type stubSource struct {
	network *routing.Network
	loadErr error
	loads   int
}

func (s *stubSource) LoadNetwork(ctx context.Context) (*routing.Network, error) {
	s.loads++
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.network, nil
}

func (s *stubSource) Probe(ctx context.Context) error { return s.loadErr }
func (s *stubSource) Describe() string                { return "stub" }

type memoryRecorder struct {
	scenarios []Scenario
	err       error
}

func (r *memoryRecorder) Record(ctx context.Context, s Scenario) error {
	if r.err != nil {
		return r.err
	}
	r.scenarios = append(r.scenarios, s)
	return nil
}

func testServiceNetwork(t *testing.T) *routing.Network {
	t.Helper()
	jurisdictions := []domain.Jurisdiction{
		{Code: "IN", Name: "India", Currency: "INR"},
		{Code: "SG", Name: "Singapore", Currency: "SGD"},
		{Code: "US", Name: "United States", Currency: "USD"},
		{Code: "NL", Name: "Netherlands", Currency: "EUR"},
		{Code: "JP", Name: "Japan", Currency: "JPY"},
	}
	corridors := []domain.Corridor{
		{From: "IN", To: "SG", FXSpreadPct: 1.2, SettlementDays: 1.0, ComplianceRisk: 2},
		{From: "SG", To: "US", FXSpreadPct: 0.9, SettlementDays: 0.5, ComplianceRisk: 1},
		{From: "IN", To: "US", FXSpreadPct: 3.8, SettlementDays: 3.0, ComplianceRisk: 6},
		{From: "IN", To: "NL", FXSpreadPct: 1.5, SettlementDays: 1.0, ComplianceRisk: 3},
		{From: "NL", To: "US", FXSpreadPct: 1.1, SettlementDays: 1.0, ComplianceRisk: 2},
	}
	n, err := routing.NewNetwork(jurisdictions, corridors)
	if err != nil {
		t.Fatalf("failed to build network: %v", err)
	}
	return n
}

func newTestService(t *testing.T, opts Options) (*RoutingService, *stubSource) {
	t.Helper()
	source := &stubSource{network: testServiceNetwork(t)}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewRoutingService(logger, source, opts)
	if err := svc.LoadNetwork(context.Background()); err != nil {
		t.Fatalf("failed to load network: %v", err)
	}
	return svc, source
}

func TestComputeRoutesRanksCandidates(t *testing.T) {
	svc, _ := newTestService(t, Options{})

	set, err := svc.ComputeRoutes(context.Background(), domain.RouteRequest{
		Source:      "in",
		Destination: "us",
		Amount:      1_000_000,
		Currency:    "USD",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.Candidates != 3 {
		t.Fatalf("expected 3 candidates, got %d", set.Candidates)
	}
	if len(set.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(set.Results))
	}
	best := set.Results[0]
	if got := best.Path.String(); got != "IN-SG-US" {
		t.Fatalf("expected IN-SG-US to rank first, got %s", got)
	}
	if !best.HasLabel(domain.LabelOptimal) {
		t.Fatalf("top result should carry the optimal label, got %v", best.Labels)
	}
	if !best.HasLabel(domain.LabelCheapest) || !best.HasLabel(domain.LabelSafest) {
		t.Fatalf("IN-SG-US should be cheapest and safest here, got %v", best.Labels)
	}
	for i := 1; i < len(set.Results); i++ {
		if set.Results[i].Metrics.CompositeScore > set.Results[i-1].Metrics.CompositeScore {
			t.Fatalf("results out of order at index %d", i)
		}
	}
}

func TestComputeRoutesHonorsTopK(t *testing.T) {
	svc, _ := newTestService(t, Options{})

	set, err := svc.ComputeRoutes(context.Background(), domain.RouteRequest{
		Source:      "IN",
		Destination: "US",
		TopK:        1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(set.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(set.Results))
	}
	if set.Candidates != 3 {
		t.Fatalf("expected 3 candidates, got %d", set.Candidates)
	}
	// Label holders outside the cut surface as alternatives.
	for _, alt := range set.Alternatives {
		if len(alt.Labels) == 0 {
			t.Fatalf("alternative %s carries no label", alt.Path)
		}
	}
}

func TestComputeRoutesValidation(t *testing.T) {
	svc, _ := newTestService(t, Options{})

	cases := []struct {
		name string
		req  domain.RouteRequest
		kind domain.Kind
	}{
		{"missing source", domain.RouteRequest{Destination: "US"}, domain.KindInvalidRequest},
		{"self route", domain.RouteRequest{Source: "IN", Destination: "in"}, domain.KindInvalidRequest},
		{"unknown source", domain.RouteRequest{Source: "XX", Destination: "US"}, domain.KindUnknownJurisdiction},
		{"unknown destination", domain.RouteRequest{Source: "IN", Destination: "ZZ"}, domain.KindUnknownJurisdiction},
		{"negative amount", domain.RouteRequest{Source: "IN", Destination: "US", Amount: -5}, domain.KindInvalidRequest},
		{"negative weight", domain.RouteRequest{Source: "IN", Destination: "US", Weights: domain.Weights{Cost: -0.1, Time: 0.5, Risk: 0.6}}, domain.KindInvalidRequest},
		{"negative max hops", domain.RouteRequest{Source: "IN", Destination: "US", MaxHops: -1}, domain.KindInvalidRequest},
		{"negative top k", domain.RouteRequest{Source: "IN", Destination: "US", TopK: -2}, domain.KindInvalidRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ComputeRoutes(context.Background(), tc.req)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if got := domain.KindOf(err); got != tc.kind {
				t.Fatalf("expected kind %s, got %s (%v)", tc.kind, got, err)
			}
		})
	}
}

func TestComputeRoutesWeightScalingEquivalence(t *testing.T) {
	svc, _ := newTestService(t, Options{CacheEnabled: false})

	base := domain.RouteRequest{Source: "IN", Destination: "US", Amount: 1_000_000}

	scaled := base
	scaled.Weights = domain.Weights{Cost: 0.9, Time: 0.9, Risk: 0.9}
	normalized := base
	normalized.Weights = domain.Weights{Cost: 1.0 / 3, Time: 1.0 / 3, Risk: 1.0 / 3}

	a, err := svc.ComputeRoutes(context.Background(), scaled)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := svc.ComputeRoutes(context.Background(), normalized)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a.Results) != len(b.Results) {
		t.Fatalf("result counts differ: %d vs %d", len(a.Results), len(b.Results))
	}
	for i := range a.Results {
		if !a.Results[i].Path.Equal(b.Results[i].Path) {
			t.Fatalf("ordering differs at %d: %s vs %s", i, a.Results[i].Path, b.Results[i].Path)
		}
		diff := a.Results[i].Metrics.CompositeScore - b.Results[i].Metrics.CompositeScore
		if diff > 1e-9 || diff < -1e-9 {
			t.Fatalf("composite differs at %d: %v vs %v", i, a.Results[i].Metrics.CompositeScore, b.Results[i].Metrics.CompositeScore)
		}
	}
}

func TestComputeRoutesEmptyWhenUnreachable(t *testing.T) {
	svc, _ := newTestService(t, Options{})

	// JP is registered but has no corridors.
	set, err := svc.ComputeRoutes(context.Background(), domain.RouteRequest{
		Source:      "IN",
		Destination: "JP",
	})
	if err != nil {
		t.Fatalf("unreachable destination should not error: %v", err)
	}
	if set.Results == nil {
		t.Fatal("results should be an empty slice, not nil")
	}
	if len(set.Results) != 0 || set.Candidates != 0 {
		t.Fatalf("expected empty set, got %d results / %d candidates", len(set.Results), set.Candidates)
	}
}

func TestComputeRoutesIsDeterministic(t *testing.T) {
	svc, _ := newTestService(t, Options{ScoreWorkers: 8})

	req := domain.RouteRequest{Source: "IN", Destination: "US", Amount: 250_000}
	first, err := svc.ComputeRoutes(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 20; i++ {
		set, err := svc.ComputeRoutes(context.Background(), req)
		if err != nil {
			t.Fatalf("unexpected error on run %d: %v", i, err)
		}
		for j := range first.Results {
			if !set.Results[j].Path.Equal(first.Results[j].Path) {
				t.Fatalf("run %d ordering differs at %d", i, j)
			}
		}
	}
}

func TestComputeRoutesRecordsScenario(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	rec := &memoryRecorder{}
	fixed := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	svc.WithRecorder(rec).WithClock(func() time.Time { return fixed })

	_, err := svc.ComputeRoutes(context.Background(), domain.RouteRequest{
		Source:      "IN",
		Destination: "US",
		Amount:      1_000_000,
		Currency:    "USD",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.scenarios) != 1 {
		t.Fatalf("expected 1 recorded scenario, got %d", len(rec.scenarios))
	}
	got := rec.scenarios[0]
	if got.ID == "" {
		t.Fatal("scenario ID should be assigned")
	}
	if got.BestPath != "IN-SG-US" {
		t.Fatalf("expected best path IN-SG-US, got %s", got.BestPath)
	}
	if !got.RequestedAt.Equal(fixed) {
		t.Fatalf("expected fixed timestamp, got %v", got.RequestedAt)
	}
	if got.ResultCount != 3 {
		t.Fatalf("expected 3 results recorded, got %d", got.ResultCount)
	}
}

func TestComputeRoutesRecorderFailureDoesNotFailRequest(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	svc.WithRecorder(&memoryRecorder{err: errors.New("disk full")})

	set, err := svc.ComputeRoutes(context.Background(), domain.RouteRequest{
		Source:      "IN",
		Destination: "US",
	})
	if err != nil {
		t.Fatalf("recorder failure must not surface: %v", err)
	}
	if len(set.Results) == 0 {
		t.Fatal("expected results despite recorder failure")
	}
}

func TestComputeRoutesBeforeLoadFails(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewRoutingService(logger, &stubSource{}, Options{})

	_, err := svc.ComputeRoutes(context.Background(), domain.RouteRequest{Source: "IN", Destination: "US"})
	if err == nil {
		t.Fatal("expected error before the network is loaded")
	}
	if got := domain.KindOf(err); got != domain.KindUpstreamUnavailable {
		t.Fatalf("expected upstream kind, got %s", got)
	}
}

func TestReloadNetworkSwapsSnapshotAndFlushesCache(t *testing.T) {
	svc, source := newTestService(t, Options{CacheEnabled: true, CacheTTL: time.Minute})

	req := domain.RouteRequest{Source: "IN", Destination: "US"}
	before, err := svc.ComputeRoutes(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(before.Results) != 3 {
		t.Fatalf("expected 3 results before reload, got %d", len(before.Results))
	}

	// Replace the snapshot with a direct-only graph.
	replacement, err := routing.NewNetwork(nil, []domain.Corridor{
		{From: "IN", To: "US", FXSpreadPct: 3.8, SettlementDays: 3.0, ComplianceRisk: 6},
	})
	if err != nil {
		t.Fatalf("failed to build replacement network: %v", err)
	}
	source.network = replacement
	if err := svc.ReloadNetwork(context.Background()); err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	after, err := svc.ComputeRoutes(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(after.Results) != 1 {
		t.Fatalf("cache should not serve pre-reload results, got %d results", len(after.Results))
	}
	if got := after.Results[0].Path.String(); got != "IN-US" {
		t.Fatalf("expected IN-US after reload, got %s", got)
	}
}

func TestReloadNetworkKeepsSnapshotOnFailure(t *testing.T) {
	svc, source := newTestService(t, Options{})

	source.loadErr = errors.New("connection refused")
	if err := svc.ReloadNetwork(context.Background()); err == nil {
		t.Fatal("expected reload error")
	}

	// The previous snapshot keeps serving.
	set, err := svc.ComputeRoutes(context.Background(), domain.RouteRequest{Source: "IN", Destination: "US"})
	if err != nil {
		t.Fatalf("previous snapshot should keep serving: %v", err)
	}
	if len(set.Results) == 0 {
		t.Fatal("expected results from the retained snapshot")
	}
}

func TestExplainRouteValidatesShape(t *testing.T) {
	svc, _ := newTestService(t, Options{})

	cases := []struct {
		name  string
		req   domain.RouteRequest
		route domain.Path
	}{
		{"too short", domain.RouteRequest{}, domain.Path{"IN"}},
		{"origin mismatch", domain.RouteRequest{Source: "SG"}, domain.Path{"IN", "US"}},
		{"destination mismatch", domain.RouteRequest{Destination: "NL"}, domain.Path{"IN", "US"}},
		{"negative amount", domain.RouteRequest{Amount: -1}, domain.Path{"IN", "US"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ExplainRoute(context.Background(), tc.req, tc.route)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if got := domain.KindOf(err); got != domain.KindInvalidRequest {
				t.Fatalf("expected invalid_request, got %s", got)
			}
		})
	}
}

func TestExplainRouteMatchesComputedMetrics(t *testing.T) {
	svc, _ := newTestService(t, Options{})

	req := domain.RouteRequest{Source: "IN", Destination: "US", Amount: 1_000_000}
	set, err := svc.ComputeRoutes(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	best := set.Results[0]

	exp, err := svc.ExplainRoute(context.Background(), req, best.Path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := exp.TotalCostPct - best.Metrics.TotalCostPct; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("explanation cost %v does not match ranked cost %v", exp.TotalCostPct, best.Metrics.TotalCostPct)
	}
	if len(exp.Edges) != best.Path.Hops() {
		t.Fatalf("expected %d edge breakdowns, got %d", best.Path.Hops(), len(exp.Edges))
	}
	if exp.SavingsVsDirectPct == nil {
		t.Fatal("expected savings vs direct for the multi-hop best route")
	}
}
