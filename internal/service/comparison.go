package service

import (
	"context"
	"sort"

	"github.com/arjun/caproute/backend/internal/domain"
	"github.com/arjun/caproute/backend/internal/routing"
)

// DemoScenario fixes the request behind the comparison dashboard.
type DemoScenario struct {
	Source      string
	Destination string
	Amount      float64
	Currency    string
}

// ComparisonRow is one labeled route summary for the dashboard headline table.
type ComparisonRow struct {
	Label          string
	Route          string
	TotalCostPct   float64
	TotalTimeDays  float64
	TotalRisk      float64
	CompositeScore float64
}

// FullComparisonRow carries the complete metric set for a single candidate.
type FullComparisonRow struct {
	Route              string
	Hops               int
	TotalCostPct       float64
	TotalTimeDays      float64
	TotalRisk          float64
	CompositeScore     float64
	Labels             []string
	SavingsVsDirectPct *float64
}

// HopComparisonRow aggregates candidate metrics for one hop count.
type HopComparisonRow struct {
	Hops           int
	RouteCount     int
	BestComposite  float64
	MinCostPct     float64
	AvgCostPct     float64
	MinTimeDays    float64
	MaxRisk        float64
	BestRoute      string
	BestRouteScore float64
}

// Comparison bundles the three dashboard tables for the demo scenario.
type Comparison struct {
	Source        string
	Destination   string
	Amount        float64
	Currency      string
	Labeled       []ComparisonRow
	Full          []FullComparisonRow
	ByHops        []HopComparisonRow
	CandidateSize int
}

// Comparison runs the scoring pipeline over the demo scenario and derives
// the dashboard tables from the full candidate set.
func (s *RoutingService) Comparison(ctx context.Context, demo DemoScenario) (Comparison, error) {
	n, err := s.CurrentNetwork()
	if err != nil {
		return Comparison{}, err
	}

	req, err := s.normalizeRequest(n, domain.RouteRequest{
		Source:      demo.Source,
		Destination: demo.Destination,
		Amount:      demo.Amount,
		Currency:    demo.Currency,
	})
	if err != nil {
		return Comparison{}, err
	}

	paths := routing.EnumeratePaths(n, req.Source, req.Destination, req.MaxHops)
	model := routing.CostModel{Amount: req.Amount}
	candidates, err := scoreCandidates(ctx, s.opts.ScoreWorkers, n, model, paths)
	if err != nil {
		return Comparison{}, err
	}
	routing.ApplyCompositeScores(candidates, req.Weights)

	// Rank over the full set so every candidate shows up in the tables.
	set := routing.Rank(candidates, len(candidates))

	cmp := Comparison{
		Source:        req.Source,
		Destination:   req.Destination,
		Amount:        req.Amount,
		Currency:      req.Currency,
		CandidateSize: set.Candidates,
	}

	direct, hasDirect := directCost(n, model, req.Source, req.Destination)

	for _, label := range []string{domain.LabelOptimal, domain.LabelCheapest, domain.LabelFastest, domain.LabelSafest} {
		for _, r := range set.Results {
			if !r.HasLabel(label) {
				continue
			}
			cmp.Labeled = append(cmp.Labeled, ComparisonRow{
				Label:          label,
				Route:          r.Path.String(),
				TotalCostPct:   r.Metrics.TotalCostPct,
				TotalTimeDays:  r.Metrics.TotalTimeDays,
				TotalRisk:      r.Metrics.TotalRisk,
				CompositeScore: r.Metrics.CompositeScore,
			})
			break
		}
	}

	byHops := make(map[int][]domain.ScoredRoute)
	for _, r := range set.Results {
		row := FullComparisonRow{
			Route:          r.Path.String(),
			Hops:           r.Path.Hops(),
			TotalCostPct:   r.Metrics.TotalCostPct,
			TotalTimeDays:  r.Metrics.TotalTimeDays,
			TotalRisk:      r.Metrics.TotalRisk,
			CompositeScore: r.Metrics.CompositeScore,
			Labels:         r.Labels,
		}
		if hasDirect && r.Path.Hops() > 1 {
			savings := direct - r.Metrics.TotalCostPct
			row.SavingsVsDirectPct = &savings
		}
		cmp.Full = append(cmp.Full, row)
		byHops[r.Path.Hops()] = append(byHops[r.Path.Hops()], r)
	}

	hops := make([]int, 0, len(byHops))
	for h := range byHops {
		hops = append(hops, h)
	}
	sort.Ints(hops)
	for _, h := range hops {
		cmp.ByHops = append(cmp.ByHops, aggregateHopRow(h, byHops[h]))
	}

	return cmp, nil
}

// directCost returns the single-hop total cost percentage when the direct
// corridor exists.
func directCost(n *routing.Network, model routing.CostModel, source, destination string) (float64, bool) {
	if _, ok := n.Corridor(source, destination); !ok {
		return 0, false
	}
	costs, err := model.PathCosts(n, domain.Path{source, destination})
	if err != nil {
		return 0, false
	}
	return routing.PathMetrics(costs).TotalCostPct, true
}

func aggregateHopRow(hops int, routes []domain.ScoredRoute) HopComparisonRow {
	// Routes arrive ranked, so the first one is the group's best.
	row := HopComparisonRow{
		Hops:           hops,
		RouteCount:     len(routes),
		BestComposite:  routes[0].Metrics.CompositeScore,
		MinCostPct:     routes[0].Metrics.TotalCostPct,
		MinTimeDays:    routes[0].Metrics.TotalTimeDays,
		MaxRisk:        routes[0].Metrics.TotalRisk,
		BestRoute:      routes[0].Path.String(),
		BestRouteScore: routes[0].Metrics.CompositeScore,
	}
	var costSum float64
	for _, r := range routes {
		m := r.Metrics
		costSum += m.TotalCostPct
		if m.TotalCostPct < row.MinCostPct {
			row.MinCostPct = m.TotalCostPct
		}
		if m.TotalTimeDays < row.MinTimeDays {
			row.MinTimeDays = m.TotalTimeDays
		}
		if m.TotalRisk > row.MaxRisk {
			row.MaxRisk = m.TotalRisk
		}
	}
	row.AvgCostPct = costSum / float64(len(routes))
	return row
}
