package routing

import (
	"sort"

	"github.com/arjun/caproute/backend/internal/domain"
)

// Rank orders scored candidates best-first and assigns category labels over
// the full candidate set, then truncates to topK. Label holders that fall
// outside the top-k are returned as alternatives so the cheapest, fastest or
// safest option is never hidden by the composite ranking.
func Rank(candidates []Candidate, topK int) domain.RouteSet {
	set := domain.RouteSet{Candidates: len(candidates)}
	if len(candidates) == 0 {
		set.Results = []domain.ScoredRoute{}
		return set
	}
	if topK < 1 {
		topK = 1
	}

	ordered := make([]Candidate, len(candidates))
	copy(ordered, candidates)
	sort.Slice(ordered, func(i, j int) bool {
		return lessByComposite(ordered[i], ordered[j])
	})

	labels := assignLabels(ordered)

	routes := make([]domain.ScoredRoute, len(ordered))
	for i, c := range ordered {
		routes[i] = domain.ScoredRoute{
			Path:    c.Path,
			Metrics: c.Metrics,
			Labels:  labels[c.Path.String()],
		}
	}

	if len(routes) <= topK {
		set.Results = routes
		return set
	}

	set.Results = routes[:topK]
	for _, route := range routes[topK:] {
		if len(route.Labels) > 0 {
			set.Alternatives = append(set.Alternatives, route)
		}
	}
	return set
}

// lessByComposite is the canonical ordering: composite score descending, then
// lower cost, lower time, lower risk, and finally the lexicographic path
// string. The chain is total, so ranking is deterministic.
func lessByComposite(a, b Candidate) bool {
	if a.Metrics.CompositeScore != b.Metrics.CompositeScore {
		return a.Metrics.CompositeScore > b.Metrics.CompositeScore
	}
	return lessByMetrics(a, b)
}

func lessByMetrics(a, b Candidate) bool {
	if a.Metrics.TotalCostPct != b.Metrics.TotalCostPct {
		return a.Metrics.TotalCostPct < b.Metrics.TotalCostPct
	}
	if a.Metrics.TotalTimeDays != b.Metrics.TotalTimeDays {
		return a.Metrics.TotalTimeDays < b.Metrics.TotalTimeDays
	}
	if a.Metrics.TotalRisk != b.Metrics.TotalRisk {
		return a.Metrics.TotalRisk < b.Metrics.TotalRisk
	}
	return a.Path.String() < b.Path.String()
}

// assignLabels computes category labels over the entire candidate set.
// ordered must already be sorted by lessByComposite, so ordered[0] is the
// optimal route. Exactly one candidate earns each label; ties break through
// the same deterministic chain as the ranking.
func assignLabels(ordered []Candidate) map[string][]string {
	labels := make(map[string][]string)
	add := func(c Candidate, label string) {
		key := c.Path.String()
		labels[key] = append(labels[key], label)
	}

	add(ordered[0], domain.LabelOptimal)
	add(minBy(ordered, func(a, b Candidate) bool {
		if a.Metrics.TotalCostPct != b.Metrics.TotalCostPct {
			return a.Metrics.TotalCostPct < b.Metrics.TotalCostPct
		}
		return lessByMetrics(a, b)
	}), domain.LabelCheapest)
	add(minBy(ordered, func(a, b Candidate) bool {
		if a.Metrics.TotalTimeDays != b.Metrics.TotalTimeDays {
			return a.Metrics.TotalTimeDays < b.Metrics.TotalTimeDays
		}
		return lessByMetrics(a, b)
	}), domain.LabelFastest)
	add(minBy(ordered, func(a, b Candidate) bool {
		if a.Metrics.TotalRisk != b.Metrics.TotalRisk {
			return a.Metrics.TotalRisk < b.Metrics.TotalRisk
		}
		return lessByMetrics(a, b)
	}), domain.LabelSafest)

	return labels
}

func minBy(candidates []Candidate, less func(a, b Candidate) bool) Candidate {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if less(c, best) {
			best = c
		}
	}
	return best
}
