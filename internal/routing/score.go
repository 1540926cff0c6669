package routing

import "github.com/arjun/caproute/backend/internal/domain"

// Candidate is an enumerated path with computed metrics, prior to ranking.
type Candidate struct {
	Path    domain.Path
	Metrics domain.PathMetrics
}

// ApplyCompositeScores fills CompositeScore for every candidate. Each of
// cost, time and risk is min-max normalized across the candidate set, inverted
// so lower raw values score higher, then combined with the (already
// normalized) weights onto a 0-100 scale.
//
// When every candidate ties on a dimension (max == min) that dimension scores
// a neutral 1.0 for all of them; there is no division by zero and the
// dimension stops discriminating, which is the intended degenerate behavior.
func ApplyCompositeScores(candidates []Candidate, weights domain.Weights) {
	if len(candidates) == 0 {
		return
	}
	w := weights.Normalize()

	costScore := normalizer(candidates, func(m domain.PathMetrics) float64 { return m.TotalCostPct })
	timeScore := normalizer(candidates, func(m domain.PathMetrics) float64 { return m.TotalTimeDays })
	riskScore := normalizer(candidates, func(m domain.PathMetrics) float64 { return m.TotalRisk })

	for i := range candidates {
		m := candidates[i].Metrics
		composite := 100 * (w.Cost*costScore(m) + w.Time*timeScore(m) + w.Risk*riskScore(m))
		candidates[i].Metrics.CompositeScore = composite
	}
}

// normalizer returns a scoring function for one lower-is-better dimension,
// mapping the candidate-set minimum to 1 and the maximum to 0.
func normalizer(candidates []Candidate, dim func(domain.PathMetrics) float64) func(domain.PathMetrics) float64 {
	min, max := dim(candidates[0].Metrics), dim(candidates[0].Metrics)
	for _, c := range candidates[1:] {
		v := dim(c.Metrics)
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if max == min {
		return func(domain.PathMetrics) float64 { return 1.0 }
	}
	span := max - min
	return func(m domain.PathMetrics) float64 {
		return (max - dim(m)) / span
	}
}
