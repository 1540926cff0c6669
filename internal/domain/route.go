package domain

import "strings"

// Category labels assigned by the ranker. A single route may hold several.
const (
	LabelOptimal  = "optimal"
	LabelCheapest = "cheapest"
	LabelFastest  = "fastest"
	LabelSafest   = "safest"
)

// Path is an ordered sequence of jurisdiction codes from source to
// destination. All nodes on a path are distinct (simple path).
type Path []string

// Hops returns the number of corridors traversed.
func (p Path) Hops() int {
	if len(p) == 0 {
		return 0
	}
	return len(p) - 1
}

// String renders the path for logging and deterministic tie-breaking.
func (p Path) String() string {
	return strings.Join(p, "-")
}

// Equal reports whether two paths visit the same jurisdictions in order.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Weights holds the caller's multi-objective priorities. Valid weights are
// non-negative with a positive sum; they are normalized before scoring.
type Weights struct {
	Cost float64
	Time float64
	Risk float64
}

// Sum returns the raw weight total.
func (w Weights) Sum() float64 {
	return w.Cost + w.Time + w.Risk
}

// Normalize scales the weights so they sum to 1.
func (w Weights) Normalize() Weights {
	sum := w.Sum()
	if sum <= 0 {
		return w
	}
	return Weights{Cost: w.Cost / sum, Time: w.Time / sum, Risk: w.Risk / sum}
}

// DefaultWeights mirrors the product's default cost-biased profile.
func DefaultWeights() Weights {
	return Weights{Cost: 0.6, Time: 0.2, Risk: 0.2}
}

// RouteRequest is the ephemeral input for one routing computation.
type RouteRequest struct {
	Source      string
	Destination string
	Amount      float64
	Currency    string
	Weights     Weights
	MaxHops     int
	TopK        int
}

// PathMetrics aggregates per-edge metrics along a path. CompositeScore is on
// a 0-100 scale where higher is better; the remaining fields are
// lower-is-better.
type PathMetrics struct {
	TotalCostPct   float64
	TotalTimeDays  float64
	TotalRisk      float64
	CompositeScore float64
}

// ScoredRoute couples a candidate path with its metrics and any category
// labels it earned over the full candidate set.
type ScoredRoute struct {
	Path    Path
	Metrics PathMetrics
	Labels  []string
}

// HasLabel reports whether the route carries the given category label.
func (r ScoredRoute) HasLabel(label string) bool {
	for _, l := range r.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// RouteSet is the ranked output of one routing computation. Results holds at
// most TopK routes ordered best-first by composite score. Alternatives holds
// category-label holders that fell outside the top-k and would otherwise be
// hidden.
type RouteSet struct {
	Results      []ScoredRoute
	Alternatives []ScoredRoute
	// Candidates is the total number of simple paths enumerated.
	Candidates int
}

// EdgeBreakdown is the per-corridor slice of an explanation. Contributions
// maps factor names (withholding, fx_spread, bank_fee) to their percentage
// magnitude for this edge.
type EdgeBreakdown struct {
	From          string
	To            string
	CostPct       float64
	TimeDays      float64
	FrictionPct   float64
	Contributions map[string]float64
}

// Explanation justifies a selected route. SavingsVsDirectPct is nil when the
// direct corridor does not exist or the selected route is the direct route.
type Explanation struct {
	Route              Path
	Bullets            []string
	TotalCostPct       float64
	TotalTimeDays      float64
	TotalFrictionPct   float64
	SavingsVsDirectPct *float64
	Edges              []EdgeBreakdown
}
