package routing

import (
	"fmt"

	"github.com/arjun/caproute/backend/internal/domain"
)

// Contribution factor names used in explanation breakdowns.
const (
	FactorWithholding = "withholding"
	FactorFXSpread    = "fx_spread"
	FactorBankFee     = "bank_fee"
)

// EdgeCost breaks a corridor's friction into its factors. All percentage
// values are relative to the amount entering that hop.
type EdgeCost struct {
	WithholdingPct float64
	FXSpreadPct    float64
	FeePct         float64
	TimeDays       float64
	Risk           float64
}

// TotalPct is the edge's full cost contribution: effective withholding plus
// FX spread plus flat fees expressed as a percentage of the transfer amount.
func (e EdgeCost) TotalPct() float64 {
	return e.WithholdingPct + e.FXSpreadPct + e.FeePct
}

// CostModel converts corridor attributes into per-edge costs for a specific
// transfer amount. The amount matters only for flat fee conversion.
type CostModel struct {
	Amount float64
}

// EdgeCost computes the cost factors for one corridor.
func (m CostModel) EdgeCost(c domain.Corridor) EdgeCost {
	cost := EdgeCost{
		WithholdingPct: c.EffectiveWithholdingPct(),
		FXSpreadPct:    c.FXSpreadPct,
		TimeDays:       c.SettlementDays,
		Risk:           c.ComplianceRisk,
	}
	if m.Amount > 0 && c.BankFeeFlat > 0 {
		cost.FeePct = c.BankFeeFlat / m.Amount * 100
	}
	return cost
}

// PathCosts resolves every corridor on the path and returns its edge costs in
// hop order. It fails if any consecutive pair has no corridor.
func (m CostModel) PathCosts(n *Network, path domain.Path) ([]EdgeCost, error) {
	if len(path) < 2 {
		return nil, fmt.Errorf("path %q has no corridors", path.String())
	}
	costs := make([]EdgeCost, 0, path.Hops())
	for i := 0; i < len(path)-1; i++ {
		corridor, ok := n.Corridor(path[i], path[i+1])
		if !ok {
			return nil, fmt.Errorf("no corridor %s->%s on path %q", path[i], path[i+1], path.String())
		}
		costs = append(costs, m.EdgeCost(corridor))
	}
	return costs, nil
}

// PathMetrics aggregates edge costs into path-level totals. Cost compounds:
// each hop's friction applies to the amount remaining after the prior hop, so
// total cost is 1 minus the product of per-hop retentions. Summing per-hop
// percentages would overstate multi-hop cost. Time is the sum of settlement
// legs, which run sequentially. Risk is the maximum per-edge compliance score:
// a path's exposure is bounded by its riskiest jurisdiction (weakest link).
//
// CompositeScore is left zero; it is filled relative to the candidate set by
// ApplyCompositeScores.
func PathMetrics(costs []EdgeCost) domain.PathMetrics {
	retention := 1.0
	var totalTime, maxRisk float64
	for _, cost := range costs {
		hopRetention := 1 - cost.TotalPct()/100
		if hopRetention < 0 {
			hopRetention = 0
		}
		retention *= hopRetention
		totalTime += cost.TimeDays
		if cost.Risk > maxRisk {
			maxRisk = cost.Risk
		}
	}
	return domain.PathMetrics{
		TotalCostPct:  (1 - retention) * 100,
		TotalTimeDays: totalTime,
		TotalRisk:     maxRisk,
	}
}
