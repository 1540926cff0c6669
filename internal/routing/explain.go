package routing

import (
	"fmt"

	"github.com/arjun/caproute/backend/internal/domain"
)

// Explain derives the human-readable justification for a selected route: the
// savings against the direct corridor (when one exists and differs), templated
// bullet statements, and a per-edge factor breakdown. It performs no
// pathfinding and is deterministic for a given route and network snapshot.
func Explain(n *Network, model CostModel, route domain.Path) (domain.Explanation, error) {
	if err := validateRoute(n, route); err != nil {
		return domain.Explanation{}, err
	}

	costs, err := model.PathCosts(n, route)
	if err != nil {
		// validateRoute checked every corridor, so this is unreachable
		// short of a programming error.
		return domain.Explanation{}, domain.Internal(err)
	}
	metrics := PathMetrics(costs)

	expl := domain.Explanation{
		Route:            route,
		TotalCostPct:     metrics.TotalCostPct,
		TotalTimeDays:    metrics.TotalTimeDays,
		TotalFrictionPct: metrics.TotalCostPct,
		Edges:            make([]domain.EdgeBreakdown, 0, len(costs)),
	}

	for i, cost := range costs {
		expl.Edges = append(expl.Edges, domain.EdgeBreakdown{
			From:        route[i],
			To:          route[i+1],
			CostPct:     cost.TotalPct(),
			TimeDays:    cost.TimeDays,
			FrictionPct: cost.TotalPct(),
			Contributions: map[string]float64{
				FactorWithholding: cost.WithholdingPct,
				FactorFXSpread:    cost.FXSpreadPct,
				FactorBankFee:     cost.FeePct,
			},
		})
	}

	directMetrics, hasDirect := directCorridorMetrics(n, model, route)
	if hasDirect && route.Hops() > 1 {
		savings := directMetrics.TotalCostPct - metrics.TotalCostPct
		expl.SavingsVsDirectPct = &savings
	}

	expl.Bullets = buildBullets(n, route, costs, metrics, directMetrics, hasDirect)
	return expl, nil
}

func validateRoute(n *Network, route domain.Path) error {
	if len(route) < 2 {
		return domain.InvalidRequest("route must contain at least two jurisdictions")
	}
	seen := make(map[string]bool, len(route))
	for _, code := range route {
		code = domain.NormalizeCode(code)
		if !n.HasJurisdiction(code) {
			return domain.UnknownJurisdiction(code)
		}
		if seen[code] {
			return domain.InvalidRequest("route revisits jurisdiction %s", code)
		}
		seen[code] = true
	}
	for i := 0; i < len(route)-1; i++ {
		if _, ok := n.Corridor(route[i], route[i+1]); !ok {
			return domain.InvalidRequest("no corridor exists from %s to %s", route[i], route[i+1])
		}
	}
	return nil
}

func directCorridorMetrics(n *Network, model CostModel, route domain.Path) (domain.PathMetrics, bool) {
	corridor, ok := n.Corridor(route[0], route[len(route)-1])
	if !ok {
		return domain.PathMetrics{}, false
	}
	return PathMetrics([]EdgeCost{model.EdgeCost(corridor)}), true
}

func buildBullets(n *Network, route domain.Path, costs []EdgeCost, metrics, direct domain.PathMetrics, hasDirect bool) []string {
	var bullets []string

	if relief := totalReliefApplied(n, route); relief > 0 {
		bullets = append(bullets, fmt.Sprintf(
			"Tax treaty relief trims withholding by %.2f%% across this route.", relief))
	}

	if hasDirect && route.Hops() > 1 {
		delta := direct.TotalCostPct - metrics.TotalCostPct
		if delta > 0 {
			bullets = append(bullets, fmt.Sprintf(
				"Routing via %s saves %.2f%% versus the direct %s-%s corridor (%.2f%% vs %.2f%%).",
				intermediates(route), delta, route[0], route[len(route)-1],
				metrics.TotalCostPct, direct.TotalCostPct))
		} else {
			bullets = append(bullets, fmt.Sprintf(
				"The direct %s-%s corridor is %.2f%% cheaper than this route.",
				route[0], route[len(route)-1], -delta))
		}
		timeDelta := metrics.TotalTimeDays - direct.TotalTimeDays
		switch {
		case timeDelta > 0:
			bullets = append(bullets, fmt.Sprintf(
				"Settlement takes %.1f days, %.1f days longer than the direct corridor.",
				metrics.TotalTimeDays, timeDelta))
		case timeDelta < 0:
			bullets = append(bullets, fmt.Sprintf(
				"Settlement takes %.1f days, %.1f days faster than the direct corridor.",
				metrics.TotalTimeDays, -timeDelta))
		default:
			bullets = append(bullets, fmt.Sprintf(
				"Settlement takes %.1f days, matching the direct corridor.", metrics.TotalTimeDays))
		}
	} else {
		bullets = append(bullets, fmt.Sprintf(
			"Settlement completes in %.1f days over %d hop(s).", metrics.TotalTimeDays, route.Hops()))
	}

	if fx := totalFXSpread(costs); fx > 0 {
		bullets = append(bullets, fmt.Sprintf(
			"FX spreads contribute %.2f%% of the friction on this route.", fx))
	}

	riskyFrom, riskyTo := riskiestLeg(route, costs)
	bullets = append(bullets, fmt.Sprintf(
		"Compliance exposure peaks at %.1f/10 on the %s-%s leg.",
		metrics.TotalRisk, riskyFrom, riskyTo))

	return bullets
}

// totalReliefApplied sums the withholding actually forgiven by treaties along
// the route: relief beyond the base withholding rate has no effect.
func totalReliefApplied(n *Network, route domain.Path) float64 {
	var total float64
	for i := 0; i < len(route)-1; i++ {
		corridor, ok := n.Corridor(route[i], route[i+1])
		if !ok {
			continue
		}
		applied := corridor.TreatyReliefPct
		if applied > corridor.WithholdingTaxPct {
			applied = corridor.WithholdingTaxPct
		}
		total += applied
	}
	return total
}

func totalFXSpread(costs []EdgeCost) float64 {
	var total float64
	for _, cost := range costs {
		total += cost.FXSpreadPct
	}
	return total
}

func riskiestLeg(route domain.Path, costs []EdgeCost) (string, string) {
	best := 0
	for i, cost := range costs {
		if cost.Risk > costs[best].Risk {
			best = i
		}
	}
	return route[best], route[best+1]
}

func intermediates(route domain.Path) string {
	mid := route[1 : len(route)-1]
	out := ""
	for i, code := range mid {
		if i > 0 {
			out += ", "
		}
		out += code
	}
	return out
}
