package routing

import (
	"math"
	"testing"

	"github.com/arjun/caproute/backend/internal/domain"
)

const floatTolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= 1e-6
}

func TestEdgeCostEffectiveWithholdingFloor(t *testing.T) {
	model := CostModel{Amount: 1_000_000}
	cost := model.EdgeCost(domain.Corridor{
		From: "IN", To: "SG",
		WithholdingTaxPct: 5,
		TreatyReliefPct:   8,
		FXSpreadPct:       1.0,
	})
	if cost.WithholdingPct != 0 {
		t.Fatalf("relief beyond base withholding must floor at 0, got %f", cost.WithholdingPct)
	}
	if cost.TotalPct() != 1.0 {
		t.Fatalf("expected total cost 1.0%%, got %f", cost.TotalPct())
	}
}

func TestEdgeCostFlatFeeConversion(t *testing.T) {
	corridor := domain.Corridor{From: "IN", To: "SG", FXSpreadPct: 1.0, BankFeeFlat: 2500}
	cost := CostModel{Amount: 1_000_000}.EdgeCost(corridor)
	if !almostEqual(cost.FeePct, 0.25) {
		t.Fatalf("expected flat fee of 0.25%%, got %f", cost.FeePct)
	}

	// Without a positive amount the flat fee cannot be expressed as a
	// percentage and is ignored.
	cost = CostModel{}.EdgeCost(corridor)
	if cost.FeePct != 0 {
		t.Fatalf("expected zero fee pct without an amount, got %f", cost.FeePct)
	}
}

func TestPathMetricsCompounding(t *testing.T) {
	costs := []EdgeCost{
		{FXSpreadPct: 1.2, TimeDays: 1.0, Risk: 2},
		{FXSpreadPct: 0.9, TimeDays: 0.5, Risk: 1},
	}
	m := PathMetrics(costs)

	// 1 - (1-0.012)(1-0.009) = 2.0892%
	want := (1 - (1-0.012)*(1-0.009)) * 100
	if math.Abs(m.TotalCostPct-want) > floatTolerance {
		t.Fatalf("expected compounded cost %.6f, got %.6f", want, m.TotalCostPct)
	}

	naive := 1.2 + 0.9
	if m.TotalCostPct >= naive {
		t.Fatalf("compounded cost %.6f must be strictly below the naive sum %.6f", m.TotalCostPct, naive)
	}
	if m.TotalTimeDays != 1.5 {
		t.Fatalf("expected summed time 1.5, got %f", m.TotalTimeDays)
	}
	if m.TotalRisk != 2 {
		t.Fatalf("expected weakest-link risk 2, got %f", m.TotalRisk)
	}
}

func TestPathMetricsCompoundingBelowSumForAnyPositiveCosts(t *testing.T) {
	for _, costs := range [][]EdgeCost{
		{{FXSpreadPct: 0.5}, {FXSpreadPct: 0.5}},
		{{FXSpreadPct: 3.0}, {FXSpreadPct: 2.0}, {FXSpreadPct: 1.0}},
		{{WithholdingPct: 10}, {WithholdingPct: 10}},
	} {
		var sum float64
		for _, c := range costs {
			sum += c.TotalPct()
		}
		m := PathMetrics(costs)
		if m.TotalCostPct >= sum {
			t.Fatalf("compounded %.6f not below sum %.6f for %v", m.TotalCostPct, sum, costs)
		}
	}
}

func TestPathMetricsRetentionFloor(t *testing.T) {
	// A hop losing more than 100% cannot drive retention negative.
	m := PathMetrics([]EdgeCost{{WithholdingPct: 90, FXSpreadPct: 20}})
	if m.TotalCostPct != 100 {
		t.Fatalf("expected total cost capped at 100%%, got %f", m.TotalCostPct)
	}
}

func TestPathCostsMissingCorridor(t *testing.T) {
	n := testNetwork(t)
	if _, err := (CostModel{Amount: 1000}).PathCosts(n, domain.Path{"US", "IN"}); err == nil {
		t.Fatal("expected error for missing corridor")
	}
	if _, err := (CostModel{Amount: 1000}).PathCosts(n, domain.Path{"IN"}); err == nil {
		t.Fatal("expected error for single-node path")
	}
}
