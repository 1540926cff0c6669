package domain

import "fmt"

// Corridor models a directed legal transfer edge between two jurisdictions.
// At most one corridor exists per ordered (From, To) pair.
type Corridor struct {
	From string
	To   string

	// Percentage attributes, all in [0, 100].
	WithholdingTaxPct float64
	TreatyReliefPct   float64
	FXSpreadPct       float64

	SettlementDays float64
	// ComplianceRisk is scored on a 0-10 scale.
	ComplianceRisk float64
	// BankFeeFlat is denominated in the transfer's base currency.
	BankFeeFlat float64

	// VolumeMUSD is optional corridor metadata carried through for
	// transparency in explanations.
	VolumeMUSD float64
}

// Normalize canonicalizes the endpoint codes.
func (c Corridor) Normalize() Corridor {
	c.From = NormalizeCode(c.From)
	c.To = NormalizeCode(c.To)
	return c
}

// EffectiveWithholdingPct is the base withholding tax after treaty relief,
// floored at zero.
func (c Corridor) EffectiveWithholdingPct() float64 {
	eff := c.WithholdingTaxPct - c.TreatyReliefPct
	if eff < 0 {
		return 0
	}
	return eff
}

// Validate enforces the corridor invariants.
func (c Corridor) Validate() error {
	if c.From == "" || c.To == "" {
		return fmt.Errorf("corridor endpoints are required")
	}
	if c.From == c.To {
		return fmt.Errorf("corridor %s->%s: self-loops are not allowed", c.From, c.To)
	}
	for _, pct := range []struct {
		name  string
		value float64
	}{
		{"withholding_tax_pct", c.WithholdingTaxPct},
		{"treaty_relief_pct", c.TreatyReliefPct},
		{"fx_spread_pct", c.FXSpreadPct},
	} {
		if pct.value < 0 || pct.value > 100 {
			return fmt.Errorf("corridor %s->%s: %s %.4f outside [0, 100]", c.From, c.To, pct.name, pct.value)
		}
	}
	if c.ComplianceRisk < 0 || c.ComplianceRisk > 10 {
		return fmt.Errorf("corridor %s->%s: compliance_risk_score %.4f outside [0, 10]", c.From, c.To, c.ComplianceRisk)
	}
	if c.SettlementDays < 0 {
		return fmt.Errorf("corridor %s->%s: settlement_days must be non-negative", c.From, c.To)
	}
	if c.BankFeeFlat < 0 {
		return fmt.Errorf("corridor %s->%s: bank_fee_flat must be non-negative", c.From, c.To)
	}
	return nil
}
