package generator

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/arjun/caproute/backend/internal/repository"
)

// Dataset contains the generated jurisdictions and corridors.
type Dataset struct {
	Jurisdictions []repository.JurisdictionRecord `json:"jurisdictions"`
	Corridors     []repository.CorridorRecord     `json:"corridors"`
}

// Generator produces synthetic corridor networks aligned with the routing
// schema. The same seed always yields the same dataset.
type Generator struct {
	cfg  Config
	rand *rand.Rand
}

// New returns a configured Generator instance.
func New(cfg Config) *Generator {
	defaults := DefaultConfig()
	if cfg.NumJurisdictions <= 0 {
		cfg.NumJurisdictions = defaults.NumJurisdictions
	}
	if cfg.NumJurisdictions > len(jurisdictionTable) {
		cfg.NumJurisdictions = len(jurisdictionTable)
	}
	if cfg.CorridorDensity <= 0 || cfg.CorridorDensity > 1 {
		cfg.CorridorDensity = defaults.CorridorDensity
	}
	if cfg.TreatyChance <= 0 {
		cfg.TreatyChance = defaults.TreatyChance
	}
	if cfg.FlatFeeChance <= 0 {
		cfg.FlatFeeChance = defaults.FlatFeeChance
	}
	if cfg.MaxWithholdingPct <= 0 {
		cfg.MaxWithholdingPct = defaults.MaxWithholdingPct
	}
	if cfg.MaxFXSpreadPct <= 0 {
		cfg.MaxFXSpreadPct = defaults.MaxFXSpreadPct
	}
	if cfg.MaxSettlementDays <= 0 {
		cfg.MaxSettlementDays = defaults.MaxSettlementDays
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	return &Generator{
		cfg:  cfg,
		rand: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Generate synthesises a corridor network. It respects context cancellation.
func (g *Generator) Generate(ctx context.Context) (Dataset, error) {
	jurisdictions := make([]repository.JurisdictionRecord, g.cfg.NumJurisdictions)
	copy(jurisdictions, jurisdictionTable[:g.cfg.NumJurisdictions])

	var corridors []repository.CorridorRecord
	for i := range jurisdictions {
		for j := range jurisdictions {
			if i == j {
				continue
			}
			if err := ctx.Err(); err != nil {
				return Dataset{}, err
			}
			if g.rand.Float64() >= g.cfg.CorridorDensity {
				continue
			}
			corridors = append(corridors, g.randomCorridor(jurisdictions[i].Code, jurisdictions[j].Code))
		}
	}

	// A node with no outbound corridor makes for a dull demo; give each
	// jurisdiction at least one.
	for i, from := range jurisdictions {
		if hasOutbound(corridors, from.Code) {
			continue
		}
		j := g.rand.Intn(len(jurisdictions) - 1)
		if j >= i {
			j++
		}
		corridors = append(corridors, g.randomCorridor(from.Code, jurisdictions[j].Code))
	}

	return Dataset{Jurisdictions: jurisdictions, Corridors: corridors}, nil
}

func (g *Generator) randomCorridor(from, to string) repository.CorridorRecord {
	withholding := round2(g.rand.Float64() * g.cfg.MaxWithholdingPct)

	var relief float64
	if g.rand.Float64() < g.cfg.TreatyChance {
		// Treaty relief never exceeds the base withholding rate.
		relief = round2(g.rand.Float64() * withholding)
	}

	var fee float64
	if g.rand.Float64() < g.cfg.FlatFeeChance {
		fee = round2(g.rand.Float64()*4500 + 500)
	}

	return repository.CorridorRecord{
		From:              from,
		To:                to,
		WithholdingTaxPct: withholding,
		TreatyReliefPct:   relief,
		FXSpreadPct:       round2(0.1 + g.rand.Float64()*(g.cfg.MaxFXSpreadPct-0.1)),
		SettlementDays:    round2(0.5 + g.rand.Float64()*(g.cfg.MaxSettlementDays-0.5)),
		ComplianceRisk:    round2(g.rand.Float64() * 10),
		BankFeeFlat:       fee,
		VolumeMUSD:        round2(g.rand.Float64()*9900 + 100),
	}
}

func hasOutbound(corridors []repository.CorridorRecord, from string) bool {
	for _, c := range corridors {
		if c.From == from {
			return true
		}
	}
	return false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

var jurisdictionTable = []repository.JurisdictionRecord{
	{Code: "US", Name: "United States", Currency: "USD"},
	{Code: "IN", Name: "India", Currency: "INR"},
	{Code: "SG", Name: "Singapore", Currency: "SGD"},
	{Code: "NL", Name: "Netherlands", Currency: "EUR"},
	{Code: "GB", Name: "United Kingdom", Currency: "GBP"},
	{Code: "AE", Name: "United Arab Emirates", Currency: "AED"},
	{Code: "HK", Name: "Hong Kong", Currency: "HKD"},
	{Code: "CH", Name: "Switzerland", Currency: "CHF"},
	{Code: "LU", Name: "Luxembourg", Currency: "EUR"},
	{Code: "JP", Name: "Japan", Currency: "JPY"},
	{Code: "DE", Name: "Germany", Currency: "EUR"},
	{Code: "IE", Name: "Ireland", Currency: "EUR"},
	{Code: "MU", Name: "Mauritius", Currency: "MUR"},
	{Code: "KY", Name: "Cayman Islands", Currency: "KYD"},
	{Code: "BR", Name: "Brazil", Currency: "BRL"},
	{Code: "MX", Name: "Mexico", Currency: "MXN"},
	{Code: "CA", Name: "Canada", Currency: "CAD"},
	{Code: "AU", Name: "Australia", Currency: "AUD"},
	{Code: "FR", Name: "France", Currency: "EUR"},
	{Code: "CN", Name: "China", Currency: "CNY"},
}
