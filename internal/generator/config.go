package generator

// Config drives the synthetic corridor dataset generator.
type Config struct {
	// NumJurisdictions is capped at the size of the built-in jurisdiction
	// table.
	NumJurisdictions int
	// CorridorDensity is the probability that any ordered jurisdiction pair
	// gets a corridor.
	CorridorDensity float64
	// TreatyChance is the probability that a corridor carries treaty relief.
	TreatyChance float64
	// FlatFeeChance is the probability that a corridor carries a flat bank
	// fee.
	FlatFeeChance float64
	MaxWithholdingPct float64
	MaxFXSpreadPct    float64
	MaxSettlementDays float64
	Seed              int64
}

// DefaultConfig returns baseline settings producing a well-connected network
// with meaningful multi-hop arbitrage.
func DefaultConfig() Config {
	return Config{
		NumJurisdictions:  12,
		CorridorDensity:   0.4,
		TreatyChance:      0.5,
		FlatFeeChance:     0.3,
		MaxWithholdingPct: 15,
		MaxFXSpreadPct:    4,
		MaxSettlementDays: 5,
		Seed:              42,
	}
}
