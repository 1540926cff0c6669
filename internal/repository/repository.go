package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/arjun/caproute/backend/internal/domain"
	"github.com/arjun/caproute/backend/internal/graph"
	"github.com/arjun/caproute/backend/internal/routing"
)

// NetworkSource loads a corridor network snapshot from some backing store.
// The snapshot is immutable once built; reload replaces it wholesale.
type NetworkSource interface {
	LoadNetwork(ctx context.Context) (*routing.Network, error)
	Probe(ctx context.Context) error
	Describe() string
}

// Repository loads and seeds the jurisdiction/corridor graph stored in a
// graph database.
type Repository struct {
	client graph.Client
}

// New instantiates a Repository backed by the supplied graph client.
func New(client graph.Client) *Repository {
	return &Repository{client: client}
}

// LoadNetwork reads every jurisdiction and corridor and builds an in-memory
// snapshot. Store failures surface as UpstreamDataUnavailable so callers fail
// fast instead of serving stale or fabricated data.
func (r *Repository) LoadNetwork(ctx context.Context) (*routing.Network, error) {
	jres, err := r.client.ExecuteRead(ctx, listJurisdictionsCypher, nil)
	if err != nil {
		return nil, domain.UpstreamUnavailable("corridor data store is unavailable", fmt.Errorf("list jurisdictions: %w", err))
	}

	jurisdictions := make([]domain.Jurisdiction, 0, len(jres.Records))
	for _, rec := range jres.Records {
		jurisdictions = append(jurisdictions, domain.Jurisdiction{
			Code:     rec.String("code"),
			Name:     rec.String("name"),
			Currency: rec.String("currency"),
		})
	}

	cres, err := r.client.ExecuteRead(ctx, listCorridorsCypher, nil)
	if err != nil {
		return nil, domain.UpstreamUnavailable("corridor data store is unavailable", fmt.Errorf("list corridors: %w", err))
	}

	corridors := make([]domain.Corridor, 0, len(cres.Records))
	for _, rec := range cres.Records {
		corridors = append(corridors, domain.Corridor{
			From:              rec.String("from"),
			To:                rec.String("to"),
			WithholdingTaxPct: rec.Float("withholdingTaxPct"),
			TreatyReliefPct:   rec.Float("treatyReliefPct"),
			FXSpreadPct:       rec.Float("fxSpreadPct"),
			SettlementDays:    rec.Float("settlementDays"),
			ComplianceRisk:    rec.Float("complianceRiskScore"),
			BankFeeFlat:       rec.Float("bankFeeFlat"),
			VolumeMUSD:        rec.Float("volumeMusd"),
		})
	}

	if len(corridors) == 0 {
		return nil, domain.UpstreamUnavailable("corridor data store returned no corridors", nil)
	}

	network, err := routing.NewNetwork(jurisdictions, corridors)
	if err != nil {
		return nil, domain.UpstreamUnavailable("corridor data store holds invalid data", err)
	}
	return network, nil
}

// Probe verifies the data store is reachable.
func (r *Repository) Probe(ctx context.Context) error {
	return r.client.VerifyConnectivity(ctx)
}

// Describe identifies the source in logs and health payloads.
func (r *Repository) Describe() string {
	return "graph"
}

// UpsertJurisdiction ensures a jurisdiction node exists with current metadata.
func (r *Repository) UpsertJurisdiction(ctx context.Context, j domain.Jurisdiction) error {
	j = j.Normalize()
	if err := j.Validate(); err != nil {
		return err
	}
	_, err := r.client.ExecuteWrite(ctx, upsertJurisdictionCypher, map[string]any{
		"code":     j.Code,
		"name":     j.Name,
		"currency": j.Currency,
	})
	if err != nil {
		return fmt.Errorf("upsert jurisdiction %s: %w", j.Code, err)
	}
	return nil
}

// UpsertCorridor ensures the corridor edge exists between its endpoint nodes,
// creating bare endpoint nodes when necessary.
func (r *Repository) UpsertCorridor(ctx context.Context, c domain.Corridor) error {
	c = c.Normalize()
	if err := c.Validate(); err != nil {
		return err
	}
	_, err := r.client.ExecuteWrite(ctx, upsertCorridorCypher, map[string]any{
		"from":                c.From,
		"to":                  c.To,
		"withholdingTaxPct":   c.WithholdingTaxPct,
		"treatyReliefPct":     c.TreatyReliefPct,
		"fxSpreadPct":         c.FXSpreadPct,
		"settlementDays":      c.SettlementDays,
		"complianceRiskScore": c.ComplianceRisk,
		"bankFeeFlat":         c.BankFeeFlat,
		"volumeMusd":          c.VolumeMUSD,
	})
	if err != nil {
		return fmt.Errorf("upsert corridor %s->%s: %w", c.From, c.To, err)
	}
	return nil
}

// ErrNoData is returned by sources that cannot find their dataset.
var ErrNoData = errors.New("corridor dataset not found")

const listJurisdictionsCypher = `
MATCH (j:Jurisdiction)
RETURN j.code AS code, j.name AS name, j.currency AS currency
ORDER BY code
`

const listCorridorsCypher = `
MATCH (a:Jurisdiction)-[c:CORRIDOR]->(b:Jurisdiction)
RETURN a.code AS from,
       b.code AS to,
       c.withholdingTaxPct AS withholdingTaxPct,
       c.treatyReliefPct AS treatyReliefPct,
       c.fxSpreadPct AS fxSpreadPct,
       c.settlementDays AS settlementDays,
       c.complianceRiskScore AS complianceRiskScore,
       c.bankFeeFlat AS bankFeeFlat,
       c.volumeMusd AS volumeMusd
ORDER BY from, to
`

const upsertJurisdictionCypher = `
MERGE (j:Jurisdiction {code: $code})
SET j.name = $name,
    j.currency = $currency
`

const upsertCorridorCypher = `
MERGE (a:Jurisdiction {code: $from})
MERGE (b:Jurisdiction {code: $to})
MERGE (a)-[c:CORRIDOR]->(b)
SET c.withholdingTaxPct = $withholdingTaxPct,
    c.treatyReliefPct = $treatyReliefPct,
    c.fxSpreadPct = $fxSpreadPct,
    c.settlementDays = $settlementDays,
    c.complianceRiskScore = $complianceRiskScore,
    c.bankFeeFlat = $bankFeeFlat,
    c.volumeMusd = $volumeMusd
`
