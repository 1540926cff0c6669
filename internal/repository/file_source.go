package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/arjun/caproute/backend/internal/domain"
	"github.com/arjun/caproute/backend/internal/routing"
)

// Dataset file names expected under the file source directory.
const (
	JurisdictionsFile = "jurisdictions.json"
	CorridorsFile     = "corridors.json"
)

// FileSource loads the corridor network from JSON files on disk. It serves
// local development and demo deployments that do not run a graph database.
type FileSource struct {
	dir string
}

// NewFileSource points the source at a dataset directory.
func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

// JurisdictionRecord is the wire shape of one jurisdictions.json entry.
type JurisdictionRecord struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

// CorridorRecord is the wire shape of one corridors.json entry.
type CorridorRecord struct {
	From              string  `json:"from"`
	To                string  `json:"to"`
	WithholdingTaxPct float64 `json:"withholding_tax_pct"`
	TreatyReliefPct   float64 `json:"treaty_relief_pct"`
	FXSpreadPct       float64 `json:"fx_spread_pct"`
	SettlementDays    float64 `json:"settlement_days"`
	ComplianceRisk    float64 `json:"compliance_risk_score"`
	BankFeeFlat       float64 `json:"bank_fee_flat"`
	VolumeMUSD        float64 `json:"corridor_volume_musd"`
}

// ToDomain converts the record to its domain counterpart.
func (r CorridorRecord) ToDomain() domain.Corridor {
	return domain.Corridor{
		From:              r.From,
		To:                r.To,
		WithholdingTaxPct: r.WithholdingTaxPct,
		TreatyReliefPct:   r.TreatyReliefPct,
		FXSpreadPct:       r.FXSpreadPct,
		SettlementDays:    r.SettlementDays,
		ComplianceRisk:    r.ComplianceRisk,
		BankFeeFlat:       r.BankFeeFlat,
		VolumeMUSD:        r.VolumeMUSD,
	}
}

// LoadNetwork reads the dataset files and builds a snapshot. A missing
// jurisdictions.json is tolerated since corridor endpoints register their own
// nodes; a missing corridors.json is an upstream data failure.
func (s *FileSource) LoadNetwork(ctx context.Context) (*routing.Network, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var jurisdictionRecords []JurisdictionRecord
	jurisdictionsPath := filepath.Join(s.dir, JurisdictionsFile)
	if _, err := os.Stat(jurisdictionsPath); err == nil {
		if err := loadJSON(jurisdictionsPath, &jurisdictionRecords); err != nil {
			return nil, domain.UpstreamUnavailable("corridor dataset is unreadable", err)
		}
	}

	var corridorRecords []CorridorRecord
	corridorsPath := filepath.Join(s.dir, CorridorsFile)
	if err := loadJSON(corridorsPath, &corridorRecords); err != nil {
		return nil, domain.UpstreamUnavailable("corridor dataset is unreadable", err)
	}
	if len(corridorRecords) == 0 {
		return nil, domain.UpstreamUnavailable("corridor dataset is empty", ErrNoData)
	}

	jurisdictions := make([]domain.Jurisdiction, 0, len(jurisdictionRecords))
	for _, rec := range jurisdictionRecords {
		jurisdictions = append(jurisdictions, domain.Jurisdiction{
			Code:     rec.Code,
			Name:     rec.Name,
			Currency: rec.Currency,
		})
	}
	corridors := make([]domain.Corridor, 0, len(corridorRecords))
	for _, rec := range corridorRecords {
		corridors = append(corridors, rec.ToDomain())
	}

	network, err := routing.NewNetwork(jurisdictions, corridors)
	if err != nil {
		return nil, domain.UpstreamUnavailable("corridor dataset holds invalid data", err)
	}
	return network, nil
}

// Probe checks the dataset directory is readable.
func (s *FileSource) Probe(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := os.Stat(filepath.Join(s.dir, CorridorsFile)); err != nil {
		return fmt.Errorf("%w: %s", ErrNoData, s.dir)
	}
	return nil
}

// Describe identifies the source in logs and health payloads.
func (s *FileSource) Describe() string {
	return fmt.Sprintf("file:%s", s.dir)
}

func loadJSON(path string, target any) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
