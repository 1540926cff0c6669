package domain

import (
	"fmt"
	"strings"
)

// Jurisdiction models a country-level node in the corridor graph. The set of
// jurisdictions is reference data loaded once at startup and treated as
// read-only afterwards.
type Jurisdiction struct {
	Code     string
	Name     string
	Currency string
}

// Normalize canonicalizes the jurisdiction code to upper case.
func (j Jurisdiction) Normalize() Jurisdiction {
	j.Code = NormalizeCode(j.Code)
	j.Currency = strings.ToUpper(strings.TrimSpace(j.Currency))
	j.Name = strings.TrimSpace(j.Name)
	return j
}

// Validate checks required fields.
func (j Jurisdiction) Validate() error {
	if strings.TrimSpace(j.Code) == "" {
		return fmt.Errorf("jurisdiction code is required")
	}
	return nil
}

// NormalizeCode canonicalizes a jurisdiction identifier for lookups.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
