package routing

import (
	"fmt"
	"sort"

	"github.com/arjun/caproute/backend/internal/domain"
)

// Network is an immutable in-memory snapshot of the jurisdiction graph. It is
// built once from a data source and never mutated afterwards, so routing
// computations can share it across requests without locking.
type Network struct {
	jurisdictions map[string]domain.Jurisdiction
	outbound      map[string][]domain.Corridor
	corridors     map[string]map[string]domain.Corridor
	edgeCount     int
}

// NewNetwork validates and indexes the supplied reference data. Corridor
// endpoints missing from the jurisdiction list are registered implicitly with
// a bare code, matching how corridor datasets are commonly shipped.
func NewNetwork(jurisdictions []domain.Jurisdiction, corridors []domain.Corridor) (*Network, error) {
	n := &Network{
		jurisdictions: make(map[string]domain.Jurisdiction, len(jurisdictions)),
		outbound:      make(map[string][]domain.Corridor),
		corridors:     make(map[string]map[string]domain.Corridor),
	}

	for _, j := range jurisdictions {
		j = j.Normalize()
		if err := j.Validate(); err != nil {
			return nil, err
		}
		if _, exists := n.jurisdictions[j.Code]; exists {
			return nil, fmt.Errorf("duplicate jurisdiction %s", j.Code)
		}
		n.jurisdictions[j.Code] = j
	}

	for _, c := range corridors {
		c = c.Normalize()
		if err := c.Validate(); err != nil {
			return nil, err
		}
		if _, exists := n.corridors[c.From][c.To]; exists {
			return nil, fmt.Errorf("duplicate corridor %s->%s", c.From, c.To)
		}
		for _, code := range []string{c.From, c.To} {
			if _, known := n.jurisdictions[code]; !known {
				n.jurisdictions[code] = domain.Jurisdiction{Code: code}
			}
		}
		if n.corridors[c.From] == nil {
			n.corridors[c.From] = make(map[string]domain.Corridor)
		}
		n.corridors[c.From][c.To] = c
		n.outbound[c.From] = append(n.outbound[c.From], c)
		n.edgeCount++
	}

	// Deterministic neighbor order keeps enumeration and therefore ranking
	// reproducible across identical requests.
	for from := range n.outbound {
		sort.Slice(n.outbound[from], func(i, j int) bool {
			return n.outbound[from][i].To < n.outbound[from][j].To
		})
	}

	return n, nil
}

// HasJurisdiction reports graph membership for a (normalized) code.
func (n *Network) HasJurisdiction(code string) bool {
	_, ok := n.jurisdictions[domain.NormalizeCode(code)]
	return ok
}

// Jurisdiction returns the reference record for a code.
func (n *Network) Jurisdiction(code string) (domain.Jurisdiction, bool) {
	j, ok := n.jurisdictions[domain.NormalizeCode(code)]
	return j, ok
}

// Jurisdictions lists all nodes sorted by code.
func (n *Network) Jurisdictions() []domain.Jurisdiction {
	out := make([]domain.Jurisdiction, 0, len(n.jurisdictions))
	for _, j := range n.jurisdictions {
		out = append(out, j)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Neighbors returns the outbound corridors of a node in deterministic order.
// The returned slice must not be modified.
func (n *Network) Neighbors(code string) []domain.Corridor {
	return n.outbound[domain.NormalizeCode(code)]
}

// Corridor looks up the edge for an ordered jurisdiction pair.
func (n *Network) Corridor(from, to string) (domain.Corridor, bool) {
	c, ok := n.corridors[domain.NormalizeCode(from)][domain.NormalizeCode(to)]
	return c, ok
}

// NodeCount returns the number of jurisdictions in the snapshot.
func (n *Network) NodeCount() int {
	return len(n.jurisdictions)
}

// EdgeCount returns the number of corridors in the snapshot.
func (n *Network) EdgeCount() int {
	return n.edgeCount
}
