package server

import (
	"context"

	"github.com/arjun/caproute/backend/internal/service"
)

// HealthReport captures the readiness state of the routing backend.
type HealthReport struct {
	Source string
	Nodes  int
	Edges  int
	Err    error
}

// HealthService defines behaviour for readiness probes.
type HealthService interface {
	Check(ctx context.Context) HealthReport
}

// RoutingHealthService reports data-source connectivity and the size of the
// loaded network snapshot.
type RoutingHealthService struct {
	Service *service.RoutingService
}

// Check implements the HealthService interface.
func (s RoutingHealthService) Check(ctx context.Context) HealthReport {
	report := HealthReport{}
	if s.Service == nil {
		return report
	}
	report.Source = s.Service.SourceDescription()

	if n, err := s.Service.CurrentNetwork(); err == nil {
		report.Nodes = n.NodeCount()
		report.Edges = n.EdgeCount()
	} else {
		report.Err = err
		return report
	}

	report.Err = s.Service.Probe(ctx)
	return report
}
