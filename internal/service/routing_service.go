package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/arjun/caproute/backend/internal/domain"
	"github.com/arjun/caproute/backend/internal/repository"
	"github.com/arjun/caproute/backend/internal/routing"
)

// Options bounds the routing computation and its supporting machinery.
type Options struct {
	MaxHopsCeiling int
	DefaultMaxHops int
	DefaultTopK    int
	ScoreWorkers   int
	LoadTimeout    time.Duration
	CacheTTL       time.Duration
	CacheCleanup   time.Duration
	CacheEnabled   bool
}

func (o Options) withDefaults() Options {
	if o.MaxHopsCeiling <= 0 {
		o.MaxHopsCeiling = 4
	}
	if o.DefaultMaxHops <= 0 || o.DefaultMaxHops > o.MaxHopsCeiling {
		o.DefaultMaxHops = min(3, o.MaxHopsCeiling)
	}
	if o.DefaultTopK <= 0 {
		o.DefaultTopK = 3
	}
	if o.ScoreWorkers <= 0 {
		o.ScoreWorkers = 4
	}
	if o.LoadTimeout <= 0 {
		o.LoadTimeout = 15 * time.Second
	}
	return o
}

// Scenario is one routing request recorded to the bounded history log.
type Scenario struct {
	ID            string
	Source        string
	Destination   string
	Amount        float64
	Currency      string
	Weights       domain.Weights
	MaxHops       int
	TopK          int
	BestPath      string
	BestComposite float64
	ResultCount   int
	RequestedAt   time.Time
}

// ScenarioRecorder persists recent scenarios. Implementations own retention;
// the routing core never reads the log back.
type ScenarioRecorder interface {
	Record(ctx context.Context, s Scenario) error
}

// RoutingService owns the network snapshot and runs the full routing
// pipeline: validate, enumerate, score, rank. The computation itself is a
// pure function of (snapshot, request); the service adds the snapshot
// lifecycle, caching and history around it.
type RoutingService struct {
	logger   *slog.Logger
	source   repository.NetworkSource
	network  atomic.Pointer[routing.Network]
	opts     Options
	cache    *gocache.Cache
	recorder ScenarioRecorder
	nowFn    func() time.Time
}

// NewRoutingService constructs the service. The network is not loaded yet;
// call LoadNetwork before serving.
func NewRoutingService(logger *slog.Logger, source repository.NetworkSource, opts Options) *RoutingService {
	opts = opts.withDefaults()
	s := &RoutingService{
		logger: logger,
		source: source,
		opts:   opts,
		nowFn:  time.Now,
	}
	if opts.CacheEnabled {
		ttl := opts.CacheTTL
		if ttl <= 0 {
			ttl = 5 * time.Minute
		}
		cleanup := opts.CacheCleanup
		if cleanup <= 0 {
			cleanup = 2 * ttl
		}
		s.cache = gocache.New(ttl, cleanup)
	}
	return s
}

// WithRecorder attaches a scenario recorder.
func (s *RoutingService) WithRecorder(rec ScenarioRecorder) *RoutingService {
	s.recorder = rec
	return s
}

// WithClock overrides the time source, used by tests.
func (s *RoutingService) WithClock(now func() time.Time) *RoutingService {
	s.nowFn = now
	return s
}

// LoadNetwork loads the initial snapshot from the configured source.
func (s *RoutingService) LoadNetwork(ctx context.Context) error {
	return s.reload(ctx)
}

// ReloadNetwork replaces the snapshot and flushes the result cache. In-flight
// requests keep computing against the snapshot they started with.
func (s *RoutingService) ReloadNetwork(ctx context.Context) error {
	if err := s.reload(ctx); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Flush()
	}
	return nil
}

func (s *RoutingService) reload(ctx context.Context) error {
	loadCtx, cancel := context.WithTimeout(ctx, s.opts.LoadTimeout)
	defer cancel()

	network, err := s.source.LoadNetwork(loadCtx)
	if err != nil {
		return err
	}
	s.network.Store(network)
	s.logger.Info("corridor network loaded",
		"source", s.source.Describe(),
		"jurisdictions", network.NodeCount(),
		"corridors", network.EdgeCount(),
	)
	return nil
}

// CurrentNetwork returns the active snapshot.
func (s *RoutingService) CurrentNetwork() (*routing.Network, error) {
	n := s.network.Load()
	if n == nil {
		return nil, domain.UpstreamUnavailable("corridor network is not loaded", nil)
	}
	return n, nil
}

// Jurisdictions lists the loaded jurisdictions sorted by code.
func (s *RoutingService) Jurisdictions() ([]domain.Jurisdiction, error) {
	n, err := s.CurrentNetwork()
	if err != nil {
		return nil, err
	}
	return n.Jurisdictions(), nil
}

// Probe reports data source health for readiness checks.
func (s *RoutingService) Probe(ctx context.Context) error {
	return s.source.Probe(ctx)
}

// SourceDescription names the active data source.
func (s *RoutingService) SourceDescription() string {
	return s.source.Describe()
}

// ComputeRoutes runs the full pipeline for one request. No route within the
// hop budget yields an empty result set, not an error.
func (s *RoutingService) ComputeRoutes(ctx context.Context, req domain.RouteRequest) (domain.RouteSet, error) {
	n, err := s.CurrentNetwork()
	if err != nil {
		return domain.RouteSet{}, err
	}

	req, err = s.normalizeRequest(n, req)
	if err != nil {
		return domain.RouteSet{}, err
	}

	key := cacheKey(req)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			return cached.(domain.RouteSet), nil
		}
	}

	paths := routing.EnumeratePaths(n, req.Source, req.Destination, req.MaxHops)

	candidates, err := scoreCandidates(ctx, s.opts.ScoreWorkers, n, routing.CostModel{Amount: req.Amount}, paths)
	if err != nil {
		return domain.RouteSet{}, err
	}

	routing.ApplyCompositeScores(candidates, req.Weights)
	set := routing.Rank(candidates, req.TopK)

	if s.cache != nil {
		s.cache.Set(key, set, gocache.DefaultExpiration)
	}
	s.recordScenario(ctx, req, set)
	return set, nil
}

// ExplainRoute derives the justification for a caller-selected route.
func (s *RoutingService) ExplainRoute(ctx context.Context, req domain.RouteRequest, route domain.Path) (domain.Explanation, error) {
	n, err := s.CurrentNetwork()
	if err != nil {
		return domain.Explanation{}, err
	}
	if len(route) < 2 {
		return domain.Explanation{}, domain.InvalidRequest("route must contain at least two jurisdictions")
	}

	normalized := make(domain.Path, len(route))
	for i, code := range route {
		normalized[i] = domain.NormalizeCode(code)
	}

	source := domain.NormalizeCode(req.Source)
	destination := domain.NormalizeCode(req.Destination)
	if source != "" && normalized[0] != source {
		return domain.Explanation{}, domain.InvalidRequest("route must start at origin %s", source)
	}
	if destination != "" && normalized[len(normalized)-1] != destination {
		return domain.Explanation{}, domain.InvalidRequest("route must end at destination %s", destination)
	}
	if req.Amount < 0 {
		return domain.Explanation{}, domain.InvalidRequest("amount must be non-negative")
	}

	return routing.Explain(n, routing.CostModel{Amount: req.Amount}, normalized)
}

// normalizeRequest validates the request against the active snapshot and
// fills defaults. Weights are normalized to sum to 1; a caller supplying
// all-zero weights gets the product default profile, while a negative weight
// is rejected outright.
func (s *RoutingService) normalizeRequest(n *routing.Network, req domain.RouteRequest) (domain.RouteRequest, error) {
	req.Source = domain.NormalizeCode(req.Source)
	req.Destination = domain.NormalizeCode(req.Destination)

	if req.Source == "" || req.Destination == "" {
		return req, domain.InvalidRequest("source and destination are required")
	}
	if req.Source == req.Destination {
		return req, domain.InvalidRequest("source and destination must differ; self-routes are not valid")
	}
	if !n.HasJurisdiction(req.Source) {
		return req, domain.UnknownJurisdiction(req.Source)
	}
	if !n.HasJurisdiction(req.Destination) {
		return req, domain.UnknownJurisdiction(req.Destination)
	}
	if req.Amount < 0 {
		return req, domain.InvalidRequest("amount must be non-negative")
	}

	w := req.Weights
	if w.Cost < 0 || w.Time < 0 || w.Risk < 0 {
		return req, domain.InvalidRequest("weights must be non-negative")
	}
	if w.Sum() == 0 {
		w = domain.DefaultWeights()
	}
	req.Weights = w.Normalize()

	switch {
	case req.MaxHops < 0:
		return req, domain.InvalidRequest("max_hops must be positive")
	case req.MaxHops == 0:
		req.MaxHops = s.opts.DefaultMaxHops
	case req.MaxHops > s.opts.MaxHopsCeiling:
		// Enumeration cost grows exponentially with the hop budget; the
		// ceiling is a hard scope limit.
		req.MaxHops = s.opts.MaxHopsCeiling
	}

	switch {
	case req.TopK < 0:
		return req, domain.InvalidRequest("top_k must be positive")
	case req.TopK == 0:
		req.TopK = s.opts.DefaultTopK
	}

	return req, nil
}

func (s *RoutingService) recordScenario(ctx context.Context, req domain.RouteRequest, set domain.RouteSet) {
	if s.recorder == nil {
		return
	}
	scenario := Scenario{
		ID:          uuid.NewString(),
		Source:      req.Source,
		Destination: req.Destination,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Weights:     req.Weights,
		MaxHops:     req.MaxHops,
		TopK:        req.TopK,
		ResultCount: len(set.Results),
		RequestedAt: s.nowFn().UTC(),
	}
	if len(set.Results) > 0 {
		scenario.BestPath = set.Results[0].Path.String()
		scenario.BestComposite = set.Results[0].Metrics.CompositeScore
	}
	if err := s.recorder.Record(ctx, scenario); err != nil {
		s.logger.Warn("failed to record scenario", "error", err, "scenario", scenario.ID)
	}
}

func cacheKey(req domain.RouteRequest) string {
	return fmt.Sprintf("%s|%s|%.4f|%s|%.6f|%.6f|%.6f|%d|%d",
		req.Source, req.Destination, req.Amount, req.Currency,
		req.Weights.Cost, req.Weights.Time, req.Weights.Risk,
		req.MaxHops, req.TopK,
	)
}
