package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/arjun/caproute/backend/internal/domain"
	"github.com/arjun/caproute/backend/internal/service"
)

// HistoryLister reads back the bounded scenario log.
type HistoryLister interface {
	List(ctx context.Context) ([]service.Scenario, error)
}

// RouteHandlers exposes HTTP handlers for the routing API.
type RouteHandlers struct {
	logger  *slog.Logger
	service *service.RoutingService
	history HistoryLister
	metrics *Metrics
	demo    service.DemoScenario
}

// NewRouteHandlers constructs a RouteHandlers instance. history and metrics
// are optional.
func NewRouteHandlers(logger *slog.Logger, svc *service.RoutingService, demo service.DemoScenario) *RouteHandlers {
	return &RouteHandlers{
		logger:  logger,
		service: svc,
		demo:    demo,
	}
}

// WithHistory attaches the scenario log reader.
func (h *RouteHandlers) WithHistory(lister HistoryLister) *RouteHandlers {
	h.history = lister
	return h
}

// WithMetrics attaches Prometheus instruments.
func (h *RouteHandlers) WithMetrics(m *Metrics) *RouteHandlers {
	h.metrics = m
	return h
}

func (h *RouteHandlers) handleComputeRoute(w http.ResponseWriter, r *http.Request) {
	var payload computeRouteRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), string(domain.KindInvalidRequest))
		return
	}

	start := time.Now()
	set, err := h.service.ComputeRoutes(r.Context(), payload.toDomain())
	if err != nil {
		h.metrics.observeCompute("error", 0, time.Since(start))
		h.writeDomainError(w, r, err)
		return
	}
	h.metrics.observeCompute("ok", set.Candidates, time.Since(start))

	resp := computeRouteResponse{
		Source:       domain.NormalizeCode(payload.Source),
		Destination:  domain.NormalizeCode(payload.Destination),
		Amount:       payload.Amount,
		Results:      make([]routeResultResponse, 0, len(set.Results)),
		Alternatives: make([]routeResultResponse, 0, len(set.Alternatives)),
		Candidates:   set.Candidates,
	}
	for _, route := range set.Results {
		resp.Results = append(resp.Results, toRouteResult(route))
	}
	for _, route := range set.Alternatives {
		resp.Alternatives = append(resp.Alternatives, toRouteResult(route))
	}

	respondJSON(w, http.StatusOK, resp)
}

func (h *RouteHandlers) handleRouteOptions(w http.ResponseWriter, r *http.Request) {
	var payload routeOptionsRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), string(domain.KindInvalidRequest))
		return
	}

	req := payload.toDomain()
	set, err := h.service.ComputeRoutes(r.Context(), req)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	resp := routeOptionsResponse{Cards: make([]routeCard, 0, len(set.Results)+len(set.Alternatives))}
	for _, route := range set.Results {
		resp.Cards = append(resp.Cards, h.buildCard(r, req, route, false))
	}
	// Labeled routes squeezed out of the top-k still get a card.
	for _, route := range set.Alternatives {
		resp.Cards = append(resp.Cards, h.buildCard(r, req, route, true))
	}

	respondJSON(w, http.StatusOK, resp)
}

func (h *RouteHandlers) handleExplain(w http.ResponseWriter, r *http.Request) {
	var payload explainRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), string(domain.KindInvalidRequest))
		return
	}
	if len(payload.Route) == 0 {
		writeError(w, http.StatusBadRequest, "route is required", string(domain.KindInvalidRequest))
		return
	}

	req := domain.RouteRequest{
		Source:      payload.Origin,
		Destination: payload.Destination,
		Amount:      payload.AmountMUSD * 1_000_000,
		Weights:     payload.Weights.toDomain(),
	}
	exp, err := h.service.ExplainRoute(r.Context(), req, domain.Path(payload.Route))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	resp := explainResponse{
		Route:              exp.Route,
		Bullets:            exp.Bullets,
		TotalCostPct:       exp.TotalCostPct,
		TotalTimeDays:      exp.TotalTimeDays,
		TotalFriction:      exp.TotalFrictionPct,
		SavingsVsDirectPct: exp.SavingsVsDirectPct,
		Edges:              make([]explainEdgeResponse, 0, len(exp.Edges)),
	}
	for _, edge := range exp.Edges {
		resp.Edges = append(resp.Edges, explainEdgeResponse{
			Frm:           edge.From,
			To:            edge.To,
			CostPct:       edge.CostPct,
			TimeDays:      edge.TimeDays,
			Friction:      edge.FrictionPct,
			Contributions: edge.Contributions,
		})
	}

	respondJSON(w, http.StatusOK, resp)
}

func (h *RouteHandlers) handleComparison(w http.ResponseWriter, r *http.Request) {
	cmp, err := h.service.Comparison(r.Context(), h.demo)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	resp := comparisonResponse{
		ComparisonData:     make([]comparisonRowResponse, 0, len(cmp.Labeled)),
		FullComparisonData: make([]fullComparisonRowResponse, 0, len(cmp.Full)),
		HopComparisonData:  make([]hopComparisonRowResponse, 0, len(cmp.ByHops)),
	}
	for _, row := range cmp.Labeled {
		resp.ComparisonData = append(resp.ComparisonData, comparisonRowResponse{
			Label:          row.Label,
			Route:          row.Route,
			TotalCostPct:   row.TotalCostPct,
			TotalTimeDays:  row.TotalTimeDays,
			TotalRisk:      row.TotalRisk,
			CompositeScore: row.CompositeScore,
		})
	}
	for _, row := range cmp.Full {
		resp.FullComparisonData = append(resp.FullComparisonData, fullComparisonRowResponse{
			Route:              row.Route,
			Hops:               row.Hops,
			TotalCostPct:       row.TotalCostPct,
			TotalTimeDays:      row.TotalTimeDays,
			TotalRisk:          row.TotalRisk,
			CompositeScore:     row.CompositeScore,
			Labels:             row.Labels,
			SavingsVsDirectPct: row.SavingsVsDirectPct,
		})
	}
	for _, row := range cmp.ByHops {
		resp.HopComparisonData = append(resp.HopComparisonData, hopComparisonRowResponse{
			Hops:          row.Hops,
			RouteCount:    row.RouteCount,
			BestRoute:     row.BestRoute,
			BestComposite: row.BestComposite,
			MinCostPct:    row.MinCostPct,
			AvgCostPct:    row.AvgCostPct,
			MinTimeDays:   row.MinTimeDays,
			MaxRisk:       row.MaxRisk,
		})
	}

	respondJSON(w, http.StatusOK, resp)
}

func (h *RouteHandlers) handleJurisdictions(w http.ResponseWriter, r *http.Request) {
	jurisdictions, err := h.service.Jurisdictions()
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	resp := jurisdictionsResponse{Jurisdictions: make([]jurisdictionResponse, 0, len(jurisdictions))}
	for _, j := range jurisdictions {
		resp.Jurisdictions = append(resp.Jurisdictions, jurisdictionResponse{
			Code:     j.Code,
			Name:     j.Name,
			Currency: j.Currency,
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *RouteHandlers) handleHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		respondJSON(w, http.StatusOK, historyResponse{Scenarios: []historyEntryResponse{}})
		return
	}

	scenarios, err := h.history.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list history", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read scenario history", string(domain.KindInternal))
		return
	}

	resp := historyResponse{Scenarios: make([]historyEntryResponse, 0, len(scenarios))}
	for _, sc := range scenarios {
		resp.Scenarios = append(resp.Scenarios, historyEntryResponse{
			ID:            sc.ID,
			Source:        sc.Source,
			Destination:   sc.Destination,
			Amount:        sc.Amount,
			Currency:      sc.Currency,
			WeightCost:    sc.Weights.Cost,
			WeightTime:    sc.Weights.Time,
			WeightRisk:    sc.Weights.Risk,
			MaxHops:       sc.MaxHops,
			TopK:          sc.TopK,
			BestPath:      sc.BestPath,
			BestComposite: sc.BestComposite,
			ResultCount:   sc.ResultCount,
			RequestedAt:   sc.RequestedAt.UTC().Format(time.RFC3339),
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *RouteHandlers) handleReloadGraph(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ReloadNetwork(r.Context()); err != nil {
		h.logger.Error("graph reload failed", "error", err)
		h.writeDomainError(w, r, err)
		return
	}

	payload := map[string]any{"status": "reloaded"}
	if n, err := h.service.CurrentNetwork(); err == nil {
		payload["nodes"] = n.NodeCount()
		payload["edges"] = n.EdgeCount()
	}
	respondJSON(w, http.StatusOK, payload)
}

func (h *RouteHandlers) buildCard(r *http.Request, req domain.RouteRequest, route domain.ScoredRoute, alternative bool) routeCard {
	amountMUSD := req.Amount / 1_000_000
	net := amountMUSD * (1 - route.Metrics.TotalCostPct/100)

	card := routeCard{
		Title:    cardTitle(route, alternative),
		Net:      fmt.Sprintf("%.3fM", net),
		Friction: fmt.Sprintf("%.2f%%", route.Metrics.TotalCostPct),
		Time:     fmt.Sprintf("%.1f days", route.Metrics.TotalTimeDays),
		Risk:     fmt.Sprintf("%.1f/10", route.Metrics.TotalRisk),
		Path:     strings.Join(route.Path, " → "),
		Type:     cardType(route),
	}

	// The savings figure reuses the explanation pipeline so both surfaces
	// agree on the direct-route baseline.
	exp, err := h.service.ExplainRoute(r.Context(), req, route.Path)
	if err == nil && exp.SavingsVsDirectPct != nil {
		card.Savings = fmt.Sprintf("%.2f%% vs direct", *exp.SavingsVsDirectPct)
	}
	return card
}

func cardTitle(route domain.ScoredRoute, alternative bool) string {
	switch {
	case route.HasLabel(domain.LabelOptimal):
		return "Optimal Route"
	case route.HasLabel(domain.LabelCheapest):
		return "Cheapest Route"
	case route.HasLabel(domain.LabelFastest):
		return "Fastest Route"
	case route.HasLabel(domain.LabelSafest):
		return "Safest Route"
	case alternative:
		return "Alternative Route"
	default:
		return "Candidate Route"
	}
}

func cardType(route domain.ScoredRoute) string {
	if len(route.Labels) > 0 {
		return route.Labels[0]
	}
	return "candidate"
}

func (h *RouteHandlers) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	status := statusForKind(kind)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "error", err, "path", r.URL.Path)
	}
	writeError(w, status, domain.DetailOf(err), string(kind))
}

func statusForKind(kind domain.Kind) int {
	switch kind {
	case domain.KindInvalidRequest, domain.KindUnknownJurisdiction:
		return http.StatusBadRequest
	case domain.KindUpstreamUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// --- Request & Response DTOs ---

type computeRouteRequest struct {
	Source      string  `json:"source"`
	Destination string  `json:"destination"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	WeightCost  float64 `json:"weight_cost"`
	WeightTime  float64 `json:"weight_time"`
	WeightRisk  float64 `json:"weight_risk"`
	MaxHops     int     `json:"max_hops"`
	K           int     `json:"k"`
}

func (req computeRouteRequest) toDomain() domain.RouteRequest {
	return domain.RouteRequest{
		Source:      req.Source,
		Destination: req.Destination,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Weights: domain.Weights{
			Cost: req.WeightCost,
			Time: req.WeightTime,
			Risk: req.WeightRisk,
		},
		MaxHops: req.MaxHops,
		TopK:    req.K,
	}
}

type routeOptionsWeights struct {
	Cost  float64 `json:"cost"`
	Speed float64 `json:"speed"`
	Risk  float64 `json:"risk"`
}

func (w routeOptionsWeights) toDomain() domain.Weights {
	return domain.Weights{Cost: w.Cost, Time: w.Speed, Risk: w.Risk}
}

type routeOptionsRequest struct {
	Origin      string              `json:"origin"`
	Destination string              `json:"destination"`
	AmountMUSD  float64             `json:"amount_musd"`
	Weights     routeOptionsWeights `json:"weights"`
	MaxHops     int                 `json:"max_hops"`
	TopK        int                 `json:"top_k"`
}

func (req routeOptionsRequest) toDomain() domain.RouteRequest {
	return domain.RouteRequest{
		Source:      req.Origin,
		Destination: req.Destination,
		Amount:      req.AmountMUSD * 1_000_000,
		Currency:    "USD",
		Weights:     req.Weights.toDomain(),
		MaxHops:     req.MaxHops,
		TopK:        req.TopK,
	}
}

type explainRequest struct {
	Origin      string              `json:"origin"`
	Destination string              `json:"destination"`
	AmountMUSD  float64             `json:"amount_musd"`
	Weights     routeOptionsWeights `json:"weights"`
	Route       []string            `json:"route"`
}

type routeResultResponse struct {
	Path           []string `json:"path"`
	TotalCost      float64  `json:"total_cost"`
	TotalTime      float64  `json:"total_time"`
	TotalRisk      float64  `json:"total_risk"`
	CompositeScore float64  `json:"composite_score"`
	Labels         []string `json:"labels"`
}

func toRouteResult(route domain.ScoredRoute) routeResultResponse {
	labels := route.Labels
	if labels == nil {
		labels = []string{}
	}
	return routeResultResponse{
		Path:           route.Path,
		TotalCost:      route.Metrics.TotalCostPct,
		TotalTime:      route.Metrics.TotalTimeDays,
		TotalRisk:      route.Metrics.TotalRisk,
		CompositeScore: route.Metrics.CompositeScore,
		Labels:         labels,
	}
}

type computeRouteResponse struct {
	Source       string                `json:"source"`
	Destination  string                `json:"destination"`
	Amount       float64               `json:"amount"`
	Results      []routeResultResponse `json:"results"`
	Alternatives []routeResultResponse `json:"alternatives"`
	Candidates   int                   `json:"candidates"`
}

type routeCard struct {
	Title    string `json:"title"`
	Net      string `json:"net"`
	Friction string `json:"friction"`
	Time     string `json:"time"`
	Risk     string `json:"risk"`
	Path     string `json:"path"`
	Savings  string `json:"savings"`
	Type     string `json:"type"`
}

type routeOptionsResponse struct {
	Cards []routeCard `json:"cards"`
}

type explainEdgeResponse struct {
	Frm           string             `json:"frm"`
	To            string             `json:"to"`
	CostPct       float64            `json:"cost_pct"`
	TimeDays      float64            `json:"time_days"`
	Friction      float64            `json:"friction"`
	Contributions map[string]float64 `json:"contributions"`
}

type explainResponse struct {
	Route              []string              `json:"route"`
	Bullets            []string              `json:"bullets"`
	TotalCostPct       float64               `json:"total_cost_pct"`
	TotalTimeDays      float64               `json:"total_time_days"`
	TotalFriction      float64               `json:"total_friction"`
	SavingsVsDirectPct *float64              `json:"savings_vs_direct_pct"`
	Edges              []explainEdgeResponse `json:"edges"`
}

type comparisonRowResponse struct {
	Label          string  `json:"label"`
	Route          string  `json:"route"`
	TotalCostPct   float64 `json:"total_cost_pct"`
	TotalTimeDays  float64 `json:"total_time_days"`
	TotalRisk      float64 `json:"total_risk"`
	CompositeScore float64 `json:"composite_score"`
}

type fullComparisonRowResponse struct {
	Route              string   `json:"route"`
	Hops               int      `json:"hops"`
	TotalCostPct       float64  `json:"total_cost_pct"`
	TotalTimeDays      float64  `json:"total_time_days"`
	TotalRisk          float64  `json:"total_risk"`
	CompositeScore     float64  `json:"composite_score"`
	Labels             []string `json:"labels"`
	SavingsVsDirectPct *float64 `json:"savings_vs_direct_pct"`
}

type hopComparisonRowResponse struct {
	Hops          int     `json:"hops"`
	RouteCount    int     `json:"route_count"`
	BestRoute     string  `json:"best_route"`
	BestComposite float64 `json:"best_composite"`
	MinCostPct    float64 `json:"min_cost_pct"`
	AvgCostPct    float64 `json:"avg_cost_pct"`
	MinTimeDays   float64 `json:"min_time_days"`
	MaxRisk       float64 `json:"max_risk"`
}

type comparisonResponse struct {
	ComparisonData     []comparisonRowResponse     `json:"comparisonData"`
	FullComparisonData []fullComparisonRowResponse `json:"fullComparisonData"`
	HopComparisonData  []hopComparisonRowResponse  `json:"hopComparisonData"`
}

type jurisdictionResponse struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

type jurisdictionsResponse struct {
	Jurisdictions []jurisdictionResponse `json:"jurisdictions"`
}

type historyEntryResponse struct {
	ID            string  `json:"id"`
	Source        string  `json:"source"`
	Destination   string  `json:"destination"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	WeightCost    float64 `json:"weight_cost"`
	WeightTime    float64 `json:"weight_time"`
	WeightRisk    float64 `json:"weight_risk"`
	MaxHops       int     `json:"max_hops"`
	TopK          int     `json:"top_k"`
	BestPath      string  `json:"best_path"`
	BestComposite float64 `json:"best_composite"`
	ResultCount   int     `json:"result_count"`
	RequestedAt   string  `json:"requested_at"`
}

type historyResponse struct {
	Scenarios []historyEntryResponse `json:"scenarios"`
}

// --- Helpers ---

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, detail, kind string) {
	respondJSON(w, status, map[string]string{
		"detail": detail,
		"kind":   kind,
	})
}
