// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ProjectionDependencies
	AccuracyDependencies
	BaselineDependencies
	RunDependencies
	RecomputeDependencies
	WaiverDependencies
	LineupDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	projectionsHandler *ProjectionsHandler
	accuracyHandler    *AccuracyHandler
	baselinesHandler   *BaselinesHandler
	runsHandler        *RunsHandler
	recomputeHandler   *RecomputeHandler
	waiversHandler     *WaiversHandler
	lineupHandler      *LineupHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	cfg := defaultServerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(deps),
		projectionsHandler: NewProjectionsHandler(deps, cfg.maxLimit),
		accuracyHandler:    NewAccuracyHandler(deps),
		baselinesHandler:   NewBaselinesHandler(deps),
		runsHandler:        NewRunsHandler(deps, cfg.maxLimit),
		recomputeHandler:   NewRecomputeHandler(deps, cfg.limiter),
		waiversHandler:     NewWaiversHandler(deps, cfg.maxLimit),
		lineupHandler:      NewLineupHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/projections", MetricsMiddleware(s.projectionsHandler.HandleList, "projections"))
	mux.HandleFunc("/projections/", MetricsMiddleware(s.projectionsHandler.HandlePlayer, "projection"))
	mux.HandleFunc("/accuracy", MetricsMiddleware(s.accuracyHandler.HandleAccuracy, "accuracy"))
	mux.HandleFunc("/baselines", MetricsMiddleware(s.baselinesHandler.HandleBaselines, "baselines"))
	mux.HandleFunc("/baselines/history", MetricsMiddleware(s.baselinesHandler.HandleHistory, "baseline_history"))
	mux.HandleFunc("/waivers", MetricsMiddleware(s.waiversHandler.HandleWaivers, "waivers"))
	mux.HandleFunc("/lineup", MetricsMiddleware(s.lineupHandler.HandleLineup, "lineup"))
	mux.HandleFunc("/runs", MetricsMiddleware(s.runsHandler.HandleList, "runs"))
	mux.HandleFunc("/runs/", MetricsMiddleware(s.runsHandler.HandleRun, "run"))
	mux.HandleFunc("/recompute", MetricsMiddleware(s.recomputeHandler.HandleRecompute, "recompute"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeErr classifies err and writes the matching error response.
func writeErr(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}

// queryInt reads a non-negative integer query parameter, returning def when
// it is absent.
func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, WrapKind("parse "+key, ErrBadRequest, strconv.ErrSyntax)
	}
	return v, nil
}

// queryFloat reads a non-negative number query parameter, returning def when
// it is absent.
func queryFloat(r *http.Request, key string, def float64) (float64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, WrapKind("parse "+key, ErrBadRequest, strconv.ErrSyntax)
	}
	return v, nil
}
