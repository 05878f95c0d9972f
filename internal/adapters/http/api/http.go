// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	model "github.com/okian/eventrank/internal/domain/model"
	"github.com/okian/eventrank/internal/domain/scoring"
	"github.com/okian/eventrank/internal/domain/types"
	"github.com/okian/eventrank/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	BatchDependencies
	RankingDependencies
	RecordDependencies
	WeightsDependencies
}

// Entry mirrors the read shape returned by ranking queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	batchesHandler  *BatchesHandler
	rankingsHandler *RankingsHandler
	recordsHandler  *RecordsHandler
	weightsHandler  *WeightsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxRankingLimit int) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		batchesHandler:  NewBatchesHandler(deps),
		rankingsHandler: NewRankingsHandler(deps, maxRankingLimit),
		recordsHandler:  NewRecordsHandler(deps),
		weightsHandler:  NewWeightsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/batches", MetricsMiddleware(s.batchesHandler.HandlePostBatch, "batches"))
	mux.HandleFunc("/rankings", MetricsMiddleware(s.rankingsHandler.HandleGetRankings, "rankings"))
	mux.HandleFunc("/records/", MetricsMiddleware(s.recordsHandler.HandleGetRecord, "records"))
	mux.HandleFunc("/weights", MetricsMiddleware(s.weightsHandler.HandleWeights, "weights"))
}

// batchRequest is the body of POST /batches.
type batchRequest struct {
	Records []model.Record `json:"records"`
}

type weightsResponse struct {
	Weights map[string]float64 `json:"weights"`
}

// weightsFrom renders a validated configuration for responses.
func weightsFrom(w scoring.WeightConfig) weightsResponse {
	return weightsResponse{Weights: w.Map()}
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

// writeKindError picks the status from the error's kind.
func writeKindError(w http.ResponseWriter, err error) {
	status, code := statusOf(err)
	writeError(w, status, code, err)
}
