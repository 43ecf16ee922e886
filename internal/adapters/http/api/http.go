// Package api declares HTTP contracts and route registration helpers for
// the risk dashboard feed.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	service "github.com/sristy17/insider-Threat-Detection/internal/app"
	"github.com/sristy17/insider-Threat-Detection/internal/domain/model"
)

// Dependencies required by HTTP handlers. An interface bundle keeps the
// handler layer loosely coupled to the app service.
type Dependencies interface {
	// Read operations over the published snapshot.
	TopN(ctx context.Context, n int) ([]model.Entry, error)
	Rank(ctx context.Context, employeeID string) (model.Entry, error)
	Entity(ctx context.Context, employeeID string) (service.EntityDetail, error)
	Stats(ctx context.Context) service.Stats

	// Batch progress reads.
	Progress(ctx context.Context) []model.BatchProgress
	Done(ctx context.Context) bool
}

// Server wires HTTP routes for the dashboard API.
type Server struct {
	healthHandler   *HealthHandler
	scoresHandler   *ScoresHandler
	entityHandler   *EntityHandler
	statsHandler    *StatsHandler
	progressHandler *ProgressHandler
}

// NewServer creates an API server with all handlers. maxLimit bounds the
// limit query parameter on /scores.
func NewServer(deps Dependencies, maxLimit int) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		scoresHandler:   NewScoresHandler(deps, maxLimit),
		entityHandler:   NewEntityHandler(deps),
		statsHandler:    NewStatsHandler(deps),
		progressHandler: NewProgressHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/scores", MetricsMiddleware(s.scoresHandler.HandleGetScores, "scores"))
	mux.HandleFunc("/entity/", MetricsMiddleware(s.entityHandler.HandleGetEntity, "entity"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/progress", MetricsMiddleware(s.progressHandler.HandleProgress, "progress"))
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
