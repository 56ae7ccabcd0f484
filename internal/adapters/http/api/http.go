// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/scoutai/scoutai/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	SuggestDependencies
	TrainDependencies
	ModelDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	suggestHandler *SuggestHandler
	trainHandler   *TrainHandler
	modelHandler   *ModelHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		suggestHandler: NewSuggestHandler(deps),
		trainHandler:   NewTrainHandler(deps),
		modelHandler:   NewModelHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("/api/v1/suggest", MetricsMiddleware(s.suggestHandler.HandleSuggest, "suggest"))
	mux.HandleFunc("/api/v1/status", MetricsMiddleware(s.modelHandler.HandleStatus, "status"))
	mux.HandleFunc("/api/v1/train", MetricsMiddleware(s.trainHandler.HandleTrain, "train"))
	mux.HandleFunc("/api/v1/train/", MetricsMiddleware(s.trainHandler.HandleGetJob, "train_job"))
	mux.HandleFunc("/api/v1/train-sync", MetricsMiddleware(s.trainHandler.HandleTrainSync, "train_sync"))
	mux.HandleFunc("/api/v1/model", MetricsMiddleware(s.modelHandler.HandleDelete, "model"))
	mux.HandleFunc("/api/v1/model-info", MetricsMiddleware(s.modelHandler.HandleInfo, "model_info"))
	mux.HandleFunc("/api/v1/feature-importance", MetricsMiddleware(s.modelHandler.HandleFeatureImportance, "feature_importance"))
}

type messageResponse struct {
	Message string `json:"message"`
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

// writeDomainError maps an error kind to its status code.
func writeDomainError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrBadRequest) {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	kind := model.KindOf(err)
	writeError(w, statusForKind(kind), kind, err)
}

func statusForKind(kind string) int {
	switch kind {
	case model.KindModelNotLoaded:
		return http.StatusServiceUnavailable
	case model.KindFeatureComputation, model.KindTrainingData:
		return http.StatusBadRequest
	case model.KindQueueFull, model.KindTrainingInProgress:
		return http.StatusTooManyRequests
	case model.KindJobNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
	return false
}
