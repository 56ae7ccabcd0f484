package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/scoutai/scoutai/internal/modelstore"
)

// ModelDependencies defines the interface for model inspection and removal.
type ModelDependencies interface {
	Status() modelstore.Status
	ModelInfo() modelstore.Info
	Delete(ctx context.Context) error
	FeatureImportance() ([]modelstore.Importance, error)
	TopFeatures(n int) ([]modelstore.Importance, error)
}

// ModelHandler handles model requests.
type ModelHandler struct {
	deps ModelDependencies
}

// NewModelHandler creates a new model handler.
func NewModelHandler(deps ModelDependencies) *ModelHandler {
	return &ModelHandler{deps: deps}
}

type statusResponse struct {
	modelstore.Status
	ModelInfo modelstore.Info `json:"model_info"`
}

type importanceResponse struct {
	Features []modelstore.Importance `json:"features"`
}

// HandleStatus handles GET /api/v1/status requests.
func (h *ModelHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: h.deps.Status(), ModelInfo: h.deps.ModelInfo()})
}

// HandleInfo handles GET /api/v1/model-info requests.
func (h *ModelHandler) HandleInfo(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, h.deps.ModelInfo())
}

// HandleDelete handles DELETE /api/v1/model requests.
func (h *ModelHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodDelete) {
		return
	}
	existed := h.deps.Status().Loaded
	if err := h.deps.Delete(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	msg := "Model deleted successfully"
	if !existed {
		msg = "No model found to delete"
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: msg})
}

// HandleFeatureImportance handles GET /api/v1/feature-importance?top=N requests.
func (h *ModelHandler) HandleFeatureImportance(w http.ResponseWriter, r *http.Request) {
	const op = "api.feature_importance"
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	var (
		imps []modelstore.Importance
		err  error
	)
	if raw := r.URL.Query().Get("top"); raw != "" {
		n, convErr := strconv.Atoi(raw)
		if convErr != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		imps, err = h.deps.TopFeatures(n)
	} else {
		imps, err = h.deps.FeatureImportance()
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, importanceResponse{Features: imps})
}
