package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/scoutai/scoutai/internal/adapters/mq/worker"
	"github.com/scoutai/scoutai/internal/modelstore"
)

// TrainDependencies defines the interface for training operations.
type TrainDependencies interface {
	TrainAsyncOnce(ctx context.Context, key string, numSamples int) (worker.Job, bool, error)
	TrainSync(ctx context.Context, numSamples int) (modelstore.TrainResult, error)
	Job(id string) (worker.Job, error)
	ModelInfo() modelstore.Info
}

// TrainHandler handles training requests.
type TrainHandler struct {
	deps TrainDependencies
}

// NewTrainHandler creates a new train handler.
func NewTrainHandler(deps TrainDependencies) *TrainHandler {
	return &TrainHandler{deps: deps}
}

type trainAccepted struct {
	Message string     `json:"message"`
	Job     worker.Job `json:"job"`
}

type trainSyncResponse struct {
	Message   string                 `json:"message"`
	Results   modelstore.TrainResult `json:"results"`
	ModelInfo modelstore.Info        `json:"model_info"`
}

// numSamples reads ?num_samples=. Absent means 0, the configured default.
func numSamples(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("num_samples")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 2 {
		return 0, fmt.Errorf("num_samples must be an integer >= 2, got %q", raw)
	}
	return n, nil
}

// IdempotencyHeader lets a client retry a training submission safely.
const IdempotencyHeader = "Idempotency-Key"

// HandleTrain handles POST /api/v1/train?num_samples=N requests.
func (h *TrainHandler) HandleTrain(w http.ResponseWriter, r *http.Request) {
	const op = "api.train"
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	n, err := numSamples(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
	job, replayed, err := h.deps.TrainAsyncOnce(r.Context(), key, n)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/train/"+job.ID)
	if replayed {
		writeJSON(w, http.StatusOK, trainAccepted{Message: "Model training already submitted", Job: job})
		return
	}
	writeJSON(w, http.StatusAccepted, trainAccepted{Message: "Model training queued", Job: job})
}

// HandleGetJob handles GET /api/v1/train/{id} requests.
func (h *TrainHandler) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	const op = "api.train_job"
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/train/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	job, err := h.deps.Job(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// HandleTrainSync handles POST /api/v1/train-sync?num_samples=N requests.
func (h *TrainHandler) HandleTrainSync(w http.ResponseWriter, r *http.Request) {
	const op = "api.train_sync"
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	n, err := numSamples(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.TrainSync(r.Context(), n)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trainSyncResponse{
		Message:   "Model training completed",
		Results:   res,
		ModelInfo: h.deps.ModelInfo(),
	})
}
