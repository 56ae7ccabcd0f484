package model

import "errors"

// Sentinel error kinds shared by the engine. Callers match them with errors.Is;
// the transport layer maps them to responses.
var (
	ErrModelNotLoaded     = errors.New("model not loaded")
	ErrFeatureComputation = errors.New("feature computation failed")
	ErrTrainingData       = errors.New("invalid training data")
	ErrPersistence        = errors.New("artifact persistence failed")
	ErrCandidateScoring   = errors.New("candidate scoring failed")
	ErrTrainingInProgress = errors.New("training already in progress")
	ErrQueueFull          = errors.New("training queue full")
	ErrJobNotFound        = errors.New("training job not found")
)

// Kind tags used in logs, metrics and error responses.
const (
	KindModelNotLoaded     = "model_not_loaded"
	KindFeatureComputation = "feature_computation"
	KindTrainingData       = "training_data"
	KindPersistence        = "persistence"
	KindCandidateScoring   = "candidate_scoring"
	KindTrainingInProgress = "training_in_progress"
	KindQueueFull          = "queue_full"
	KindJobNotFound        = "job_not_found"
	KindInternal           = "internal"
)

var kinds = []struct { //nolint:gochecknoglobals // ordered lookup table
	err  error
	kind string
}{
	{ErrModelNotLoaded, KindModelNotLoaded},
	{ErrFeatureComputation, KindFeatureComputation},
	{ErrTrainingData, KindTrainingData},
	{ErrPersistence, KindPersistence},
	{ErrCandidateScoring, KindCandidateScoring},
	{ErrTrainingInProgress, KindTrainingInProgress},
	{ErrQueueFull, KindQueueFull},
	{ErrJobNotFound, KindJobNotFound},
}

// KindOf returns the tag of the first sentinel err wraps, or KindInternal.
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}
