package loadtest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/scoutai/scoutai/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	outputPermission    = 0600
)

// ErrTrainFailed reports a warm-up training job that did not succeed.
var ErrTrainFailed = errors.New("training job did not succeed")

// Run executes the complete draft simulation.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	if config.Workers < 1 {
		config.Workers = 1
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}

	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting draft simulation",
		logger.String("baseURL", config.BaseURL),
		logger.Int("drafts", config.Drafts),
		logger.Int("poolSize", config.PoolSize),
		logger.Int("workers", config.Workers),
		logger.Float64("rps", config.RPS),
		logger.Duration("timeout", config.Timeout),
		logger.Int("trainSamples", config.TrainSamples),
		logger.Bool("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Train the model the boards will be scored with
	if config.TrainSamples > 0 {
		if err := trainModel(ctx, config, stats); err != nil {
			return stats, fmt.Errorf("model training failed: %w", err)
		}
	}

	// Step 3: Generate boards
	boards, err := generateBoards(ctx, config, stats)
	if err != nil {
		return stats, fmt.Errorf("board generation failed: %w", err)
	}

	// Step 4: Submit boards concurrently
	results := submitBoards(ctx, config, boards, stats)

	// Step 5: Verify results
	if err := verifyResults(ctx, config, boards, results, stats); err != nil {
		return stats, fmt.Errorf("result verification failed: %w", err)
	}

	// Step 6: Save boards to file
	if config.OutputFile != "" {
		if err := saveBoardsToFile(ctx, config.OutputFile, boards); err != nil {
			logger.Get().Warn(ctx, "failed to save boards to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(ctx, stats)

	logger.Get().Info(ctx, "simulation completed successfully")
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.BaseURL, config.Timeout)
	resp, err := client.Get(ctx, "/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	// /healthz serves Prometheus metrics; any 200 is healthy.
	if err := decodeResponse(resp, nil, http.StatusOK); err != nil {
		return err
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// trainModel queues a training job under a fresh idempotency key and polls it
// until it finishes or TrainWaitTimeout elapses.
func trainModel(ctx context.Context, config *Config, stats *Stats) error {
	log := logger.Get()
	client := newHTTPClient(config.BaseURL, config.Timeout)

	key := uuid.NewString()
	path := "/api/v1/train?num_samples=" + strconv.Itoa(config.TrainSamples)
	resp, err := client.Post(ctx, path, nil, map[string]string{"Idempotency-Key": key})
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	var accepted trainAccepted
	if err := decodeResponse(resp, &accepted, http.StatusAccepted, http.StatusOK); err != nil {
		return err
	}
	stats.TrainJobID = accepted.Job.ID
	log.Info(ctx, "training job queued",
		logger.String("job", accepted.Job.ID),
		logger.String("idempotencyKey", key))

	waitCtx, cancel := context.WithTimeout(ctx, TrainWaitTimeout)
	defer cancel()

	ticker := time.NewTicker(config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-waitCtx.Done():
			return fmt.Errorf("waiting for job %s: %w", accepted.Job.ID, waitCtx.Err())
		case <-ticker.C:
		}

		resp, err := client.Get(waitCtx, "/api/v1/train/"+accepted.Job.ID)
		if err != nil {
			return fmt.Errorf("poll failed: %w", err)
		}
		var job Job
		if err := decodeResponse(resp, &job, http.StatusOK); err != nil {
			return err
		}
		stats.TrainStatus = job.Status

		switch job.Status {
		case jobSucceeded:
			log.Info(ctx, "training job succeeded", logger.String("job", job.ID))
			return nil
		case jobFailed:
			return fmt.Errorf("%w: job %s: %s", ErrTrainFailed, job.ID, job.Error)
		}
		if config.Verbose {
			log.Debug(ctx, "training job pending", logger.String("job", job.ID), logger.String("status", job.Status))
		}
	}
}

// saveBoardsToFile writes the generated boards as a JSON array.
func saveBoardsToFile(ctx context.Context, filename string, boards []Board) error {
	if len(boards) == 0 {
		return errors.New("no boards to save")
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(boards, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal boards: %w", err)
	}
	if err := os.WriteFile(filename, append(data, '\n'), outputPermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	logger.Get().Info(ctx, "boards saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, boardsPerSecond float64

	if stats.SuggestionsSent > 0 {
		successRate = float64(stats.SuggestionsOK) / float64(stats.SuggestionsSent) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		boardsPerSecond = float64(stats.SuggestionsSent) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("boardsGenerated", stats.BoardsGenerated),
		logger.Int("suggestionsSent", stats.SuggestionsSent),
		logger.Int("suggestionsOK", stats.SuggestionsOK),
		logger.Int("suggestionsFailed", stats.SuggestionsFailed),
		logger.Int("breakerRejected", stats.BreakerRejected),
		logger.Int("recommendations", stats.Recommendations),
		logger.Int("verificationErrors", stats.VerificationErrors),
		logger.String("trainJob", stats.TrainJobID),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("boardsPerSecond", boardsPerSecond))
}
