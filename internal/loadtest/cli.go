package loadtest

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/scoutai/scoutai/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging sends structured logs to both stdout and a file.
// If logFile is empty, a timestamped filename is generated.
// The returned closer releases the file.
func SetupLogging(logFile string, verbose bool) (io.Closer, error) {
	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "draft_sim_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	if err := logger.Init(logger.WithWriter(io.MultiWriter(os.Stdout, file))); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	return file, nil
}

// ShowHelp prints usage information for the draft simulation tool.
func ShowHelp() {
	os.Stdout.WriteString(`ScoutAI Draft Simulator
=======================

Generates draft boards, submits them concurrently to a running ScoutAI
service and checks every recommendation list it returns.

Usage:
  go run ./cmd/draft-sim [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:8080")
  -drafts int
        Number of draft boards to generate and submit (default 1000)
  -pool int
        Available players per board (default 40)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -rps float
        Suggest requests per second across all workers, 0 is unlimited (default 0)
  -train int
        Samples for a warm-up training job, 0 skips training (default 5000)
  -seed int
        Seed for board generation (default 42)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Output file for generated boards (default: not written)
  -log string
        Log file for test output (default: draft_sim_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Train a model and run with default settings
  go run ./cmd/draft-sim

  # Reuse the loaded model and push more load
  go run ./cmd/draft-sim -train 0 -drafts 20000 -workers 32

  # Keep the boards for replay
  go run ./cmd/draft-sim -output boards.json
`)
}
