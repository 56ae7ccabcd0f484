package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/scoutai/scoutai/internal/loadtest"
)

// Default configuration constants.
const (
	defaultDrafts       = 1000
	defaultPoolSize     = 40
	defaultWorkers      = 2 // multiplier for runtime.NumCPU()
	defaultTrainSamples = 5000
	defaultSeed         = 42
	defaultTimeout      = 30 * time.Second
	defaultTestTimeout  = 15 * time.Minute
)

func main() {
	os.Exit(run())
}

// run returns the process exit code: 1 when the run aborts, 2 when any board
// failed or produced an inconsistent recommendation list.
func run() int {
	var (
		baseURL      = flag.String("url", "http://localhost:8080", "Base URL of the service")
		drafts       = flag.Int("drafts", defaultDrafts, "Number of draft boards to generate and submit")
		poolSize     = flag.Int("pool", defaultPoolSize, "Available players per board")
		workers      = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		rps          = flag.Float64("rps", 0, "Suggest requests per second, 0 is unlimited")
		trainSamples = flag.Int("train", defaultTrainSamples, "Samples for a warm-up training job, 0 skips training")
		seed         = flag.Int64("seed", defaultSeed, "Seed for board generation")
		timeout      = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile   = flag.String("output", "", "Output file for generated boards")
		logFile      = flag.String("log", "", "Log file for test output (default: draft_sim_TIMESTAMP.log)")
		verbose      = flag.Bool("verbose", false, "Enable verbose logging")
		help         = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadtest.ShowHelp()
		return 0
	}

	closer, err := loadtest.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return 1
	}
	defer func() { _ = closer.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultTestTimeout)
	defer cancel()

	config := &loadtest.Config{
		BaseURL:      *baseURL,
		Drafts:       *drafts,
		PoolSize:     *poolSize,
		Workers:      *workers,
		RPS:          *rps,
		Timeout:      *timeout,
		TrainSamples: *trainSamples,
		Seed:         *seed,
		OutputFile:   *outputFile,
		LogFile:      *logFile,
		Verbose:      *verbose,
	}

	stats, err := loadtest.Run(ctx, config)
	if err != nil {
		os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		return 1
	}
	if stats.VerificationErrors > 0 || stats.SuggestionsFailed > 0 {
		return 2
	}
	return 0
}
