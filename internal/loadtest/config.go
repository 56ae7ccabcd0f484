package loadtest

import (
	"time"

	"github.com/scoutai/scoutai/internal/domain/model"
)

// Config holds configuration for a draft simulation run.
type Config struct {
	BaseURL      string        // Base URL of the service
	Drafts       int           // Number of draft boards to generate
	PoolSize     int           // Available players per board
	Workers      int           // Number of concurrent workers
	RPS          float64       // Suggest requests per second; 0 is unlimited
	Timeout      time.Duration // HTTP request timeout
	TrainSamples int           // Samples for the warm-up training job; 0 skips training
	PollInterval time.Duration // Delay between training job polls
	Seed         int64         // Seed for board generation
	OutputFile   string        // Output file for generated boards
	LogFile      string        // Log file for test output
	Verbose      bool          // Enable verbose logging
}

// Board is one draft decision submitted to /api/v1/suggest.
type Board struct {
	CurrentPick      int                 `json:"current_pick"`
	CurrentRound     int                 `json:"current_round"`
	UserRoster       map[string][]string `json:"user_roster"`
	AvailablePlayers []model.Player      `json:"available_players"`
}

// SuggestResponse is the subset of the suggest payload the run checks.
type SuggestResponse struct {
	Recommendations []model.Recommendation `json:"recommendations"`
	RosterAnalysis  RosterAnalysis         `json:"roster_analysis"`
}

// RosterAnalysis carries the remaining need per position.
type RosterAnalysis struct {
	Needs map[string]int `json:"needs"`
}

// Job is the subset of a training job the run polls.
type Job struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type trainAccepted struct {
	Message string `json:"message"`
	Job     Job    `json:"job"`
}

// Stats holds run statistics.
type Stats struct {
	BoardsGenerated    int
	SuggestionsSent    int
	SuggestionsOK      int
	SuggestionsFailed  int
	BreakerRejected    int
	Recommendations    int
	VerificationErrors int
	TrainJobID         string
	TrainStatus        string
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
