package loadtest

import "time"

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Runner configuration constants.
const (
	DefaultPollInterval  = 250 * time.Millisecond
	TrainWaitTimeout     = 5 * time.Minute
	PercentageMultiplier = 100
	progressInterval     = time.Second
)

// Circuit breaker settings for suggest calls.
const (
	BreakerTripFailures = 5
	BreakerCooldown     = 10 * time.Second
)

// Job states reported by the training endpoint.
const (
	jobSucceeded = "succeeded"
	jobFailed    = "failed"
)
