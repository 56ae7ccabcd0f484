package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/scoutai/scoutai/pkg/logger"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with an optional JSON body and extra headers.
func (c *HTTPClient) Post(ctx context.Context, path string, body any, headers map[string]string) (*http.Response, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.client.Do(req)
}

// decodeResponse reads and closes the response body, decoding it into v when
// the status is one of want.
func decodeResponse(resp *http.Response, v any, want ...int) error {
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	ok := false
	for _, code := range want {
		if resp.StatusCode == code {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	if v == nil {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// outcome is the result of one suggest call.
type outcome struct {
	resp SuggestResponse
	err  error
	sent bool
}

// newLimiter paces requests at rps per second. rps <= 0 is unlimited.
func newLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(rps), max(burst, 1))
}

// newBreaker opens after BreakerTripFailures consecutive failed calls.
func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= BreakerTripFailures
		},
	})
}

func breakerRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// submitBoards posts every board to /api/v1/suggest using a worker pool and
// returns the outcome per board in input order.
func submitBoards(ctx context.Context, config *Config, boards []Board, stats *Stats) []outcome {
	log := logger.Get()
	log.Info(ctx, "submitting draft boards",
		logger.Int("boards", len(boards)),
		logger.Int("workers", config.Workers))

	client := newHTTPClient(config.BaseURL, config.Timeout)
	limiter := newLimiter(config.RPS, config.Workers)
	breaker := newBreaker("suggest")
	results := make([]outcome, len(boards))

	var (
		succeeded int64
		failed    int64
		rejected  int64
		sent      int64
		lastTick  atomic.Int64
	)

	boardChan := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for index := range boardChan {
				select {
				case <-ctx.Done():
					return
				default:
				}

				if err := limiter.Wait(ctx); err != nil {
					return
				}

				var resp SuggestResponse
				_, err := breaker.Execute(func() (interface{}, error) {
					return nil, submitSingleBoard(ctx, client, boards[index], &resp)
				})
				results[index] = outcome{resp: resp, err: err, sent: true}

				atomic.AddInt64(&sent, 1)
				if breakerRejected(err) {
					atomic.AddInt64(&rejected, 1)
				}
				if err != nil {
					atomic.AddInt64(&failed, 1)
					if config.Verbose {
						log.Warn(ctx, "suggest failed", logger.Int("board", index), logger.Error(err))
					}
				} else {
					atomic.AddInt64(&succeeded, 1)
				}

				now := time.Now().UnixNano()
				last := lastTick.Load()
				if now-last >= int64(progressInterval) && lastTick.CompareAndSwap(last, now) {
					log.Info(ctx, "suggest progress",
						logger.Int("sent", int(atomic.LoadInt64(&sent))),
						logger.Int("total", len(boards)),
						logger.Int("succeeded", int(atomic.LoadInt64(&succeeded))),
						logger.Int("failed", int(atomic.LoadInt64(&failed))))
				}
			}
		}()
	}

	go func() {
		defer close(boardChan)
		for i := range boards {
			select {
			case <-ctx.Done():
				return
			case boardChan <- i:
			}
		}
	}()

	wg.Wait()

	stats.SuggestionsSent = int(atomic.LoadInt64(&sent))
	stats.SuggestionsOK = int(atomic.LoadInt64(&succeeded))
	stats.SuggestionsFailed = int(atomic.LoadInt64(&failed))
	stats.BreakerRejected = int(atomic.LoadInt64(&rejected))

	log.Info(ctx, "board submission completed",
		logger.Int("succeeded", stats.SuggestionsOK),
		logger.Int("failed", stats.SuggestionsFailed),
		logger.Int("breakerRejected", stats.BreakerRejected),
		logger.String("breakerState", breaker.State().String()))

	return results
}

// submitSingleBoard posts one board and decodes the recommendation payload.
func submitSingleBoard(ctx context.Context, client *HTTPClient, board Board, out *SuggestResponse) error {
	resp, err := client.Post(ctx, "/api/v1/suggest", board, nil)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	return decodeResponse(resp, out, http.StatusOK)
}
