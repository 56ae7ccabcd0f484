package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/scoutai/scoutai/internal/domain/model"
	"github.com/scoutai/scoutai/pkg/logger"
)

// WithRetrainSchedule queues a training job with the default sample count on
// a cron schedule. spec uses the standard five-field syntax or a descriptor
// such as "@daily". Empty disables scheduled retraining.
func WithRetrainSchedule(spec string) Option {
	return func(s *Service) {
		s.retrainSpec = strings.TrimSpace(spec)
	}
}

// ParseSchedule reports whether spec is a usable retrain schedule.
func ParseSchedule(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid retrain schedule %q: %w", spec, err)
	}
	return nil
}

// startSchedule registers the retrain job. Caller holds s.mu.
func (s *Service) startSchedule(ctx context.Context) error {
	if s.retrainSpec == "" {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(s.retrainSpec, func() { s.scheduledTrain(ctx) }); err != nil {
		return fmt.Errorf("invalid retrain schedule %q: %w", s.retrainSpec, err)
	}
	c.Start()
	s.cron = c
	s.logger.Info(ctx, "scheduled retraining enabled", logger.String("schedule", s.retrainSpec))
	return nil
}

// stopSchedule stops the scheduler and waits for a tick in progress to return
// or ctx to expire. Caller holds s.mu.
func (s *Service) stopSchedule(ctx context.Context) {
	if s.cron == nil {
		return
	}
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	s.cron = nil
}

func (s *Service) scheduledTrain(ctx context.Context) {
	job, err := s.TrainAsync(ctx, 0)
	if err != nil {
		s.logger.Warn(ctx, "scheduled training not queued",
			logger.String("kind", model.KindOf(err)),
			logger.Error(err))
		return
	}
	s.logger.Info(ctx, "scheduled training queued", logger.String("job_id", job.ID))
}
