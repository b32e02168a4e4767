package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/stockrisk/pkg/logger"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const jobTimeout = 2 * time.Minute

// Scheduler runs the export job on a standard 5-field cron expression.
type Scheduler struct {
	cron   *cron.Cron
	job    *ExportJob
	now    func() time.Time
	logger zerolog.Logger
}

func NewScheduler(job *ExportJob) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		job:    job,
		now:    time.Now,
		logger: logger.Component("scheduler"),
	}
}

// Start registers the job and starts the cron loop. An invalid schedule is
// returned rather than silently ignored.
func (s *Scheduler) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.runExport); err != nil {
		return fmt.Errorf("invalid report schedule %q: %w", schedule, err)
	}

	s.logger.Info().Str("schedule", schedule).Msg("starting scheduler")
	s.cron.Start()
	return nil
}

// Stop waits for a running export to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	s.logger.Info().Msg("stopping scheduler")
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) runExport() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := s.now()
	result, err := s.job.Run(ctx, start)
	if err != nil {
		s.logger.Error().Err(err).Str("key", result.Key).Msg("scheduled export failed")
		return
	}

	s.logger.Info().
		Str("key", result.Key).
		Int("rows", result.Rows).
		Bool("uploaded", result.Uploaded).
		Bool("published", result.Published).
		Dur("duration", time.Since(start)).
		Msg("scheduled export finished")
}
