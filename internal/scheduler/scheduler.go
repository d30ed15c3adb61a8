// Package scheduler runs full harvest passes on a fixed interval.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Pass is one full harvest cycle.
type Pass func(ctx context.Context)

// Scheduler wraps robfig/cron around the harvest pass.
type Scheduler struct {
	cron   *cron.Cron
	pass   Pass
	spec   string
	logger zerolog.Logger

	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup
}

// New creates a scheduler that fires every intervalHours hours.
func New(pass Pass, intervalHours int, logger zerolog.Logger) *Scheduler {
	if intervalHours <= 0 {
		intervalHours = 6
	}
	return &Scheduler{
		cron:   cron.New(),
		pass:   pass,
		spec:   fmt.Sprintf("@every %dh", intervalHours),
		logger: logger,
	}
}

// Start registers the pass and starts the cron loop. One pass runs
// immediately so the first results do not wait for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runPass(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.logger.Info().Str("spec", s.spec).Msg("scheduler started")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runPass(ctx)
	}()
	return nil
}

// Stop halts the cron loop and waits for a running pass to finish,
// including the immediate pass launched by Start.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.logger.Info().Msg("scheduler stopped")
}

// runPass executes one cycle, skipping overlap: a tick that arrives
// while the previous pass still runs is dropped rather than queued.
func (s *Scheduler) runPass(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn().Msg("previous pass still running, tick skipped")
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if ctx.Err() != nil {
		return
	}
	s.logger.Info().Msg("harvest pass started")
	s.pass(ctx)
	s.logger.Info().Msg("harvest pass complete")
}
