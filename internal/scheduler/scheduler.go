// Package scheduler drives the engine on fixed intervals, guaranteeing
// that Calculate passes never overlap: the forecast records have no
// cross-invocation isolation, so a tick that arrives while a pass is
// still running is skipped outright.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fundscope/navcast/internal/config"
	"github.com/fundscope/navcast/internal/engine"
)

// Scheduler owns the calculation loop. Snapshot publication is injected
// as a plain closure so the scheduler stays decoupled from redis.
type Scheduler struct {
	engine  *engine.Engine
	cfg     config.EngineConfig
	publish func(ctx context.Context) error
	log     zerolog.Logger

	mu      sync.Mutex
	running bool
	lastRun time.Time
}

// New builds a scheduler. publish may be nil when no snapshot cache is
// configured.
func New(eng *engine.Engine, cfg config.EngineConfig, publish func(ctx context.Context) error, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		engine:  eng,
		cfg:     cfg,
		publish: publish,
		log:     log.With().Str("component", "scheduler").Logger(),
	}
}

// Run executes Start immediately, then ticks Calculate at CalcInterval
// and Start at StartInterval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.engine.Start(ctx); err != nil {
		return err
	}
	s.RunOnce(ctx)

	calcTick := time.NewTicker(s.cfg.CalcInterval)
	defer calcTick.Stop()
	startTick := time.NewTicker(s.cfg.StartInterval)
	defer startTick.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-startTick.C:
			if err := s.engine.Start(ctx); err != nil {
				s.log.Error().Err(err).Msg("start pass failed")
			}
		case <-calcTick.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce runs a single Calculate pass unless one is already in flight,
// in which case the tick is dropped.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.log.Warn().Msg("calculate pass still running, tick skipped")
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.lastRun = time.Now()
		s.mu.Unlock()
	}()

	if _, err := s.engine.Calculate(ctx); err != nil {
		s.log.Error().Err(err).Msg("calculate pass aborted")
		return
	}
	if s.publish != nil {
		if err := s.publish(ctx); err != nil {
			s.log.Warn().Err(err).Msg("snapshot publish failed")
		}
	}
}

// LastRun reports when the previous pass finished.
func (s *Scheduler) LastRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun
}
