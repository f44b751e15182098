package monitor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ossa-ma/recovrr/internal/interfaces"
	"github.com/ossa-ma/recovrr/internal/models"
)

// Scheduler drives the orchestrator on a fixed interval. Cycles never
// overlap: a trigger that fires while a cycle is in flight is skipped,
// not queued.
type Scheduler struct {
	orchestrator *Orchestrator
	logger       arbor.ILogger

	cron    *cron.Cron
	entryID cron.EntryID

	interval time.Duration

	running  bool
	paused   atomic.Bool
	inFlight atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc

	cycleWg sync.WaitGroup

	mu        sync.Mutex // guards running, interval, entryID, lastCycle
	lastCycle *models.CycleSummary
}

// NewScheduler creates a monitoring scheduler firing every interval
func NewScheduler(orchestrator *Orchestrator, interval time.Duration, logger arbor.ILogger) *Scheduler {
	return &Scheduler{
		orchestrator: orchestrator,
		interval:     interval,
		logger:       logger,
	}
}

// Start begins periodic monitoring. The first cycle fires after one full
// interval, not immediately. Starting an already-running scheduler is an
// error.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	if s.interval <= 0 {
		return fmt.Errorf("invalid scrape interval: %v", s.interval)
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.cron = cron.New()

	entryID, err := s.cron.AddFunc(cronSpec(s.interval), s.trigger)
	if err != nil {
		s.cancel()
		return fmt.Errorf("failed to schedule monitoring cycle: %w", err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.running = true
	s.paused.Store(false)

	s.logger.Info().
		Dur("interval", s.interval).
		Msg("Monitoring scheduler started")

	return nil
}

// Stop halts the schedule and waits for any in-flight cycle to finish.
// Safe to call on a stopped scheduler.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	c := s.cron
	entryID := s.entryID
	cancel := s.cancel
	s.mu.Unlock()

	c.Remove(entryID)
	<-c.Stop().Done()
	cancel()
	s.cycleWg.Wait()

	s.logger.Info().Msg("Monitoring scheduler stopped")
}

// Pause suppresses future triggers without touching an in-flight cycle.
func (s *Scheduler) Pause() {
	if s.paused.CompareAndSwap(false, true) {
		s.logger.Info().Msg("Monitoring scheduler paused")
	}
}

// Resume lifts a pause. The next cycle runs at the next scheduled
// trigger, not immediately.
func (s *Scheduler) Resume() {
	if s.paused.CompareAndSwap(true, false) {
		s.logger.Info().Msg("Monitoring scheduler resumed")
	}
}

// Reschedule changes the cycle interval. Valid only while the scheduler
// is running or paused; the new interval takes effect from now.
func (s *Scheduler) Reschedule(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("invalid scrape interval: %v", interval)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return fmt.Errorf("scheduler is not running")
	}

	entryID, err := s.cron.AddFunc(cronSpec(interval), s.trigger)
	if err != nil {
		return fmt.Errorf("failed to reschedule monitoring cycle: %w", err)
	}
	s.cron.Remove(s.entryID)
	s.entryID = entryID
	s.interval = interval

	s.logger.Info().
		Dur("interval", interval).
		Msg("Monitoring interval changed")

	return nil
}

// RunOnce executes a single cycle immediately, regardless of scheduler
// state. It bypasses the schedule, the pause flag, and the overlap guard,
// so a manual cycle may run alongside a scheduled one.
func (s *Scheduler) RunOnce(ctx context.Context) (*models.CycleSummary, error) {
	summary := s.orchestrator.RunCycle(ctx)

	s.mu.Lock()
	s.lastCycle = summary
	s.mu.Unlock()

	return summary, nil
}

// Status reports the scheduler's current state
func (s *Scheduler) Status() interfaces.SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := interfaces.SchedulerStatus{
		Running:   s.running,
		Paused:    s.paused.Load(),
		InFlight:  s.inFlight.Load(),
		Interval:  s.interval,
		LastCycle: s.lastCycle,
	}
	if s.running {
		status.NextRun = s.cron.Entry(s.entryID).Next
	}
	return status
}

// trigger is the cron handler for one scheduled cycle
func (s *Scheduler) trigger() {
	if s.paused.Load() {
		s.logger.Debug().Msg("Scheduler paused, skipping cycle")
		return
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Warn().Msg("Previous monitoring cycle still running, skipping this trigger")
		return
	}

	s.cycleWg.Add(1)
	defer s.cycleWg.Done()
	defer s.inFlight.Store(false)

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Str("panic", fmt.Sprint(r)).Msg("Monitoring cycle panicked")
		}
	}()

	summary := s.orchestrator.RunCycle(s.ctx)

	s.mu.Lock()
	s.lastCycle = summary
	s.mu.Unlock()
}

// cronSpec renders an interval as a cron descriptor
func cronSpec(interval time.Duration) string {
	return fmt.Sprintf("@every %s", interval)
}
