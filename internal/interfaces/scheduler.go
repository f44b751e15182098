package interfaces

import (
	"context"
	"time"

	"github.com/ossa-ma/recovrr/internal/models"
)

// SchedulerStatus is a snapshot of the monitoring schedule.
type SchedulerStatus struct {
	Running   bool          `json:"running"`
	Paused    bool          `json:"paused"`
	InFlight  bool          `json:"in_flight"`
	Interval  time.Duration `json:"interval"`
	NextRun   time.Time     `json:"next_run"`
	LastCycle *models.CycleSummary `json:"last_cycle,omitempty"`
}

// MonitorScheduler drives recurring monitoring cycles. Cycles never
// overlap: if one is still in flight when the next tick fires, the tick
// is skipped rather than queued.
type MonitorScheduler interface {
	Start(ctx context.Context) error
	Stop()
	Pause()
	Resume()
	// Reschedule swaps the cycle interval. Valid while running or paused;
	// takes effect at the next fire.
	Reschedule(interval time.Duration) error
	// RunOnce triggers an immediate cycle regardless of pause state.
	RunOnce(ctx context.Context) (*models.CycleSummary, error)
	Status() SchedulerStatus
}
