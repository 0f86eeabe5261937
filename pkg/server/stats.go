package server

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	hperrors "github.com/vnykmshr/hellopool/pkg/common/errors"
)

// StatsSource is the read-only view of a pool that StatsReporter logs.
type StatsSource interface {
	Size() int
	QueueSize() int
	ActiveWorkers() int
	TotalSubmitted() int64
	TotalCompleted() int64
}

// statsParser accepts an optional leading seconds field and descriptors such as "@every 30s".
var statsParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ValidateSchedule reports whether expr is a schedule StatsReporter accepts.
func ValidateSchedule(expr string) error {
	if _, err := statsParser.Parse(expr); err != nil {
		return fmt.Errorf("invalid cron expression '%s': %w", expr, err)
	}
	return nil
}

// StatsReporter periodically logs a snapshot of a pool's counters.
type StatsReporter struct {
	cron   *cron.Cron
	source StatsSource
	logger *slog.Logger

	mu      sync.Mutex
	started bool
}

// NewStatsReporter schedules a pool snapshot on the given cron expression.
func NewStatsReporter(schedule string, source StatsSource, logger *slog.Logger) (*StatsReporter, error) {
	if source == nil {
		return nil, hperrors.NewValidationError("server", "stats_source", nil, "must not be nil")
	}
	if err := ValidateSchedule(schedule); err != nil {
		return nil, hperrors.NewValidationError("server", "stats_schedule", schedule, err.Error()).
			WithHint("use a cron expression or a descriptor like @every 30s")
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &StatsReporter{
		cron: cron.New(
			cron.WithParser(statsParser),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		source: source,
		logger: logger,
	}
	if _, err := r.cron.AddFunc(schedule, r.Report); err != nil {
		return nil, hperrors.NewOperationError("server", "ScheduleStats", err)
	}
	return r, nil
}

// Report logs one snapshot immediately.
func (r *StatsReporter) Report() {
	r.logger.Info("pool stats",
		"size", r.source.Size(),
		"queued", r.source.QueueSize(),
		"active", r.source.ActiveWorkers(),
		"submitted", r.source.TotalSubmitted(),
		"completed", r.source.TotalCompleted(),
	)
}

// Start begins the schedule. Calling Start twice has no effect.
func (r *StatsReporter) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true
	r.cron.Start()
}

// Stop halts the schedule and waits for a running report to finish.
func (r *StatsReporter) Stop() {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	r.started = false
	r.mu.Unlock()

	<-r.cron.Stop().Done()
}
