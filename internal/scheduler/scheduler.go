// Package scheduler drives the automatic catalog refresh on a cron schedule.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/akciovadasz/backend/internal/service"
)

// Config holds the scheduler configuration
type Config struct {
	// Schedule is a cron expression for the refresh check (e.g., "0 * * * *" for hourly)
	Schedule string
	// Timeout bounds one tick, including the fetch it may trigger
	Timeout time.Duration
	// Enabled determines if the scheduler should run
	Enabled bool
	// Location is the zone the schedule is read in
	Location *time.Location
}

// DefaultConfig returns the default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Schedule: "0 * * * *", // Every hour at minute 0
		Timeout:  2 * time.Minute,
		Enabled:  true,
		Location: time.Local,
	}
}

// AutoRefresher runs one refresh evaluation. Implemented by service.DealService.
type AutoRefresher interface {
	AutoRefresh(ctx context.Context) (service.RefreshDecision, error)
}

// Status is what /api/scheduler reports.
type Status struct {
	Enabled      bool                     `json:"enabled"`
	Running      bool                     `json:"running"`
	Schedule     string                   `json:"schedule"`
	NextRun      *time.Time               `json:"nextRun,omitempty"`
	LastRun      *time.Time               `json:"lastRun,omitempty"`
	LastDecision *service.RefreshDecision `json:"lastDecision,omitempty"`
	LastError    string                   `json:"lastError,omitempty"`
}

// Scheduler manages the refresh job
type Scheduler struct {
	cron      *cron.Cron
	refresher AutoRefresher
	config    Config
	logger    *slog.Logger
	entryID   cron.EntryID

	// ticking keeps cron ticks and RunNow from overlapping.
	ticking sync.Mutex

	mu           sync.RWMutex
	lastRun      time.Time
	lastDecision *service.RefreshDecision
	lastErr      string
}

// New creates a new Scheduler instance
func New(cfg Config, refresher AutoRefresher, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(cfg.Location),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		refresher: refresher,
		config:    cfg,
		logger:    logger,
	}
}

// Start begins the scheduler
func (s *Scheduler) Start() error {
	if !s.config.Enabled {
		s.logger.Info("Scheduler is disabled, skipping start")
		return nil
	}

	// Convert standard cron (5 fields) to cron with seconds (6 fields)
	schedule := "0 " + s.config.Schedule

	entryID, err := s.cron.AddFunc(schedule, s.runExclusive)
	if err != nil {
		return err
	}

	s.entryID = entryID
	s.cron.Start()

	s.logger.Info("Scheduler started",
		slog.String("schedule", s.config.Schedule),
		slog.String("location", s.config.Location.String()),
		slog.Duration("timeout", s.config.Timeout),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("Stopping scheduler...")
	return s.cron.Stop()
}

// RunNow triggers an immediate tick in the background. It is dropped when
// a tick is already running.
func (s *Scheduler) RunNow() {
	go s.runExclusive()
}

func (s *Scheduler) runExclusive() {
	if !s.ticking.TryLock() {
		s.logger.Debug("Refresh tick already running, skipping")
		return
	}
	defer s.ticking.Unlock()
	s.Tick(context.Background())
}

// Tick evaluates the refresh policy once and records the outcome.
func (s *Scheduler) Tick(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	startTime := time.Now()
	decision, err := s.refresher.AutoRefresh(ctx)
	duration := time.Since(startTime)

	s.mu.Lock()
	s.lastRun = startTime
	s.lastDecision = &decision
	s.lastErr = ""
	if err != nil {
		s.lastErr = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Automatic refresh failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", duration),
		)
		return
	}

	if decision.Trigger {
		s.logger.Info("Automatic refresh completed",
			slog.Int("today_count", decision.TodayCount+1),
			slog.Duration("duration", duration),
		)
		return
	}
	s.logger.Debug("Automatic refresh skipped",
		slog.Bool("stale", decision.Stale),
		slog.Bool("under_quota", decision.UnderQuota),
	)
}

// GetNextRunTime returns the next scheduled run time
func (s *Scheduler) GetNextRunTime() time.Time {
	if s.entryID == 0 {
		return time.Time{}
	}
	entry := s.cron.Entry(s.entryID)
	return entry.Next
}

// IsRunning returns true if the scheduler is running
func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}

// Status summarizes the schedule and the last tick.
func (s *Scheduler) Status() Status {
	st := Status{
		Enabled:  s.config.Enabled,
		Running:  s.IsRunning(),
		Schedule: s.config.Schedule,
	}
	if next := s.GetNextRunTime(); !next.IsZero() {
		st.NextRun = &next
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.lastRun.IsZero() {
		last := s.lastRun
		st.LastRun = &last
	}
	if s.lastDecision != nil {
		d := *s.lastDecision
		st.LastDecision = &d
	}
	st.LastError = s.lastErr
	return st
}
