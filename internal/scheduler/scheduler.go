package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/footprint/internal/config"
	"github.com/mamadbah2/footprint/internal/domain/models"
	"github.com/mamadbah2/footprint/pkg/metrics"
)

const jobTimeout = 2 * time.Minute

// CommunityReader reads the community totals.
type CommunityReader interface {
	GetCommunity(ctx context.Context) (models.CommunityEmissionsData, error)
}

// SnapshotWriter records a community snapshot.
type SnapshotWriter interface {
	Append(ctx context.Context, data models.CommunityEmissionsData, at time.Time) error
}

// SessionSweeper evicts idle survey sessions.
type SessionSweeper interface {
	Sweep(maxIdle time.Duration) int
	Len() int
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron      *cron.Cron
	community CommunityReader
	ledger    SnapshotWriter
	sessions  SessionSweeper
	metrics   *metrics.Collector
	cfg       config.Config
	logger    *zap.Logger
	now       func() time.Time
}

// NewScheduler creates a new scheduler instance. A nil ledger disables the
// snapshot job and a nil sessions disables the sweep.
func NewScheduler(cfg config.Config, community CommunityReader, ledger SnapshotWriter, sessions SessionSweeper, collector *metrics.Collector, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := cfg.Reporting.Location()
	if err != nil {
		logger.Warn("invalid scheduler time zone, using UTC", zap.String("timezone", cfg.Reporting.Timezone), zap.Error(err))
		loc = time.UTC
	}

	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		community: community,
		ledger:    ledger,
		sessions:  sessions,
		metrics:   collector,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Start registers the jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler")

	if s.ledger != nil && s.community != nil {
		if _, err := s.cron.AddFunc(s.cfg.Reporting.SnapshotSchedule, s.snapshotCommunity); err != nil {
			return fmt.Errorf("schedule community snapshot: %w", err)
		}
	}

	if s.sessions != nil {
		if _, err := s.cron.AddFunc(s.cfg.Reporting.SweepSchedule, s.sweepSessions); err != nil {
			return fmt.Errorf("schedule session sweep: %w", err)
		}
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) snapshotCommunity() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := s.SnapshotCommunity(ctx); err != nil {
		s.logger.Error("community snapshot failed", zap.Error(err))
	}
}

// SnapshotCommunity reads the community totals and appends them to the ledger.
func (s *Scheduler) SnapshotCommunity(ctx context.Context) error {
	data, err := s.community.GetCommunity(ctx)
	if err != nil {
		s.metrics.RecordSnapshot("error")
		return fmt.Errorf("read community totals: %w", err)
	}

	if err := s.ledger.Append(ctx, data, s.now()); err != nil {
		s.metrics.RecordSnapshot("error")
		return err
	}

	s.metrics.RecordSnapshot("ok")
	s.logger.Info("community snapshot recorded",
		zap.Float64("emissions_calculated", data.EmissionsCalculated),
		zap.Float64("emissions_offset", data.EmissionsOffset),
	)
	return nil
}

func (s *Scheduler) sweepSessions() {
	s.SweepSessions()
}

// SweepSessions evicts sessions idle longer than the configured TTL and
// returns how many were removed.
func (s *Scheduler) SweepSessions() int {
	removed := s.sessions.Sweep(s.cfg.Survey.SessionTTL)
	s.metrics.SetActiveSessions(s.sessions.Len())
	if removed > 0 {
		s.logger.Info("expired survey sessions swept", zap.Int("removed", removed))
	}
	return removed
}
