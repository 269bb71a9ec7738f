package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rpggio/breakwatch/internal/domain/identity"
	"github.com/rpggio/breakwatch/internal/domain/scan"
)

// ErrTrendWindow indicates a trend window above MaxTrendDays.
var ErrTrendWindow = errors.New("trend window too large")

// Snapshot is one consistent read of the event store and identity registry.
type Snapshot struct {
	Events     []scan.Event
	Identities []identity.Identity
}

// SnapshotSource provides consistent snapshots.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// Recorder receives run measurements.
type Recorder interface {
	AnalysisCompleted(elapsed time.Duration, intervals int)
}

// RecordFilter narrows the record list. BadgeCode matches as a
// case-insensitive substring; Day is YYYY-MM-DD.
type RecordFilter struct {
	BadgeCode string
	Day       string
}

// Service runs analyses on demand. Runs are serialized: a trigger that
// arrives during a run waits and then analyzes a fresh snapshot.
type Service struct {
	mu      sync.Mutex
	source  SnapshotSource
	opts    Options
	now     func() time.Time
	logger  *slog.Logger
	metrics Recorder
}

// NewService creates a new analysis service.
func NewService(source SnapshotSource, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		source: source,
		opts:   opts.withDefaults(),
		now:    time.Now,
		logger: logger,
	}
}

// SetClock replaces the clock that anchors the trend window.
func (s *Service) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// SetRecorder attaches run metrics.
func (s *Service) SetRecorder(r Recorder) {
	s.metrics = r
}

// Options returns the effective run options.
func (s *Service) Options() Options {
	return s.opts
}

// Run analyzes the current snapshot.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	return s.RunWith(ctx, s.opts)
}

// RunWith analyzes the current snapshot with opts. Zero fields fall back to
// the service options.
func (s *Service) RunWith(ctx context.Context, opts Options) (*Result, error) {
	if opts.Location == nil {
		opts.Location = s.opts.Location
	}
	if opts.TrendDays < 1 {
		opts.TrendDays = s.opts.TrendDays
	}
	if opts.TrendDays > MaxTrendDays {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrTrendWindow, opts.TrendDays, MaxTrendDays)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	started := time.Now()
	snap, err := s.source.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading analysis snapshot: %w", err)
	}

	res := Analyze(snap.Events, snap.Identities, s.now(), opts)
	elapsed := time.Since(started)

	if s.metrics != nil {
		s.metrics.AnalysisCompleted(elapsed, res.Summary.TotalIntervals)
	}
	s.logger.Debug("analysis completed",
		"events", len(snap.Events),
		"records", len(res.Records),
		"long_breaks", len(res.LongBreaks),
		"elapsed", elapsed,
	)
	return &res, nil
}

// Records runs an analysis and returns the records matching filter.
func (s *Service) Records(ctx context.Context, filter RecordFilter) ([]IntervalRecord, error) {
	res, err := s.Run(ctx)
	if err != nil {
		return nil, err
	}
	return FilterRecords(res.Records, filter), nil
}

// FilterRecords keeps records matching filter, preserving order.
func FilterRecords(records []IntervalRecord, filter RecordFilter) []IntervalRecord {
	badge := strings.ToUpper(strings.TrimSpace(filter.BadgeCode))
	day := strings.TrimSpace(filter.Day)
	out := make([]IntervalRecord, 0, len(records))
	for _, rec := range records {
		if badge != "" && !strings.Contains(strings.ToUpper(rec.BadgeCode), badge) {
			continue
		}
		if day != "" && rec.Day.String() != day {
			continue
		}
		out = append(out, rec)
	}
	return out
}
