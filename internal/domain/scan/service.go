package scan

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/breakwatch/internal/domain/activity"
)

// Layouts accepted for reader timestamps without a zone, interpreted in the
// service location.
var localLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// Service handles scan ingestion and history.
type Service struct {
	repo     Repository
	activity ActivityLogger
	metrics  Recorder
	logger   *slog.Logger
	now      func() time.Time
	loc      *time.Location
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used for scans without a timestamp.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation sets the location for zone-less timestamps and day filters.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithRecorder attaches ingestion counters.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		s.metrics = r
	}
}

// NewService creates a new scan service. activityLog may be nil.
func NewService(repo Repository, activityLog ActivityLogger, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Service{
		repo:     repo,
		activity: activityLog,
		logger:   logger,
		now:      time.Now,
		loc:      time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest validates and stores one scan. Refused scans never reach the store;
// the refusal is returned as *IngestionError and recorded in the activity log.
func (s *Service) Ingest(ctx context.Context, req IngestRequest) (*Event, error) {
	badge := NormalizeBadgeCode(req.BadgeCode)
	if badge == "" {
		return nil, s.reject(ctx, &IngestionError{
			RawTimestamp: req.Timestamp,
			Reason:       ReasonEmptyBadgeCode,
			Err:          ErrEmptyBadgeCode,
		})
	}

	status := req.Status
	if status == "" {
		status = StatusSuccess
	}
	if !status.Valid() {
		return nil, s.reject(ctx, &IngestionError{
			BadgeCode:    badge,
			RawTimestamp: req.Timestamp,
			Reason:       ReasonInvalidStatus,
			Err:          fmt.Errorf("%w: %q", ErrInvalidStatus, req.Status),
		})
	}

	ts, err := s.parseTimestamp(req.Timestamp)
	if err != nil {
		return nil, s.reject(ctx, &IngestionError{
			BadgeCode:    badge,
			RawTimestamp: req.Timestamp,
			Reason:       ReasonInvalidTimestamp,
			Err:          err,
		})
	}

	ev := &Event{
		ID:        uuid.NewString(),
		BadgeCode: badge,
		Timestamp: ts,
		Status:    status,
	}
	if err := s.repo.Create(ctx, ev); err != nil {
		return nil, fmt.Errorf("recording scan: %w", err)
	}

	if s.metrics != nil {
		s.metrics.ScanIngested()
	}
	s.logActivity(ctx, &activity.ActivityEntry{
		ActivityType: activity.TypeScanRecorded,
		BadgeCode:    badge,
		SubjectID:    ev.ID,
		Summary:      fmt.Sprintf("scan recorded for %s", badge),
	})
	return ev, nil
}

func (s *Service) reject(ctx context.Context, ierr *IngestionError) error {
	s.logger.Warn("scan rejected", "badge_code", ierr.BadgeCode, "timestamp", ierr.RawTimestamp, "reason", ierr.Reason)
	if s.metrics != nil {
		s.metrics.ScanRejected(ierr.Reason)
	}
	s.logActivity(ctx, &activity.ActivityEntry{
		ActivityType: activity.TypeScanRejected,
		BadgeCode:    ierr.BadgeCode,
		Summary:      ierr.Error(),
		Details: activity.Details(map[string]string{
			"reason":    ierr.Reason,
			"timestamp": ierr.RawTimestamp,
		}),
	})
	return ierr
}

func (s *Service) logActivity(ctx context.Context, entry *activity.ActivityEntry) {
	if s.activity == nil {
		return
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	if err := s.activity.LogActivity(ctx, entry); err != nil {
		s.logger.Warn("failed to log scan activity", "type", entry.ActivityType, "error", err)
	}
}

func (s *Service) parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return s.now(), nil
	}
	if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return ts, nil
	}
	for _, layout := range localLayouts {
		if ts, err := time.ParseInLocation(layout, raw, s.loc); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, raw)
}

// List returns scans newest first.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]Event, error) {
	q, err := s.query(opts)
	if err != nil {
		return nil, err
	}
	events, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing scans: %w", err)
	}
	return events, nil
}

func (s *Service) query(opts ListOptions) (Query, error) {
	if opts.Limit < 0 || opts.Offset < 0 {
		return Query{}, ErrInvalidInput
	}
	q := Query{
		BadgeCode: NormalizeBadgeCode(opts.BadgeCode),
		Limit:     opts.Limit,
		Offset:    opts.Offset,
	}
	if day := strings.TrimSpace(opts.Day); day != "" {
		start, err := time.ParseInLocation("2006-01-02", day, s.loc)
		if err != nil {
			return Query{}, fmt.Errorf("%w: day must be YYYY-MM-DD", ErrInvalidInput)
		}
		end := start.AddDate(0, 0, 1)
		q.From = &start
		q.To = &end
	}
	return q, nil
}

// All returns every stored scan, oldest first.
func (s *Service) All(ctx context.Context) ([]Event, error) {
	events, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing scans: %w", err)
	}
	return events, nil
}

// Clear removes every scan and returns how many were deleted.
func (s *Service) Clear(ctx context.Context) (int64, error) {
	n, err := s.repo.Clear(ctx)
	if err != nil {
		return 0, fmt.Errorf("clearing scans: %w", err)
	}
	s.logger.Info("scan history cleared", "deleted", n)
	s.logActivity(ctx, &activity.ActivityEntry{
		ActivityType: activity.TypeHistoryCleared,
		Summary:      fmt.Sprintf("%d scans cleared", n),
	})
	return n, nil
}

// HistoryCSV writes the filtered history as CSV, newest first.
func (s *Service) HistoryCSV(ctx context.Context, w io.Writer, opts ListOptions) error {
	events, err := s.List(ctx, opts)
	if err != nil {
		return err
	}
	return WriteHistoryCSV(w, events, s.loc)
}

// WriteHistoryCSV writes events with the header Badge Code,Date,Time,Status.
func WriteHistoryCSV(w io.Writer, events []Event, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Badge Code", "Date", "Time", "Status"}); err != nil {
		return err
	}
	for _, ev := range events {
		ts := ev.Timestamp.In(loc)
		if err := cw.Write([]string{
			ev.BadgeCode,
			ts.Format("2006-01-02"),
			ts.Format("15:04:05"),
			string(ev.Status),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// DaysWithRecords counts the calendar days of events in the service location,
// the same days List filters on.
func (s *Service) DaysWithRecords(events []Event) int {
	return DistinctDays(events, s.loc)
}

// DistinctDays counts the calendar days that have at least one scan.
func DistinctDays(events []Event, loc *time.Location) int {
	if loc == nil {
		loc = time.Local
	}
	days := make(map[string]struct{}, len(events))
	for _, ev := range events {
		days[ev.Timestamp.In(loc).Format("2006-01-02")] = struct{}{}
	}
	return len(days)
}

// NormalizeBadgeCode trims and upper-cases a badge code as readers report it.
func NormalizeBadgeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsIngestionError reports whether err is a scan refusal.
func IsIngestionError(err error) bool {
	var ierr *IngestionError
	return errors.As(err, &ierr)
}
