package backup

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/rpggio/breakwatch/internal/domain/activity"
	"github.com/rpggio/breakwatch/internal/domain/syncconfig"
)

// Service exports and restores documents.
type Service struct {
	store    Store
	reports  ReportSource
	activity ActivityLogger
	metrics  Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new backup service. activityLog may be nil.
func NewService(store Store, reports ReportSource, activityLog ActivityLogger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		store:    store,
		reports:  reports,
		activity: activityLog,
		logger:   logger,
		now:      time.Now,
	}
}

// SetClock replaces the clock used for exportedAt.
func (s *Service) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// SetRecorder attaches restore metrics.
func (s *Service) SetRecorder(r Recorder) {
	s.metrics = r
}

// ExportBackup captures events, identities, and sync config.
func (s *Service) ExportBackup(ctx context.Context) (*BackupDocument, error) {
	contents, err := s.store.Export(ctx)
	if err != nil {
		return nil, fmt.Errorf("exporting backup: %w", err)
	}
	cfg := contents.SyncConfig
	if cfg.SyncIntervalMinutes < 1 {
		cfg.SyncIntervalMinutes = syncconfig.DefaultIntervalMinutes
	}
	return &BackupDocument{
		Events:     contents.Events,
		Identities: contents.Identities,
		SyncConfig: &cfg,
		ExportedAt: s.now(),
		Version:    DocumentVersion,
	}, nil
}

// ExportReport runs an analysis and returns the report document.
func (s *Service) ExportReport(ctx context.Context) (*ReportDocument, error) {
	res, err := s.reports.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("exporting report: %w", err)
	}
	return NewReportDocument(res, s.now()), nil
}

// LongBreaksCSV runs an analysis and writes its long breaks as CSV.
func (s *Service) LongBreaksCSV(ctx context.Context, w io.Writer) error {
	res, err := s.reports.Run(ctx)
	if err != nil {
		return fmt.Errorf("exporting long breaks: %w", err)
	}
	return WriteLongBreaksCSV(w, res.LongBreaks)
}

// Restore decodes r completely and then replaces the present sections in one
// transaction. On any error the stores are unchanged.
func (s *Service) Restore(ctx context.Context, r io.Reader) (*RestoreResult, error) {
	set, err := DecodeBackup(r)
	if err != nil {
		s.finish("error")
		s.logger.Warn("backup restore rejected", "error", err)
		return nil, err
	}
	return s.apply(ctx, set)
}

// RestoreRemote restores a document pulled from a sync endpoint. The local
// sync configuration is kept even when the document carries one.
func (s *Service) RestoreRemote(ctx context.Context, r io.Reader) (*RestoreResult, error) {
	set, err := DecodeBackup(r)
	if err != nil {
		s.finish("error")
		s.logger.Warn("remote restore rejected", "error", err)
		return nil, err
	}
	set.SyncConfig = nil
	if set.Empty() {
		return &RestoreResult{}, nil
	}
	return s.apply(ctx, set)
}

func (s *Service) apply(ctx context.Context, set ReplaceSet) (*RestoreResult, error) {
	if err := s.store.Replace(ctx, set); err != nil {
		s.finish("error")
		return nil, fmt.Errorf("restoring backup: %w", err)
	}
	s.finish("ok")

	result := &RestoreResult{Sections: set.Sections(), SyncConfig: set.SyncConfig != nil}
	if set.Events != nil {
		result.Events = len(*set.Events)
	}
	if set.Identities != nil {
		result.Identities = len(*set.Identities)
	}

	s.logger.Info("backup restored", "sections", result.Sections, "events", result.Events, "identities", result.Identities)
	if s.activity != nil {
		entry := &activity.ActivityEntry{
			ActivityType: activity.TypeBackupRestored,
			Summary:      "restored " + strings.Join(result.Sections, ", "),
			Details:      activity.Details(result),
			CreatedAt:    s.now(),
		}
		if err := s.activity.LogActivity(ctx, entry); err != nil {
			s.logger.Warn("failed to log restore activity", "error", err)
		}
	}
	return result, nil
}

func (s *Service) finish(result string) {
	if s.metrics != nil {
		s.metrics.RestoreFinished(result)
	}
}
