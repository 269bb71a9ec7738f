package syncer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rpggio/breakwatch/internal/backup"
	"github.com/rpggio/breakwatch/internal/domain/activity"
	"github.com/rpggio/breakwatch/internal/domain/syncconfig"
)

// ConfigureRequest updates the sync configuration. Nil fields keep their
// current value.
type ConfigureRequest struct {
	EndpointURL         string `json:"endpoint_url"`
	AutoSync            *bool  `json:"auto_sync,omitempty"`
	SyncIntervalMinutes *int   `json:"sync_interval,omitempty"`
}

// PullResult describes what a pull replaced.
type PullResult struct {
	Restore  *backup.RestoreResult `json:"restore"`
	LastSync time.Time             `json:"last_sync"`
}

// Service manages the remote sync configuration and moves backups through
// a Transport.
type Service struct {
	repo      syncconfig.Repository
	transport Transport
	backups   Backups
	activity  ActivityLogger
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a sync service. activityLog may be nil.
func NewService(repo syncconfig.Repository, transport Transport, backups Backups, activityLog ActivityLogger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		repo:      repo,
		transport: transport,
		backups:   backups,
		activity:  activityLog,
		logger:    logger,
		now:       time.Now,
	}
}

// SetClock replaces the clock used for lastSync.
func (s *Service) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Get returns the current configuration.
func (s *Service) Get(ctx context.Context) (syncconfig.Config, error) {
	cfg, err := s.repo.Get(ctx)
	if err != nil {
		return syncconfig.Config{}, fmt.Errorf("loading sync config: %w", err)
	}
	if cfg.SyncIntervalMinutes < 1 {
		cfg.SyncIntervalMinutes = syncconfig.DefaultIntervalMinutes
	}
	return cfg, nil
}

// Configure validates and stores a new endpoint. Changing the endpoint
// resets lastSync.
func (s *Service) Configure(ctx context.Context, req ConfigureRequest) (syncconfig.Config, error) {
	endpoint := strings.TrimSpace(req.EndpointURL)
	if endpoint == "" {
		return syncconfig.Config{}, fmt.Errorf("%w: endpoint_url is required", ErrInvalidConfig)
	}
	if err := backup.ValidateEndpoint(endpoint); err != nil {
		return syncconfig.Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if req.SyncIntervalMinutes != nil && *req.SyncIntervalMinutes < 1 {
		return syncconfig.Config{}, fmt.Errorf("%w: sync_interval must be at least 1", ErrInvalidConfig)
	}

	cfg, err := s.Get(ctx)
	if err != nil {
		return syncconfig.Config{}, err
	}
	if cfg.EndpointURL != endpoint {
		cfg.LastSync = nil
	}
	cfg.EndpointURL = endpoint
	if req.AutoSync != nil {
		cfg.AutoSync = *req.AutoSync
	}
	if req.SyncIntervalMinutes != nil {
		cfg.SyncIntervalMinutes = *req.SyncIntervalMinutes
	}
	if err := s.repo.Save(ctx, cfg); err != nil {
		return syncconfig.Config{}, fmt.Errorf("saving sync config: %w", err)
	}

	s.logger.Info("sync configured", "endpoint", cfg.EndpointURL, "auto_sync", cfg.AutoSync, "interval_minutes", cfg.SyncIntervalMinutes)
	s.logActivity(ctx, activity.TypeSyncConfigured, "connected to "+cfg.EndpointURL, cfg)
	return cfg, nil
}

// SetAutoSync toggles periodic pushes. Enabling requires an endpoint.
func (s *Service) SetAutoSync(ctx context.Context, enabled bool) (syncconfig.Config, error) {
	cfg, err := s.Get(ctx)
	if err != nil {
		return syncconfig.Config{}, err
	}
	if enabled && !cfg.Connected() {
		return syncconfig.Config{}, ErrNotConfigured
	}
	if cfg.AutoSync == enabled {
		return cfg, nil
	}
	cfg.AutoSync = enabled
	if err := s.repo.Save(ctx, cfg); err != nil {
		return syncconfig.Config{}, fmt.Errorf("saving sync config: %w", err)
	}
	s.logActivity(ctx, activity.TypeSyncConfigured, fmt.Sprintf("auto sync %s", onOff(enabled)), cfg)
	return cfg, nil
}

// Disconnect clears the endpoint, disables auto sync, and forgets lastSync.
// The interval is kept.
func (s *Service) Disconnect(ctx context.Context) (syncconfig.Config, error) {
	cfg, err := s.Get(ctx)
	if err != nil {
		return syncconfig.Config{}, err
	}
	previous := cfg.EndpointURL
	cfg.EndpointURL = ""
	cfg.AutoSync = false
	cfg.LastSync = nil
	if err := s.repo.Save(ctx, cfg); err != nil {
		return syncconfig.Config{}, fmt.Errorf("saving sync config: %w", err)
	}
	if previous != "" {
		s.logger.Info("sync disconnected", "endpoint", previous)
		s.logActivity(ctx, activity.TypeSyncDisconnected, "disconnected from "+previous, nil)
	}
	return cfg, nil
}

// Push exports a full backup and uploads it to the configured endpoint.
func (s *Service) Push(ctx context.Context) (syncconfig.Config, error) {
	cfg, err := s.connected(ctx)
	if err != nil {
		return syncconfig.Config{}, err
	}

	doc, err := s.backups.ExportBackup(ctx)
	if err != nil {
		return syncconfig.Config{}, err
	}
	var buf bytes.Buffer
	if err := backup.EncodeBackup(&buf, doc); err != nil {
		return syncconfig.Config{}, err
	}
	if err := s.transport.Push(ctx, cfg.EndpointURL, buf.Bytes()); err != nil {
		s.logger.Warn("sync push failed", "endpoint", cfg.EndpointURL, "error", err)
		return syncconfig.Config{}, err
	}

	synced := s.now()
	cfg.LastSync = &synced
	if err := s.repo.Save(ctx, cfg); err != nil {
		return syncconfig.Config{}, fmt.Errorf("saving sync config: %w", err)
	}

	s.logger.Info("sync push complete", "endpoint", cfg.EndpointURL, "events", len(doc.Events), "identities", len(doc.Identities))
	s.logActivity(ctx, activity.TypeSyncPushed, fmt.Sprintf("pushed %d events, %d identities", len(doc.Events), len(doc.Identities)), map[string]int{
		"events":     len(doc.Events),
		"identities": len(doc.Identities),
	})
	return cfg, nil
}

// Pull downloads the remote document and restores it. The local sync
// configuration is never replaced by a pull.
func (s *Service) Pull(ctx context.Context) (*PullResult, error) {
	cfg, err := s.connected(ctx)
	if err != nil {
		return nil, err
	}

	data, err := s.transport.Pull(ctx, cfg.EndpointURL)
	if err != nil {
		s.logger.Warn("sync pull failed", "endpoint", cfg.EndpointURL, "error", err)
		return nil, err
	}
	restored, err := s.backups.RestoreRemote(ctx, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	synced := s.now()
	cfg.LastSync = &synced
	if err := s.repo.Save(ctx, cfg); err != nil {
		return nil, fmt.Errorf("saving sync config: %w", err)
	}

	s.logActivity(ctx, activity.TypeSyncPulled, "pulled "+strings.Join(restored.Sections, ", "), restored)
	return &PullResult{Restore: restored, LastSync: synced}, nil
}

// RunAutoSync pushes whenever auto sync is enabled and the configured
// interval has elapsed since the last sync. The configuration is re-read on
// every poll so changes take effect without a restart. It returns when ctx
// is done.
func (s *Service) RunAutoSync(ctx context.Context, poll time.Duration) {
	if poll <= 0 {
		poll = time.Minute
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.autoSyncOnce(ctx)
		}
	}
}

func (s *Service) autoSyncOnce(ctx context.Context) {
	cfg, err := s.Get(ctx)
	if err != nil {
		s.logger.Warn("auto sync: loading config", "error", err)
		return
	}
	if !s.due(cfg) {
		return
	}
	if _, err := s.Push(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("auto sync push failed", "error", err)
	}
}

func (s *Service) due(cfg syncconfig.Config) bool {
	if !cfg.AutoSync || !cfg.Connected() {
		return false
	}
	if cfg.LastSync == nil {
		return true
	}
	interval := time.Duration(cfg.SyncIntervalMinutes) * time.Minute
	return !s.now().Before(cfg.LastSync.Add(interval))
}

func (s *Service) connected(ctx context.Context) (syncconfig.Config, error) {
	cfg, err := s.Get(ctx)
	if err != nil {
		return syncconfig.Config{}, err
	}
	if !cfg.Connected() {
		return syncconfig.Config{}, ErrNotConfigured
	}
	return cfg, nil
}

func (s *Service) logActivity(ctx context.Context, typ activity.ActivityType, summary string, details any) {
	if s.activity == nil {
		return
	}
	entry := &activity.ActivityEntry{
		ActivityType: typ,
		Summary:      summary,
		CreatedAt:    s.now(),
	}
	if details != nil {
		entry.Details = activity.Details(details)
	}
	if err := s.activity.LogActivity(ctx, entry); err != nil {
		s.logger.Warn("failed to log sync activity", "type", typ, "error", err)
	}
}

func onOff(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}
