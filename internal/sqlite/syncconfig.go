package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rpggio/breakwatch/internal/domain/syncconfig"
)

// SyncConfigRepository implements syncconfig.Repository for SQLite
type SyncConfigRepository struct {
	db *DB
}

// NewSyncConfigRepository creates a new SyncConfigRepository
func NewSyncConfigRepository(db *DB) *SyncConfigRepository {
	return &SyncConfigRepository{db: db}
}

// Get returns the stored configuration, or the default when none was saved
func (r *SyncConfigRepository) Get(ctx context.Context) (syncconfig.Config, error) {
	return loadSyncConfig(ctx, r.db)
}

// Save stores cfg, replacing the previous configuration
func (r *SyncConfigRepository) Save(ctx context.Context, cfg syncconfig.Config) error {
	return saveSyncConfig(ctx, r.db, cfg)
}

func loadSyncConfig(ctx context.Context, q queryer) (syncconfig.Config, error) {
	var cfg syncconfig.Config
	var lastSync sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT endpoint_url, auto_sync, sync_interval, last_sync FROM sync_config WHERE id = 1`,
	).Scan(&cfg.EndpointURL, &cfg.AutoSync, &cfg.SyncIntervalMinutes, &lastSync)
	if errors.Is(err, sql.ErrNoRows) {
		return syncconfig.Default(), nil
	}
	if err != nil {
		return syncconfig.Config{}, fmt.Errorf("failed to get sync config: %w", err)
	}
	if lastSync.Valid && lastSync.String != "" {
		ts, err := parseTime(lastSync.String)
		if err != nil {
			return syncconfig.Config{}, err
		}
		cfg.LastSync = &ts
	}
	return cfg, nil
}

func saveSyncConfig(ctx context.Context, q queryer, cfg syncconfig.Config) error {
	var lastSync any
	if cfg.LastSync != nil {
		lastSync = formatTime(*cfg.LastSync)
	}
	interval := cfg.SyncIntervalMinutes
	if interval < 1 {
		interval = syncconfig.DefaultIntervalMinutes
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO sync_config (id, endpoint_url, auto_sync, sync_interval, last_sync)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			endpoint_url = excluded.endpoint_url,
			auto_sync = excluded.auto_sync,
			sync_interval = excluded.sync_interval,
			last_sync = excluded.last_sync
	`, cfg.EndpointURL, cfg.AutoSync, interval, lastSync)
	if err != nil {
		return fmt.Errorf("failed to save sync config: %w", err)
	}
	return nil
}
