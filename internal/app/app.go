// Package app wires the repositories and services behind every entry point.
package app

import (
	"log/slog"
	"time"

	"github.com/rpggio/breakwatch/internal/analysis"
	"github.com/rpggio/breakwatch/internal/backup"
	"github.com/rpggio/breakwatch/internal/domain/activity"
	"github.com/rpggio/breakwatch/internal/domain/identity"
	"github.com/rpggio/breakwatch/internal/domain/scan"
	"github.com/rpggio/breakwatch/internal/mcp"
	"github.com/rpggio/breakwatch/internal/metrics"
	"github.com/rpggio/breakwatch/internal/sqlite"
	"github.com/rpggio/breakwatch/internal/syncer"
	"github.com/rpggio/breakwatch/internal/transport"
)

// Options tunes the wiring. Zero values fall back to production defaults.
type Options struct {
	Location  *time.Location
	TrendDays int
	// Transport moves sync documents. Nil means HTTP.
	Transport    syncer.Transport
	SyncRetryMax int
	SyncTimeout  time.Duration
	Metrics      *metrics.Metrics
	Logger       *slog.Logger
	Now          func() time.Time
}

// App holds the wired services for one database.
type App struct {
	Scans      *scan.Service
	Identities *identity.Service
	Activity   *activity.Service
	Analysis   *analysis.Service
	Backups    *backup.Service
	Sync       *syncer.Service
	Metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

// New builds every service on top of db.
func New(db *sqlite.DB, opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}
	tr := opts.Transport
	if tr == nil {
		tr = syncer.NewHTTPTransport(opts.SyncRetryMax, opts.SyncTimeout, logger)
	}

	store := sqlite.NewStoreRepository(db)

	activitySvc := activity.NewService(sqlite.NewActivityRepository(db), logger)
	activitySvc.SetClock(now)

	scanSvc := scan.NewService(sqlite.NewScanRepository(db), activitySvc, logger,
		scan.WithClock(now),
		scan.WithLocation(loc),
		scan.WithRecorder(m),
	)

	identitySvc := identity.NewService(sqlite.NewIdentityRepository(db), activitySvc, logger)
	identitySvc.SetClock(now)

	analysisSvc := analysis.NewService(store, analysis.Options{Location: loc, TrendDays: opts.TrendDays}, logger)
	analysisSvc.SetClock(now)
	analysisSvc.SetRecorder(m)

	backupSvc := backup.NewService(store, analysisSvc, activitySvc, logger)
	backupSvc.SetClock(now)
	backupSvc.SetRecorder(m)

	syncSvc := syncer.NewService(sqlite.NewSyncConfigRepository(db), tr, backupSvc, activitySvc, logger)
	syncSvc.SetClock(now)

	return &App{
		Scans:      scanSvc,
		Identities: identitySvc,
		Activity:   activitySvc,
		Analysis:   analysisSvc,
		Backups:    backupSvc,
		Sync:       syncSvc,
		Metrics:    m,
		logger:     logger,
		now:        now,
	}
}

// Services exposes the app to the MCP layer.
func (a *App) Services() mcp.Services {
	return mcp.Services{
		Scans:      a.Scans,
		Identities: a.Identities,
		Analysis:   a.Analysis,
		Backups:    a.Backups,
		Sync:       a.Sync,
		Activity:   a.Activity,
	}
}

// Handler returns the dispatch handler shared by MCP and JSON-RPC.
func (a *App) Handler() *mcp.Handler {
	h := mcp.NewHandler(a.Services())
	h.SetClock(a.now)
	return h
}

// MCPConfig describes an MCP server over this app's services and clock.
func (a *App) MCPConfig(transportMode string) mcp.Config {
	return mcp.Config{
		Services:      a.Services(),
		TransportMode: transportMode,
		Logger:        a.logger,
		Now:           a.now,
	}
}

// HTTPConfig describes the HTTP surface without the MCP streamable endpoint.
func (a *App) HTTPConfig() transport.Config {
	return transport.Config{
		Handler: a.Handler(),
		Backups: a.Backups,
		History: a.Scans,
		Metrics: a.Metrics.Handler(),
		Logger:  a.logger,
		Now:     a.now,
	}
}
