package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rpggio/breakwatch/internal/analysis"
	"github.com/rpggio/breakwatch/internal/backup"
	"github.com/rpggio/breakwatch/internal/domain/activity"
	"github.com/rpggio/breakwatch/internal/domain/identity"
	"github.com/rpggio/breakwatch/internal/domain/scan"
	"github.com/rpggio/breakwatch/internal/domain/syncconfig"
	"github.com/rpggio/breakwatch/internal/syncer"
)

// ScanService defines event store operations needed by MCP.
type ScanService interface {
	Ingest(ctx context.Context, req scan.IngestRequest) (*scan.Event, error)
	List(ctx context.Context, opts scan.ListOptions) ([]scan.Event, error)
	Clear(ctx context.Context) (int64, error)
	HistoryCSV(ctx context.Context, w io.Writer, opts scan.ListOptions) error
	DaysWithRecords(events []scan.Event) int
}

// IdentityService defines registry operations needed by MCP.
type IdentityService interface {
	Create(ctx context.Context, req identity.CreateRequest) (*identity.Identity, error)
	Update(ctx context.Context, req identity.UpdateRequest) (*identity.Identity, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*identity.Identity, error)
	FindByBadgeCode(ctx context.Context, code string) (*identity.Identity, error)
	List(ctx context.Context, search string) ([]identity.Identity, error)
}

// AnalysisService defines analysis runs needed by MCP.
type AnalysisService interface {
	Run(ctx context.Context) (*analysis.Result, error)
	RunWith(ctx context.Context, opts analysis.Options) (*analysis.Result, error)
}

// BackupService defines export and restore operations needed by MCP.
type BackupService interface {
	ExportBackup(ctx context.Context) (*backup.BackupDocument, error)
	ExportReport(ctx context.Context) (*backup.ReportDocument, error)
	LongBreaksCSV(ctx context.Context, w io.Writer) error
	Restore(ctx context.Context, r io.Reader) (*backup.RestoreResult, error)
}

// SyncService defines remote sync operations needed by MCP.
type SyncService interface {
	Get(ctx context.Context) (syncconfig.Config, error)
	Configure(ctx context.Context, req syncer.ConfigureRequest) (syncconfig.Config, error)
	SetAutoSync(ctx context.Context, enabled bool) (syncconfig.Config, error)
	Disconnect(ctx context.Context) (syncconfig.Config, error)
	Push(ctx context.Context) (syncconfig.Config, error)
	Pull(ctx context.Context) (*syncer.PullResult, error)
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Scans      ScanService
	Identities IdentityService
	Analysis   AnalysisService
	Backups    BackupService
	Sync       SyncService
	Activity   ActivityService
}

// Handler dispatches tool calls to domain services. It serves both the MCP
// server and the JSON-RPC HTTP endpoint.
type Handler struct {
	svc Services
	now func() time.Time
}

// NewHandler creates a new MCP handler.
func NewHandler(svc Services) *Handler {
	return &Handler{svc: svc, now: time.Now}
}

// SetClock replaces the clock used for export filenames and ping.
func (h *Handler) SetClock(now func() time.Time) {
	if now != nil {
		h.now = now
	}
}

// Handle dispatches MCP requests to domain services.
func (h *Handler) Handle(ctx context.Context, method string, params json.RawMessage) (any, error) {
	switch method {
	case "record_scan":
		var req RecordScanParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		ev, err := h.svc.Scans.Ingest(ctx, scan.IngestRequest{
			BadgeCode: req.BadgeCode,
			Timestamp: req.Timestamp,
			Status:    scan.Status(req.Status),
		})
		if err != nil {
			return nil, mapError(err)
		}
		return ev, nil
	case "list_scans":
		var req ListScansParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		events, err := h.svc.Scans.List(ctx, scan.ListOptions{
			BadgeCode: req.BadgeCode,
			Day:       req.Day,
			Limit:     req.Limit,
			Offset:    req.Offset,
		})
		if err != nil {
			return nil, mapError(err)
		}
		return ScanListResponse{
			Scans:           events,
			Total:           len(events),
			DaysWithRecords: h.svc.Scans.DaysWithRecords(events),
		}, nil
	case "clear_scans":
		n, err := h.svc.Scans.Clear(ctx)
		if err != nil {
			return nil, mapError(err)
		}
		return ClearScansResponse{Removed: n}, nil
	case "register_identity":
		var req RegisterIdentityParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		ident, err := h.svc.Identities.Create(ctx, identity.CreateRequest{
			Name:        req.Name,
			ExternalRef: req.ExternalRef,
			BadgeCode:   req.BadgeCode,
		})
		if err != nil {
			return nil, mapError(err)
		}
		return ident, nil
	case "update_identity":
		var req UpdateIdentityParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		ident, err := h.svc.Identities.Update(ctx, identity.UpdateRequest{
			ID:          req.ID,
			Name:        req.Name,
			ExternalRef: req.ExternalRef,
			BadgeCode:   req.BadgeCode,
		})
		if err != nil {
			return nil, mapError(err)
		}
		return ident, nil
	case "delete_identity":
		var req DeleteIdentityParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.svc.Identities.Delete(ctx, req.ID); err != nil {
			return nil, mapError(err)
		}
		return DeleteIdentityResponse{ID: req.ID, Deleted: true}, nil
	case "get_identity":
		var req GetIdentityParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		var ident *identity.Identity
		var err error
		if req.ID == "" && req.BadgeCode != "" {
			ident, err = h.svc.Identities.FindByBadgeCode(ctx, req.BadgeCode)
		} else {
			ident, err = h.svc.Identities.Get(ctx, req.ID)
		}
		if err != nil {
			return nil, mapError(err)
		}
		return ident, nil
	case "list_identities":
		var req ListIdentitiesParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		idents, err := h.svc.Identities.List(ctx, req.Search)
		if err != nil {
			return nil, mapError(err)
		}
		return idents, nil
	case "analyze":
		var req AnalyzeParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		res, err := h.svc.Analysis.Run(ctx)
		if err != nil {
			return nil, mapError(err)
		}
		records := analysis.FilterRecords(res.Records, analysis.RecordFilter{BadgeCode: req.BadgeCode, Day: req.Day})
		return AnalyzeResponse{
			Records:     records,
			Processing:  analysis.Process(records),
			GeneratedAt: res.GeneratedAt,
		}, nil
	case "get_dashboard":
		var req DashboardParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if req.TrendDays < 0 || req.TrendDays > analysis.MaxTrendDays {
			return nil, invalidParams(fmt.Errorf("trend_days must be between 0 and %d", analysis.MaxTrendDays))
		}
		res, err := h.svc.Analysis.RunWith(ctx, analysis.Options{TrendDays: req.TrendDays})
		if err != nil {
			return nil, mapError(err)
		}
		return DashboardResponse{
			LongBreaks:      res.LongBreaks,
			DailyStats:      res.DailyStats,
			Distribution:    res.Distribution,
			Summary:         res.Summary,
			Processing:      res.Processing,
			DaysWithRecords: distinctRecordDays(res.Records),
			GeneratedAt:     res.GeneratedAt,
		}, nil
	case "export_report":
		doc, err := h.svc.Backups.ExportReport(ctx)
		if err != nil {
			return nil, mapError(err)
		}
		return doc, nil
	case "export_long_breaks_csv":
		var buf bytes.Buffer
		if err := h.svc.Backups.LongBreaksCSV(ctx, &buf); err != nil {
			return nil, mapError(err)
		}
		return CSVResponse{Filename: h.filename("long-breaks", "csv"), Content: buf.String()}, nil
	case "export_history_csv":
		var req ListScansParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := h.svc.Scans.HistoryCSV(ctx, &buf, scan.ListOptions{BadgeCode: req.BadgeCode, Day: req.Day}); err != nil {
			return nil, mapError(err)
		}
		return CSVResponse{Filename: h.filename("scan-history", "csv"), Content: buf.String()}, nil
	case "export_backup":
		doc, err := h.svc.Backups.ExportBackup(ctx)
		if err != nil {
			return nil, mapError(err)
		}
		return doc, nil
	case "restore_backup":
		var req RestoreBackupParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		doc := []byte(req.Document)
		// a document passed as a JSON string is unwrapped first
		var text string
		if json.Unmarshal(doc, &text) == nil {
			doc = []byte(text)
		}
		result, err := h.svc.Backups.Restore(ctx, bytes.NewReader(doc))
		if err != nil {
			return nil, mapError(err)
		}
		return result, nil
	case "get_sync_config":
		cfg, err := h.svc.Sync.Get(ctx)
		if err != nil {
			return nil, mapError(err)
		}
		return cfg, nil
	case "configure_sync":
		var req ConfigureSyncParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		cfg, err := h.svc.Sync.Configure(ctx, syncer.ConfigureRequest{
			EndpointURL:         req.EndpointURL,
			AutoSync:            req.AutoSync,
			SyncIntervalMinutes: req.SyncInterval,
		})
		if err != nil {
			return nil, mapError(err)
		}
		return cfg, nil
	case "set_auto_sync":
		var req SetAutoSyncParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		cfg, err := h.svc.Sync.SetAutoSync(ctx, req.Enabled)
		if err != nil {
			return nil, mapError(err)
		}
		return cfg, nil
	case "disconnect_sync":
		cfg, err := h.svc.Sync.Disconnect(ctx)
		if err != nil {
			return nil, mapError(err)
		}
		return cfg, nil
	case "sync_push":
		cfg, err := h.svc.Sync.Push(ctx)
		if err != nil {
			return nil, mapError(err)
		}
		return cfg, nil
	case "sync_pull":
		result, err := h.svc.Sync.Pull(ctx)
		if err != nil {
			return nil, mapError(err)
		}
		return result, nil
	case "get_recent_activity":
		var req GetRecentActivityParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		opts := activity.ListActivityOptions{
			BadgeCode: req.BadgeCode,
			SubjectID: req.SubjectID,
			Limit:     req.Limit,
			Offset:    req.Offset,
		}
		if req.Type != "" {
			typ := activity.ActivityType(req.Type)
			opts.ActivityType = &typ
		}
		entries, err := h.svc.Activity.GetRecentActivity(ctx, opts)
		if err != nil {
			return nil, mapError(err)
		}
		resp := make([]ActivityEntryResponse, 0, len(entries))
		for _, entry := range entries {
			resp = append(resp, ActivityEntryResponse{
				Timestamp: entry.CreatedAt,
				Type:      entry.ActivityType,
				BadgeCode: entry.BadgeCode,
				SubjectID: entry.SubjectID,
				Summary:   entry.Summary,
				Details:   entry.Details,
			})
		}
		return resp, nil
	case "ping":
		return PingResponse{Status: "ok", Time: h.now()}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
}

func decodeParams(params json.RawMessage, out any) error {
	trimmed := bytes.TrimSpace(params)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return invalidParams(err)
	}
	return nil
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}

func (h *Handler) filename(prefix, ext string) string {
	return fmt.Sprintf("%s-%s.%s", prefix, h.now().Format("2006-01-02"), ext)
}

func distinctRecordDays(records []analysis.IntervalRecord) int {
	seen := make(map[analysis.Day]struct{}, len(records))
	for _, rec := range records {
		seen[rec.Day] = struct{}{}
	}
	return len(seen)
}
