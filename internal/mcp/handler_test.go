package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rpggio/breakwatch/internal/analysis"
	"github.com/rpggio/breakwatch/internal/backup"
	"github.com/rpggio/breakwatch/internal/domain/activity"
	"github.com/rpggio/breakwatch/internal/domain/identity"
	"github.com/rpggio/breakwatch/internal/domain/scan"
	"github.com/rpggio/breakwatch/internal/domain/syncconfig"
	"github.com/rpggio/breakwatch/internal/syncer"
	"github.com/stretchr/testify/require"
)

var handlerTime = time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC)

type scanStub struct {
	ingestFn  func(context.Context, scan.IngestRequest) (*scan.Event, error)
	listFn    func(context.Context, scan.ListOptions) ([]scan.Event, error)
	clearFn   func(context.Context) (int64, error)
	historyFn func(context.Context, io.Writer, scan.ListOptions) error
	daysFn    func([]scan.Event) int
}

func (s scanStub) Ingest(ctx context.Context, req scan.IngestRequest) (*scan.Event, error) {
	return s.ingestFn(ctx, req)
}
func (s scanStub) List(ctx context.Context, opts scan.ListOptions) ([]scan.Event, error) {
	return s.listFn(ctx, opts)
}
func (s scanStub) Clear(ctx context.Context) (int64, error) {
	return s.clearFn(ctx)
}
func (s scanStub) HistoryCSV(ctx context.Context, w io.Writer, opts scan.ListOptions) error {
	return s.historyFn(ctx, w, opts)
}
func (s scanStub) DaysWithRecords(events []scan.Event) int {
	if s.daysFn == nil {
		return scan.DistinctDays(events, time.UTC)
	}
	return s.daysFn(events)
}

type identityStub struct {
	createFn func(context.Context, identity.CreateRequest) (*identity.Identity, error)
	updateFn func(context.Context, identity.UpdateRequest) (*identity.Identity, error)
	deleteFn func(context.Context, string) error
	getFn    func(context.Context, string) (*identity.Identity, error)
	findFn   func(context.Context, string) (*identity.Identity, error)
	listFn   func(context.Context, string) ([]identity.Identity, error)
}

func (s identityStub) Create(ctx context.Context, req identity.CreateRequest) (*identity.Identity, error) {
	return s.createFn(ctx, req)
}
func (s identityStub) Update(ctx context.Context, req identity.UpdateRequest) (*identity.Identity, error) {
	return s.updateFn(ctx, req)
}
func (s identityStub) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}
func (s identityStub) Get(ctx context.Context, id string) (*identity.Identity, error) {
	return s.getFn(ctx, id)
}
func (s identityStub) FindByBadgeCode(ctx context.Context, code string) (*identity.Identity, error) {
	return s.findFn(ctx, code)
}
func (s identityStub) List(ctx context.Context, search string) ([]identity.Identity, error) {
	return s.listFn(ctx, search)
}

type analysisStub struct {
	runFn func(context.Context, analysis.Options) (*analysis.Result, error)
}

func (s analysisStub) Run(ctx context.Context) (*analysis.Result, error) {
	return s.runFn(ctx, analysis.Options{})
}
func (s analysisStub) RunWith(ctx context.Context, opts analysis.Options) (*analysis.Result, error) {
	return s.runFn(ctx, opts)
}

type backupStub struct {
	exportFn  func(context.Context) (*backup.BackupDocument, error)
	reportFn  func(context.Context) (*backup.ReportDocument, error)
	csvFn     func(context.Context, io.Writer) error
	restoreFn func(context.Context, io.Reader) (*backup.RestoreResult, error)
}

func (s backupStub) ExportBackup(ctx context.Context) (*backup.BackupDocument, error) {
	return s.exportFn(ctx)
}
func (s backupStub) ExportReport(ctx context.Context) (*backup.ReportDocument, error) {
	return s.reportFn(ctx)
}
func (s backupStub) LongBreaksCSV(ctx context.Context, w io.Writer) error {
	return s.csvFn(ctx, w)
}
func (s backupStub) Restore(ctx context.Context, r io.Reader) (*backup.RestoreResult, error) {
	return s.restoreFn(ctx, r)
}

type syncStub struct {
	getFn        func(context.Context) (syncconfig.Config, error)
	configureFn  func(context.Context, syncer.ConfigureRequest) (syncconfig.Config, error)
	autoFn       func(context.Context, bool) (syncconfig.Config, error)
	disconnectFn func(context.Context) (syncconfig.Config, error)
	pushFn       func(context.Context) (syncconfig.Config, error)
	pullFn       func(context.Context) (*syncer.PullResult, error)
}

func (s syncStub) Get(ctx context.Context) (syncconfig.Config, error) {
	return s.getFn(ctx)
}
func (s syncStub) Configure(ctx context.Context, req syncer.ConfigureRequest) (syncconfig.Config, error) {
	return s.configureFn(ctx, req)
}
func (s syncStub) SetAutoSync(ctx context.Context, enabled bool) (syncconfig.Config, error) {
	return s.autoFn(ctx, enabled)
}
func (s syncStub) Disconnect(ctx context.Context) (syncconfig.Config, error) {
	return s.disconnectFn(ctx)
}
func (s syncStub) Push(ctx context.Context) (syncconfig.Config, error) {
	return s.pushFn(ctx)
}
func (s syncStub) Pull(ctx context.Context) (*syncer.PullResult, error) {
	return s.pullFn(ctx)
}

type activityStub struct {
	listFn func(context.Context, activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

func (a activityStub) GetRecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	return a.listFn(ctx, opts)
}

func minutes(n int) *int { return &n }

func sampleResult() *analysis.Result {
	day := analysis.Day{Year: 2024, Month: time.March, Day: 9}
	records := []analysis.IntervalRecord{
		{BadgeCode: "A1", EmployeeName: "Ana", Day: day, TotalReadings: 2, IntervalMinutes: minutes(55)},
		{BadgeCode: "B2", EmployeeName: "Bia", Day: day.AddDays(1), TotalReadings: 2, IntervalMinutes: minutes(30)},
		{BadgeCode: "A1", EmployeeName: "Ana", Day: day.AddDays(1), TotalReadings: 1},
	}
	return &analysis.Result{
		Records:     records,
		LongBreaks:  records[:1],
		Summary:     analysis.Summary{TotalIntervals: 2, AverageInterval: 43},
		Processing:  analysis.Process(records),
		GeneratedAt: handlerTime,
	}
}

// newStubServices returns services whose every call succeeds with fixed data.
func newStubServices() Services {
	cfg := syncconfig.Config{EndpointURL: "https://sync.example.com/b.json", SyncIntervalMinutes: 30}
	return Services{
		Scans: scanStub{
			ingestFn: func(_ context.Context, req scan.IngestRequest) (*scan.Event, error) {
				return &scan.Event{ID: "e1", BadgeCode: req.BadgeCode, Timestamp: handlerTime, Status: scan.StatusSuccess}, nil
			},
			listFn: func(context.Context, scan.ListOptions) ([]scan.Event, error) {
				return []scan.Event{
					{ID: "e2", BadgeCode: "A1", Timestamp: handlerTime},
					{ID: "e1", BadgeCode: "A1", Timestamp: handlerTime.Add(-24 * time.Hour)},
				}, nil
			},
			clearFn: func(context.Context) (int64, error) { return 4, nil },
			historyFn: func(_ context.Context, w io.Writer, _ scan.ListOptions) error {
				_, err := io.WriteString(w, "Badge,Date,Time,Status\n")
				return err
			},
		},
		Identities: identityStub{
			createFn: func(_ context.Context, req identity.CreateRequest) (*identity.Identity, error) {
				return &identity.Identity{ID: "i1", Name: req.Name, ExternalRef: req.ExternalRef, BadgeCode: req.BadgeCode}, nil
			},
			updateFn: func(_ context.Context, req identity.UpdateRequest) (*identity.Identity, error) {
				return &identity.Identity{ID: req.ID, Name: req.Name}, nil
			},
			deleteFn: func(context.Context, string) error { return nil },
			getFn: func(_ context.Context, id string) (*identity.Identity, error) {
				return &identity.Identity{ID: id}, nil
			},
			findFn: func(_ context.Context, code string) (*identity.Identity, error) {
				return &identity.Identity{ID: "by-badge", BadgeCode: code}, nil
			},
			listFn: func(context.Context, string) ([]identity.Identity, error) {
				return []identity.Identity{{ID: "i1"}}, nil
			},
		},
		Analysis: analysisStub{runFn: func(context.Context, analysis.Options) (*analysis.Result, error) {
			return sampleResult(), nil
		}},
		Backups: backupStub{
			exportFn: func(context.Context) (*backup.BackupDocument, error) {
				return &backup.BackupDocument{Version: backup.DocumentVersion, ExportedAt: handlerTime}, nil
			},
			reportFn: func(context.Context) (*backup.ReportDocument, error) {
				return backup.NewReportDocument(sampleResult(), handlerTime), nil
			},
			csvFn: func(_ context.Context, w io.Writer) error {
				_, err := io.WriteString(w, "Employee,Date,Interval (minutes),Status\n")
				return err
			},
			restoreFn: func(context.Context, io.Reader) (*backup.RestoreResult, error) {
				return &backup.RestoreResult{Sections: []string{"events"}}, nil
			},
		},
		Sync: syncStub{
			getFn: func(context.Context) (syncconfig.Config, error) { return cfg, nil },
			configureFn: func(_ context.Context, req syncer.ConfigureRequest) (syncconfig.Config, error) {
				return syncconfig.Config{EndpointURL: req.EndpointURL, SyncIntervalMinutes: 30}, nil
			},
			autoFn: func(_ context.Context, enabled bool) (syncconfig.Config, error) {
				c := cfg
				c.AutoSync = enabled
				return c, nil
			},
			disconnectFn: func(context.Context) (syncconfig.Config, error) { return syncconfig.Default(), nil },
			pushFn:       func(context.Context) (syncconfig.Config, error) { return cfg, nil },
			pullFn: func(context.Context) (*syncer.PullResult, error) {
				return &syncer.PullResult{Restore: &backup.RestoreResult{Sections: []string{"events"}}}, nil
			},
		},
		Activity: activityStub{listFn: func(context.Context, activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
			return []activity.ActivityEntry{{ID: 1, ActivityType: activity.TypeScanRecorded, BadgeCode: "A1", Summary: "scan", CreatedAt: handlerTime}}, nil
		}},
	}
}

func newTestHandler(svc Services) *Handler {
	h := NewHandler(svc)
	h.SetClock(func() time.Time { return handlerTime })
	return h
}

func TestHandler_EveryToolDispatches(t *testing.T) {
	ctx := context.Background()
	handler := newTestHandler(newStubServices())

	params := map[string]any{
		"record_scan":       RecordScanParams{BadgeCode: "A1"},
		"register_identity": RegisterIdentityParams{Name: "Ana", ExternalRef: "1", BadgeCode: "A1"},
		"update_identity":   UpdateIdentityParams{ID: "i1", Name: "Ana", ExternalRef: "1", BadgeCode: "A1"},
		"delete_identity":   DeleteIdentityParams{ID: "i1"},
		"get_identity":      GetIdentityParams{ID: "i1"},
		"restore_backup":    map[string]any{"document": map[string]any{"events": []any{}}},
		"configure_sync":    ConfigureSyncParams{EndpointURL: "https://sync.example.com/b.json"},
		"set_auto_sync":     SetAutoSyncParams{Enabled: true},
	}
	for _, name := range ToolNames() {
		t.Run(name, func(t *testing.T) {
			var raw json.RawMessage
			if p, ok := params[name]; ok {
				raw = mustJSON(t, p)
			}
			result, err := handler.Handle(ctx, name, raw)
			require.NoError(t, err)
			require.NotNil(t, result)
		})
	}
}

func TestHandler_ScanCommands(t *testing.T) {
	ctx := context.Background()
	var gotIngest scan.IngestRequest
	var gotList scan.ListOptions
	svc := newStubServices()
	stub := svc.Scans.(scanStub)
	stub.ingestFn = func(_ context.Context, req scan.IngestRequest) (*scan.Event, error) {
		gotIngest = req
		return &scan.Event{ID: "e1", BadgeCode: "A1"}, nil
	}
	base := stub.listFn
	stub.listFn = func(ctx context.Context, opts scan.ListOptions) ([]scan.Event, error) {
		gotList = opts
		return base(ctx, opts)
	}
	svc.Scans = stub
	handler := newTestHandler(svc)

	_, err := handler.Handle(ctx, "record_scan", mustJSON(t, RecordScanParams{BadgeCode: "a1", Timestamp: "2024-03-09 12:00", Status: "error"}))
	require.NoError(t, err)
	require.Equal(t, scan.IngestRequest{BadgeCode: "a1", Timestamp: "2024-03-09 12:00", Status: scan.StatusError}, gotIngest)

	result, err := handler.Handle(ctx, "list_scans", mustJSON(t, ListScansParams{BadgeCode: "A", Day: "2024-03-10", Limit: 5}))
	require.NoError(t, err)
	require.Equal(t, scan.ListOptions{BadgeCode: "A", Day: "2024-03-10", Limit: 5}, gotList)
	list := result.(ScanListResponse)
	require.Equal(t, 2, list.Total)
	require.Equal(t, 2, list.DaysWithRecords)

	result, err = handler.Handle(ctx, "clear_scans", nil)
	require.NoError(t, err)
	require.Equal(t, ClearScansResponse{Removed: 4}, result)

	result, err = handler.Handle(ctx, "export_history_csv", nil)
	require.NoError(t, err)
	require.Equal(t, CSVResponse{Filename: "scan-history-2024-03-10.csv", Content: "Badge,Date,Time,Status\n"}, result)
}

func TestHandler_GetIdentityByBadge(t *testing.T) {
	handler := newTestHandler(newStubServices())

	result, err := handler.Handle(context.Background(), "get_identity", mustJSON(t, GetIdentityParams{BadgeCode: "x9"}))
	require.NoError(t, err)
	require.Equal(t, "by-badge", result.(*identity.Identity).ID)
}

func TestHandler_AnalyzeFiltersRecords(t *testing.T) {
	handler := newTestHandler(newStubServices())

	result, err := handler.Handle(context.Background(), "analyze", mustJSON(t, AnalyzeParams{BadgeCode: "a1"}))
	require.NoError(t, err)
	resp := result.(AnalyzeResponse)
	require.Len(t, resp.Records, 2)
	require.Equal(t, 2, resp.Processing.TotalRecords)
	require.Equal(t, handlerTime, resp.GeneratedAt)

	result, err = handler.Handle(context.Background(), "analyze", mustJSON(t, AnalyzeParams{Day: "2024-03-10"}))
	require.NoError(t, err)
	require.Len(t, result.(AnalyzeResponse).Records, 2)
}

func TestHandler_DashboardPassesTrendDays(t *testing.T) {
	var got analysis.Options
	svc := newStubServices()
	svc.Analysis = analysisStub{runFn: func(_ context.Context, opts analysis.Options) (*analysis.Result, error) {
		got = opts
		return sampleResult(), nil
	}}
	handler := newTestHandler(svc)

	result, err := handler.Handle(context.Background(), "get_dashboard", mustJSON(t, DashboardParams{TrendDays: 14}))
	require.NoError(t, err)
	require.Equal(t, 14, got.TrendDays)
	resp := result.(DashboardResponse)
	require.Equal(t, 2, resp.DaysWithRecords)
	require.Len(t, resp.LongBreaks, 1)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	require.Contains(t, string(data), `"long_breaks"`)
	require.Contains(t, string(data), `"days_with_records":2`)

	for _, days := range []int{-1, analysis.MaxTrendDays + 1, 3_000_000} {
		got = analysis.Options{}
		_, err = handler.Handle(context.Background(), "get_dashboard", mustJSON(t, DashboardParams{TrendDays: days}))
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr, "trend_days %d", days)
		require.Equal(t, "INVALID_PARAMS", apiErr.Code)
		require.Zero(t, got.TrendDays, "analysis must not run for trend_days %d", days)
	}
}

func TestHandler_DashboardOmittedTrendDaysUsesServiceDefault(t *testing.T) {
	got := analysis.Options{TrendDays: -1}
	svc := newStubServices()
	svc.Analysis = analysisStub{runFn: func(_ context.Context, opts analysis.Options) (*analysis.Result, error) {
		got = opts
		return sampleResult(), nil
	}}

	_, err := newTestHandler(svc).Handle(context.Background(), "get_dashboard", nil)
	require.NoError(t, err)
	require.Zero(t, got.TrendDays)
}

func TestMapError_TrendWindow(t *testing.T) {
	apiErr := MapError(fmt.Errorf("running: %w", analysis.ErrTrendWindow))
	require.NotNil(t, apiErr)
	require.Equal(t, "INVALID_PARAMS", apiErr.Code)
}

func TestHandler_ListScansCountsDaysInServiceLocation(t *testing.T) {
	svc := newStubServices()
	stub := svc.Scans.(scanStub)
	var counted []scan.Event
	stub.daysFn = func(events []scan.Event) int {
		counted = events
		return 5
	}
	svc.Scans = stub

	result, err := newTestHandler(svc).Handle(context.Background(), "list_scans", nil)
	require.NoError(t, err)
	resp := result.(ScanListResponse)
	require.Equal(t, 5, resp.DaysWithRecords)
	require.Len(t, counted, 2)
}

func TestHandler_SetClockDrivesFilenamesAndPing(t *testing.T) {
	clock := time.Date(2031, 7, 4, 9, 0, 0, 0, time.UTC)
	handler := NewHandler(newStubServices())
	handler.SetClock(func() time.Time { return clock })
	handler.SetClock(nil)

	result, err := handler.Handle(context.Background(), "ping", nil)
	require.NoError(t, err)
	require.Equal(t, clock, result.(PingResponse).Time)

	result, err = handler.Handle(context.Background(), "export_history_csv", nil)
	require.NoError(t, err)
	require.Equal(t, "scan-history-2031-07-04.csv", result.(CSVResponse).Filename)
}

func TestHandler_RestoreAcceptsObjectOrText(t *testing.T) {
	var bodies []string
	svc := newStubServices()
	svc.Backups = backupStub{restoreFn: func(_ context.Context, r io.Reader) (*backup.RestoreResult, error) {
		data, err := io.ReadAll(r)
		require.NoError(t, err)
		bodies = append(bodies, string(data))
		return &backup.RestoreResult{Sections: []string{"events"}}, nil
	}}
	handler := newTestHandler(svc)

	_, err := handler.Handle(context.Background(), "restore_backup", json.RawMessage(`{"document":{"events":[]}}`))
	require.NoError(t, err)
	_, err = handler.Handle(context.Background(), "restore_backup", json.RawMessage(`{"document":"{\"events\":[]}"}`))
	require.NoError(t, err)
	require.Equal(t, []string{`{"events":[]}`, `{"events":[]}`}, bodies)
}

func TestHandler_ActivityFilters(t *testing.T) {
	var got activity.ListActivityOptions
	svc := newStubServices()
	svc.Activity = activityStub{listFn: func(_ context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
		got = opts
		return []activity.ActivityEntry{{ActivityType: activity.TypeSyncPushed, Summary: "pushed", CreatedAt: handlerTime}}, nil
	}}
	handler := newTestHandler(svc)

	result, err := handler.Handle(context.Background(), "get_recent_activity", mustJSON(t, GetRecentActivityParams{Type: "sync_pushed", Limit: 3}))
	require.NoError(t, err)
	require.NotNil(t, got.ActivityType)
	require.Equal(t, activity.TypeSyncPushed, *got.ActivityType)
	require.Equal(t, 3, got.Limit)
	entries := result.([]ActivityEntryResponse)
	require.Len(t, entries, 1)
	require.Equal(t, "pushed", entries[0].Summary)
}

func TestHandler_ErrorMapping(t *testing.T) {
	ctx := context.Background()
	svc := newStubServices()
	svc.Scans = scanStub{ingestFn: func(context.Context, scan.IngestRequest) (*scan.Event, error) {
		return nil, &scan.IngestionError{BadgeCode: "A1", RawTimestamp: "soon", Reason: scan.ReasonInvalidTimestamp, Err: scan.ErrInvalidTimestamp}
	}}
	svc.Identities = identityStub{
		createFn: func(context.Context, identity.CreateRequest) (*identity.Identity, error) {
			return nil, &identity.ValidationError{Fields: map[string]string{"badge_code": "already registered"}, Err: identity.ErrDuplicateBadgeCode}
		},
		getFn: func(context.Context, string) (*identity.Identity, error) {
			return nil, fmt.Errorf("get identity: %w", identity.ErrIdentityNotFound)
		},
	}
	svc.Backups = backupStub{restoreFn: func(context.Context, io.Reader) (*backup.RestoreResult, error) {
		return backup.NewService(nil, nil, nil, nil).Restore(ctx, strings.NewReader(`{"events":{}}`))
	}}
	svc.Sync = syncStub{
		pushFn: func(context.Context) (syncconfig.Config, error) { return syncconfig.Config{}, syncer.ErrNotConfigured },
		pullFn: func(context.Context) (*syncer.PullResult, error) {
			return nil, fmt.Errorf("pulling: %w", &syncer.StatusError{Method: "GET", Code: 500})
		},
	}
	handler := newTestHandler(svc)

	tests := []struct {
		method string
		params any
		code   string
	}{
		{"record_scan", RecordScanParams{BadgeCode: "A1", Timestamp: "soon"}, "INVALID_TIMESTAMP"},
		{"register_identity", RegisterIdentityParams{Name: "Ana", ExternalRef: "1", BadgeCode: "A1"}, "DUPLICATE_BADGE_CODE"},
		{"get_identity", GetIdentityParams{ID: "missing"}, "IDENTITY_NOT_FOUND"},
		{"restore_backup", map[string]any{"document": map[string]any{"events": map[string]any{}}}, "DECODE_ERROR"},
		{"sync_push", nil, "SYNC_NOT_CONFIGURED"},
		{"sync_pull", nil, "SYNC_FAILED"},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			var raw json.RawMessage
			if tt.params != nil {
				raw = mustJSON(t, tt.params)
			}
			_, err := handler.Handle(ctx, tt.method, raw)
			require.Error(t, err)
			apiErr, ok := err.(*APIError)
			require.True(t, ok)
			require.Equal(t, tt.code, apiErr.Code)
		})
	}

	_, err := handler.Handle(ctx, "record_scan", mustJSON(t, RecordScanParams{BadgeCode: "A1", Timestamp: "soon"}))
	apiErr := err.(*APIError)
	require.Equal(t, map[string]string{"badge_code": "A1", "timestamp": "soon", "reason": scan.ReasonInvalidTimestamp}, apiErr.Details)

	_, err = handler.Handle(ctx, "restore_backup", mustJSON(t, map[string]any{"document": map[string]any{"events": map[string]any{}}}))
	apiErr = err.(*APIError)
	require.Equal(t, map[string]string{"path": "events", "reason": "must be an array"}, apiErr.Details)
}

func TestHandler_BadParamsAndUnknownMethod(t *testing.T) {
	handler := newTestHandler(newStubServices())

	_, err := handler.Handle(context.Background(), "record_scan", json.RawMessage(`{"badge_code":5}`))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "INVALID_PARAMS", apiErr.Code)

	_, err = handler.Handle(context.Background(), "create_project", nil)
	require.ErrorIs(t, err, ErrUnknownMethod)
}

func TestMapError_Unmapped(t *testing.T) {
	require.Nil(t, MapError(nil))
	require.Nil(t, MapError(errors.New("disk full")))
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}
