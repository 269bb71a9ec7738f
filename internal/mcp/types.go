package mcp

import (
	"encoding/json"
	"time"

	"github.com/rpggio/breakwatch/internal/analysis"
	"github.com/rpggio/breakwatch/internal/domain/activity"
	"github.com/rpggio/breakwatch/internal/domain/scan"
)

type RecordScanParams struct {
	BadgeCode string `json:"badge_code"`
	Timestamp string `json:"timestamp,omitempty"`
	Status    string `json:"status,omitempty"`
}

type ListScansParams struct {
	BadgeCode string `json:"badge_code,omitempty"`
	Day       string `json:"day,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}

type RegisterIdentityParams struct {
	Name        string `json:"name"`
	ExternalRef string `json:"external_ref"`
	BadgeCode   string `json:"badge_code"`
}

type UpdateIdentityParams struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ExternalRef string `json:"external_ref"`
	BadgeCode   string `json:"badge_code"`
}

type DeleteIdentityParams struct {
	ID string `json:"id"`
}

type GetIdentityParams struct {
	ID        string `json:"id,omitempty"`
	BadgeCode string `json:"badge_code,omitempty"`
}

type ListIdentitiesParams struct {
	Search string `json:"search,omitempty"`
}

type AnalyzeParams struct {
	BadgeCode string `json:"badge_code,omitempty"`
	Day       string `json:"day,omitempty"`
}

type DashboardParams struct {
	TrendDays int `json:"trend_days,omitempty"`
}

type RestoreBackupParams struct {
	Document json.RawMessage `json:"document"`
}

type ConfigureSyncParams struct {
	EndpointURL  string `json:"endpoint_url"`
	AutoSync     *bool  `json:"auto_sync,omitempty"`
	SyncInterval *int   `json:"sync_interval,omitempty"`
}

type SetAutoSyncParams struct {
	Enabled bool `json:"enabled"`
}

type GetRecentActivityParams struct {
	Type      string `json:"type,omitempty"`
	BadgeCode string `json:"badge_code,omitempty"`
	SubjectID string `json:"subject_id,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}

type ScanListResponse struct {
	Scans           []scan.Event `json:"scans"`
	Total           int          `json:"total"`
	DaysWithRecords int          `json:"days_with_records"`
}

type ClearScansResponse struct {
	Removed int64 `json:"removed"`
}

type DeleteIdentityResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

type AnalyzeResponse struct {
	Records     []analysis.IntervalRecord `json:"records"`
	Processing  analysis.ProcessingStats  `json:"processing"`
	GeneratedAt time.Time                 `json:"generated_at"`
}

type DashboardResponse struct {
	LongBreaks      []analysis.IntervalRecord     `json:"long_breaks"`
	DailyStats      []analysis.DailyStat          `json:"daily_stats"`
	Distribution    []analysis.DistributionBucket `json:"distribution"`
	Summary         analysis.Summary              `json:"summary"`
	Processing      analysis.ProcessingStats      `json:"processing"`
	DaysWithRecords int                           `json:"days_with_records"`
	GeneratedAt     time.Time                     `json:"generated_at"`
}

type CSVResponse struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

type ActivityEntryResponse struct {
	Timestamp time.Time             `json:"timestamp"`
	Type      activity.ActivityType `json:"type"`
	BadgeCode string                `json:"badge_code,omitempty"`
	SubjectID string                `json:"subject_id,omitempty"`
	Summary   string                `json:"summary"`
	Details   string                `json:"details,omitempty"`
}

type PingResponse struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}
