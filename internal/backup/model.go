package backup

import (
	"time"

	"github.com/rpggio/breakwatch/internal/analysis"
	"github.com/rpggio/breakwatch/internal/domain/identity"
	"github.com/rpggio/breakwatch/internal/domain/scan"
	"github.com/rpggio/breakwatch/internal/domain/syncconfig"
)

// DocumentVersion is written into every backup document.
const DocumentVersion = "1.0"

// BackupDocument is the portable full backup.
type BackupDocument struct {
	Events     []scan.Event        `json:"events"`
	Identities []identity.Identity `json:"identities"`
	SyncConfig *syncconfig.Config  `json:"syncConfig"`
	ExportedAt time.Time           `json:"exportedAt"`
	Version    string              `json:"version"`
}

// ReportDocument is the portable analysis report.
type ReportDocument struct {
	LongBreaks      []analysis.IntervalRecord `json:"longBreaks"`
	DailyStats      []analysis.DailyStat      `json:"dailyStats"`
	ExportedAt      time.Time                 `json:"exportedAt"`
	TotalIntervals  int                       `json:"totalIntervals"`
	AverageInterval int                       `json:"averageInterval"`
}

// NewReportDocument projects an analysis result into a report.
func NewReportDocument(res *analysis.Result, exportedAt time.Time) *ReportDocument {
	return &ReportDocument{
		LongBreaks:      res.LongBreaks,
		DailyStats:      res.DailyStats,
		ExportedAt:      exportedAt,
		TotalIntervals:  res.Summary.TotalIntervals,
		AverageInterval: res.Summary.AverageInterval,
	}
}

// Contents is everything a full backup captures, read in one snapshot.
type Contents struct {
	Events     []scan.Event
	Identities []identity.Identity
	SyncConfig syncconfig.Config
}

// ReplaceSet lists the stores a restore replaces. Nil sections are left
// untouched.
type ReplaceSet struct {
	Events     *[]scan.Event
	Identities *[]identity.Identity
	SyncConfig *syncconfig.Config
}

// Sections names the present sections in document order.
func (r ReplaceSet) Sections() []string {
	var out []string
	if r.Events != nil {
		out = append(out, "events")
	}
	if r.Identities != nil {
		out = append(out, "identities")
	}
	if r.SyncConfig != nil {
		out = append(out, "syncConfig")
	}
	return out
}

// Empty reports whether no section is present.
func (r ReplaceSet) Empty() bool {
	return r.Events == nil && r.Identities == nil && r.SyncConfig == nil
}

// RestoreResult summarizes an applied restore.
type RestoreResult struct {
	Sections   []string `json:"sections"`
	Events     int      `json:"events"`
	Identities int      `json:"identities"`
	SyncConfig bool     `json:"syncConfig"`
}
