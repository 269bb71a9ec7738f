package analysis

import (
	"time"

	"github.com/rpggio/breakwatch/internal/domain/scan"
)

// ObservationKind grades an interval record.
type ObservationKind string

const (
	KindSuccess ObservationKind = "success"
	KindWarning ObservationKind = "warning"
	KindError   ObservationKind = "error"
)

// Observation is one finding attached to an IntervalRecord.
type Observation struct {
	Kind    ObservationKind `json:"kind"`
	Message string          `json:"message"`
}

// DayGroup holds every scan of one badge on one calendar day.
type DayGroup struct {
	BadgeCode string
	Day       Day
	Scans     []scan.Event
}

// IntervalRecord is the per-badge, per-day result of the interval stage.
type IntervalRecord struct {
	BadgeCode       string        `json:"badgeCode"`
	EmployeeName    string        `json:"employeeName"`
	EmployeeRef     string        `json:"employeeRef"`
	Day             Day           `json:"date"`
	TotalReadings   int           `json:"totalReadings"`
	FirstScan       scan.Event    `json:"firstScan"`
	LastScan        scan.Event    `json:"lastScan"`
	IntervalMinutes *int          `json:"intervalMinutes"`
	Observations    []Observation `json:"observations"`
}

// HasInterval reports whether the record carries a computed interval.
func (r IntervalRecord) HasInterval() bool {
	return r.IntervalMinutes != nil
}

// Minutes returns the interval, or 0 when absent.
func (r IntervalRecord) Minutes() int {
	if r.IntervalMinutes == nil {
		return 0
	}
	return *r.IntervalMinutes
}

// HasKind reports whether any observation is of kind k.
func (r IntervalRecord) HasKind(k ObservationKind) bool {
	for _, obs := range r.Observations {
		if obs.Kind == k {
			return true
		}
	}
	return false
}

// DailyStat counts intervals for one day of the trend window.
type DailyStat struct {
	Date         Day    `json:"date"`
	Label        string `json:"label"`
	Total        int    `json:"total"`
	LongBreaks   int    `json:"longBreaks"`
	ShortBreaks  int    `json:"shortBreaks"`
	NormalBreaks int    `json:"normalBreaks"`
}

// DistributionBucket counts intervals within [Low, High]. A nil High is open.
type DistributionBucket struct {
	Label string `json:"label"`
	Low   int    `json:"lowMinutes"`
	High  *int   `json:"highMinutes"`
	Count int    `json:"count"`
}

// Contains reports whether minutes falls inside the bucket.
func (b DistributionBucket) Contains(minutes int) bool {
	if minutes < b.Low {
		return false
	}
	return b.High == nil || minutes <= *b.High
}

// Summary holds the scalar totals of a run.
type Summary struct {
	TotalIntervals  int `json:"totalIntervals"`
	AverageInterval int `json:"averageInterval"`
}

// ProcessingStats counts records by observation kind.
type ProcessingStats struct {
	TotalRecords int `json:"totalRecords"`
	WithErrors   int `json:"withErrors"`
	WithWarnings int `json:"withWarnings"`
	Normal       int `json:"normal"`
}

// Result is the complete output of one analysis run.
type Result struct {
	Records      []IntervalRecord     `json:"records"`
	LongBreaks   []IntervalRecord     `json:"longBreaks"`
	DailyStats   []DailyStat          `json:"dailyStats"`
	Distribution []DistributionBucket `json:"distribution"`
	Summary      Summary              `json:"summary"`
	Processing   ProcessingStats      `json:"processing"`
	GeneratedAt  time.Time            `json:"generatedAt"`
}
