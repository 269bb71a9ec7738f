package analysis

import (
	"fmt"
	"sort"
	"time"
)

// DefaultTrendDays is the trailing trend window used when none is given.
const DefaultTrendDays = 7

// MaxTrendDays caps the trailing trend window.
const MaxTrendDays = 366

// LongBreaks returns records over LongThreshold, longest first. Ties are
// ordered newest day first, then by badge code.
func LongBreaks(records []IntervalRecord) []IntervalRecord {
	out := make([]IntervalRecord, 0)
	for _, rec := range records {
		if rec.HasInterval() && isLong(rec.Minutes()) {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Minutes() != out[j].Minutes() {
			return out[i].Minutes() > out[j].Minutes()
		}
		if c := out[i].Day.Compare(out[j].Day); c != 0 {
			return c > 0
		}
		return out[i].BadgeCode < out[j].BadgeCode
	})
	return out
}

// DailyTrend builds one stat per day from today-(days-1) to today in loc,
// oldest first. Days without intervals are zero-filled. days is clamped to
// MaxTrendDays.
func DailyTrend(records []IntervalRecord, now time.Time, days int, loc *time.Location) []DailyStat {
	if days < 1 {
		days = DefaultTrendDays
	}
	if days > MaxTrendDays {
		days = MaxTrendDays
	}
	today := DayOf(now, loc)
	stats := make([]DailyStat, days)
	index := make(map[Day]int, days)
	for i := 0; i < days; i++ {
		d := today.AddDays(i - (days - 1))
		stats[i] = DailyStat{Date: d, Label: d.Label()}
		index[d] = i
	}

	for _, rec := range records {
		if !rec.HasInterval() {
			continue
		}
		i, ok := index[rec.Day]
		if !ok {
			continue
		}
		m := rec.Minutes()
		stats[i].Total++
		switch {
		case isLong(m):
			stats[i].LongBreaks++
		case isShort(m):
			stats[i].ShortBreaks++
		default:
			stats[i].NormalBreaks++
		}
	}
	return stats
}

// Buckets returns the empty distribution ranges. Bounds follow the policy
// thresholds so every interval lands in exactly one bucket.
func Buckets() []DistributionBucket {
	shortHigh := ShortThreshold - 1
	normalHigh := LongThreshold
	longHigh := 60
	return []DistributionBucket{
		{Label: fmt.Sprintf("< %d min", ShortThreshold), Low: 0, High: &shortHigh},
		{Label: fmt.Sprintf("%d-%d min", ShortThreshold, LongThreshold), Low: ShortThreshold, High: &normalHigh},
		{Label: fmt.Sprintf("%d-%d min", LongThreshold+1, longHigh), Low: LongThreshold + 1, High: &longHigh},
		{Label: fmt.Sprintf("> %d min", longHigh), Low: longHigh + 1},
	}
}

// Distribution counts records with an interval into the fixed buckets.
func Distribution(records []IntervalRecord) []DistributionBucket {
	buckets := Buckets()
	for _, rec := range records {
		if !rec.HasInterval() {
			continue
		}
		for i := range buckets {
			if buckets[i].Contains(rec.Minutes()) {
				buckets[i].Count++
				break
			}
		}
	}
	return buckets
}

// Summarize counts intervals and their rounded mean, 0 when there are none.
func Summarize(records []IntervalRecord) Summary {
	var total, sum int
	for _, rec := range records {
		if rec.HasInterval() {
			total++
			sum += rec.Minutes()
		}
	}
	if total == 0 {
		return Summary{}
	}
	return Summary{TotalIntervals: total, AverageInterval: roundDiv(sum, total)}
}

// Process counts records by observation kind. A record is normal when every
// observation is a success.
func Process(records []IntervalRecord) ProcessingStats {
	stats := ProcessingStats{TotalRecords: len(records)}
	for _, rec := range records {
		if rec.HasKind(KindError) {
			stats.WithErrors++
		}
		if rec.HasKind(KindWarning) {
			stats.WithWarnings++
		}
		if !rec.HasKind(KindError) && !rec.HasKind(KindWarning) {
			stats.Normal++
		}
	}
	return stats
}

// roundDiv rounds sum/n half up. sum must not be negative.
func roundDiv(sum, n int) int {
	return (2*sum + n) / (2 * n)
}
