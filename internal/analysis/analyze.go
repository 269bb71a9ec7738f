package analysis

import (
	"time"

	"github.com/rpggio/breakwatch/internal/domain/identity"
	"github.com/rpggio/breakwatch/internal/domain/scan"
)

// Options tunes an analysis run.
type Options struct {
	// Location derives calendar days from timestamps. Nil means time.Local.
	Location *time.Location
	// TrendDays is the trailing window size. Values below 1 mean DefaultTrendDays.
	TrendDays int
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.TrendDays < 1 {
		o.TrendDays = DefaultTrendDays
	}
	return o
}

// Analyze runs grouping, interval, and aggregation over one snapshot. It is
// pure: equal inputs produce equal results regardless of input order.
func Analyze(events []scan.Event, identities []identity.Identity, now time.Time, opts Options) Result {
	opts = opts.withDefaults()

	records := BuildRecords(Group(events, opts.Location), NewDirectory(identities))
	SortForDisplay(records)

	return Result{
		Records:      records,
		LongBreaks:   LongBreaks(records),
		DailyStats:   DailyTrend(records, now, opts.TrendDays, opts.Location),
		Distribution: Distribution(records),
		Summary:      Summarize(records),
		Processing:   Process(records),
		GeneratedAt:  now,
	}
}
