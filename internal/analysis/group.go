package analysis

import (
	"sort"
	"strings"
	"time"

	"github.com/rpggio/breakwatch/internal/domain/scan"
)

type groupKey struct {
	badge string
	day   Day
}

// Group partitions events by badge code and calendar day in loc. Groups are
// returned by day, then badge code, and scans keep input order.
func Group(events []scan.Event, loc *time.Location) []DayGroup {
	index := make(map[groupKey]int)
	var groups []DayGroup
	for _, ev := range events {
		key := groupKey{badge: strings.ToUpper(ev.BadgeCode), day: DayOf(ev.Timestamp, loc)}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, DayGroup{BadgeCode: key.badge, Day: key.day})
		}
		groups[i].Scans = append(groups[i].Scans, ev)
	}

	sort.Slice(groups, func(i, j int) bool {
		if c := groups[i].Day.Compare(groups[j].Day); c != 0 {
			return c < 0
		}
		return groups[i].BadgeCode < groups[j].BadgeCode
	})
	return groups
}

// sortScans orders scans by timestamp, breaking ties by ID.
func sortScans(scans []scan.Event) {
	sort.SliceStable(scans, func(i, j int) bool {
		if !scans[i].Timestamp.Equal(scans[j].Timestamp) {
			return scans[i].Timestamp.Before(scans[j].Timestamp)
		}
		return scans[i].ID < scans[j].ID
	})
}
