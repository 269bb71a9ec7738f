package analysis

import (
	"sort"

	"github.com/rpggio/breakwatch/internal/domain/scan"
)

// BuildRecords turns day groups into interval records. Group scans are
// copied before sorting; the input is not modified.
func BuildRecords(groups []DayGroup, dir Directory) []IntervalRecord {
	records := make([]IntervalRecord, 0, len(groups))
	for _, g := range groups {
		if len(g.Scans) == 0 {
			continue
		}
		scans := make([]scan.Event, len(g.Scans))
		copy(scans, g.Scans)
		sortScans(scans)

		name, ref := dir.Resolve(g.BadgeCode)
		rec := IntervalRecord{
			BadgeCode:     g.BadgeCode,
			EmployeeName:  name,
			EmployeeRef:   ref,
			Day:           g.Day,
			TotalReadings: len(scans),
			FirstScan:     scans[0],
			LastScan:      scans[len(scans)-1],
		}
		minutes := 0
		if len(scans) >= 2 {
			minutes = RoundMinutes(rec.LastScan.Timestamp.Sub(rec.FirstScan.Timestamp))
			rec.IntervalMinutes = &minutes
		}
		rec.Observations = Classify(len(scans), minutes)
		records = append(records, rec)
	}
	return records
}

// SortForDisplay orders records newest day first, then by badge code.
func SortForDisplay(records []IntervalRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if c := records[i].Day.Compare(records[j].Day); c != 0 {
			return c > 0
		}
		return records[i].BadgeCode < records[j].BadgeCode
	})
}
