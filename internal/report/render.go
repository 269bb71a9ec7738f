package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rpggio/breakwatch/internal/analysis"
)

// RenderDashboard writes the summary, daily trend, distribution, and long
// break tables of res.
func RenderDashboard(w io.Writer, res *analysis.Result) error {
	p := &printer{w: w}

	p.line("Summary")
	p.line("  Total intervals:  %d", res.Summary.TotalIntervals)
	p.line("  Average interval: %d min", res.Summary.AverageInterval)
	p.line("  Records:          %d (errors %d, warnings %d, normal %d)",
		res.Processing.TotalRecords, res.Processing.WithErrors, res.Processing.WithWarnings, res.Processing.Normal)
	p.line("")

	p.line("Daily trend (last %d days)", len(res.DailyStats))
	rows := make([][]string, 0, len(res.DailyStats))
	for _, st := range res.DailyStats {
		rows = append(rows, []string{st.Label, itoa(st.Total), itoa(st.LongBreaks), itoa(st.ShortBreaks), itoa(st.NormalBreaks)})
	}
	p.table([]string{"Day", "Total", "Long", "Short", "Normal"}, rows, map[int]bool{1: true, 2: true, 3: true, 4: true})
	p.line("")

	p.line("Distribution")
	rows = rows[:0]
	for _, b := range res.Distribution {
		rows = append(rows, []string{b.Label, itoa(b.Count)})
	}
	p.table([]string{"Range", "Count"}, rows, map[int]bool{1: true})
	p.line("")

	p.line("Long breaks (> %d min)", analysis.LongThreshold)
	if len(res.LongBreaks) == 0 {
		p.line("  none")
		return p.err
	}
	rows = rows[:0]
	for _, rec := range res.LongBreaks {
		rows = append(rows, []string{rec.EmployeeName, rec.BadgeCode, rec.Day.String(), itoa(rec.Minutes())})
	}
	p.table([]string{"Employee", "Badge", "Date", "Minutes"}, rows, map[int]bool{3: true})
	return p.err
}

// RenderRecords writes one row per interval record. Scan times are shown
// in loc.
func RenderRecords(w io.Writer, records []analysis.IntervalRecord, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	p := &printer{w: w}
	if len(records) == 0 {
		p.line("no records")
		return p.err
	}

	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		minutes := "-"
		if rec.HasInterval() {
			minutes = itoa(rec.Minutes())
		}
		rows = append(rows, []string{
			rec.Day.String(),
			rec.BadgeCode,
			rec.EmployeeName,
			rec.EmployeeRef,
			itoa(rec.TotalReadings),
			rec.FirstScan.Timestamp.In(loc).Format("15:04"),
			rec.LastScan.Timestamp.In(loc).Format("15:04"),
			minutes,
			observations(rec.Observations),
		})
	}
	p.table(
		[]string{"Date", "Badge", "Employee", "Ref", "Readings", "First", "Last", "Minutes", "Observations"},
		rows,
		map[int]bool{4: true, 7: true},
	)
	return p.err
}

func observations(obs []analysis.Observation) string {
	parts := make([]string, len(obs))
	for i, o := range obs {
		parts[i] = o.Message
	}
	return strings.Join(parts, "; ")
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) table(headers []string, rows [][]string, rightAlign map[int]bool) {
	for _, l := range formatTable(headers, rows, rightAlign) {
		p.line("%s", l)
	}
}
