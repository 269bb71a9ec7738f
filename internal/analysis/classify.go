package analysis

import (
	"fmt"
	"time"
)

// Policy thresholds in whole minutes. Intervals below ShortThreshold are
// suspected misreads; intervals above LongThreshold are long breaks.
const (
	ShortThreshold = 25
	LongThreshold  = 40
)

// Unregistered badge sentinels.
const (
	UnregisteredName = "unregistered"
	UnregisteredRef  = "N/A"
)

// Classify grades a day group. totalReadings below two yields the single
// reading warning and minutes is ignored.
func Classify(totalReadings, minutes int) []Observation {
	if totalReadings < 2 {
		return []Observation{{Kind: KindWarning, Message: "only one reading for the day"}}
	}
	switch {
	case minutes < ShortThreshold:
		return []Observation{{Kind: KindError, Message: fmt.Sprintf("interval too short: %d min (possible misread)", minutes)}}
	case minutes > LongThreshold:
		return []Observation{{Kind: KindWarning, Message: fmt.Sprintf("long interval: %d min", minutes)}}
	default:
		return []Observation{{Kind: KindSuccess, Message: fmt.Sprintf("normal interval: %d min", minutes)}}
	}
}

// RoundMinutes rounds a non-negative d to whole minutes at millisecond
// precision, with halves rounding up.
func RoundMinutes(d time.Duration) int {
	return int((d.Milliseconds() + 30_000) / 60_000)
}

func isLong(minutes int) bool   { return minutes > LongThreshold }
func isShort(minutes int) bool  { return minutes < ShortThreshold }
func isNormal(minutes int) bool { return !isLong(minutes) && !isShort(minutes) }
