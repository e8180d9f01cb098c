// Package timeutil provides time-of-day and date helpers for NestMate Hub.
// Quiet hours and move-in dates are compared as plain wall-clock values,
// so everything here is timezone-agnostic and purely arithmetic.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"time"
)

// MinutesPerDay is the number of minutes in a day.
const MinutesPerDay = 24 * 60

// ParseClock parses a "HH:MM" string into minutes since midnight.
func ParseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("timeutil: invalid clock value %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("timeutil: clock value %q out of range", s)
	}
	return h*60 + m, nil
}

// FormatClock formats minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	minutes = ((minutes % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Interval represents a daily time interval in minutes since midnight.
// Start may be greater than End, which means the interval wraps past
// midnight (e.g. quiet hours 22:00-07:00).
type Interval struct {
	Start int
	End   int
}

// Duration returns the interval length in minutes.
// A zero-width interval (Start == End) has duration zero.
func (i Interval) Duration() int {
	if i.Start <= i.End {
		return i.End - i.Start
	}
	return MinutesPerDay - i.Start + i.End
}

// segments splits the interval into non-wrapping [start, end) pairs.
func (i Interval) segments() [][2]int {
	if i.Start <= i.End {
		return [][2]int{{i.Start, i.End}}
	}
	return [][2]int{{i.Start, MinutesPerDay}, {0, i.End}}
}

// Overlap returns the number of minutes the two intervals share,
// accounting for midnight wrap on either side.
func Overlap(a, b Interval) int {
	total := 0
	for _, sa := range a.segments() {
		for _, sb := range b.segments() {
			lo := max(sa[0], sb[0])
			hi := min(sa[1], sb[1])
			if hi > lo {
				total += hi - lo
			}
		}
	}
	return total
}

// OverlapFraction returns the shared minutes divided by the union of the
// two intervals, in [0,1]. Two zero-width intervals at the same minute
// are treated as identical and score 1.
func OverlapFraction(a, b Interval) float64 {
	overlap := Overlap(a, b)
	union := a.Duration() + b.Duration() - overlap
	if union == 0 {
		if a.Start == b.Start {
			return 1
		}
		return 0
	}
	return float64(overlap) / float64(union)
}

// DaysBetween returns the absolute number of whole days between two dates.
// Clock components are ignored.
func DaysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	diff := db.Sub(da)
	if diff < 0 {
		diff = -diff
	}
	return int(diff.Hours() / 24)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
