// Package daterange splits the requested sync span into calendar-month
// windows, newest first, for the paginated photo index.
package daterange

import (
	"fmt"
	"time"
)

// Window is a closed date range [From, To] scoping one pagination sweep
type Window struct {
	From time.Time
	To   time.Time
}

func (w Window) String() string {
	return fmt.Sprintf("%s..%s", w.From.Format("2006-01-02"), w.To.Format("2006-01-02"))
}

// EndOfToday returns midnight at the start of the day after now, in now's
// location. It is the upper bound of the newest window.
func EndOfToday(now time.Time) time.Time {
	return midnight(now).AddDate(0, 0, 1)
}

// Partition walks backward from EndOfToday(now) to start. The lower edge of
// the k-th window is today's midnight moved back k calendar months, so the
// newest window also covers the remainder of today. The oldest window is
// clamped to start. Windows are contiguous and never overlap. No windows are
// produced when start is not before the end bound.
func Partition(start, now time.Time) []Window {
	end := EndOfToday(now)
	start = start.In(now.Location())
	if !start.Before(end) {
		return nil
	}

	today := midnight(now)
	var windows []Window
	upper := end
	for k := 1; upper.After(start); k++ {
		lower := monthsBack(today, k)
		if lower.Before(start) {
			lower = start
		}
		windows = append(windows, Window{From: lower, To: upper})
		upper = lower
	}
	return windows
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// monthsBack moves t back n calendar months, clamping the day to the end of
// the target month (March 31 minus one month is February 29 or 28).
func monthsBack(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	firstOfTarget := time.Date(y, m-time.Month(n), 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	ty, tm, _ := firstOfTarget.Date()
	return time.Date(ty, tm, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
