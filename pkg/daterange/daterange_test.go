package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPartitionExampleRun(t *testing.T) {
	now := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)

	windows := Partition(day(2024, 1, 1), now)

	require.Len(t, windows, 3)
	assert.Equal(t, Window{From: day(2024, 2, 15), To: day(2024, 3, 16)}, windows[0])
	assert.Equal(t, Window{From: day(2024, 1, 15), To: day(2024, 2, 15)}, windows[1])
	assert.Equal(t, Window{From: day(2024, 1, 1), To: day(2024, 1, 15)}, windows[2])
	assert.Equal(t, "2024-01-01..2024-01-15", windows[2].String())
}

func TestPartitionCoversSpanWithoutGaps(t *testing.T) {
	starts := []time.Time{day(2020, 1, 1), day(2023, 2, 28), day(2024, 3, 14), day(2024, 3, 15)}
	nows := []time.Time{
		time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 31, 23, 59, 0, 0, time.UTC),
		time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC),
	}

	for _, now := range nows {
		for _, start := range starts {
			windows := Partition(start, now)
			require.NotEmpty(t, windows, "start %s now %s", start, now)

			assert.Equal(t, EndOfToday(now), windows[0].To, "newest window ends at tomorrow's midnight")
			assert.Equal(t, start, windows[len(windows)-1].From, "oldest window clamped to start")

			for i, w := range windows {
				assert.True(t, w.From.Before(w.To), "window %d non-empty", i)
				if i == 0 {
					// the newest window also carries the rest of today
					assert.LessOrEqual(t, w.To.Sub(w.From), 32*24*time.Hour, "window %s", w)
				} else {
					assert.False(t, w.From.Before(monthsBack(w.To, 1)), "window %s spans more than a month", w)
				}
				if i > 0 {
					assert.Equal(t, windows[i-1].From, w.To, "windows are contiguous")
				}
			}
		}
	}
}

func TestPartitionEndOfMonthClamp(t *testing.T) {
	now := time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)

	windows := Partition(day(2024, 1, 1), now)

	require.Len(t, windows, 3)
	assert.Equal(t, day(2024, 2, 29), windows[0].From)
	// anchored on today's midnight, the newest window runs 32 days at a month end
	assert.Equal(t, day(2024, 4, 1), windows[0].To)
	assert.Equal(t, 32*24*time.Hour, windows[0].To.Sub(windows[0].From))
	assert.Equal(t, day(2024, 1, 31), windows[1].From)
	assert.Equal(t, day(2024, 1, 1), windows[2].From)
}

func TestPartitionStartAfterEnd(t *testing.T) {
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	assert.Empty(t, Partition(day(2024, 3, 16), now))
	assert.Empty(t, Partition(day(2025, 1, 1), now))
}

func TestPartitionStartToday(t *testing.T) {
	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	windows := Partition(day(2024, 3, 15), now)

	require.Len(t, windows, 1)
	assert.Equal(t, Window{From: day(2024, 3, 15), To: day(2024, 3, 16)}, windows[0])
}

func TestEndOfToday(t *testing.T) {
	loc := time.FixedZone("X", 2*3600)
	now := time.Date(2024, 12, 31, 23, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, loc), EndOfToday(now))
}
