package rollup

import (
	"time"

	"PPEGuard/internal/entity"
)

// WeekLength is the number of days in a weekly rollup and in each month chunk.
const WeekLength = 7

type Period struct {
	Start time.Time
	End   time.Time
}

// Days lists every calendar date from Start to End inclusive.
func (p Period) Days() []time.Time {
	start := entity.CalendarDate(p.Start)
	end := entity.CalendarDate(p.End)

	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

func (p Period) Len() int {
	return len(p.Days())
}

// TrailingWeek is the 7 days ending at anchor.
func TrailingWeek(anchor time.Time) Period {
	end := entity.CalendarDate(anchor)
	return Period{Start: end.AddDate(0, 0, -(WeekLength - 1)), End: end}
}

// PreviousWeek is the 7 days immediately before p.
func PreviousWeek(p Period) Period {
	end := entity.CalendarDate(p.Start).AddDate(0, 0, -1)
	return Period{Start: end.AddDate(0, 0, -(WeekLength - 1)), End: end}
}

// CalendarMonth is the month containing anchor.
func CalendarMonth(anchor time.Time) Period {
	start := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, anchor.Location())
	return Period{Start: start, End: start.AddDate(0, 1, -1)}
}

// PreviousMonth is the calendar month before the one p starts in.
func PreviousMonth(p Period) Period {
	return CalendarMonth(entity.CalendarDate(p.Start).AddDate(0, 0, -1))
}

// Weeks splits p into consecutive 7-day chunks starting at p.Start; the last
// chunk is cut at p.End.
func (p Period) Weeks() []Period {
	var weeks []Period
	end := entity.CalendarDate(p.End)
	for start := entity.CalendarDate(p.Start); !start.After(end); start = start.AddDate(0, 0, WeekLength) {
		weekEnd := start.AddDate(0, 0, WeekLength-1)
		if weekEnd.After(end) {
			weekEnd = end
		}
		weeks = append(weeks, Period{Start: start, End: weekEnd})
	}
	return weeks
}
