package gcal

import (
	"time"

	"google.golang.org/api/calendar/v3"
)

// transparencyFree is the transparency value of events marked "free" in the
// Google Calendar UI. Events without an explicit transparency are "opaque"
// (busy) and never qualify.
const transparencyFree = "transparent"

// IsHoliday reports whether an event counts as a holiday: it must be a
// full-day event (date-only start and end) and be marked free.
func IsHoliday(ev *calendar.Event) bool {
	if ev == nil || ev.Start == nil || ev.End == nil {
		return false
	}
	return ev.Transparency == transparencyFree &&
		ev.Start.Date != "" &&
		ev.End.Date != ""
}

// StartsOn reports whether a full-day event starts on the given day. The
// comparison is by calendar date; day is expected to be midnight in the
// calendar's timezone.
func StartsOn(ev *calendar.Event, day time.Time) bool {
	if ev == nil || ev.Start == nil || ev.Start.Date == "" {
		return false
	}
	start, err := time.ParseInLocation("2006-01-02", ev.Start.Date, day.Location())
	if err != nil {
		return false
	}
	y1, m1, d1 := start.Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
