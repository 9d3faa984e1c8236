package gcal

import (
	"fmt"
	"time"
)

// Window is the two-day refresh horizon for one calendar, anchored at
// midnight in the calendar's own timezone.
type Window struct {
	Today    time.Time
	Tomorrow time.Time
	End      time.Time // exclusive upper bound, start of the day after tomorrow
}

// DayWindow computes the refresh window for a calendar timezone. AddDate is
// used rather than fixed 24h offsets so DST transitions keep the boundaries
// on midnight.
func DayWindow(now time.Time, timeZone string) (Window, error) {
	loc, err := time.LoadLocation(timeZone)
	if err != nil {
		return Window{}, fmt.Errorf("loading location %q: %w", timeZone, err)
	}
	n := now.In(loc)
	today := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc)
	return Window{
		Today:    today,
		Tomorrow: today.AddDate(0, 0, 1),
		End:      today.AddDate(0, 0, 2),
	}, nil
}
