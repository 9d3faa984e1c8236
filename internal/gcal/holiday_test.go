package gcal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
)

func TestIsHoliday(t *testing.T) {
	tests := []struct {
		name string
		ev   *calendar.Event
		want bool
	}{
		{
			name: "full day and free",
			ev: &calendar.Event{
				Transparency: "transparent",
				Start:        &calendar.EventDateTime{Date: "2026-07-04"},
				End:          &calendar.EventDateTime{Date: "2026-07-05"},
			},
			want: true,
		},
		{
			name: "full day but busy",
			ev: &calendar.Event{
				Start: &calendar.EventDateTime{Date: "2026-07-04"},
				End:   &calendar.EventDateTime{Date: "2026-07-05"},
			},
			want: false,
		},
		{
			name: "free but timed",
			ev: &calendar.Event{
				Transparency: "transparent",
				Start:        &calendar.EventDateTime{DateTime: "2026-07-04T09:00:00-05:00"},
				End:          &calendar.EventDateTime{DateTime: "2026-07-04T17:00:00-05:00"},
			},
			want: false,
		},
		{
			name: "free with timed end",
			ev: &calendar.Event{
				Transparency: "transparent",
				Start:        &calendar.EventDateTime{Date: "2026-07-04"},
				End:          &calendar.EventDateTime{DateTime: "2026-07-04T17:00:00-05:00"},
			},
			want: false,
		},
		{
			name: "missing start",
			ev:   &calendar.Event{Transparency: "transparent"},
			want: false,
		},
		{
			name: "nil event",
			ev:   nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsHoliday(tt.ev))
		})
	}
}

func TestStartsOn(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	day := time.Date(2026, 7, 4, 0, 0, 0, 0, loc)

	ev := &calendar.Event{Start: &calendar.EventDateTime{Date: "2026-07-04"}}
	assert.True(t, StartsOn(ev, day))

	ev = &calendar.Event{Start: &calendar.EventDateTime{Date: "2026-07-05"}}
	assert.False(t, StartsOn(ev, day))

	ev = &calendar.Event{Start: &calendar.EventDateTime{Date: "garbage"}}
	assert.False(t, StartsOn(ev, day))
}

func TestDayWindow(t *testing.T) {
	now := time.Date(2026, 3, 7, 15, 42, 11, 0, time.UTC)

	w, err := DayWindow(now, "America/New_York")
	require.NoError(t, err)

	assert.Equal(t, "2026-03-07T00:00:00-05:00", w.Today.Format(time.RFC3339))
	// DST starts March 8th; AddDate must land on midnight EDT, not 23:00.
	assert.Equal(t, "2026-03-08T00:00:00-05:00", w.Tomorrow.Format(time.RFC3339))
	assert.Equal(t, "2026-03-09T00:00:00-04:00", w.End.Format(time.RFC3339))
}

func TestDayWindowBadZone(t *testing.T) {
	_, err := DayWindow(time.Now(), "Not/AZone")
	assert.Error(t, err)
}

func TestNormalizeName(t *testing.T) {
	// "é" composed vs decomposed must match.
	assert.Equal(t, NormalizeName("F\u00e9ri\u00e9s"), NormalizeName("Fe\u0301rie\u0301s"))
	assert.Equal(t, "US Holidays", NormalizeName("  US Holidays\n"))
}
