package classify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// monday is 2026-10-19 09:00 UTC.
var monday = time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestExtractDueDate(t *testing.T) {
	tests := []struct {
		text string
		want *time.Time
	}{
		{"file taxes 2026-11-03", ptr(day(2026, 11, 3))},
		{"renew by 12/01", ptr(day(2026, 12, 1))},
		{"renew by 1/15", ptr(day(2027, 1, 15))},
		{"renew by 1/15/2028", ptr(day(2028, 1, 15))},
		{"party on March 3rd", ptr(day(2027, 3, 3))},
		{"party on Dec 24, 2026", ptr(day(2026, 12, 24))},
		{"do it today", ptr(day(2026, 10, 19))},
		{"Call John about budget tomorrow", ptr(day(2026, 10, 20))},
		{"sometime next week", ptr(day(2026, 10, 26))},
		{"in 3 days", ptr(day(2026, 10, 22))},
		{"in 2 weeks", ptr(day(2026, 11, 2))},
		{"by friday", ptr(day(2026, 10, 23))},
		{"on monday", ptr(day(2026, 10, 19))},
		{"next monday", ptr(day(2026, 10, 26))},
		{"next wednesday", ptr(day(2026, 10, 21))},
		{"by mon", ptr(day(2026, 10, 19))},
		{"due Wed", ptr(day(2026, 10, 21))},
		{"meet weds", ptr(day(2026, 10, 21))},
		{"next Sat", ptr(day(2026, 10, 24))},
		{"brunch Sun", ptr(day(2026, 10, 25))},
		{"we sat in the sun", nil},
		{"due May 5", ptr(day(2027, 5, 5))},
		{"due may 5th", ptr(day(2027, 5, 5))},
		{"due may 5, 2027", ptr(day(2027, 5, 5))},
		{"you may 5 times retry", nil},
		{"2026-02-30 is not a date", nil},
		{"no date here", nil},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := ExtractDueDate(tt.text, monday)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "got %v want %v", got, tt.want)
		})
	}
}

func TestExtractTimes(t *testing.T) {
	d := day(2026, 10, 19)
	at := func(h, m int) time.Time { return time.Date(2026, 10, 19, h, m, 0, 0, time.UTC) }

	tests := []struct {
		text       string
		ok         bool
		start, end time.Time
	}{
		{"Meeting at 2:30 PM until 4:00 PM", true, at(14, 30), at(16, 0)},
		{"Meeting at 2:30 PM until 4:00", true, at(14, 30), at(16, 0)},
		{"Standup at 9:15am", true, at(9, 15), at(10, 15)},
		{"Review at 14:30 to 15:00", true, at(14, 30), at(15, 0)},
		{"Dentist 3pm", true, at(15, 0), at(16, 0)},
		{"Lunch 12pm - 1pm", true, at(12, 0), at(13, 0)},
		{"Call at 11 AM until 9 AM", true, at(11, 0), at(12, 0)},
		{"Call at 11 am until 1", true, at(11, 0), at(13, 0)},
		{"Review at 14:00 until 3", true, at(14, 0), at(15, 0)},
		{"Meeting tomorrow", false, time.Time{}, time.Time{}},
		{"Call at 3 about budget", false, time.Time{}, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			start, end, ok := ExtractTimes(tt.text, d)
			assert.Equal(t, tt.ok, ok)
			if !tt.ok {
				return
			}
			assert.True(t, tt.start.Equal(start), "start got %v want %v", start, tt.start)
			assert.True(t, tt.end.Equal(end), "end got %v want %v", end, tt.end)
		})
	}
}

func ptr(t time.Time) *time.Time { return &t }
