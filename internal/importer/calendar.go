package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/albeorla/task-pri-lite-sub001/internal/tasks"
	"google.golang.org/api/calendar/v3"
)

// CalendarIDPrefix prefixes ids of tasks imported from Google Calendar.
const CalendarIDPrefix = "gcal-"

// calendarExport accepts both the API's calendar#events list and an export
// grouping events per calendar.
type calendarExport struct {
	Items     []*calendar.Event `json:"items"`
	Calendars []struct {
		Summary string            `json:"summary"`
		Events  []*calendar.Event `json:"events"`
	} `json:"calendars"`
}

var errMissingTime = errors.New("missing date")

// CalendarOptions tune the calendar import.
type CalendarOptions struct {
	Now      time.Time
	Location *time.Location
	// IncludePast keeps events that ended before Now.
	IncludePast bool
}

// ParseCalendar reads Google Calendar events JSON. Every confirmed or
// tentative event becomes an Inbox task due at the event start; cancelled
// events are skipped. Calendar imports never create projects.
func ParseCalendar(r io.Reader, opts CalendarOptions) (*Result, error) {
	var export calendarExport
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return nil, invalid("decoding calendar export: %v", err)
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	res := &Result{}
	seen := make(map[string]bool)
	add := func(ev *calendar.Event, calName string) error {
		if ev == nil || ev.Status == "cancelled" {
			return nil
		}
		if ev.Id == "" || strings.TrimSpace(ev.Summary) == "" {
			return invalid("event needs id and summary (id %q)", ev.Id)
		}
		if seen[ev.Id] {
			return nil
		}
		seen[ev.Id] = true

		start, err := eventTime(ev.Start, opts.Location)
		if err != nil {
			return invalid("event %q start: %v", ev.Id, err)
		}
		if !opts.IncludePast {
			end, err := eventTime(ev.End, opts.Location)
			if err != nil {
				end = start
			}
			if end.Before(opts.Now) {
				return nil
			}
		}

		t := tasks.NewTask(strings.TrimSpace(ev.Summary), opts.Now)
		t.ID = CalendarIDPrefix + ev.Id
		t.DueDate = &start
		t.Notes = eventNotes(ev, calName)
		res.Tasks = append(res.Tasks, t)
		return nil
	}

	for i, ev := range export.Items {
		if err := add(ev, ""); err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, err)
		}
	}
	for _, c := range export.Calendars {
		for i, ev := range c.Events {
			if err := add(ev, c.Summary); err != nil {
				return nil, fmt.Errorf("calendar %q events[%d]: %w", c.Summary, i, err)
			}
		}
	}
	return res, nil
}

func eventTime(dt *calendar.EventDateTime, loc *time.Location) (time.Time, error) {
	if dt == nil {
		return time.Time{}, errMissingTime
	}
	if dt.TimeZone != "" {
		if l, err := time.LoadLocation(dt.TimeZone); err == nil {
			loc = l
		}
	}
	if dt.DateTime != "" {
		return parseDate(dt.DateTime, loc)
	}
	if dt.Date != "" {
		return parseDate(dt.Date, loc)
	}
	return time.Time{}, errMissingTime
}

func eventNotes(ev *calendar.Event, calName string) string {
	var parts []string
	if d := strings.TrimSpace(ev.Description); d != "" {
		parts = append(parts, d)
	}
	if ev.Location != "" {
		parts = append(parts, "location: "+ev.Location)
	}
	if calName != "" {
		parts = append(parts, "calendar: "+calName)
	}
	if ev.HtmlLink != "" {
		parts = append(parts, ev.HtmlLink)
	}
	return strings.Join(parts, "\n")
}
