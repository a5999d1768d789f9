package classify

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	isoDatePattern   = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	slashDatePattern = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})(?:/(\d{2,4}))?\b`)
	monthDatePattern = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec)\.?\s+(\d{1,2})(st|nd|rd|th)?(?:,?\s+(\d{4}))?\b`)
	inPattern        = regexp.MustCompile(`(?i)\bin\s+(\d{1,3})\s+(day|week)s?\b`)
	// Abbreviations that are also English words only count when capitalised.
	weekdayPattern  = regexp.MustCompile(`\b((?i:next)\s+)?((?i:monday|tuesday|wednesday|thursday|friday|saturday|sunday|mon|tues|tue|weds|thurs|thur|thu|fri)|Wed|Sat|Sun)\b`)
	todayPattern    = regexp.MustCompile(`(?i)\b(today|tonight)\b`)
	tomorrowPattern = regexp.MustCompile(`(?i)\btomorrow\b`)
	nextWeekPattern = regexp.MustCompile(`(?i)\bnext\s+week\b`)
)

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October,
	"nov": time.November, "dec": time.December,
}

// weekdays maps the accepted day names to weekdays. Full names, mon, tue,
// tues, weds, thu, thur, thurs and fri match in any case; wed, sat and sun
// only as Wed, Sat and Sun.
var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday, "weds": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

// startOfDay truncates t to local midnight in its own location.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ExtractDueDate finds a date in text relative to ref. Explicit dates win
// over relative terms, which win over weekday names. The result is midnight
// of the resolved day in ref's location.
func ExtractDueDate(text string, ref time.Time) *time.Time {
	day := startOfDay(ref)
	loc := ref.Location()

	if m := isoDatePattern.FindStringSubmatch(text); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		if t, ok := validDate(y, mo, d, loc); ok {
			return &t
		}
	}
	if m := slashDatePattern.FindStringSubmatch(text); m != nil {
		mo, _ := strconv.Atoi(m[1])
		d, _ := strconv.Atoi(m[2])
		y := day.Year()
		if m[3] != "" {
			y, _ = strconv.Atoi(m[3])
			if y < 100 {
				y += 2000
			}
		}
		if t, ok := validDate(y, mo, d, loc); ok {
			if m[3] == "" && t.Before(day) {
				t = t.AddDate(1, 0, 0)
			}
			return &t
		}
	}
	for _, m := range monthDatePattern.FindAllStringSubmatch(text, -1) {
		if modalMay(m) {
			continue
		}
		mo := months[strings.ToLower(m[1])[:3]]
		d, _ := strconv.Atoi(m[2])
		y := day.Year()
		if m[4] != "" {
			y, _ = strconv.Atoi(m[4])
		}
		if t, ok := validDate(y, int(mo), d, loc); ok {
			if m[4] == "" && t.Before(day) {
				t = t.AddDate(1, 0, 0)
			}
			return &t
		}
	}

	switch {
	case todayPattern.MatchString(text):
		return &day
	case tomorrowPattern.MatchString(text):
		t := day.AddDate(0, 0, 1)
		return &t
	case nextWeekPattern.MatchString(text):
		t := day.AddDate(0, 0, 7)
		return &t
	}
	if m := inPattern.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		if strings.EqualFold(m[2], "week") {
			n *= 7
		}
		t := day.AddDate(0, 0, n)
		return &t
	}
	if m := weekdayPattern.FindStringSubmatch(text); m != nil {
		t := resolveWeekday(day, weekdays[strings.ToLower(m[2])], m[1] != "")
		return &t
	}
	return nil
}

// modalMay reports whether a month-date match is the verb in "may 5 people
// come". Lowercase "may" is a month only with an ordinal or a year.
func modalMay(m []string) bool {
	return m[1] != "May" && strings.EqualFold(m[1], "may") && m[3] == "" && m[4] == ""
}

// resolveWeekday returns the next occurrence of wd on or after day. A bare
// weekday equal to today resolves to today; with "next" it resolves a week out.
func resolveWeekday(day time.Time, wd time.Weekday, next bool) time.Time {
	delta := (int(wd) - int(day.Weekday()) + 7) % 7
	if delta == 0 && next {
		delta = 7
	}
	return day.AddDate(0, 0, delta)
}

func validDate(y, m, d int, loc *time.Location) (time.Time, bool) {
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, loc)
	if t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

var (
	startTimePattern = regexp.MustCompile(`(?i)\b(?:at|from)\s+(\d{1,2})(?::(\d{2}))?\s*(?:([ap])\.?m\b\.?)?`)
	bareTimePattern  = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*([ap])\.?m\b\.?`)
	endTimePattern   = regexp.MustCompile(`(?i)(?:\b(?:until|till|to)\s+|^\s*-\s*)(\d{1,2})(?::(\d{2}))?\s*(?:([ap])\.?m\b\.?)?`)
)

// clock is a parsed time of day.
type clock struct {
	hour, min int
	meridiem  byte // 'a', 'p' or 0
	end       int  // offset just past the match
}

func parseClock(m []string, end int) (clock, bool) {
	h, err := strconv.Atoi(m[1])
	if err != nil {
		return clock{}, false
	}
	mins := 0
	if m[2] != "" {
		mins, _ = strconv.Atoi(m[2])
	}
	c := clock{hour: h, min: mins, end: end}
	if m[3] != "" {
		c.meridiem = strings.ToLower(m[3])[0]
	}
	// A bare "at 3" with neither minutes nor meridiem is not a time.
	if m[2] == "" && c.meridiem == 0 {
		return clock{}, false
	}
	if mins > 59 || (c.meridiem != 0 && (h < 1 || h > 12)) || h > 23 {
		return clock{}, false
	}
	return c, true
}

func (c clock) hour24(meridiem byte) int {
	h := c.hour
	switch meridiem {
	case 'p':
		if h < 12 {
			h += 12
		}
	case 'a':
		if h == 12 {
			h = 0
		}
	}
	return h
}

func (c clock) on(day time.Time, meridiem byte) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.hour24(meridiem), c.min, 0, 0, day.Location())
}

// ExtractTimes parses an event start and end from text on the given day.
// ok is false when no start time is present. A missing or non-increasing
// end defaults to one hour after the start.
func ExtractTimes(text string, day time.Time) (start, end time.Time, ok bool) {
	var sc clock
	found := false
	for _, idx := range startTimePattern.FindAllStringSubmatchIndex(text, -1) {
		if c, valid := parseClock(submatches(text, idx), idx[1]); valid {
			sc, found = c, true
			break
		}
	}
	if !found {
		idx := bareTimePattern.FindStringSubmatchIndex(text)
		if idx == nil {
			return time.Time{}, time.Time{}, false
		}
		c, valid := parseClock(submatches(text, idx), idx[1])
		if !valid {
			return time.Time{}, time.Time{}, false
		}
		sc = c
	}

	start = sc.on(day, sc.meridiem)
	end = start.Add(time.Hour)

	rest := text[sc.end:]
	if idx := endTimePattern.FindStringSubmatchIndex(rest); idx != nil {
		if ec, valid := parseEndClock(submatches(rest, idx)); valid {
			mer := ec.meridiem
			if mer == 0 {
				mer = sc.meridiem
			}
			if candidate := ec.on(day, mer); candidate.After(start) {
				end = candidate
			} else if ec.meridiem == 0 && ec.hour >= 1 && ec.hour <= 12 {
				// "11 am until 1" means 1 pm.
				if candidate := ec.on(day, flip(sc.meridiem)); candidate.After(start) {
					end = candidate
				}
			}
		}
	}
	return start, end, true
}

// flip returns the other half of the day. A 24-hour start counts as am.
func flip(meridiem byte) byte {
	if meridiem == 'p' {
		return 'a'
	}
	return 'p'
}

// parseEndClock accepts a bare hour ("until 4") since the start already
// established this is a time range.
func parseEndClock(m []string) (clock, bool) {
	h, err := strconv.Atoi(m[1])
	if err != nil || h > 23 {
		return clock{}, false
	}
	c := clock{hour: h}
	if m[2] != "" {
		c.min, _ = strconv.Atoi(m[2])
		if c.min > 59 {
			return clock{}, false
		}
	}
	if m[3] != "" {
		c.meridiem = strings.ToLower(m[3])[0]
		if h < 1 || h > 12 {
			return clock{}, false
		}
	}
	return c, true
}

func submatches(s string, idx []int) []string {
	out := make([]string, len(idx)/2)
	for i := range out {
		if idx[2*i] >= 0 {
			out[i] = s[idx[2*i]:idx[2*i+1]]
		}
	}
	return out
}
