package scheduler

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// AssumedDuration is the length given to every event whose time parses.
const AssumedDuration = 2 * time.Hour

// DateLayout is the calendar date layout used by StartDate and EndDate.
const DateLayout = "2006-01-02"

var clockPattern = regexp.MustCompile(`(?i)(\d{1,2}):(\d{2})\s*(AM|PM)`)

// Interval is the concrete span an event occupies. An invalid interval never
// overlaps anything.
type Interval struct {
	Start time.Time
	End   time.Time
	Valid bool
}

// Resolver turns an event's date and clock strings into an Interval.
type Resolver struct {
	Location *time.Location
	Duration time.Duration
}

// NewResolver returns a Resolver interpreting dates in loc. A nil loc means time.Local.
func NewResolver(loc *time.Location) Resolver {
	return Resolver{Location: loc, Duration: AssumedDuration}
}

// Resolve resolves ev using the local time zone and the assumed duration.
func Resolve(ev Event) Interval {
	return NewResolver(nil).Resolve(ev)
}

// Resolve computes the interval for ev.
//
// Start is StartDate at the parsed clock time. End is EndDate at the parsed
// clock time plus the duration, so a multi-day event ends on its last day. When
// Time does not parse both ends stay at midnight of their dates. The interval is
// invalid if either date is malformed or End falls before Start.
func (r Resolver) Resolve(ev Event) Interval {
	loc := r.location()
	startDay, startErr := time.ParseInLocation(DateLayout, strings.TrimSpace(ev.StartDate), loc)
	endDay, endErr := time.ParseInLocation(DateLayout, strings.TrimSpace(ev.EndDate), loc)
	if startErr != nil || endErr != nil {
		return Interval{Start: startDay, End: endDay}
	}

	iv := Interval{Start: startDay, End: endDay}
	if hour, minute, ok := parseClock(ev.Time); ok {
		iv.Start = time.Date(startDay.Year(), startDay.Month(), startDay.Day(), hour, minute, 0, 0, loc)
		iv.End = time.Date(endDay.Year(), endDay.Month(), endDay.Day(), hour, minute, 0, 0, loc).Add(r.duration())
	}
	iv.Valid = !iv.End.Before(iv.Start)
	return iv
}

// Day parses an event date at midnight in the resolver's location.
func (r Resolver) Day(date string) (time.Time, bool) {
	day, err := time.ParseInLocation(DateLayout, strings.TrimSpace(date), r.location())
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}

func (r Resolver) location() *time.Location {
	if r.Location == nil {
		return time.Local
	}
	return r.Location
}

func (r Resolver) duration() time.Duration {
	if r.Duration <= 0 {
		return AssumedDuration
	}
	return r.Duration
}

// HasClock reports whether value holds a 12-hour clock time Resolve can use.
func HasClock(value string) bool {
	_, _, ok := parseClock(value)
	return ok
}

// parseClock converts a 12-hour clock to 24-hour fields. Out of range values
// are returned as is and normalised by time.Date.
func parseClock(value string) (hour, minute int, ok bool) {
	m := clockPattern.FindStringSubmatch(value)
	if m == nil {
		return 0, 0, false
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	switch strings.ToUpper(m[3]) {
	case "PM":
		if hour != 12 {
			hour += 12
		}
	case "AM":
		if hour == 12 {
			hour = 0
		}
	}
	return hour, minute, true
}

// Overlaps reports whether a and b share at least one instant. Touching
// endpoints count as overlapping.
func Overlaps(a, b Interval) bool {
	if !a.Valid || !b.Valid {
		return false
	}
	return !a.Start.After(b.End) && !b.Start.After(a.End)
}
