// Package itinerary renders a list of planned events as a day by day plan,
// either as plain text or as an iCalendar feed.
package itinerary

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/example/event-planner/internal/scheduler"
)

// DayLayout is the heading format of each day.
const DayLayout = "Monday, January 2, 2006"

// Unscheduled heads the group of events whose start date does not parse.
const Unscheduled = "Unscheduled"

var whitespace = regexp.MustCompile(`\s+`)

// Day holds the events starting on one calendar date. Date is the zero time
// for the unscheduled group.
type Day struct {
	Date   time.Time         `json:"date"`
	Events []scheduler.Event `json:"events"`
}

// Heading returns the text heading of the day.
func (d Day) Heading() string {
	if d.Date.IsZero() {
		return Unscheduled
	}
	return d.Date.Format(DayLayout)
}

// GroupByDay orders events by start date and groups the ones sharing a date.
// Events keep their relative order within a day; events with an unparseable
// start date form a final group.
func GroupByDay(events []scheduler.Event, r scheduler.Resolver) []Day {
	sorted := scheduler.SortByStartDate(events, r)

	days := make([]Day, 0)
	var unscheduled []scheduler.Event
	for _, ev := range sorted {
		date, ok := r.Day(ev.StartDate)
		if !ok {
			unscheduled = append(unscheduled, ev)
			continue
		}
		if n := len(days); n > 0 && days[n-1].Date.Equal(date) {
			days[n-1].Events = append(days[n-1].Events, ev)
			continue
		}
		days = append(days, Day{Date: date, Events: []scheduler.Event{ev}})
	}
	if len(unscheduled) > 0 {
		days = append(days, Day{Events: unscheduled})
	}
	return days
}

// FormatText renders the plain-text itinerary.
func FormatText(title string, days []Day) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s Itinerary\n%s\n\n", title, strings.Repeat("=", 40))
	for i, day := range days {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(day.Heading())
		for _, ev := range day.Events {
			fmt.Fprintf(&b, "\n  - %s: %s @ %s", ev.Time, ev.Title, ev.Location)
		}
	}
	return b.String()
}

// FileName returns the download name for an itinerary, e.g.
// "tamil-nadu-itinerary.txt".
func FileName(title, ext string) string {
	base := whitespace.ReplaceAllString(strings.ToLower(strings.TrimSpace(title)), "-")
	if base == "" {
		base = "my"
	}
	return base + "-itinerary." + strings.TrimPrefix(ext, ".")
}
