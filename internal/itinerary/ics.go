package itinerary

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/example/event-planner/internal/scheduler"
)

const productID = "-//event-planner//itinerary//EN"

// ExportICS renders events as an iCalendar document. Timed events span the
// resolved interval; events without a usable clock become all-day entries.
// Events whose dates do not resolve are left out.
func ExportICS(title string, events []scheduler.Event, r scheduler.Resolver) (string, error) {
	return exportICS(title, events, r, time.Now().UTC())
}

func exportICS(title string, events []scheduler.Event, r scheduler.Resolver, stamp time.Time) (string, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName(strings.TrimSpace(title + " Itinerary"))

	for _, ev := range scheduler.SortByStartDate(events, r) {
		iv := r.Resolve(ev)
		if !iv.Valid {
			continue
		}

		vevent := cal.AddEvent(ev.ID + "@event-planner")
		vevent.SetDtStampTime(stamp)
		if scheduler.HasClock(ev.Time) {
			vevent.SetStartAt(iv.Start)
			vevent.SetEndAt(iv.End)
		} else {
			vevent.SetAllDayStartAt(iv.Start)
			vevent.SetAllDayEndAt(iv.End.AddDate(0, 0, 1))
		}
		vevent.SetSummary(ev.Title)
		if ev.Location != "" {
			vevent.SetLocation(ev.Location)
		}
		if ev.Description != "" {
			vevent.SetDescription(ev.Description)
		}
		if ev.Type != "" {
			vevent.AddProperty(ics.ComponentPropertyCategories, string(ev.Type))
		}
	}

	var b strings.Builder
	if err := cal.SerializeTo(&b); err != nil {
		return "", fmt.Errorf("itinerary: serialize ics: %w", err)
	}
	return b.String(), nil
}
