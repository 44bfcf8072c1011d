// Package testfixtures provides deterministic events and storage harnesses for tests.
package testfixtures

import (
	"fmt"
	"sync/atomic"

	"github.com/example/event-planner/internal/scheduler"
)

var eventCounter uint64

// ReferenceDate is the default calendar date of generated events.
const ReferenceDate = "2025-01-14"

// EventOption configures a generated event.
type EventOption func(*scheduler.Event)

// NewEvent returns a deterministic single-day culture event at 09:00 AM on
// ReferenceDate with optional overrides.
func NewEvent(opts ...EventOption) scheduler.Event {
	idx := atomic.AddUint64(&eventCounter, 1)
	ev := scheduler.Event{
		ID:          fmt.Sprintf("event-%03d", idx),
		Title:       fmt.Sprintf("Event %03d", idx),
		Location:    "Town Hall",
		District:    "Central",
		StartDate:   ReferenceDate,
		EndDate:     ReferenceDate,
		Time:        "09:00 AM",
		Type:        scheduler.EventTypeCulture,
		Description: "fixture",
	}
	for _, opt := range opts {
		opt(&ev)
	}
	return ev
}

// At is shorthand for a single-day event with the given id, date and clock.
func At(id, date, clock string) scheduler.Event {
	return NewEvent(WithID(id), WithDate(date), WithTime(clock))
}

// WithID overrides the generated id.
func WithID(id string) EventOption {
	return func(ev *scheduler.Event) {
		ev.ID = id
	}
}

// WithTitle overrides the generated title.
func WithTitle(title string) EventOption {
	return func(ev *scheduler.Event) {
		ev.Title = title
	}
}

// WithDate sets both start and end date.
func WithDate(date string) EventOption {
	return func(ev *scheduler.Event) {
		ev.StartDate = date
		ev.EndDate = date
	}
}

// WithDates sets start and end date separately.
func WithDates(start, end string) EventOption {
	return func(ev *scheduler.Event) {
		ev.StartDate = start
		ev.EndDate = end
	}
}

// WithTime overrides the clock string.
func WithTime(clock string) EventOption {
	return func(ev *scheduler.Event) {
		ev.Time = clock
	}
}

// WithType overrides the event type.
func WithType(t scheduler.EventType) EventOption {
	return func(ev *scheduler.Event) {
		ev.Type = t
	}
}

// WithLocation overrides location and district.
func WithLocation(location, district string) EventOption {
	return func(ev *scheduler.Event) {
		ev.Location = location
		ev.District = district
	}
}
