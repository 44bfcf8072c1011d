// Package scheduler resolves catalog events into concrete time intervals,
// detects pairwise overlaps between them and derives a conflict-free plan.
//
// Everything in this package is pure: no I/O, no logging and no errors. Malformed
// input degrades to an interval that never overlaps anything rather than failing.
package scheduler

// EventType tags the kind of a catalog event.
type EventType string

const (
	EventTypeCulture   EventType = "Culture"
	EventTypeFood      EventType = "Food"
	EventTypeAdventure EventType = "Adventure"
	EventTypeHistoric  EventType = "Historic"
	EventTypeTech      EventType = "Tech"
)

// EventTypes lists the known event types in display order.
var EventTypes = []EventType{EventTypeCulture, EventTypeFood, EventTypeAdventure, EventTypeHistoric, EventTypeTech}

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	for _, known := range EventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Event is a catalog entry a user can add to their plan. StartDate and EndDate
// use the YYYY-MM-DD layout and Time is a 12-hour clock such as "09:00 AM".
type Event struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Location    string    `json:"location" yaml:"location"`
	District    string    `json:"district" yaml:"district"`
	StartDate   string    `json:"startDate" yaml:"startDate"`
	EndDate     string    `json:"endDate" yaml:"endDate"`
	Time        string    `json:"time" yaml:"time"`
	Type        EventType `json:"type" yaml:"type"`
	Description string    `json:"description,omitempty" yaml:"description"`
}

// IDs returns the identifiers of events in order.
func IDs(events []Event) []string {
	if len(events) == 0 {
		return nil
	}
	ids := make([]string, len(events))
	for i, ev := range events {
		ids[i] = ev.ID
	}
	return ids
}

func cloneEvents(events []Event) []Event {
	out := make([]Event, len(events))
	copy(out, events)
	return out
}
