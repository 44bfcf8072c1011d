package application

import "github.com/example/event-planner/internal/scheduler"

// ListEventsParams narrows and orders the event listing. Empty fields mean
// no filter and startDate ascending.
type ListEventsParams struct {
	State string
	Type  string
	Query string
	Sort  string
	Order string
}

// ListedEvent is a catalog event annotated with its place in the current
// selection.
type ListedEvent struct {
	scheduler.Event
	State         string   `json:"state"`
	Selected      bool     `json:"selected"`
	ConflictsWith []string `json:"conflictsWith,omitempty"`
}

// ItineraryFormat selects the rendering of an itinerary.
type ItineraryFormat string

const (
	ItineraryText ItineraryFormat = "text"
	ItineraryICS  ItineraryFormat = "ics"
)

// ItineraryParams configures an itinerary export.
type ItineraryParams struct {
	Format ItineraryFormat
	// Title heads the document and names the file. Defaults to "My Events".
	Title string
	// Mode overrides the selection's view mode for this export.
	Mode string
}

// Itinerary is a rendered, downloadable plan.
type Itinerary struct {
	FileName    string
	ContentType string
	Body        string
}
