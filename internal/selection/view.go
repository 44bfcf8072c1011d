package selection

import (
	"fmt"
	"strings"

	"github.com/example/event-planner/internal/scheduler"
)

// ViewMode selects which derived list the presentation layer renders.
type ViewMode string

const (
	// ViewAll renders every selected event.
	ViewAll ViewMode = "all"
	// ViewOptimal renders the conflict-free plan.
	ViewOptimal ViewMode = "optimal"
)

// ParseViewMode accepts "all" or "optimal", case-insensitively.
func ParseViewMode(value string) (ViewMode, error) {
	switch ViewMode(strings.ToLower(strings.TrimSpace(value))) {
	case ViewAll:
		return ViewAll, nil
	case ViewOptimal:
		return ViewOptimal, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidViewMode, value)
}

// View is the state derived from the current selection.
type View struct {
	SelectedEvents   []scheduler.Event    `json:"selectedEvents"`
	Conflicts        []scheduler.Conflict `json:"conflicts"`
	HasConflicts     bool                 `json:"hasConflicts"`
	OptimalEvents    []scheduler.Event    `json:"optimalEvents"`
	SkippedEvents    []scheduler.Event    `json:"skippedEvents"`
	TotalEventsCount int                  `json:"totalEventsCount"`
	ConflictCount    int                  `json:"conflictCount"`
	ViewMode         ViewMode             `json:"viewMode"`
}

// Displayed returns the list matching the view mode.
func (v View) Displayed() []scheduler.Event {
	if v.ViewMode == ViewOptimal {
		return v.OptimalEvents
	}
	return v.SelectedEvents
}

// Derive computes the view for the catalog events whose ids are in selected.
// SelectedEvents keeps catalog order; ids missing from the catalog are ignored.
func Derive(catalog []scheduler.Event, selected map[string]struct{}, r scheduler.Resolver) View {
	events := make([]scheduler.Event, 0, len(selected))
	for _, ev := range catalog {
		if _, ok := selected[ev.ID]; ok {
			events = append(events, ev)
		}
	}

	conflicts := scheduler.DetectConflicts(events, r)
	plan := scheduler.Schedule(events, conflicts, r)
	if conflicts == nil {
		conflicts = []scheduler.Conflict{}
	}

	return View{
		SelectedEvents:   events,
		Conflicts:        conflicts,
		HasConflicts:     len(conflicts) > 0,
		OptimalEvents:    plan.Optimal,
		SkippedEvents:    plan.Skipped,
		TotalEventsCount: len(events),
		ConflictCount:    len(conflicts),
		ViewMode:         ViewAll,
	}
}

func cloneView(v View) View {
	out := v
	out.SelectedEvents = append([]scheduler.Event{}, v.SelectedEvents...)
	out.OptimalEvents = append([]scheduler.Event{}, v.OptimalEvents...)
	out.SkippedEvents = append([]scheduler.Event{}, v.SkippedEvents...)
	out.Conflicts = make([]scheduler.Conflict, len(v.Conflicts))
	for i, c := range v.Conflicts {
		c.ConflictsWith = append([]string(nil), c.ConflictsWith...)
		out.Conflicts[i] = c
	}
	return out
}

// viewCache holds the last derived view until the selection or catalog changes.
type viewCache struct {
	view  View
	valid bool
}

func (c *viewCache) get() (View, bool) {
	if !c.valid {
		return View{}, false
	}
	return cloneView(c.view), true
}

func (c *viewCache) store(v View) {
	c.view = cloneView(v)
	c.valid = true
}

func (c *viewCache) invalidate() {
	c.view = View{}
	c.valid = false
}
