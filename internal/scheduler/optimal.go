package scheduler

import (
	"sort"
	"time"
)

// Plan splits a selection into the events kept by the greedy schedule and the
// ones it dropped.
type Plan struct {
	Optimal []Event `json:"optimal"`
	Skipped []Event `json:"skipped"`
}

// Schedule picks a conflict-free subset of events.
//
// With no conflicts the events are returned as they are. Otherwise a copy is
// stably sorted by StartDate alone (the clock time is ignored) and walked in
// that order: an event is kept unless its interval overlaps one already kept.
// Both lists come back in the sorted walk order. Unparseable dates sort last.
func Schedule(events []Event, conflicts []Conflict, r Resolver) Plan {
	if len(conflicts) == 0 {
		return Plan{Optimal: cloneEvents(events), Skipped: []Event{}}
	}

	sorted := SortByStartDate(events, r)

	plan := Plan{
		Optimal: make([]Event, 0, len(sorted)),
		Skipped: make([]Event, 0),
	}
	used := make([]Interval, 0, len(sorted))
	for _, ev := range sorted {
		iv := r.Resolve(ev)
		if overlapsAny(iv, used) {
			plan.Skipped = append(plan.Skipped, ev)
			continue
		}
		plan.Optimal = append(plan.Optimal, ev)
		used = append(used, iv)
	}
	return plan
}

func overlapsAny(iv Interval, used []Interval) bool {
	for _, slot := range used {
		if Overlaps(iv, slot) {
			return true
		}
	}
	return false
}

type dateKey struct {
	day time.Time
	ok  bool
}

// SortByStartDate returns a copy of events ordered by calendar date only,
// keeping the relative order of events on the same day.
func SortByStartDate(events []Event, r Resolver) []Event {
	sorted := cloneEvents(events)
	keys := make(map[string]dateKey, len(sorted))
	for _, ev := range sorted {
		if _, seen := keys[ev.StartDate]; seen {
			continue
		}
		day, ok := r.Day(ev.StartDate)
		keys[ev.StartDate] = dateKey{day: day, ok: ok}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := keys[sorted[i].StartDate], keys[sorted[j].StartDate]
		if a.ok != b.ok {
			return a.ok
		}
		return a.ok && a.day.Before(b.day)
	})
	return sorted
}
