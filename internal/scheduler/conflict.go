package scheduler

import "fmt"

// Conflict lists the events that overlap EventID.
type Conflict struct {
	EventID       string   `json:"eventId"`
	ConflictsWith []string `json:"conflictsWith"`
	Reason        string   `json:"reason"`
}

// DetectConflicts compares every pair of events and returns one Conflict per
// event that overlaps at least one other. Events without overlaps are absent
// from the result.
//
// Results follow the input order of EventID, and ConflictsWith follows the
// input order of the partners. Partners are unique and the relation is
// symmetric.
func DetectConflicts(events []Event, r Resolver) []Conflict {
	if len(events) < 2 {
		return nil
	}

	intervals := make([]Interval, len(events))
	for i, ev := range events {
		intervals[i] = r.Resolve(ev)
	}

	partners := make([][]int, len(events))
	for i := range events {
		for j := i + 1; j < len(events); j++ {
			if !Overlaps(intervals[i], intervals[j]) {
				continue
			}
			partners[i] = append(partners[i], j)
			partners[j] = append(partners[j], i)
		}
	}

	var conflicts []Conflict
	position := make(map[string]int)
	for i, ev := range events {
		if len(partners[i]) == 0 {
			continue
		}
		idx, ok := position[ev.ID]
		if !ok {
			idx = len(conflicts)
			position[ev.ID] = idx
			conflicts = append(conflicts, Conflict{EventID: ev.ID})
		}
		for _, p := range partners[i] {
			conflicts[idx].ConflictsWith = appendUnique(conflicts[idx].ConflictsWith, ev.ID, events[p].ID)
		}
	}

	// A repeated id that only overlaps its own copy has no partners left.
	out := conflicts[:0]
	for _, c := range conflicts {
		if len(c.ConflictsWith) == 0 {
			continue
		}
		c.Reason = fmt.Sprintf("Overlaps with %d event(s)", len(c.ConflictsWith))
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func appendUnique(ids []string, self, id string) []string {
	if id == self {
		return ids
	}
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

// ConflictIndex keys conflicts by event id.
func ConflictIndex(conflicts []Conflict) map[string]Conflict {
	index := make(map[string]Conflict, len(conflicts))
	for _, c := range conflicts {
		index[c.EventID] = c
	}
	return index
}
