package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/example/event-planner/internal/scheduler"
)

// SortField names a column of the events table.
type SortField string

const (
	SortByTitle     SortField = "title"
	SortByStartDate SortField = "startDate"
	SortByType      SortField = "type"
	SortByLocation  SortField = "location"
)

// SortOrder is asc or desc.
type SortOrder string

const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

var (
	// ErrInvalidSortField is returned for unknown sort columns.
	ErrInvalidSortField = errors.New("catalog: invalid sort field")
	// ErrInvalidSortOrder is returned for orders other than asc and desc.
	ErrInvalidSortOrder = errors.New("catalog: invalid sort order")
)

// ParseSort validates the sort query parameters. Empty values default to
// startDate ascending.
func ParseSort(field, order string) (SortField, SortOrder, error) {
	f := SortField(strings.TrimSpace(field))
	switch f {
	case "":
		f = SortByStartDate
	case SortByTitle, SortByStartDate, SortByType, SortByLocation:
	default:
		return "", "", fmt.Errorf("%w: %q", ErrInvalidSortField, field)
	}

	o := SortOrder(strings.ToLower(strings.TrimSpace(order)))
	switch o {
	case "":
		o = Ascending
	case Ascending, Descending:
	default:
		return "", "", fmt.Errorf("%w: %q", ErrInvalidSortOrder, order)
	}
	return f, o, nil
}

// SortEvents returns a stably sorted copy of events. Text columns use English
// collation; startDate compares calendar days in r's zone with unparseable
// dates last in either order.
func SortEvents(events []scheduler.Event, field SortField, order SortOrder, r scheduler.Resolver) []scheduler.Event {
	sorted := append([]scheduler.Event(nil), events...)
	desc := order == Descending

	if field == SortByStartDate {
		days := make([]struct {
			ok  bool
			day int64
		}, len(sorted))
		perm := make([]int, len(sorted))
		for i, ev := range sorted {
			perm[i] = i
			if d, ok := r.Day(ev.StartDate); ok {
				days[i].ok = true
				days[i].day = d.Unix()
			}
		}
		sort.SliceStable(perm, func(i, j int) bool {
			a, b := days[perm[i]], days[perm[j]]
			if a.ok != b.ok {
				return a.ok
			}
			if desc {
				return a.day > b.day
			}
			return a.day < b.day
		})
		out := make([]scheduler.Event, len(sorted))
		for i, p := range perm {
			out[i] = sorted[p]
		}
		return out
	}

	col := collate.New(language.English, collate.IgnoreCase)
	key := func(ev scheduler.Event) string {
		switch field {
		case SortByTitle:
			return ev.Title
		case SortByType:
			return string(ev.Type)
		default:
			return ev.Location
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		cmp := col.CompareString(key(sorted[i]), key(sorted[j]))
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
	return sorted
}
