// Package catalog loads the browsable event catalog from YAML and answers the
// listing queries of the events page: flatten, filter, look up and sort.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/example/event-planner/internal/recurrence"
	"github.com/example/event-planner/internal/scheduler"
)

//go:embed default.yaml
var defaultCatalog string

// occurrenceSeparator joins a recurring entry's id and the occurrence date.
const occurrenceSeparator = "@"

// FamousPlace is an attraction highlighted on a state's page.
type FamousPlace struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
}

// District is an administrative area of a state.
type District struct {
	Name string `yaml:"name" json:"name"`
}

// Entry is an event as written in the catalog file. A non-empty Recurrence
// holds an RRULE that repeats the event from StartDate, bounded by Until.
type Entry struct {
	scheduler.Event `yaml:",inline"`
	Recurrence      string `yaml:"recurrence,omitempty"`
	Until           string `yaml:"until,omitempty"`
}

// State groups the events of one Indian state.
type State struct {
	ID           string        `yaml:"id" json:"id"`
	Name         string        `yaml:"name" json:"name"`
	Capital      string        `yaml:"capital" json:"capital"`
	Description  string        `yaml:"description" json:"description"`
	FamousPlaces []FamousPlace `yaml:"famousPlaces" json:"famousPlaces"`
	Events       []Entry       `yaml:"events" json:"-"`
	Districts    []District    `yaml:"districts" json:"districts"`
}

// Catalog is an immutable, validated event catalog.
type Catalog struct {
	States []State `yaml:"states"`

	events []scheduler.Event
	states []int
	index  map[string]int
}

// LoadError lists every problem found while validating a catalog.
type LoadError struct {
	Problems []string
}

func (e *LoadError) Error() string {
	if e == nil || len(e.Problems) == 0 {
		return "catalog: invalid"
	}
	return "catalog: invalid: " + strings.Join(e.Problems, "; ")
}

func (e *LoadError) addf(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

// ErrEmpty is returned when the catalog document holds no states.
var ErrEmpty = errors.New("catalog: no states defined")

// Load decodes and validates a catalog, expanding recurring entries with
// engine. A nil engine expands in time.Local.
func Load(r io.Reader, engine *recurrence.Engine) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmpty
		}
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	if len(c.States) == 0 {
		return nil, ErrEmpty
	}
	if engine == nil {
		engine = recurrence.NewEngine(nil)
	}
	if err := c.build(engine); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadFile reads the catalog at path.
func LoadFile(path string, engine *recurrence.Engine) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open: %w", err)
	}
	defer f.Close()
	return Load(f, engine)
}

// Default returns the built-in catalog.
func Default(engine *recurrence.Engine) (*Catalog, error) {
	return Load(strings.NewReader(defaultCatalog), engine)
}

func (c *Catalog) build(engine *recurrence.Engine) error {
	problems := &LoadError{}
	seenStates := make(map[string]struct{}, len(c.States))
	seenEvents := make(map[string]struct{})
	c.index = make(map[string]int)

	for si, st := range c.States {
		if strings.TrimSpace(st.ID) == "" {
			problems.addf("state %d: id is required", si)
		} else if _, dup := seenStates[st.ID]; dup {
			problems.addf("state %s: duplicate id", st.ID)
		}
		seenStates[st.ID] = struct{}{}

		for _, entry := range st.Events {
			id := entry.ID
			switch {
			case strings.TrimSpace(id) == "":
				problems.addf("state %s: event without id", st.ID)
				continue
			case strings.Contains(id, occurrenceSeparator):
				problems.addf("event %s: id must not contain %q", id, occurrenceSeparator)
				continue
			}
			if _, dup := seenEvents[id]; dup {
				problems.addf("event %s: duplicate id", id)
				continue
			}
			seenEvents[id] = struct{}{}

			if !entry.Type.Valid() {
				problems.addf("event %s: unknown type %q", id, entry.Type)
			}
			occurrences, err := expand(entry, engine)
			if err != nil {
				problems.addf("event %s: %v", id, err)
				continue
			}
			for _, ev := range occurrences {
				c.index[ev.ID] = len(c.events)
				c.events = append(c.events, ev)
				c.states = append(c.states, si)
			}
		}
	}

	if len(problems.Problems) > 0 {
		return problems
	}
	return nil
}

// expand returns the events an entry stands for: itself, or one event per
// occurrence keeping the entry's day span.
func expand(entry Entry, engine *recurrence.Engine) ([]scheduler.Event, error) {
	resolver := scheduler.NewResolver(engine.Location)
	start, ok := resolver.Day(entry.StartDate)
	if !ok {
		return nil, fmt.Errorf("invalid startDate %q", entry.StartDate)
	}
	if strings.TrimSpace(entry.Recurrence) == "" {
		return []scheduler.Event{entry.Event}, nil
	}

	end, ok := resolver.Day(entry.EndDate)
	if !ok || end.Before(start) {
		return nil, fmt.Errorf("recurring event needs endDate on or after startDate")
	}
	spanDays := int(end.Sub(start).Hours()+12) / 24

	var until *time.Time
	if strings.TrimSpace(entry.Until) != "" {
		day, ok := resolver.Day(entry.Until)
		if !ok {
			return nil, fmt.Errorf("invalid until %q", entry.Until)
		}
		last := day.AddDate(0, 0, 1).Add(-time.Nanosecond)
		until = &last
	}

	dates, err := engine.Expand(entry.Recurrence, start, until, 0)
	if err != nil {
		return nil, err
	}
	events := make([]scheduler.Event, 0, len(dates))
	for _, date := range dates {
		ev := entry.Event
		ev.ID = entry.ID + occurrenceSeparator + date.Format(scheduler.DateLayout)
		ev.StartDate = date.Format(scheduler.DateLayout)
		ev.EndDate = date.AddDate(0, 0, spanDays).Format(scheduler.DateLayout)
		events = append(events, ev)
	}
	return events, nil
}

// Events returns every event in file order with recurring entries expanded.
func (c *Catalog) Events() []scheduler.Event {
	return append([]scheduler.Event(nil), c.events...)
}

// Len reports the number of events after expansion.
func (c *Catalog) Len() int {
	return len(c.events)
}

// Lookup finds an event by id.
func (c *Catalog) Lookup(id string) (scheduler.Event, bool) {
	i, ok := c.index[id]
	if !ok {
		return scheduler.Event{}, false
	}
	return c.events[i], true
}

// StateOf returns the state an event belongs to.
func (c *Catalog) StateOf(id string) (State, bool) {
	i, ok := c.index[id]
	if !ok {
		return State{}, false
	}
	return c.States[c.states[i]], true
}

// Filter narrows the listing. Empty fields match everything.
type Filter struct {
	// State matches a state id or name, case-insensitively.
	State string
	Type  scheduler.EventType
	// Query matches a substring of the title or location, case-insensitively.
	Query string
}

// Filter returns the events matching f in catalog order.
func (c *Catalog) Filter(f Filter) []scheduler.Event {
	state := strings.ToLower(strings.TrimSpace(f.State))
	query := strings.ToLower(strings.TrimSpace(f.Query))

	out := make([]scheduler.Event, 0, len(c.events))
	for i, ev := range c.events {
		if state != "" {
			st := c.States[c.states[i]]
			if strings.ToLower(st.ID) != state && strings.ToLower(st.Name) != state {
				continue
			}
		}
		if f.Type != "" && ev.Type != f.Type {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(ev.Title), query) &&
			!strings.Contains(strings.ToLower(ev.Location), query) {
			continue
		}
		out = append(out, ev)
	}
	return out
}
