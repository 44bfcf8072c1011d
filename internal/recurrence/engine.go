// Package recurrence expands RFC 5545 RRULE strings into occurrence dates.
package recurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// DefaultLimit caps expansion of rules that carry neither COUNT nor UNTIL.
const DefaultLimit = 366

// ErrInvalidRule indicates the RRULE text could not be parsed.
var ErrInvalidRule = errors.New("recurrence: invalid rule")

// ErrInvalidWindow indicates until falls before the first occurrence.
var ErrInvalidWindow = errors.New("recurrence: until precedes start")

// Engine expands recurrence rules in a fixed time zone.
type Engine struct {
	Location *time.Location
}

// NewEngine constructs an Engine for loc. If loc is nil, time.Local is used.
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.Local
	}
	return &Engine{Location: loc}
}

// Expand returns the occurrence start times of rule anchored at start.
//
// The engine enforces the following semantics:
//   - start is the first candidate (DTSTART) and is reinterpreted in the
//     engine's zone with its wall clock kept.
//   - until, when non-nil, is an inclusive upper bound on top of any UNTIL in
//     the rule.
//   - At most limit occurrences are returned; a limit <= 0 means DefaultLimit.
func (e *Engine) Expand(rule string, start time.Time, until *time.Time, limit int) ([]time.Time, error) {
	loc := e.location()
	if limit <= 0 {
		limit = DefaultLimit
	}

	text := strings.TrimSpace(rule)
	text = strings.TrimPrefix(strings.TrimPrefix(text, "RRULE:"), "rrule:")
	if text == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidRule)
	}

	r, err := rrule.StrToRRule(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}

	anchor := time.Date(start.Year(), start.Month(), start.Day(), start.Hour(), start.Minute(), start.Second(), 0, loc)
	r.DTStart(anchor)

	var bound time.Time
	if until != nil {
		bound = until.In(loc)
		if bound.Before(anchor) {
			return nil, ErrInvalidWindow
		}
	}

	next := r.Iterator()
	occurrences := make([]time.Time, 0)
	for len(occurrences) < limit {
		value, ok := next()
		if !ok {
			break
		}
		if !bound.IsZero() && value.After(bound) {
			break
		}
		occurrences = append(occurrences, value.In(loc))
	}
	return occurrences, nil
}

func (e *Engine) location() *time.Location {
	if e == nil || e.Location == nil {
		return time.Local
	}
	return e.Location
}
