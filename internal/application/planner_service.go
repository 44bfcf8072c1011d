package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/example/event-planner/internal/catalog"
	"github.com/example/event-planner/internal/itinerary"
	"github.com/example/event-planner/internal/scheduler"
	"github.com/example/event-planner/internal/selection"
)

// DefaultItineraryTitle heads exports requested without a title.
const DefaultItineraryTitle = "My Events"

// PlannerService coordinates the event catalog and the user's selection.
type PlannerService struct {
	mu         sync.RWMutex
	catalog    *catalog.Catalog
	generation uint64

	store    *selection.Store
	resolver scheduler.Resolver
	listings *listingCache
	logger   *slog.Logger
}

// NewPlannerService wires the catalog and selection store. The store's
// catalog is replaced with c's events.
func NewPlannerService(c *catalog.Catalog, store *selection.Store, resolver scheduler.Resolver, logger *slog.Logger) (*PlannerService, error) {
	if c == nil {
		return nil, errors.New("planner: catalog is required")
	}
	if store == nil {
		return nil, errors.New("planner: selection store is required")
	}
	store.SetCatalog(c.Events())
	return &PlannerService{
		catalog:  c,
		store:    store,
		resolver: resolver,
		listings: newListingCache(0, 0, nil),
		logger:   defaultLogger(logger),
	}, nil
}

func (s *PlannerService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "PlannerService", operation, attrs...)
}

func (s *PlannerService) currentCatalog() *catalog.Catalog {
	c, _ := s.snapshot()
	return c
}

func (s *PlannerService) snapshot() (*catalog.Catalog, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog, s.generation
}

// ListEvents filters and sorts the catalog and marks the events already
// selected along with their conflict partners.
func (s *PlannerService) ListEvents(ctx context.Context, params ListEventsParams) ([]ListedEvent, error) {
	vErr := &ValidationError{}
	eventType := scheduler.EventType(strings.TrimSpace(params.Type))
	if eventType != "" && !eventType.Valid() {
		vErr.add("type", "must be one of Culture, Food, Adventure, Historic, Tech")
	}
	field, order, err := catalog.ParseSort(params.Sort, params.Order)
	if err != nil {
		vErr.merge(sortValidation(err))
	}
	if vErr.HasErrors() {
		s.loggerWith(ctx, "ListEvents").WarnContext(ctx, "invalid listing query", "fields", vErr.FieldErrors)
		return nil, vErr
	}

	c, generation := s.snapshot()
	key := buildListingCacheKey(generation, params)
	events, ok := s.listings.Get(key)
	if !ok {
		events = catalog.SortEvents(c.Filter(catalog.Filter{
			State: params.State,
			Type:  eventType,
			Query: params.Query,
		}), field, order, s.resolver)
		s.listings.Store(key, events)
	}

	view := s.store.View()
	conflicts := scheduler.ConflictIndex(view.Conflicts)
	listed := make([]ListedEvent, len(events))
	for i, ev := range events {
		listed[i] = ListedEvent{Event: ev, Selected: s.store.IsSelected(ev.ID)}
		if st, ok := c.StateOf(ev.ID); ok {
			listed[i].State = st.Name
		}
		if conflict, ok := conflicts[ev.ID]; ok {
			listed[i].ConflictsWith = conflict.ConflictsWith
		}
	}
	return listed, nil
}

func sortValidation(err error) *ValidationError {
	v := &ValidationError{}
	switch {
	case errors.Is(err, catalog.ErrInvalidSortField):
		v.add("sort", "must be one of title, startDate, type, location")
	case errors.Is(err, catalog.ErrInvalidSortOrder):
		v.add("order", "must be asc or desc")
	}
	return v
}

// Selection returns the derived selection state. A non-empty mode overrides
// the stored view mode for this response only.
func (s *PlannerService) Selection(ctx context.Context, mode string) (selection.View, error) {
	view := s.store.View()
	if strings.TrimSpace(mode) == "" {
		return view, nil
	}
	parsed, err := parseMode(mode)
	if err != nil {
		return selection.View{}, err
	}
	view.ViewMode = parsed
	return view, nil
}

func parseMode(mode string) (selection.ViewMode, error) {
	parsed, err := selection.ParseViewMode(mode)
	if err != nil {
		vErr := &ValidationError{}
		vErr.add("mode", "must be all or optimal")
		return "", vErr
	}
	return parsed, nil
}

// AddEvent selects a catalog event.
func (s *PlannerService) AddEvent(ctx context.Context, id string) (view selection.View, err error) {
	logger := s.loggerWith(ctx, "AddEvent", "event_id", id)
	defer s.logMutation(ctx, logger, "event added", &view, &err)

	ev, ok := s.currentCatalog().Lookup(id)
	if !ok {
		return selection.View{}, ErrNotFound
	}
	if err = s.store.Add(ctx, ev); err != nil {
		return selection.View{}, err
	}
	return s.store.View(), nil
}

// RemoveEvent deselects id. Removing an unselected id succeeds.
func (s *PlannerService) RemoveEvent(ctx context.Context, id string) (view selection.View, err error) {
	logger := s.loggerWith(ctx, "RemoveEvent", "event_id", id)
	defer s.logMutation(ctx, logger, "event removed", &view, &err)

	if err = s.store.Remove(ctx, id); err != nil {
		return selection.View{}, err
	}
	return s.store.View(), nil
}

// ToggleEvent flips the selection of id. Selected ids toggle off even when
// the catalog no longer lists them.
func (s *PlannerService) ToggleEvent(ctx context.Context, id string) (view selection.View, err error) {
	logger := s.loggerWith(ctx, "ToggleEvent", "event_id", id)
	defer s.logMutation(ctx, logger, "event toggled", &view, &err)

	ev, ok := s.currentCatalog().Lookup(id)
	if !ok {
		if !s.store.IsSelected(id) {
			return selection.View{}, ErrNotFound
		}
		ev = scheduler.Event{ID: id}
	}
	if err = s.store.Toggle(ctx, ev); err != nil {
		return selection.View{}, err
	}
	return s.store.View(), nil
}

// ClearAll empties the selection.
func (s *PlannerService) ClearAll(ctx context.Context) (view selection.View, err error) {
	logger := s.loggerWith(ctx, "ClearAll")
	defer s.logMutation(ctx, logger, "selection cleared", &view, &err)

	if err = s.store.Clear(ctx); err != nil {
		return selection.View{}, err
	}
	return s.store.View(), nil
}

// ResolveConflicts keeps only the optimal plan.
func (s *PlannerService) ResolveConflicts(ctx context.Context) (view selection.View, err error) {
	logger := s.loggerWith(ctx, "ResolveConflicts")
	defer s.logMutation(ctx, logger, "conflicts resolved", &view, &err)

	if err = s.store.ResolveConflictsAutomatically(ctx); err != nil {
		return selection.View{}, err
	}
	return s.store.View(), nil
}

// SetViewMode switches between the full selection and the optimal plan.
func (s *PlannerService) SetViewMode(ctx context.Context, mode string) (selection.View, error) {
	parsed, err := parseMode(mode)
	if err != nil {
		return selection.View{}, err
	}
	if err := s.store.SetViewMode(parsed); err != nil {
		return selection.View{}, err
	}
	s.loggerWith(ctx, "SetViewMode", "mode", parsed).DebugContext(ctx, "view mode changed")
	return s.store.View(), nil
}

func (s *PlannerService) logMutation(ctx context.Context, logger *slog.Logger, msg string, view *selection.View, err *error) {
	if *err != nil {
		logger.ErrorContext(ctx, "selection update failed", "error", *err, "error_kind", ErrorKind(*err))
		return
	}
	logger.InfoContext(ctx, msg,
		"selected", view.TotalEventsCount,
		"conflicts", view.ConflictCount,
	)
}

// Itinerary renders the displayed list of the selection.
func (s *PlannerService) Itinerary(ctx context.Context, params ItineraryParams) (Itinerary, error) {
	view, err := s.Selection(ctx, params.Mode)
	if err != nil {
		return Itinerary{}, err
	}
	title := strings.TrimSpace(params.Title)
	if title == "" {
		title = DefaultItineraryTitle
	}

	events := view.Displayed()
	switch params.Format {
	case "", ItineraryText:
		return Itinerary{
			FileName:    itinerary.FileName(title, "txt"),
			ContentType: "text/plain; charset=utf-8",
			Body:        itinerary.FormatText(title, itinerary.GroupByDay(events, s.resolver)),
		}, nil
	case ItineraryICS:
		body, err := itinerary.ExportICS(title, events, s.resolver)
		if err != nil {
			s.loggerWith(ctx, "Itinerary").ErrorContext(ctx, "ics export failed", "error", err)
			return Itinerary{}, err
		}
		return Itinerary{
			FileName:    itinerary.FileName(title, "ics"),
			ContentType: "text/calendar; charset=utf-8",
			Body:        body,
		}, nil
	default:
		return Itinerary{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, params.Format)
	}
}

// ReloadCatalog swaps in a new catalog. Selected ids the new catalog lacks
// stay selected but drop out of the derived view.
func (s *PlannerService) ReloadCatalog(ctx context.Context, c *catalog.Catalog) error {
	if c == nil {
		return errors.New("planner: catalog is required")
	}
	s.mu.Lock()
	s.catalog = c
	s.generation++
	s.mu.Unlock()

	s.store.SetCatalog(c.Events())
	s.listings.Invalidate()
	s.loggerWith(ctx, "ReloadCatalog", "events", c.Len()).InfoContext(ctx, "catalog swapped")
	return nil
}

// Catalog returns the catalog currently served.
func (s *PlannerService) Catalog() *catalog.Catalog {
	return s.currentCatalog()
}
