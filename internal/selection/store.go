// Package selection holds the user's chosen events and derives conflicts and
// the optimal plan from them.
package selection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/example/event-planner/internal/persistence"
	"github.com/example/event-planner/internal/scheduler"
)

// DefaultKey is the persistence key of the selection.
const DefaultKey = "myEvents"

// ErrInvalidViewMode is returned for view modes other than all and optimal.
var ErrInvalidViewMode = errors.New("selection: invalid view mode")

// Options configures a Store.
type Options struct {
	// Persistence receives the serialized selection on every change. Required.
	Persistence persistence.KeyValueStore
	// Key defaults to DefaultKey.
	Key string
	// Catalog is the list selected ids are resolved against.
	Catalog  []scheduler.Event
	Resolver scheduler.Resolver
	Logger   *slog.Logger
}

// Store is the process-wide selection. It is safe for concurrent use; each
// mutation reads, persists and commits the whole set under one lock, so
// concurrent writers never lose updates.
type Store struct {
	mu       sync.Mutex
	kv       persistence.KeyValueStore
	key      string
	resolver scheduler.Resolver
	logger   *slog.Logger

	catalog []scheduler.Event
	ids     map[string]struct{}
	mode    ViewMode
	cache   viewCache
}

// New builds a Store and loads the persisted selection. A missing or corrupt
// value yields an empty selection.
func New(ctx context.Context, opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	key := opts.Key
	if key == "" {
		key = DefaultKey
	}

	s := &Store{
		kv:       opts.Persistence,
		key:      key,
		resolver: opts.Resolver,
		logger:   logger.With("component", "selection"),
		catalog:  append([]scheduler.Event(nil), opts.Catalog...),
		mode:     ViewAll,
	}
	s.ids = s.load(ctx)
	return s
}

func (s *Store) load(ctx context.Context) map[string]struct{} {
	ids := make(map[string]struct{})
	if s.kv == nil {
		return ids
	}

	raw, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, persistence.ErrNotFound) {
			s.logger.WarnContext(ctx, "failed to load selection, starting empty", "key", s.key, "error", err)
		}
		return ids
	}

	decoded, err := Decode(raw)
	if err != nil {
		s.logger.WarnContext(ctx, "discarding corrupt selection", "key", s.key, "error", err)
		return ids
	}
	for _, id := range decoded {
		ids[id] = struct{}{}
	}
	s.logger.DebugContext(ctx, "selection loaded", "key", s.key, "count", len(ids))
	return ids
}

// Encode serializes ids as a JSON array in lexical order.
func Encode(ids map[string]struct{}) (string, error) {
	list := make([]string, 0, len(ids))
	for id := range ids {
		list = append(list, id)
	}
	sort.Strings(list)
	data, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Decode parses a JSON array of ids. Duplicates collapse and null decodes empty.
func Decode(raw string) ([]string, error) {
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("selection: decode: %w", err)
	}
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, id := range list {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

// Add selects ev. Adding a selected event is a no-op.
func (s *Store) Add(ctx context.Context, ev scheduler.Event) error {
	return s.mutate(ctx, "add", func(ids map[string]struct{}) {
		ids[ev.ID] = struct{}{}
	})
}

// Remove deselects id. Removing an unselected id is a no-op.
func (s *Store) Remove(ctx context.Context, id string) error {
	return s.mutate(ctx, "remove", func(ids map[string]struct{}) {
		delete(ids, id)
	})
}

// Toggle selects ev when absent and deselects it when present.
func (s *Store) Toggle(ctx context.Context, ev scheduler.Event) error {
	return s.mutate(ctx, "toggle", func(ids map[string]struct{}) {
		if _, ok := ids[ev.ID]; ok {
			delete(ids, ev.ID)
			return
		}
		ids[ev.ID] = struct{}{}
	})
}

// Clear empties the selection.
func (s *Store) Clear(ctx context.Context) error {
	return s.mutate(ctx, "clear", func(ids map[string]struct{}) {
		for id := range ids {
			delete(ids, id)
		}
	})
}

// ResolveConflictsAutomatically replaces the selection with the optimal plan.
func (s *Store) ResolveConflictsAutomatically(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := s.viewLocked()
	next := make(map[string]struct{}, len(view.OptimalEvents))
	for _, ev := range view.OptimalEvents {
		next[ev.ID] = struct{}{}
	}
	return s.commitLocked(ctx, "resolve", next)
}

func (s *Store) mutate(ctx context.Context, op string, fn func(map[string]struct{})) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]struct{}, len(s.ids)+1)
	for id := range s.ids {
		next[id] = struct{}{}
	}
	fn(next)
	return s.commitLocked(ctx, op, next)
}

// commitLocked persists next and only then makes it current.
func (s *Store) commitLocked(ctx context.Context, op string, next map[string]struct{}) error {
	if sameSet(s.ids, next) {
		return nil
	}
	if s.kv != nil {
		encoded, err := Encode(next)
		if err != nil {
			return err
		}
		if err := s.kv.Set(ctx, s.key, encoded); err != nil {
			s.logger.ErrorContext(ctx, "failed to persist selection", "operation", op, "error", err)
			return fmt.Errorf("selection: persist: %w", err)
		}
	}
	s.ids = next
	s.cache.invalidate()
	s.logger.DebugContext(ctx, "selection changed", "operation", op, "count", len(next))
	return nil
}

func sameSet(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if _, ok := b[id]; !ok {
			return false
		}
	}
	return true
}

// SetCatalog swaps the events selected ids are resolved against.
func (s *Store) SetCatalog(events []scheduler.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.catalog = append([]scheduler.Event(nil), events...)
	s.cache.invalidate()
}

// SetViewMode switches the rendered list. It does not change the selection.
func (s *Store) SetViewMode(mode ViewMode) error {
	if mode != ViewAll && mode != ViewOptimal {
		return fmt.Errorf("%w: %q", ErrInvalidViewMode, mode)
	}
	s.mu.Lock()
	s.mode = mode
	s.mu.Unlock()
	return nil
}

// ViewMode returns the current view mode.
func (s *Store) ViewMode() ViewMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// IsSelected reports whether id is selected.
func (s *Store) IsSelected(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

// SelectedIDs returns the selected ids in lexical order, including ids the
// catalog does not know.
func (s *Store) SelectedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// View returns the derived state for the latest committed selection.
func (s *Store) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Store) viewLocked() View {
	view, ok := s.cache.get()
	if !ok {
		view = Derive(s.catalog, s.ids, s.resolver)
		s.cache.store(view)
	}
	view.ViewMode = s.mode
	return view
}
