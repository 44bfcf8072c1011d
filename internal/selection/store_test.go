package selection

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/example/event-planner/internal/persistence/memory"
	"github.com/example/event-planner/internal/scheduler"
	"github.com/example/event-planner/internal/testfixtures"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newStore(t *testing.T, kv *memory.Store, catalog []scheduler.Event) *Store {
	t.Helper()
	return New(context.Background(), Options{
		Persistence: kv,
		Catalog:     catalog,
		Resolver:    scheduler.NewResolver(time.UTC),
		Logger:      quietLogger,
	})
}

func sampleCatalog() []scheduler.Event {
	return []scheduler.Event{
		testfixtures.At("a", "2025-01-14", "09:00 AM"),
		testfixtures.At("b", "2025-01-14", "09:30 AM"),
		testfixtures.At("c", "2025-01-14", "10:00 AM"),
		testfixtures.At("d", "2025-01-14", "12:00 PM"),
		testfixtures.At("e", "2025-01-15", "09:00 AM"),
	}
}

func eventByID(catalog []scheduler.Event, id string) scheduler.Event {
	for _, ev := range catalog {
		if ev.ID == id {
			return ev
		}
	}
	return scheduler.Event{ID: id}
}

func TestStoreMutations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	catalog := sampleCatalog()
	store := newStore(t, memory.New(), catalog)

	if err := store.Add(ctx, eventByID(catalog, "a")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := store.Add(ctx, eventByID(catalog, "a")); err != nil {
		t.Fatalf("repeated Add failed: %v", err)
	}
	if !store.IsSelected("a") || len(store.SelectedIDs()) != 1 {
		t.Fatalf("expected a to be selected once, got %v", store.SelectedIDs())
	}

	if err := store.Toggle(ctx, eventByID(catalog, "d")); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if !store.IsSelected("d") {
		t.Fatalf("expected toggle to select d")
	}
	if err := store.Toggle(ctx, eventByID(catalog, "d")); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if store.IsSelected("d") {
		t.Fatalf("expected second toggle to deselect d")
	}

	if err := store.Remove(ctx, "missing"); err != nil {
		t.Fatalf("Remove of unknown id should be a no-op, got %v", err)
	}
	if err := store.Remove(ctx, "a"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if store.IsSelected("a") {
		t.Fatalf("expected a to be removed")
	}

	_ = store.Add(ctx, eventByID(catalog, "b"))
	_ = store.Add(ctx, eventByID(catalog, "c"))
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if ids := store.SelectedIDs(); len(ids) != 0 {
		t.Fatalf("expected empty selection after Clear, got %v", ids)
	}
}

func TestStoreDerivedView(t *testing.T) {
	t.Parallel()

	t.Run("overlapping events conflict", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		catalog := sampleCatalog()
		store := newStore(t, memory.New(), catalog)
		_ = store.Add(ctx, eventByID(catalog, "b"))
		_ = store.Add(ctx, eventByID(catalog, "a"))

		view := store.View()
		if !reflect.DeepEqual(scheduler.IDs(view.SelectedEvents), []string{"a", "b"}) {
			t.Fatalf("expected catalog order, got %v", scheduler.IDs(view.SelectedEvents))
		}
		if !view.HasConflicts || view.ConflictCount != 2 {
			t.Fatalf("expected 2 conflict records, got %+v", view.Conflicts)
		}
		if view.TotalEventsCount != 2 {
			t.Fatalf("expected total 2, got %d", view.TotalEventsCount)
		}
		if len(view.OptimalEvents)+len(view.SkippedEvents) != view.TotalEventsCount {
			t.Fatalf("optimal and skipped must partition the selection")
		}
	})

	t.Run("no conflicts means optimal equals selection", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		catalog := sampleCatalog()
		store := newStore(t, memory.New(), catalog)
		_ = store.Add(ctx, eventByID(catalog, "a"))
		_ = store.Add(ctx, eventByID(catalog, "d"))

		view := store.View()
		if view.HasConflicts || len(view.Conflicts) != 0 {
			t.Fatalf("expected no conflicts, got %+v", view.Conflicts)
		}
		if !reflect.DeepEqual(view.OptimalEvents, view.SelectedEvents) {
			t.Fatalf("expected optimal to equal selected")
		}
		if len(view.SkippedEvents) != 0 {
			t.Fatalf("expected nothing skipped")
		}
	})

	t.Run("view reflects latest mutation", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		catalog := sampleCatalog()
		store := newStore(t, memory.New(), catalog)
		_ = store.Add(ctx, eventByID(catalog, "a"))
		if store.View().HasConflicts {
			t.Fatalf("single event cannot conflict")
		}
		_ = store.Add(ctx, eventByID(catalog, "c"))
		if !store.View().HasConflicts {
			t.Fatalf("expected cached view to be invalidated by Add")
		}
		_ = store.Remove(ctx, "c")
		if store.View().HasConflicts {
			t.Fatalf("expected cached view to be invalidated by Remove")
		}
	})

	t.Run("returned view is a copy", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		catalog := sampleCatalog()
		store := newStore(t, memory.New(), catalog)
		_ = store.Add(ctx, eventByID(catalog, "a"))
		_ = store.Add(ctx, eventByID(catalog, "b"))

		view := store.View()
		view.SelectedEvents[0].ID = "mutated"
		view.Conflicts[0].ConflictsWith[0] = "mutated"

		again := store.View()
		if again.SelectedEvents[0].ID != "a" || again.Conflicts[0].ConflictsWith[0] != "b" {
			t.Fatalf("expected cached view to be unaffected by caller mutation, got %+v", again)
		}
	})

	t.Run("ids unknown to the catalog are ignored", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		catalog := sampleCatalog()
		store := newStore(t, memory.New(), catalog)
		_ = store.Add(ctx, scheduler.Event{ID: "ghost"})
		_ = store.Add(ctx, eventByID(catalog, "e"))

		view := store.View()
		if view.TotalEventsCount != 1 {
			t.Fatalf("expected only catalog events to be counted, got %d", view.TotalEventsCount)
		}
		if !store.IsSelected("ghost") {
			t.Fatalf("expected unknown id to stay selected")
		}
	})

	t.Run("catalog swap invalidates the view", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		catalog := sampleCatalog()
		store := newStore(t, memory.New(), catalog)
		_ = store.Add(ctx, eventByID(catalog, "a"))
		_ = store.Add(ctx, eventByID(catalog, "d"))
		if store.View().HasConflicts {
			t.Fatalf("expected no conflicts before swap")
		}

		moved := append([]scheduler.Event(nil), catalog...)
		moved[3].Time = "10:00 AM"
		store.SetCatalog(moved)
		if !store.View().HasConflicts {
			t.Fatalf("expected rescheduled catalog event to conflict")
		}
	})
}

func TestStoreResolveConflictsAutomatically(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	catalog := sampleCatalog()
	store := newStore(t, memory.New(), catalog)
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		_ = store.Add(ctx, eventByID(catalog, id))
	}

	before := store.View()
	if before.ConflictCount == 0 {
		t.Fatalf("fixture should contain conflicts")
	}

	if err := store.ResolveConflictsAutomatically(ctx); err != nil {
		t.Fatalf("ResolveConflictsAutomatically failed: %v", err)
	}
	after := store.View()
	if after.HasConflicts {
		t.Fatalf("expected no conflicts after resolving, got %+v", after.Conflicts)
	}
	if !reflect.DeepEqual(store.SelectedIDs(), []string{"a", "d", "e"}) {
		t.Fatalf("expected selection to snap to optimal plan, got %v", store.SelectedIDs())
	}

	first := store.SelectedIDs()
	if err := store.ResolveConflictsAutomatically(ctx); err != nil {
		t.Fatalf("second resolve failed: %v", err)
	}
	if !reflect.DeepEqual(store.SelectedIDs(), first) {
		t.Fatalf("expected resolve to be idempotent, got %v then %v", first, store.SelectedIDs())
	}
}

func TestStoreViewMode(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	catalog := sampleCatalog()
	store := newStore(t, memory.New(), catalog)
	_ = store.Add(ctx, eventByID(catalog, "a"))
	_ = store.Add(ctx, eventByID(catalog, "b"))

	if store.ViewMode() != ViewAll {
		t.Fatalf("expected default view mode all")
	}
	if got := store.View().Displayed(); len(got) != 2 {
		t.Fatalf("expected all selected events displayed, got %v", scheduler.IDs(got))
	}

	if err := store.SetViewMode(ViewOptimal); err != nil {
		t.Fatalf("SetViewMode failed: %v", err)
	}
	if got := store.View().Displayed(); !reflect.DeepEqual(scheduler.IDs(got), []string{"a"}) {
		t.Fatalf("expected optimal events displayed, got %v", scheduler.IDs(got))
	}
	if len(store.SelectedIDs()) != 2 {
		t.Fatalf("view mode must not change the selection")
	}

	if err := store.SetViewMode("weekly"); !errors.Is(err, ErrInvalidViewMode) {
		t.Fatalf("expected ErrInvalidViewMode, got %v", err)
	}
}

func TestStorePersistence(t *testing.T) {
	t.Parallel()

	t.Run("mutations are persisted and reloaded", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		kv := memory.New()
		catalog := sampleCatalog()
		store := newStore(t, kv, catalog)
		_ = store.Add(ctx, eventByID(catalog, "e"))
		_ = store.Add(ctx, eventByID(catalog, "a"))

		raw, err := kv.Get(ctx, DefaultKey)
		if err != nil {
			t.Fatalf("expected selection to be persisted: %v", err)
		}
		if raw != `["a","e"]` {
			t.Fatalf("unexpected serialized selection %s", raw)
		}

		reloaded := newStore(t, kv, catalog)
		if !reflect.DeepEqual(reloaded.SelectedIDs(), []string{"a", "e"}) {
			t.Fatalf("expected reload to restore selection, got %v", reloaded.SelectedIDs())
		}
	})

	t.Run("corrupt value loads empty", func(t *testing.T) {
		t.Parallel()
		kv := memory.New()
		_ = kv.Set(context.Background(), DefaultKey, "{not json")

		store := newStore(t, kv, sampleCatalog())
		if ids := store.SelectedIDs(); len(ids) != 0 {
			t.Fatalf("expected empty selection, got %v", ids)
		}
	})

	t.Run("read failure loads empty", func(t *testing.T) {
		t.Parallel()
		kv := testfixtures.NewFlakyStore()
		_ = kv.Set(context.Background(), DefaultKey, `["a"]`)
		kv.FailGet(true)

		store := New(context.Background(), Options{Persistence: kv, Catalog: sampleCatalog(), Logger: quietLogger})
		if ids := store.SelectedIDs(); len(ids) != 0 {
			t.Fatalf("expected empty selection, got %v", ids)
		}
	})

	t.Run("write failure leaves selection unchanged", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		kv := testfixtures.NewFlakyStore()
		catalog := sampleCatalog()
		store := New(ctx, Options{Persistence: kv, Catalog: catalog, Logger: quietLogger})
		_ = store.Add(ctx, eventByID(catalog, "a"))

		kv.FailSet(true)
		if err := store.Add(ctx, eventByID(catalog, "b")); !errors.Is(err, testfixtures.ErrInjected) {
			t.Fatalf("expected injected error, got %v", err)
		}
		if store.IsSelected("b") {
			t.Fatalf("expected failed write not to commit")
		}
	})

	t.Run("no-op mutations do not write", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		kv := testfixtures.NewFlakyStore()
		store := New(ctx, Options{Persistence: kv, Catalog: sampleCatalog(), Logger: quietLogger})

		_ = store.Remove(ctx, "absent")
		_ = store.Clear(ctx)
		if kv.SetCalls() != 0 {
			t.Fatalf("expected no writes, got %d", kv.SetCalls())
		}
	})

	t.Run("custom key", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		kv := memory.New()
		store := New(ctx, Options{Persistence: kv, Key: "trip-2025", Catalog: sampleCatalog(), Logger: quietLogger})
		_ = store.Add(ctx, scheduler.Event{ID: "a"})
		if _, err := kv.Get(ctx, "trip-2025"); err != nil {
			t.Fatalf("expected custom key to be written: %v", err)
		}
	})
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	first := map[string]struct{}{"tn-3": {}, "tn-1": {}, "kl-2": {}}
	second := map[string]struct{}{"kl-2": {}, "tn-1": {}, "tn-3": {}}

	a, err := Encode(first)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	b, _ := Encode(second)
	if a != b {
		t.Fatalf("expected insertion order not to matter: %s vs %s", a, b)
	}

	decoded, err := Decode(a)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !reflect.DeepEqual(decoded, []string{"kl-2", "tn-1", "tn-3"}) {
		t.Fatalf("unexpected decoded ids %v", decoded)
	}

	if ids, err := Decode(`["x","x"]`); err != nil || len(ids) != 1 {
		t.Fatalf("expected duplicates to collapse, got %v (%v)", ids, err)
	}
	if ids, err := Decode(`null`); err != nil || len(ids) != 0 {
		t.Fatalf("expected null to decode empty, got %v (%v)", ids, err)
	}
	if _, err := Decode(`{"a":1}`); err == nil {
		t.Fatalf("expected object payload to be rejected")
	}
}

func TestParseViewMode(t *testing.T) {
	t.Parallel()

	if mode, err := ParseViewMode(" Optimal "); err != nil || mode != ViewOptimal {
		t.Fatalf("expected optimal, got %q (%v)", mode, err)
	}
	if _, err := ParseViewMode("daily"); !errors.Is(err, ErrInvalidViewMode) {
		t.Fatalf("expected ErrInvalidViewMode, got %v", err)
	}
}

func TestStoreConcurrentMutations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newStore(t, memory.New(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.Add(ctx, scheduler.Event{ID: string(rune('A' + i%26)) + string(rune('a'+i/26))})
		}(i)
	}
	wg.Wait()

	if got := len(store.SelectedIDs()); got != 50 {
		t.Fatalf("expected 50 ids without lost updates, got %d", got)
	}
}
