package testfixtures

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/example/event-planner/internal/persistence/memory"
	"github.com/example/event-planner/internal/persistence/sqlite"
)

// ErrInjected is returned by FlakyStore when a failure is armed.
var ErrInjected = errors.New("testfixtures: injected failure")

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore(tb testing.TB) *memory.Store {
	tb.Helper()
	return memory.New()
}

// NewSQLiteStore opens a migrated SQLite store in a temporary directory and
// registers its cleanup with tb.
func NewSQLiteStore(tb testing.TB) *sqlite.Store {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "planner.db")
	store, err := sqlite.Open(path)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}
	tb.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// FlakyStore wraps an in-memory store and fails reads or writes on demand.
type FlakyStore struct {
	*memory.Store

	mu       sync.Mutex
	failGet  bool
	failSet  bool
	setCalls int
}

// NewFlakyStore returns a FlakyStore with no failures armed.
func NewFlakyStore() *FlakyStore {
	return &FlakyStore{Store: memory.New()}
}

// FailGet arms or disarms read failures.
func (f *FlakyStore) FailGet(fail bool) {
	f.mu.Lock()
	f.failGet = fail
	f.mu.Unlock()
}

// FailSet arms or disarms write failures.
func (f *FlakyStore) FailSet(fail bool) {
	f.mu.Lock()
	f.failSet = fail
	f.mu.Unlock()
}

// SetCalls reports how many writes were attempted.
func (f *FlakyStore) SetCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setCalls
}

// Get fails with ErrInjected when armed.
func (f *FlakyStore) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	fail := f.failGet
	f.mu.Unlock()
	if fail {
		return "", ErrInjected
	}
	return f.Store.Get(ctx, key)
}

// Set fails with ErrInjected when armed.
func (f *FlakyStore) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	f.setCalls++
	fail := f.failSet
	f.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return f.Store.Set(ctx, key, value)
}
