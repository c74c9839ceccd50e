package testutil

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nhle/carereminder/internal/store"
)

// NewTestKV creates an in-memory SQLiteKV with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestKV(t *testing.T) *store.SQLiteKV {
	t.Helper()

	s, err := store.NewSQLiteKV(":memory:")
	if err != nil {
		t.Fatalf("creating test kv: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test kv: %v", err)
		}
	})

	return s
}

// ErrInjected is returned by FlakyKV while failing.
var ErrInjected = errors.New("injected storage failure")

// FlakyKV wraps a KV and fails reads or writes on demand.
type FlakyKV struct {
	store.KV

	mu       sync.Mutex
	failGet  bool
	failSet  bool
	setCalls int
}

// NewFlakyKV wraps an in-memory KV.
func NewFlakyKV() *FlakyKV {
	return &FlakyKV{KV: store.NewMemoryKV()}
}

// FailGets toggles read failures.
func (f *FlakyKV) FailGets(fail bool) {
	f.mu.Lock()
	f.failGet = fail
	f.mu.Unlock()
}

// FailSets toggles write failures.
func (f *FlakyKV) FailSets(fail bool) {
	f.mu.Lock()
	f.failSet = fail
	f.mu.Unlock()
}

// SetCalls reports how many writes were attempted.
func (f *FlakyKV) SetCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setCalls
}

func (f *FlakyKV) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	fail := f.failGet
	f.mu.Unlock()
	if fail {
		return "", ErrInjected
	}
	return f.KV.Get(ctx, key)
}

func (f *FlakyKV) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	f.setCalls++
	fail := f.failSet
	f.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return f.KV.Set(ctx, key, value)
}

// Clock is a settable time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock frozen at now.
func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to now.
func (c *Clock) Set(now time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
