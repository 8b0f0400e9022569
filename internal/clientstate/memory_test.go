package clientstate

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreClockInRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	start := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	if _, err := store.ClockInStart(ctx, 7); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty store: err = %v, want ErrNotFound", err)
	}

	if err := store.SetClockInStart(ctx, 7, start, time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := store.ClockInStart(ctx, 7)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Equal(start) {
		t.Fatalf("start = %v, want %v", got, start)
	}

	// Another user's record stays invisible.
	if _, err := store.ClockInStart(ctx, 8); !errors.Is(err, ErrNotFound) {
		t.Fatalf("other user: err = %v, want ErrNotFound", err)
	}

	if err := store.Clear(ctx, 7); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := store.ClockInStart(ctx, 7); !errors.Is(err, ErrNotFound) {
		t.Fatalf("after clear: err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	current := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }
	ctx := context.Background()

	store.SetClockInStart(ctx, 1, current, 30*time.Minute)
	store.SetCached(ctx, "weather", []byte(`{"t":21}`), 10*time.Minute)
	store.SetCached(ctx, "pinned", []byte("keep"), 0)

	current = current.Add(20 * time.Minute)

	if _, err := store.ClockInStart(ctx, 1); err != nil {
		t.Fatalf("clock-in expired too early: %v", err)
	}
	if _, err := store.GetCached(ctx, "weather"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("weather cache past ttl: err = %v, want ErrNotFound", err)
	}

	current = current.Add(time.Hour)

	if _, err := store.ClockInStart(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("clock-in past ttl: err = %v, want ErrNotFound", err)
	}
	if data, err := store.GetCached(ctx, "pinned"); err != nil || string(data) != "keep" {
		t.Fatalf("zero-ttl entry must never expire: data=%q err=%v", data, err)
	}
}

func TestMemoryStoreSweep(t *testing.T) {
	store := NewMemoryStore()
	current := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }
	ctx := context.Background()

	store.SetCached(ctx, "a", []byte("1"), time.Minute)
	store.SetCached(ctx, "b", []byte("2"), time.Hour)
	store.SetCached(ctx, "c", []byte("3"), 0)

	current = current.Add(10 * time.Minute)

	if removed := store.Sweep(); removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if removed := store.Sweep(); removed != 0 {
		t.Fatalf("second sweep removed = %d, want 0", removed)
	}
	if _, err := store.GetCached(ctx, "b"); err != nil {
		t.Fatalf("live entry swept: %v", err)
	}
}
