package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreGetMiss(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	data, err := store.Get(ctx, "missing")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if data != nil {
		t.Errorf("Expected nil on miss, got %q", data)
	}
}

func TestMemoryStoreSetGetDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	data, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(data) != "v" {
		t.Errorf("Expected %q, got %q", "v", data)
	}

	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	data, err = store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if data != nil {
		t.Errorf("Expected nil after delete, got %q", data)
	}
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.Set(ctx, "k", []byte("v"), time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	data, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if data != nil {
		t.Errorf("Expected expired entry to miss, got %q", data)
	}
}

func TestMemoryStoreIncrementMissingCounter(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Increment(ctx, "counter")
	if !errors.Is(err, ErrCounterNotInitialized) {
		t.Errorf("Expected ErrCounterNotInitialized, got %v", err)
	}
}

func TestMemoryStoreSetInt64NX(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	created, err := store.SetInt64NX(ctx, "counter", 1)
	if err != nil {
		t.Fatalf("SetInt64NX failed: %v", err)
	}
	if !created {
		t.Error("Expected first SetInt64NX to create the counter")
	}

	created, err = store.SetInt64NX(ctx, "counter", 99)
	if err != nil {
		t.Fatalf("SetInt64NX failed: %v", err)
	}
	if created {
		t.Error("Expected second SetInt64NX to be a no-op")
	}

	v, ok, err := store.GetInt64(ctx, "counter")
	if err != nil {
		t.Fatalf("GetInt64 failed: %v", err)
	}
	if !ok || v != 1 {
		t.Errorf("Expected counter value 1, got %d (ok=%v)", v, ok)
	}
}

func TestMemoryStoreIncrement(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.SetInt64(ctx, "counter", 5); err != nil {
		t.Fatalf("SetInt64 failed: %v", err)
	}

	v, err := store.Increment(ctx, "counter")
	if err != nil {
		t.Fatalf("Increment failed: %v", err)
	}
	if v != 6 {
		t.Errorf("Expected 6, got %d", v)
	}
}
