package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"bigbite-orderbot/internal/conversation"
	"bigbite-orderbot/internal/domain"
)

func TestMemorySaveGetDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(time.Minute)

	if _, err := store.Get(ctx, "u1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty store, got %v", err)
	}

	sess := conversation.NewSession("u1")
	sess.State = conversation.ConfirmingItems
	sess.SelectedWishlistID = "w1"
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.State != conversation.ConfirmingItems || got.SelectedWishlistID != "w1" {
		t.Fatalf("unexpected session %+v", got)
	}
	if got.UpdatedAt.IsZero() {
		t.Fatalf("expected UpdatedAt to be stamped")
	}

	if err := store.Delete(ctx, "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "u1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := newMemory(10*time.Minute, func() time.Time { return now })

	if err := store.Save(ctx, conversation.NewSession("u1")); err != nil {
		t.Fatalf("save: %v", err)
	}

	now = now.Add(9 * time.Minute)
	if _, err := store.Get(ctx, "u1"); err != nil {
		t.Fatalf("expected session before ttl, got %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := store.Get(ctx, "u1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected expiry, got %v", err)
	}
	if len(store.sessions) != 0 {
		t.Fatalf("expected expired entry to be evicted")
	}
}

func TestMemoryGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(time.Minute)
	_ = store.Save(ctx, conversation.NewSession("u1"))

	got, _ := store.Get(ctx, "u1")
	got.State = conversation.PlacingOrder

	again, _ := store.Get(ctx, "u1")
	if again.State != conversation.Idle {
		t.Fatalf("mutating a fetched session leaked into the store: %s", again.State)
	}
}

func TestMemoryLock(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(time.Minute)

	unlock, err := store.Lock(ctx, "u1")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	if _, err := store.Lock(ctx, "u1"); !errors.Is(err, ErrSessionBusy) {
		t.Fatalf("expected ErrSessionBusy, got %v", err)
	}

	other, err := store.Lock(ctx, "u2")
	if err != nil {
		t.Fatalf("locks must be per key: %v", err)
	}
	other()

	unlock()
	unlock()

	again, err := store.Lock(ctx, "u1")
	if err != nil {
		t.Fatalf("expected lock after release, got %v", err)
	}
	again()
}
