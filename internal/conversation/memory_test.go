package conversation

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(maxMessages int) (*memoryStore, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	return newMemoryStore(maxMessages, clock.Now, nil), clock
}

func TestMemoryStoreGetInitializes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newTestStore(0)

	history, err := s.Get(ctx, 42)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if history == nil || len(history) != 0 {
		t.Fatalf("expected empty non-nil history, got %#v", history)
	}
	if _, ok := s.entries[42]; !ok {
		t.Errorf("expected Get to create an entry for the user")
	}
}

func TestMemoryStoreAppendPreservesOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newTestStore(0)

	before, _ := s.Get(ctx, 1)
	msg := UserMessage("hello")
	if err := s.Append(ctx, 1, msg); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	after, _ := s.Get(ctx, 1)

	want := append(before, msg)
	if len(after) != len(want) {
		t.Fatalf("len = %d, want %d", len(after), len(want))
	}
	for i := range want {
		if after[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, after[i], want[i])
		}
	}

	msgs := []Message{AssistantMessage("hi"), UserMessage("how are you"), AssistantMessage("fine")}
	for _, m := range msgs {
		if err := s.Append(ctx, 1, m); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}
	got, _ := s.Get(ctx, 1)
	full := append([]Message{msg}, msgs...)
	for i := range full {
		if got[i] != full[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], full[i])
		}
	}
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newTestStore(0)

	_ = s.Append(ctx, 1, UserMessage("original"))
	history, _ := s.Get(ctx, 1)
	history[0].Content = "mutated"

	again, _ := s.Get(ctx, 1)
	if again[0].Content != "original" {
		t.Errorf("store history was mutated through Get result: %q", again[0].Content)
	}
}

func TestMemoryStoreReset(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newTestStore(0)

	_ = s.Append(ctx, 7, UserMessage("a"))
	_ = s.Append(ctx, 7, AssistantMessage("b"))
	_ = s.Append(ctx, 8, UserMessage("other user"))

	if err := s.Reset(ctx, 7); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	history, _ := s.Get(ctx, 7)
	if len(history) != 0 {
		t.Errorf("expected empty history after reset, got %d entries", len(history))
	}
	other, _ := s.Get(ctx, 8)
	if len(other) != 1 {
		t.Errorf("reset affected another user: %d entries", len(other))
	}
}

func TestMemoryStoreTrimsToBound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newTestStore(4)

	for i := range 3 {
		_ = s.Append(ctx, 1, UserMessage(fmt.Sprintf("q%d", i)))
		_ = s.Append(ctx, 1, AssistantMessage(fmt.Sprintf("a%d", i)))
	}

	history, _ := s.Get(ctx, 1)
	want := []Message{UserMessage("q1"), AssistantMessage("a1"), UserMessage("q2"), AssistantMessage("a2")}
	if len(history) != len(want) {
		t.Fatalf("len = %d, want %d: %+v", len(history), len(want), history)
	}
	for i := range want {
		if history[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, history[i], want[i])
		}
	}
}

func TestMemoryStoreExpire(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, clock := newTestStore(0)

	_ = s.Append(ctx, 1, UserMessage("old"))
	clock.Advance(2 * time.Hour)
	_ = s.Append(ctx, 2, UserMessage("recent"))

	removed, err := s.Expire(ctx, clock.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Expire() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, ok := s.entries[1]; ok {
		t.Errorf("expected idle user 1 to be expired")
	}
	recent, _ := s.Get(ctx, 2)
	if len(recent) != 1 {
		t.Errorf("active user lost history: %d entries", len(recent))
	}
}

func TestMemoryStoreConcurrentAppends(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newTestStore(0)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Append(ctx, int64(i%5), UserMessage("m"))
		}()
	}
	wg.Wait()

	for u := range int64(5) {
		h, _ := s.Get(ctx, u)
		if len(h) != 10 {
			t.Errorf("user %d has %d entries, want 10", u, len(h))
		}
	}
}
