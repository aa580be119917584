package conversation

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"
)

type memoryEntry struct {
	history    []Message
	lastActive time.Time
}

// memoryStore keeps histories in process memory. They live as long as the process.
type memoryStore struct {
	mu          sync.Mutex
	entries     map[int64]*memoryEntry
	maxMessages int
	now         func() time.Time
	logger      *slog.Logger
}

// NewMemoryStore creates an in-memory Store that keeps at most maxMessages
// entries per user (0 means unbounded).
func NewMemoryStore(maxMessages int, logger *slog.Logger) Store {
	return newMemoryStore(maxMessages, time.Now, logger)
}

func newMemoryStore(maxMessages int, now func() time.Time, logger *slog.Logger) *memoryStore {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &memoryStore{
		entries:     make(map[int64]*memoryEntry),
		maxMessages: maxMessages,
		now:         now,
		logger:      logger.With("component", "memory_store"),
	}
}

func (s *memoryStore) entry(userID int64) *memoryEntry {
	e, ok := s.entries[userID]
	if !ok {
		e = &memoryEntry{history: []Message{}}
		s.entries[userID] = e
	}
	e.lastActive = s.now()
	return e
}

func (s *memoryStore) Get(_ context.Context, userID int64) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entry(userID)
	out := make([]Message, len(e.history))
	copy(out, e.history)
	return out, nil
}

func (s *memoryStore) Append(ctx context.Context, userID int64, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entry(userID)
	e.history = append(e.history, msg)

	if trimmed := Trim(e.history, s.maxMessages); len(trimmed) != len(e.history) {
		s.logger.DebugContext(ctx, "Trimmed conversation history",
			"user_id", userID, "dropped", len(e.history)-len(trimmed), "kept", len(trimmed))
		// Copy so the dropped prefix can be collected.
		e.history = append([]Message(nil), trimmed...)
	}
	return nil
}

func (s *memoryStore) Reset(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[userID] = &memoryEntry{history: []Message{}, lastActive: s.now()}
	return nil
}

func (s *memoryStore) Expire(ctx context.Context, idleSince time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for userID, e := range s.entries {
		if e.lastActive.Before(idleSince) {
			delete(s.entries, userID)
			removed++
		}
	}
	if removed > 0 {
		s.logger.DebugContext(ctx, "Expired idle conversations", "count", removed, "remaining", len(s.entries))
	}
	return removed, nil
}
