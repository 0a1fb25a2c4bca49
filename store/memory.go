package store

import (
	"context"
	"sort"
	"sync"

	"helpbot/model"
)

// MemoryStore keeps messages in process memory. Used for local runs and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	messages []model.Message
	byID     map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]int)}
}

func (s *MemoryStore) Insert(ctx context.Context, msg *model.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	msg.ID = model.NewID()
	s.byID[msg.ID] = len(s.messages)
	s.messages = append(s.messages, *msg)
	return msg.ID, nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id string) (*model.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	msg := s.messages[i]
	return &msg, nil
}

func (s *MemoryStore) ListRecent(ctx context.Context, limit int) ([]model.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit = normalizeLimit(limit)

	s.mu.RLock()
	out := make([]model.Message, len(s.messages))
	for i, msg := range s.messages {
		out[len(out)-1-i] = msg
	}
	s.mu.RUnlock()

	// newest insert first, so the stable sort keeps that order on equal timestamps
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) Close() error {
	return nil
}
