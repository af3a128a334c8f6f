package queue

import (
	"context"
	"sync"

	"github.com/mcdev12/dynasty/go/internal/models"
)

// Key scopes a persisted queue to a room and participant.
type Key struct {
	RoomID        string
	ParticipantID string
}

func (k Key) String() string {
	return k.RoomID + "/" + k.ParticipantID
}

// Store persists queues.
type Store interface {
	Load(ctx context.Context, key Key) ([]models.QueuedPlayer, error)
	Save(ctx context.Context, key Key, items []models.QueuedPlayer) error
}

// MemoryStore keeps queues in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	queues map[Key][]models.QueuedPlayer
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{queues: make(map[Key][]models.QueuedPlayer)}
}

func (s *MemoryStore) Load(_ context.Context, key Key) ([]models.QueuedPlayer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := s.queues[key]
	out := make([]models.QueuedPlayer, len(items))
	copy(out, items)
	return out, nil
}

func (s *MemoryStore) Save(_ context.Context, key Key, items []models.QueuedPlayer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(items) == 0 {
		delete(s.queues, key)
		return nil
	}
	cp := make([]models.QueuedPlayer, len(items))
	copy(cp, items)
	s.queues[key] = cp
	return nil
}
