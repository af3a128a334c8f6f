package remote

import (
	"context"
	"fmt"
	"sync"

	"github.com/mcdev12/dynasty/go/internal/models"
)

type memoryRoom struct {
	picks    map[int]models.RawPick
	current  int
	watchers map[int]chan Snapshot
}

// MemoryStore is an in-process Store. Rooms sharing one MemoryStore see
// each other's picks.
type MemoryStore struct {
	mu     sync.Mutex
	rooms  map[string]*memoryRoom
	nextID int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rooms: make(map[string]*memoryRoom)}
}

func (s *MemoryStore) room(roomID string) *memoryRoom {
	r, ok := s.rooms[roomID]
	if !ok {
		r = &memoryRoom{
			picks:    make(map[int]models.RawPick),
			current:  1,
			watchers: make(map[int]chan Snapshot),
		}
		s.rooms[roomID] = r
	}
	return r
}

func (s *MemoryStore) snapshotLocked(roomID string, r *memoryRoom) Snapshot {
	picks := make([]models.RawPick, 0, len(r.picks))
	for _, p := range r.picks {
		picks = append(picks, p)
	}
	sortRaw(picks)
	return Snapshot{RoomID: roomID, CurrentPickNumber: r.current, Picks: picks}
}

func (s *MemoryStore) broadcastLocked(roomID string, r *memoryRoom) {
	snap := s.snapshotLocked(roomID, r)
	for _, ch := range r.watchers {
		sendLatest(ch, snap)
	}
}

// Snapshot returns the current state of a room.
func (s *MemoryStore) Snapshot(roomID string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(roomID, s.room(roomID))
}

func (s *MemoryStore) Watch(ctx context.Context, roomID string) (<-chan Snapshot, error) {
	ch := make(chan Snapshot, 1)

	s.mu.Lock()
	r := s.room(roomID)
	id := s.nextID
	s.nextID++
	r.watchers[id] = ch
	sendLatest(ch, s.snapshotLocked(roomID, r))
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(r.watchers, id)
		s.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}

func (s *MemoryStore) AppendPick(ctx context.Context, roomID string, pick models.RawPick) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if pick.PickNumber < 1 {
		return fmt.Errorf("invalid pick number %d", pick.PickNumber)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.room(roomID)
	if _, exists := r.picks[pick.PickNumber]; exists {
		return fmt.Errorf("room %s pick %d: %w", roomID, pick.PickNumber, ErrPickTaken)
	}
	r.picks[pick.PickNumber] = pick
	if pick.PickNumber+1 > r.current {
		r.current = pick.PickNumber + 1
	}
	s.broadcastLocked(roomID, r)
	return nil
}

func (s *MemoryStore) Reset(ctx context.Context, roomID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.room(roomID)
	r.picks = make(map[int]models.RawPick)
	r.current = 1
	s.broadcastLocked(roomID, r)
	return nil
}
