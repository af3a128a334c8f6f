package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
)

// Hub runs many rooms and finds them by id.
type Hub struct {
	ctx context.Context

	mu    sync.RWMutex
	rooms map[string]*Orchestrator
	wg    conc.WaitGroup
}

// NewHub returns a hub whose rooms run until ctx is cancelled.
func NewHub(ctx context.Context) *Hub {
	return &Hub{ctx: ctx, rooms: make(map[string]*Orchestrator)}
}

// Add starts o and registers it. The room is removed when it stops.
func (h *Hub) Add(o *Orchestrator) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.rooms[o.RoomID()]; exists {
		return fmt.Errorf("room %s already running", o.RoomID())
	}
	h.rooms[o.RoomID()] = o

	h.wg.Go(func() {
		if err := o.Run(h.ctx); err != nil {
			log.Error().Err(err).Str("room_id", o.RoomID()).Msg("draft room failed")
		}
		h.mu.Lock()
		delete(h.rooms, o.RoomID())
		h.mu.Unlock()
	})
	return nil
}

// Get returns a running room.
func (h *Hub) Get(roomID string) (*Orchestrator, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	o, ok := h.rooms[roomID]
	return o, ok
}

// Rooms lists the ids of running rooms.
func (h *Hub) Rooms() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.rooms))
	for id := range h.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Wait blocks until every room has stopped.
func (h *Hub) Wait() {
	h.wg.Wait()
}
