// Package queue manages a participant's ordered list of wanted players.
package queue

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/dynasty/go/internal/models"
)

const persistTimeout = 2 * time.Second

// Manager owns one participant's queue in one room. It is not safe for
// concurrent use; the room orchestrator owns it.
type Manager struct {
	key    Key
	store  Store
	clock  clockwork.Clock
	items  []models.QueuedPlayer
	logger zerolog.Logger
}

// New loads the persisted queue for key. A failed load starts from an empty
// queue.
func New(ctx context.Context, key Key, store Store, clock clockwork.Clock) *Manager {
	m := &Manager{
		key:   key,
		store: store,
		clock: clock,
		logger: log.With().
			Str("room_id", key.RoomID).
			Str("participant_id", key.ParticipantID).
			Logger(),
	}

	items, err := store.Load(ctx, key)
	if err != nil {
		m.logger.Warn().Err(err).Msg("failed to load queue, starting empty")
		return m
	}
	m.items = items
	m.reindex()
	return m
}

// Items returns a copy of the queue in order.
func (m *Manager) Items() []models.QueuedPlayer {
	out := make([]models.QueuedPlayer, len(m.items))
	copy(out, m.items)
	return out
}

// IDs returns the queued player ids in order.
func (m *Manager) IDs() []string {
	ids := make([]string, len(m.items))
	for i, q := range m.items {
		ids[i] = q.ID
	}
	return ids
}

func (m *Manager) Len() int {
	return len(m.items)
}

// IsQueued reports whether playerID is in the queue.
func (m *Manager) IsQueued(playerID string) bool {
	return m.indexOf(playerID) >= 0
}

// Next returns the head of the queue.
func (m *Manager) Next() (models.QueuedPlayer, bool) {
	if len(m.items) == 0 {
		return models.QueuedPlayer{}, false
	}
	return m.items[0], true
}

// PositionOf returns the 1-indexed position of playerID.
func (m *Manager) PositionOf(playerID string) (int, bool) {
	idx := m.indexOf(playerID)
	if idx < 0 {
		return 0, false
	}
	return idx + 1, true
}

// Enqueue appends player. It is a no-op when the player is already queued.
func (m *Manager) Enqueue(player models.DraftPlayer) bool {
	if player.ID == "" || m.IsQueued(player.ID) {
		return false
	}
	m.items = append(m.items, models.QueuedPlayer{
		DraftPlayer: player,
		QueuedAt:    m.clock.Now().UTC(),
	})
	m.commit()
	return true
}

// Dequeue removes playerID.
func (m *Manager) Dequeue(playerID string) bool {
	idx := m.indexOf(playerID)
	if idx < 0 {
		return false
	}
	m.items = append(m.items[:idx], m.items[idx+1:]...)
	m.commit()
	return true
}

// Reorder moves the entry at from to to. Out of range or equal indexes are
// rejected without changes.
func (m *Manager) Reorder(from, to int) bool {
	n := len(m.items)
	if from < 0 || from >= n || to < 0 || to >= n || from == to {
		m.logger.Warn().Int("from", from).Int("to", to).Int("len", n).Msg("queue reorder rejected")
		return false
	}
	moved := m.items[from]
	m.items = append(m.items[:from], m.items[from+1:]...)
	m.items = append(m.items[:to], append([]models.QueuedPlayer{moved}, m.items[to:]...)...)
	m.commit()
	return true
}

// Toggle queues player if absent and removes it otherwise. It returns
// whether the player is queued afterwards.
func (m *Manager) Toggle(player models.DraftPlayer) bool {
	if m.Dequeue(player.ID) {
		return false
	}
	return m.Enqueue(player)
}

// Clear empties the queue.
func (m *Manager) Clear() {
	if len(m.items) == 0 {
		return
	}
	m.items = nil
	m.commit()
}

// Prune removes every queued player present in picked and returns how many
// were removed.
func (m *Manager) Prune(picked map[string]struct{}) int {
	keep := m.items[:0]
	for _, q := range m.items {
		if _, drafted := picked[q.ID]; !drafted {
			keep = append(keep, q)
		}
	}
	removed := len(m.items) - len(keep)
	if removed == 0 {
		return 0
	}
	m.items = keep
	m.commit()
	m.logger.Debug().Int("removed", removed).Msg("pruned drafted players from queue")
	return removed
}

func (m *Manager) indexOf(playerID string) int {
	for i, q := range m.items {
		if q.ID == playerID {
			return i
		}
	}
	return -1
}

func (m *Manager) reindex() {
	for i := range m.items {
		m.items[i].QueuePosition = i
	}
}

func (m *Manager) commit() {
	m.reindex()
	m.persist()
}

// persist writes the queue through. Failures are logged and dropped.
func (m *Manager) persist() {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := m.store.Save(ctx, m.key, m.Items()); err != nil {
		m.logger.Warn().Err(err).Msg("failed to persist queue")
	}
}
