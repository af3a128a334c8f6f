// Package remote holds the shared pick ledger that keeps the clients of a
// room in sync. Stores accept appended picks and push whole-room snapshots
// to watchers.
package remote

import (
	"context"
	"errors"
	"sort"

	"github.com/mcdev12/dynasty/go/internal/models"
)

// ErrPickTaken is returned by AppendPick when the pick number already has a
// record for the room.
var ErrPickTaken = errors.New("pick number already taken")

// Snapshot is the full remote state of a room.
type Snapshot struct {
	RoomID            string           `json:"room_id"`
	CurrentPickNumber int              `json:"current_pick_number"`
	Picks             []models.RawPick `json:"picks"`
}

// Store is a shared pick ledger.
type Store interface {
	// Watch streams snapshots of the room until ctx is cancelled. The first
	// snapshot is the current state. Slow readers only see the latest one.
	Watch(ctx context.Context, roomID string) (<-chan Snapshot, error)
	AppendPick(ctx context.Context, roomID string, pick models.RawPick) error
	// Reset removes every pick and sets the current pick back to 1.
	Reset(ctx context.Context, roomID string) error
}

// sendLatest delivers s on a buffered channel of size 1, replacing an
// unread snapshot. ch must have a single sender.
func sendLatest(ch chan Snapshot, s Snapshot) {
	for {
		select {
		case ch <- s:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// currentFor is the pick after the highest recorded pick.
func currentFor(picks []models.RawPick) int {
	current := 1
	for _, p := range picks {
		if p.PickNumber+1 > current {
			current = p.PickNumber + 1
		}
	}
	return current
}

func sortRaw(picks []models.RawPick) {
	sort.Slice(picks, func(i, j int) bool {
		return picks[i].PickNumber < picks[j].PickNumber
	})
}
