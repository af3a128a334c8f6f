package orchestrator

import (
	"context"
	"time"

	"github.com/mcdev12/dynasty/go/internal/draft/pool"
	"github.com/mcdev12/dynasty/go/internal/draft/timer"
	"github.com/mcdev12/dynasty/go/internal/draft/turn"
	"github.com/mcdev12/dynasty/go/internal/models"
)

// State is a consistent view of a room.
type State struct {
	RoomID             string                `json:"room_id"`
	Name               string                `json:"name,omitempty"`
	Status             models.DraftStatus    `json:"status"`
	Settings           models.DraftSettings  `json:"settings"`
	Participants       []models.Participant  `json:"participants"`
	CurrentPickNumber  int                   `json:"current_pick_number"`
	CurrentRound       int                   `json:"current_round"`
	TotalPicks         int                   `json:"total_picks"`
	CurrentParticipant *models.Participant   `json:"current_participant,omitempty"`
	IsMyTurn           bool                  `json:"is_my_turn"`
	PicksUntilMyTurn   int                   `json:"picks_until_my_turn"`
	Timer              timer.Snapshot        `json:"timer"`
	Picks              []models.DraftPick    `json:"picks"`
	Queue              []models.QueuedPlayer `json:"queue"`
	StartedAt          *time.Time            `json:"started_at,omitempty"`
	IsLoading          bool                  `json:"is_loading"`
	Error              string                `json:"error,omitempty"`
}

// State returns the room as seen by the local user.
func (o *Orchestrator) State(ctx context.Context) (State, error) {
	return call(ctx, o, func() (State, error) {
		return o.state(), nil
	})
}

func (o *Orchestrator) state() State {
	settings := o.room.Settings
	total := settings.TotalPicks()
	s := State{
		RoomID:            o.roomID,
		Name:              o.room.Name,
		Status:            o.status,
		Settings:          settings,
		Participants:      o.room.Participants,
		CurrentPickNumber: o.current,
		CurrentRound:      turn.RoundForPick(min(o.current, total), settings.TeamCount),
		TotalPicks:        total,
		IsMyTurn:          o.isMyTurn(),
		Timer:             o.timer.Snapshot(),
		Picks:             o.ledger.Picks(),
		Queue:             []models.QueuedPlayer{},
		IsLoading:         o.status == models.DraftStatusLoading || o.pool.Loading(),
	}
	if o.current <= total {
		holder := o.holder()
		s.CurrentParticipant = &holder
	}
	if o.userIndex >= 0 {
		s.PicksUntilMyTurn = turn.PicksUntilTurn(o.current, o.userIndex, settings.TeamCount, settings.RosterSize)
	}
	if o.queue != nil {
		s.Queue = o.queue.Items()
	}
	if !o.startedAt.IsZero() {
		startedAt := o.startedAt
		s.StartedAt = &startedAt
	}
	if err := o.pool.Err(); err != nil {
		s.Error = err.Error()
	} else if o.syncErr != nil {
		s.Error = o.syncErr.Error()
	}
	return s
}

// AvailablePlayers returns the undrafted players matching f.
func (o *Orchestrator) AvailablePlayers(ctx context.Context, f pool.Filter) (pool.View, error) {
	return call(ctx, o, func() (pool.View, error) {
		return o.pool.View(o.ledger.PickedIDs(), f), nil
	})
}

// Roster returns the players drafted by a participant.
func (o *Orchestrator) Roster(ctx context.Context, participantID string) ([]models.DraftPlayer, error) {
	return call(ctx, o, func() ([]models.DraftPlayer, error) {
		return o.ledger.Roster(participantID), nil
	})
}
