package events

import (
	"time"

	"github.com/mcdev12/dynasty/go/internal/models"
)

// PickStartedPayload announces the participant on the clock.
type PickStartedPayload struct {
	PickNumber       int       `json:"pick_number"`
	Round            int       `json:"round"`
	PickInRound      int       `json:"pick_in_round"`
	ParticipantID    string    `json:"participant_id"`
	ParticipantIndex int       `json:"participant_index"`
	StartedAt        time.Time `json:"started_at"`
	TimeoutAt        time.Time `json:"timeout_at"`
	PickTimeSeconds  int       `json:"pick_time_seconds"`
}

// PickMadePayload describes a recorded pick.
type PickMadePayload struct {
	Pick     models.DraftPick `json:"pick"`
	Source   string           `json:"source"`
	Forced   bool             `json:"forced"`
	MadeAt   time.Time        `json:"made_at"`
	NextPick int              `json:"next_pick"`
}

// DraftStartedPayload is emitted when the draft leaves the waiting room.
type DraftStartedPayload struct {
	StartedAt   time.Time `json:"started_at"`
	TotalRounds int       `json:"total_rounds"`
	TotalPicks  int       `json:"total_picks"`
	TeamCount   int       `json:"team_count"`
}

// DraftCompletedPayload is emitted after the last pick.
type DraftCompletedPayload struct {
	CompletedAt time.Time `json:"completed_at"`
	Duration    string    `json:"duration"`
	TotalPicks  int       `json:"total_picks"`
}

type DraftPausedPayload struct {
	PausedAt         time.Time `json:"paused_at"`
	PickNumber       int       `json:"pick_number"`
	TimeRemainingSec int       `json:"time_remaining_sec"`
}

type DraftResumedPayload struct {
	ResumedAt        time.Time `json:"resumed_at"`
	PickNumber       int       `json:"pick_number"`
	TimeRemainingSec int       `json:"time_remaining_sec"`
}

type DraftRestartedPayload struct {
	RestartedAt time.Time `json:"restarted_at"`
}

// TimerTickPayload is the once a second countdown update.
type TimerTickPayload struct {
	PickNumber       int       `json:"pick_number"`
	ParticipantID    string    `json:"participant_id"`
	TimeRemainingSec int       `json:"time_remaining_sec"`
	TickedAt         time.Time `json:"ticked_at"`
}

// QueueUpdatedPayload carries the local user's queue after a change.
type QueueUpdatedPayload struct {
	ParticipantID string                `json:"participant_id"`
	Queue         []models.QueuedPlayer `json:"queue"`
}

// LedgerSyncedPayload is emitted when a remote snapshot changed the ledger.
type LedgerSyncedPayload struct {
	CurrentPickNumber int `json:"current_pick_number"`
	Picks             int `json:"picks"`
}

// AutodraftUnavailablePayload reports that no eligible player was left for
// the participant on the clock.
type AutodraftUnavailablePayload struct {
	PickNumber    int    `json:"pick_number"`
	ParticipantID string `json:"participant_id"`
}
