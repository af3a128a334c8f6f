package models

import (
	"time"

	"github.com/google/uuid"
)

// DraftStatus defines the status of a draft room.
type DraftStatus string

const (
	DraftStatusLoading   DraftStatus = "LOADING"
	DraftStatusWaiting   DraftStatus = "WAITING"
	DraftStatusActive    DraftStatus = "ACTIVE"
	DraftStatusPaused    DraftStatus = "PAUSED"
	DraftStatusCompleted DraftStatus = "COMPLETED"
)

// DraftSettings holds the fixed parameters of a snake draft.
type DraftSettings struct {
	TeamCount          int          `json:"team_count" yaml:"team_count" validate:"min=1"`
	RosterSize         int          `json:"roster_size" yaml:"roster_size" validate:"min=1"`
	PickTimeSeconds    int          `json:"pick_time_seconds" yaml:"pick_time_seconds" validate:"min=1"`
	GracePeriodSeconds int          `json:"grace_period_seconds" yaml:"grace_period_seconds" validate:"min=0"`
	RosterLimits       RosterLimits `json:"roster_limits,omitempty" yaml:"roster_limits"`
}

// TotalPicks is the number of picks needed to fill every roster.
func (s DraftSettings) TotalPicks() int {
	return s.TeamCount * s.RosterSize
}

// PickTime returns the per-pick countdown as a duration.
func (s DraftSettings) PickTime() time.Duration {
	return time.Duration(s.PickTimeSeconds) * time.Second
}

// GracePeriod returns the delay between a timer hitting zero and the autopick.
func (s DraftSettings) GracePeriod() time.Duration {
	return time.Duration(s.GracePeriodSeconds) * time.Second
}

// DefaultDraftSettings mirrors a 12 team best ball room.
func DefaultDraftSettings() DraftSettings {
	return DraftSettings{
		TeamCount:          12,
		RosterSize:         18,
		PickTimeSeconds:    30,
		GracePeriodSeconds: 3,
		RosterLimits:       DefaultRosterLimits(),
	}
}

// Participant is a seat in a draft room. DraftPosition is 0-indexed.
type Participant struct {
	ID            string `json:"id" yaml:"id" validate:"required"`
	Name          string `json:"name" yaml:"name" validate:"required"`
	IsUser        bool   `json:"is_user" yaml:"is_user"`
	DraftPosition int    `json:"draft_position" yaml:"draft_position" validate:"min=0"`
}

// DraftRoom represents an open draft room.
type DraftRoom struct {
	ID           uuid.UUID     `json:"id"`
	Name         string        `json:"name,omitempty"`
	Status       DraftStatus   `json:"status"`
	Settings     DraftSettings `json:"settings"`
	Participants []Participant `json:"participants"`
	StartedAt    *time.Time    `json:"started_at,omitempty"`
}

// UserIndex returns the draft position of the local user, or -1 when the
// room has no local user.
func (r DraftRoom) UserIndex() int {
	for _, p := range r.Participants {
		if p.IsUser {
			return p.DraftPosition
		}
	}
	return -1
}

// ParticipantAt returns the participant seated at the given draft position.
func (r DraftRoom) ParticipantAt(index int) (Participant, bool) {
	for _, p := range r.Participants {
		if p.DraftPosition == index {
			return p, true
		}
	}
	return Participant{}, false
}
