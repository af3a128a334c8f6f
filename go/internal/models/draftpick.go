package models

import (
	"encoding/json"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

// DraftPick is a completed pick. Round and PickInRound are derived from
// PickNumber and stored for convenience.
type DraftPick struct {
	ID               uuid.UUID   `json:"id"`
	PickNumber       int         `json:"pick_number"`
	Round            int         `json:"round"`
	PickInRound      int         `json:"pick_in_round"`
	Player           DraftPlayer `json:"player"`
	ParticipantID    string      `json:"participant_id"`
	ParticipantIndex int         `json:"participant_index"`
	Timestamp        time.Time   `json:"timestamp"`
}

// PickSlot locates a global pick number inside the snake order.
type PickSlot struct {
	PickNumber       int `json:"pick_number"`
	Round            int `json:"round"`
	PickInRound      int `json:"pick_in_round"`
	ParticipantIndex int `json:"participant_index"`
}

// RawPick is a pick record as stored by the remote ledger. Player is either
// a JSON string holding the player's name or a JSON object describing the
// player. The picking participant is identified by ParticipantID or, for
// older records, by the Picker display name.
type RawPick struct {
	PickNumber    int             `json:"pick_number"`
	Player        json.RawMessage `json:"player"`
	ParticipantID string          `json:"participant_id,omitempty"`
	Picker        string          `json:"picker,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}

// ToRawPick converts a pick into the record appended to the remote ledger.
func (p DraftPick) ToRawPick() (RawPick, error) {
	player, err := sonic.Marshal(p.Player)
	if err != nil {
		return RawPick{}, err
	}
	return RawPick{
		PickNumber:    p.PickNumber,
		Player:        player,
		ParticipantID: p.ParticipantID,
		Timestamp:     p.Timestamp,
	}, nil
}
