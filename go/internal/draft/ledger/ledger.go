// Package ledger keeps the ordered record of completed picks for one room.
package ledger

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/dynasty/go/internal/draft/turn"
	"github.com/mcdev12/dynasty/go/internal/models"
)

var (
	ErrNotYourTurn        = errors.New("participant is not on the clock")
	ErrAlreadyDrafted     = errors.New("player already drafted")
	ErrPickOutOfRange     = errors.New("pick number outside the draft")
	ErrPickOutOfSequence  = errors.New("pick number does not follow the last pick")
	ErrUnknownParticipant = errors.New("unknown participant")
	ErrUnknownPlayer      = errors.New("unknown player")
)

// PickRequest describes a locally initiated pick.
type PickRequest struct {
	Player     models.DraftPlayer
	PickNumber int
	// ParticipantID is the participant asking for the pick. It is only
	// checked when ForUserOnly is set.
	ParticipantID string
	// ForUserOnly requires ParticipantID to hold PickNumber. Forced picks
	// leave it unset and are recorded for the turn holder.
	ForUserOnly bool
}

// Ledger is the pick record of a single room. It is not safe for concurrent
// use; the room orchestrator owns it.
type Ledger struct {
	roomID       uuid.UUID
	settings     models.DraftSettings
	participants []models.Participant
	byID         map[string]models.Participant
	byName       map[string]models.Participant
	resolver     Resolver
	clock        clockwork.Clock

	picks   []models.DraftPick
	pending map[int]struct{}
	// vacant holds slots the remote filled with a record that could not be
	// used. Together with picks they cover 1..NextPickNumber()-1.
	vacant map[int]struct{}
	views  *views
}

// New creates an empty ledger for room.
func New(room models.DraftRoom, resolver Resolver, clock clockwork.Clock) *Ledger {
	l := &Ledger{
		roomID:       room.ID,
		settings:     room.Settings,
		participants: room.Participants,
		byID:         make(map[string]models.Participant, len(room.Participants)),
		byName:       make(map[string]models.Participant, len(room.Participants)),
		resolver:     resolver,
		clock:        clock,
		pending:      make(map[int]struct{}),
		vacant:       make(map[int]struct{}),
	}
	for _, p := range room.Participants {
		l.byID[p.ID] = p
		l.byName[strings.ToLower(p.Name)] = p
	}
	return l
}

// Picks returns a copy of the picks in pick number order.
func (l *Ledger) Picks() []models.DraftPick {
	out := make([]models.DraftPick, len(l.picks))
	copy(out, l.picks)
	return out
}

// Len returns the number of recorded picks.
func (l *Ledger) Len() int {
	return len(l.picks)
}

// Last returns the most recent pick.
func (l *Ledger) Last() (models.DraftPick, bool) {
	if len(l.picks) == 0 {
		return models.DraftPick{}, false
	}
	return l.picks[len(l.picks)-1], true
}

// NextPickNumber is the slot the next local pick must fill.
func (l *Ledger) NextPickNumber() int {
	return len(l.picks) + len(l.vacant) + 1
}

// IsVacant reports whether the remote holds an unusable record for the slot.
func (l *Ledger) IsVacant(pickNumber int) bool {
	_, ok := l.vacant[pickNumber]
	return ok
}

// IsPending reports whether the pick was made locally and has not been seen
// in a remote snapshot yet.
func (l *Ledger) IsPending(pickNumber int) bool {
	_, ok := l.pending[pickNumber]
	return ok
}

// MakePick validates and records a pick for req.PickNumber. The caller owns
// the current pick number and advances it after a successful pick. A
// rejected pick leaves the ledger untouched.
func (l *Ledger) MakePick(req PickRequest) (models.DraftPick, error) {
	logger := log.With().
		Str("room_id", l.roomID.String()).
		Int("pick_number", req.PickNumber).
		Str("player_id", req.Player.ID).
		Logger()

	reject := func(err error) (models.DraftPick, error) {
		logger.Warn().Err(err).Str("participant_id", req.ParticipantID).Msg("pick rejected")
		return models.DraftPick{}, err
	}

	if req.PickNumber < 1 || req.PickNumber > l.settings.TotalPicks() {
		return reject(ErrPickOutOfRange)
	}
	if req.PickNumber != l.NextPickNumber() {
		return reject(ErrPickOutOfSequence)
	}
	if req.Player.ID == "" {
		return reject(ErrUnknownPlayer)
	}

	slot := turn.Slot(req.PickNumber, l.settings.TeamCount)
	holder, ok := l.participantAt(slot.ParticipantIndex)
	if !ok {
		return reject(ErrUnknownParticipant)
	}
	if req.ForUserOnly && req.ParticipantID != holder.ID {
		return reject(ErrNotYourTurn)
	}
	if _, taken := l.PickedIDs()[req.Player.ID]; taken {
		return reject(ErrAlreadyDrafted)
	}

	pick := models.DraftPick{
		ID:               l.pickID(req.PickNumber),
		PickNumber:       slot.PickNumber,
		Round:            slot.Round,
		PickInRound:      slot.PickInRound,
		Player:           req.Player,
		ParticipantID:    holder.ID,
		ParticipantIndex: slot.ParticipantIndex,
		Timestamp:        l.clock.Now().UTC(),
	}
	l.picks = append(l.picks, pick)
	l.pending[pick.PickNumber] = struct{}{}
	l.invalidate()

	logger.Info().
		Str("participant_id", holder.ID).
		Int("round", pick.Round).
		Bool("forced", !req.ForUserOnly).
		Msg("pick recorded")
	return pick, nil
}

// Prune drops every pick at or after currentPickNumber. It runs whenever the
// current pick number moves backwards so that no future pick survives.
func (l *Ledger) Prune(currentPickNumber int) bool {
	keep := make([]models.DraftPick, 0, len(l.picks))
	for _, p := range l.picks {
		if p.PickNumber < currentPickNumber {
			keep = append(keep, p)
			continue
		}
		delete(l.pending, p.PickNumber)
	}
	vacated := 0
	for n := range l.vacant {
		if n >= currentPickNumber {
			delete(l.vacant, n)
			vacated++
		}
	}
	if len(keep) == len(l.picks) {
		return vacated > 0
	}
	log.Warn().
		Str("room_id", l.roomID.String()).
		Int("current_pick_number", currentPickNumber).
		Int("pruned", len(l.picks)-len(keep)).
		Msg("pruned future picks")
	l.picks = keep
	l.invalidate()
	return true
}

// Reset clears every pick.
func (l *Ledger) Reset() {
	l.picks = nil
	l.pending = make(map[int]struct{})
	l.vacant = make(map[int]struct{})
	l.invalidate()
}

func (l *Ledger) participantAt(index int) (models.Participant, bool) {
	for _, p := range l.participants {
		if p.DraftPosition == index {
			return p, true
		}
	}
	return models.Participant{}, false
}

func (l *Ledger) matchParticipant(rec models.RawPick) (models.Participant, error) {
	if rec.ParticipantID != "" {
		if p, ok := l.byID[rec.ParticipantID]; ok {
			return p, nil
		}
	}
	if rec.Picker != "" {
		if p, ok := l.byName[strings.ToLower(strings.TrimSpace(rec.Picker))]; ok {
			return p, nil
		}
	}
	return models.Participant{}, fmt.Errorf("%w: id=%q picker=%q", ErrUnknownParticipant, rec.ParticipantID, rec.Picker)
}

// pickID is stable per room and pick number so that a local pick and its
// remote echo compare equal.
func (l *Ledger) pickID(pickNumber int) uuid.UUID {
	return uuid.NewSHA1(l.roomID, []byte(fmt.Sprintf("pick:%d", pickNumber)))
}

func sortPicks(picks []models.DraftPick) {
	sort.SliceStable(picks, func(i, j int) bool {
		return picks[i].PickNumber < picks[j].PickNumber
	})
}
