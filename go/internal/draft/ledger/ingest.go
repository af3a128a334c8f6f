package ledger

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/dynasty/go/internal/draft/turn"
	"github.com/mcdev12/dynasty/go/internal/models"
)

// Ingest rebuilds the ledger from a remote snapshot. Records that cannot be
// resolved, that name an unknown participant, that are out of snake order or
// that lie at or beyond currentPickNumber are skipped with a warning. A
// skipped record still occupies its slot: the slot stays vacant and later
// picks follow it. Local picks the remote has not echoed yet are kept unless
// the remote filled their slot or drafted their player first. The result is
// truncated at the first slot the remote does not hold at all. Ingest
// reports whether the ledger changed.
func (l *Ledger) Ingest(records []models.RawPick, currentPickNumber int) bool {
	logger := log.With().
		Str("room_id", l.roomID.String()).
		Int("current_pick_number", currentPickNumber).
		Logger()

	total := l.settings.TotalPicks()
	next := make([]models.DraftPick, 0, len(records)+len(l.pending))
	remote := make(map[int]struct{}, len(records))
	skipped := make(map[int]struct{})

	for _, rec := range records {
		if rec.PickNumber < 1 || rec.PickNumber > total {
			logger.Warn().Int("pick_number", rec.PickNumber).Msg("skipping pick outside the draft")
			continue
		}
		if rec.PickNumber >= currentPickNumber {
			logger.Warn().Int("pick_number", rec.PickNumber).Msg("skipping future pick")
			continue
		}
		pick, err := l.fromRaw(rec)
		if err != nil {
			logger.Warn().Err(err).Int("pick_number", rec.PickNumber).Msg("skipping malformed pick")
			skipped[rec.PickNumber] = struct{}{}
			continue
		}
		remote[pick.PickNumber] = struct{}{}
		next = append(next, pick)
	}

	pending := make(map[int]struct{}, len(l.pending))
	for _, p := range l.picks {
		if _, ok := l.pending[p.PickNumber]; !ok {
			continue
		}
		_, echoed := remote[p.PickNumber]
		_, claimed := skipped[p.PickNumber]
		if echoed || claimed || p.PickNumber >= currentPickNumber {
			continue
		}
		pending[p.PickNumber] = struct{}{}
		next = append(next, p)
	}

	sortPicks(next)

	result := make([]models.DraftPick, 0, len(next))
	seenPlayers := make(map[string]struct{}, len(next))
	blocked := make(map[int]struct{})
	vacant := make(map[int]struct{})
	expect := 1
	// skipVacant steps expect over slots the remote holds without a usable pick.
	skipVacant := func() {
		for {
			_, dupOnly := blocked[expect]
			_, bad := skipped[expect]
			_, held := remote[expect]
			if !dupOnly && (!bad || held) {
				return
			}
			vacant[expect] = struct{}{}
			expect++
		}
	}
	for _, p := range next {
		if p.PickNumber < expect {
			logger.Warn().Int("pick_number", p.PickNumber).Msg("skipping duplicate pick number")
			delete(pending, p.PickNumber)
			continue
		}
		if _, dup := seenPlayers[p.Player.ID]; dup {
			logger.Warn().
				Int("pick_number", p.PickNumber).
				Str("player_id", p.Player.ID).
				Msg("skipping player drafted twice")
			delete(pending, p.PickNumber)
			if _, held := remote[p.PickNumber]; held {
				blocked[p.PickNumber] = struct{}{}
			}
			continue
		}
		if p.PickNumber > expect {
			skipVacant()
		}
		if p.PickNumber != expect {
			logger.Warn().
				Int("expected", expect).
				Int("pick_number", p.PickNumber).
				Msg("gap in pick numbers, truncating")
			for _, rest := range next {
				if rest.PickNumber >= p.PickNumber {
					delete(pending, rest.PickNumber)
				}
			}
			break
		}
		seenPlayers[p.Player.ID] = struct{}{}
		result = append(result, p)
		expect++
	}
	skipVacant()

	l.pending = pending
	if samePicks(l.picks, result) && expect == l.NextPickNumber() {
		return false
	}
	l.picks = result
	l.vacant = vacant
	l.invalidate()
	logger.Debug().
		Int("picks", len(result)).
		Int("vacant", len(vacant)).
		Msg("ledger updated from snapshot")
	return true
}

func (l *Ledger) fromRaw(rec models.RawPick) (models.DraftPick, error) {
	ref, err := ParsePlayerRef(rec.Player)
	if err != nil {
		return models.DraftPick{}, err
	}
	player, ok := l.resolver.Resolve(ref)
	if !ok {
		return models.DraftPick{}, fmt.Errorf("%w: id=%q name=%q", ErrUnknownPlayer, ref.ID, ref.Name)
	}
	participant, err := l.matchParticipant(rec)
	if err != nil {
		return models.DraftPick{}, err
	}

	slot := turn.Slot(rec.PickNumber, l.settings.TeamCount)
	if participant.DraftPosition != slot.ParticipantIndex {
		return models.DraftPick{}, fmt.Errorf("%w: %s does not own pick %d", ErrNotYourTurn, participant.ID, rec.PickNumber)
	}

	return models.DraftPick{
		ID:               l.pickID(rec.PickNumber),
		PickNumber:       slot.PickNumber,
		Round:            slot.Round,
		PickInRound:      slot.PickInRound,
		Player:           player,
		ParticipantID:    participant.ID,
		ParticipantIndex: slot.ParticipantIndex,
		Timestamp:        rec.Timestamp.UTC(),
	}, nil
}

func samePicks(a, b []models.DraftPick) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].PickNumber != b[i].PickNumber ||
			a[i].Player.ID != b[i].Player.ID ||
			a[i].ParticipantID != b[i].ParticipantID {
			return false
		}
	}
	return true
}
