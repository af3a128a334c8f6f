package orchestrator

import (
	"github.com/mcdev12/dynasty/go/internal/draft/events"
	"github.com/mcdev12/dynasty/go/internal/draft/remote"
	"github.com/mcdev12/dynasty/go/internal/models"
)

// applySnapshot folds a remote snapshot into the room. A larger remote pick
// number means another client picked, so it is adopted before ingesting.
// The room never sits past the ledger's next open slot, or no pick could be
// committed.
func (o *Orchestrator) applySnapshot(snap remote.Snapshot) {
	if o.status == models.DraftStatusLoading {
		// players cannot be resolved until the pool is in
		o.deferred = &snap
		return
	}
	if o.awaitingReset {
		if len(snap.Picks) > 0 {
			o.logger.Debug().Msg("dropping snapshot from before restart")
			return
		}
		o.awaitingReset = false
	}

	prev := o.current
	if snap.CurrentPickNumber > o.current {
		o.current = min(snap.CurrentPickNumber, o.room.Settings.TotalPicks()+1)
	}
	changed := o.ledger.Ingest(snap.Picks, o.current)
	if next := o.ledger.NextPickNumber(); next < o.current {
		// the remote is missing a slot below its own counter; resume there
		o.logger.Warn().
			Int("remote_pick_number", o.current).
			Int("pick_number", next).
			Msg("remote ledger has a gap, resuming at the first open slot")
		o.current = next
	}
	moved := o.current != prev
	if !moved && !changed {
		return
	}
	if moved {
		o.autoPicked = 0
		if o.status == models.DraftStatusCompleted && o.current <= o.room.Settings.TotalPicks() {
			o.status = models.DraftStatusActive
		}
	}

	o.logger.Debug().
		Int("pick_number", o.current).
		Int("picks", o.ledger.Len()).
		Msg("ledger synced from remote")
	o.pruneQueue()
	o.publish(events.EventTypeLedgerSynced, events.LedgerSyncedPayload{
		CurrentPickNumber: o.current,
		Picks:             o.ledger.Len(),
	})
	if moved {
		o.advance()
	}
}
