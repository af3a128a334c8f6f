// Package events defines the draft room event stream.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

// EventType names a draft event.
type EventType string

const (
	EventTypeDraftStarted         EventType = "DraftStarted"
	EventTypeDraftPaused          EventType = "DraftPaused"
	EventTypeDraftResumed         EventType = "DraftResumed"
	EventTypeDraftCompleted       EventType = "DraftCompleted"
	EventTypeDraftRestarted       EventType = "DraftRestarted"
	EventTypePickStarted          EventType = "PickStarted"
	EventTypePickMade             EventType = "PickMade"
	EventTypeTimerTick            EventType = "TimerTick"
	EventTypeQueueUpdated         EventType = "QueueUpdated"
	EventTypeLedgerSynced         EventType = "LedgerSynced"
	EventTypeAutodraftUnavailable EventType = "AutodraftUnavailable"
)

// DraftEvent is the envelope for every event published by a room.
type DraftEvent struct {
	ID        string          `json:"id"`
	RoomID    string          `json:"room_id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// New wraps payload in an envelope.
func New(roomID string, eventType EventType, at time.Time, payload any) (DraftEvent, error) {
	data, err := sonic.Marshal(payload)
	if err != nil {
		return DraftEvent{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return DraftEvent{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		Type:      eventType,
		Timestamp: at.UTC(),
		Data:      data,
	}, nil
}

// ParsePayload decodes the event data into the payload type of its event.
func ParsePayload(event DraftEvent) (any, error) {
	var payload any
	switch event.Type {
	case EventTypeDraftStarted:
		payload = &DraftStartedPayload{}
	case EventTypeDraftPaused:
		payload = &DraftPausedPayload{}
	case EventTypeDraftResumed:
		payload = &DraftResumedPayload{}
	case EventTypeDraftCompleted:
		payload = &DraftCompletedPayload{}
	case EventTypeDraftRestarted:
		payload = &DraftRestartedPayload{}
	case EventTypePickStarted:
		payload = &PickStartedPayload{}
	case EventTypePickMade:
		payload = &PickMadePayload{}
	case EventTypeTimerTick:
		payload = &TimerTickPayload{}
	case EventTypeQueueUpdated:
		payload = &QueueUpdatedPayload{}
	case EventTypeLedgerSynced:
		payload = &LedgerSyncedPayload{}
	case EventTypeAutodraftUnavailable:
		payload = &AutodraftUnavailablePayload{}
	default:
		return nil, fmt.Errorf("unknown event type: %s", event.Type)
	}
	if err := sonic.Unmarshal(event.Data, payload); err != nil {
		return nil, fmt.Errorf("unmarshal %s payload: %w", event.Type, err)
	}
	return payload, nil
}
