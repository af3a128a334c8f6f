package models

import "time"

// QueuedPlayer is a player on a participant's wish list. QueuePosition is
// 0-indexed and contiguous within one queue.
type QueuedPlayer struct {
	DraftPlayer
	QueuedAt      time.Time `json:"queued_at"`
	QueuePosition int       `json:"queue_position"`
}
