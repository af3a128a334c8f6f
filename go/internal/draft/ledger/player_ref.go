package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/mcdev12/dynasty/go/internal/models"
)

// PlayerRef is the normalized form of the player field of a raw pick.
// Records written by older clients carry only the player's name; newer ones
// carry the full player object.
type PlayerRef struct {
	ID     string
	Name   string
	Player *models.DraftPlayer
}

// ParsePlayerRef normalizes a raw player field into a PlayerRef.
func ParsePlayerRef(raw json.RawMessage) (PlayerRef, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return PlayerRef{}, errors.New("player is empty")
	}

	switch raw[0] {
	case '"':
		var name string
		if err := sonic.Unmarshal(raw, &name); err != nil {
			return PlayerRef{}, fmt.Errorf("failed to decode player name: %w", err)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return PlayerRef{}, errors.New("player name is empty")
		}
		return PlayerRef{Name: name}, nil
	case '{':
		var p models.DraftPlayer
		if err := sonic.Unmarshal(raw, &p); err != nil {
			return PlayerRef{}, fmt.Errorf("failed to decode player object: %w", err)
		}
		if p.ID == "" && p.Name == "" {
			return PlayerRef{}, errors.New("player object has neither id nor name")
		}
		return PlayerRef{ID: p.ID, Name: p.Name, Player: &p}, nil
	default:
		return PlayerRef{}, fmt.Errorf("unsupported player field %q", truncate(raw, 32))
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// Resolver maps a player reference onto the reference pool.
type Resolver interface {
	Resolve(ref PlayerRef) (models.DraftPlayer, bool)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ref PlayerRef) (models.DraftPlayer, bool)

// Resolve calls f(ref).
func (f ResolverFunc) Resolve(ref PlayerRef) (models.DraftPlayer, bool) {
	return f(ref)
}
