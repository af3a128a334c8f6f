package gateway

import (
	"fmt"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/dynasty/go/internal/draft/orchestrator"
)

// MessageTypeState tags the state message a client receives on connect.
// Every later message is an events.DraftEvent.
const MessageTypeState = "State"

type stateMessage struct {
	Type   string             `json:"type"`
	RoomID string             `json:"room_id"`
	State  orchestrator.State `json:"state"`
}

// WebSocketHandler upgrades clients onto a room's event stream.
type WebSocketHandler struct {
	manager *ConnectionManager
	hub     *orchestrator.Hub
}

// NewWebSocketHandler serves rooms from hub. A nil hub accepts any room id
// and skips the initial state message, for gateways that only relay.
func NewWebSocketHandler(cm *ConnectionManager, hub *orchestrator.Hub) *WebSocketHandler {
	return &WebSocketHandler{manager: cm, hub: hub}
}

func (h *WebSocketHandler) HandleRoomConnection(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("room")
	if roomID == "" {
		writeError(w, fmt.Errorf("%w: room is required", ErrInvalidInput))
		return
	}

	var hello []byte
	if h.hub != nil {
		o, ok := h.hub.Get(roomID)
		if !ok {
			writeError(w, fmt.Errorf("%w: %s", ErrRoomNotFound, roomID))
			return
		}
		state, err := o.State(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		hello, err = sonic.Marshal(stateMessage{Type: MessageTypeState, RoomID: roomID, State: state})
		if err != nil {
			writeError(w, fmt.Errorf("marshal state: %w", err))
			return
		}
	}

	// the upgrader writes its own error response
	if err := h.manager.Upgrade(w, r, roomID, hello); err != nil {
		log.Error().Err(err).Str("room_id", roomID).Msg("failed to upgrade websocket connection")
	}
}

func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.Stats())
}

func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws/rooms/{room}", h.HandleRoomConnection)
	mux.HandleFunc("GET /ws/stats", h.HandleConnectionStats)
}
