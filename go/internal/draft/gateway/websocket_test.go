package gateway

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/dynasty/go/internal/draft/events"
)

func (h *apiHarness) dial(roomID string) *websocket.Conn {
	h.t.Helper()
	url := "ws" + strings.TrimPrefix(h.server.URL, "http") + "/ws/rooms/" + roomID
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(h.t, err)
	resp.Body.Close()
	h.t.Cleanup(func() { conn.Close() })
	return conn
}

func readUntil(t *testing.T, conn *websocket.Conn, eventType events.EventType) events.DraftEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var event events.DraftEvent
		require.NoError(t, json.Unmarshal(data, &event))
		if event.Type == eventType {
			return event
		}
	}
}

func TestWebSocket_StreamsRoomEvents(t *testing.T) {
	h := newAPIHarness(t)
	conn := h.dial(h.room.RoomID())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var hello stateMessage
	require.NoError(t, json.Unmarshal(data, &hello))
	assert.Equal(t, MessageTypeState, hello.Type)
	assert.Equal(t, h.room.RoomID(), hello.RoomID)
	assert.Equal(t, 1, hello.State.CurrentPickNumber)

	require.Eventually(t, func() bool {
		return h.cm.Stats().RoomConnections[h.room.RoomID()] == 1
	}, 2*time.Second, 5*time.Millisecond)

	status, _ := h.do(http.MethodPost, h.path("/start"), "")
	require.Equal(t, http.StatusOK, status)

	started := readUntil(t, conn, events.EventTypePickStarted)
	assert.Equal(t, h.room.RoomID(), started.RoomID)
	payload, err := events.ParsePayload(started)
	require.NoError(t, err)
	assert.Equal(t, "p0", payload.(*events.PickStartedPayload).ParticipantID)

	status, _ = h.do(http.MethodPost, h.path("/picks"), `{"player_id":"p-01"}`)
	require.Equal(t, http.StatusOK, status)
	made := readUntil(t, conn, events.EventTypePickMade)
	payload, err = events.ParsePayload(made)
	require.NoError(t, err)
	assert.Equal(t, "p-01", payload.(*events.PickMadePayload).Pick.Player.ID)
}

func TestWebSocket_UnknownRoom(t *testing.T) {
	h := newAPIHarness(t)
	url := "ws" + strings.TrimPrefix(h.server.URL, "http") + "/ws/rooms/missing"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWebSocket_Stats(t *testing.T) {
	h := newAPIHarness(t)
	h.dial(h.room.RoomID())
	h.dial(h.room.RoomID())

	require.Eventually(t, func() bool {
		_, body := h.do(http.MethodGet, "/ws/stats", "")
		total, _ := body["total_connections"].(float64)
		return total == 2
	}, 2*time.Second, 5*time.Millisecond)
}
