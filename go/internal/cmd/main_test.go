package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/dynasty/go/internal/config"
	"github.com/mcdev12/dynasty/go/internal/draft/autodraft"
	"github.com/mcdev12/dynasty/go/internal/draft/pool"
	"github.com/mcdev12/dynasty/go/internal/models"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Rooms = []config.RoomConfig{{
		Name: "mock draft",
		Settings: models.DraftSettings{
			TeamCount:       2,
			RosterSize:      2,
			PickTimeSeconds: 30,
		},
		Participants: []models.Participant{
			{ID: "me", Name: "Me", IsUser: true, DraftPosition: 0},
			{ID: "cpu", Name: "CPU", DraftPosition: 1},
		},
		AutoStart: true,
	}}
	return &cfg
}

func testServices(t *testing.T, cfg *config.Config) *Services {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	s, err := setupServices(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		cancel()
		s.Hub.Wait()
		s.Close()
	})

	players := make(pool.StaticProvider, 10)
	for i := range players {
		players[i] = models.DraftPlayer{
			ID:       fmt.Sprintf("p-%d", i),
			Name:     fmt.Sprintf("Player %d", i),
			Position: models.Positions[i%len(models.Positions)],
			ADP:      float64(i + 1),
		}
	}
	s.Players = players
	return s
}

func TestSetupServer_Health(t *testing.T) {
	cfg := testConfig()
	s := testServices(t, cfg)

	server := httptest.NewServer(setupServer(cfg.Server, s).Handler)
	defer server.Close()

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body healthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "OK", body.Status)
	assert.Equal(t, 0, body.Rooms)
	assert.Empty(t, body.NATS)
}

func TestStartRooms_AutoStart(t *testing.T) {
	cfg := testConfig()
	s := testServices(t, cfg)
	ctx := context.Background()

	require.NoError(t, startRooms(ctx, cfg, s))
	roomID := cfg.Rooms[0].RoomID().String()
	assert.Equal(t, []string{roomID}, s.Hub.Rooms())

	o, ok := s.Hub.Get(roomID)
	require.True(t, ok)
	require.Eventually(t, func() bool {
		state, err := o.State(ctx)
		return err == nil && state.Status == models.DraftStatusActive
	}, 3*time.Second, 20*time.Millisecond)

	assert.Error(t, startRooms(ctx, cfg, s), "a room id can only run once")
}

func TestStrategyFor(t *testing.T) {
	assert.IsType(t, autodraft.DefaultStrategy{}, strategyFor(config.RoomConfig{Strategy: config.StrategyDefault}))
	assert.IsType(t, &autodraft.RandomStrategy{}, strategyFor(config.RoomConfig{Strategy: config.StrategyRandom, RandomWindow: 3}))
}
