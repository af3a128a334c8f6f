package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/dynasty/go/internal/draft/orchestrator"
	"github.com/mcdev12/dynasty/go/internal/draft/pool"
	"github.com/mcdev12/dynasty/go/internal/models"
)

// Handler serves the room API over a Hub.
type Handler struct {
	hub       *orchestrator.Hub
	validator *validator.Validate
	// start, pause, force pick, restart and leave
	devControls bool
}

func NewHandler(hub *orchestrator.Hub, devControls bool) *Handler {
	return &Handler{hub: hub, validator: validator.New(), devControls: devControls}
}

type playerRequest struct {
	PlayerID string `json:"player_id" validate:"required,max=128"`
}

type reorderRequest struct {
	From *int `json:"from" validate:"required,min=0"`
	To   *int `json:"to" validate:"required,min=0"`
}

type changedResponse struct {
	Changed bool `json:"changed"`
}

type queuedResponse struct {
	Queued bool `json:"queued"`
}

type statusResponse struct {
	Status models.DraftStatus `json:"status"`
}

type roomSummary struct {
	RoomID            string             `json:"room_id"`
	Name              string             `json:"name,omitempty"`
	Status            models.DraftStatus `json:"status"`
	CurrentPickNumber int                `json:"current_pick_number"`
	TotalPicks        int                `json:"total_picks"`
}

// RegisterRoutes mounts the API on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/rooms", h.ListRooms)
	mux.HandleFunc("GET /api/rooms/{room}/state", h.GetState)
	mux.HandleFunc("GET /api/rooms/{room}/players", h.ListPlayers)
	mux.HandleFunc("GET /api/rooms/{room}/rosters/{participant}", h.GetRoster)

	mux.HandleFunc("POST /api/rooms/{room}/picks", h.DraftPlayer)
	mux.HandleFunc("POST /api/rooms/{room}/picks/queue", h.DraftFromQueue)
	mux.HandleFunc("POST /api/rooms/{room}/picks/auto", h.AutoPick)

	mux.HandleFunc("GET /api/rooms/{room}/queue", h.GetQueue)
	mux.HandleFunc("POST /api/rooms/{room}/queue", h.Enqueue)
	mux.HandleFunc("POST /api/rooms/{room}/queue/toggle", h.ToggleQueue)
	mux.HandleFunc("POST /api/rooms/{room}/queue/reorder", h.ReorderQueue)
	mux.HandleFunc("DELETE /api/rooms/{room}/queue/{player}", h.Dequeue)
	mux.HandleFunc("DELETE /api/rooms/{room}/queue", h.ClearQueue)

	if h.devControls {
		mux.HandleFunc("POST /api/rooms/{room}/start", h.StartDraft)
		mux.HandleFunc("POST /api/rooms/{room}/pause", h.TogglePause)
		mux.HandleFunc("POST /api/rooms/{room}/force-pick", h.ForcePick)
		mux.HandleFunc("POST /api/rooms/{room}/restart", h.Restart)
		mux.HandleFunc("POST /api/rooms/{room}/leave", h.LeaveDraft)
	}
	log.Info().Bool("dev_controls", h.devControls).Msg("draft api routes registered")
}

func (h *Handler) room(r *http.Request) (*orchestrator.Orchestrator, error) {
	id := r.PathValue("room")
	o, ok := h.hub.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRoomNotFound, id)
	}
	return o, nil
}

func (h *Handler) decode(r *http.Request, payload any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(payload); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", ErrInvalidInput, err)
	}
	if err := h.validator.StructCtx(r.Context(), payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", ErrInvalidInput, err)
	}
	return nil
}

// serve resolves the room, runs fn and writes its result.
func (h *Handler) serve(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, o *orchestrator.Orchestrator) (any, error)) {
	o, err := h.room(r)
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := fn(r.Context(), o)
	if err != nil {
		log.Warn().Err(err).Str("room_id", o.RoomID()).Str("path", r.URL.Path).Msg("draft request rejected")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	ids := h.hub.Rooms()
	rooms := make([]roomSummary, 0, len(ids))
	for _, id := range ids {
		o, ok := h.hub.Get(id)
		if !ok {
			continue
		}
		s, err := o.State(r.Context())
		if err != nil {
			// stopped between Rooms and State
			continue
		}
		rooms = append(rooms, roomSummary{
			RoomID:            s.RoomID,
			Name:              s.Name,
			Status:            s.Status,
			CurrentPickNumber: s.CurrentPickNumber,
			TotalPicks:        s.TotalPicks,
		})
	}
	writeJSON(w, http.StatusOK, rooms)
}

func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(ctx context.Context, o *orchestrator.Orchestrator) (any, error) {
		return o.State(ctx)
	})
}

// ListPlayers accepts position (repeated or comma separated), search, sort
// and desc query parameters.
func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}
	h.serve(w, r, func(ctx context.Context, o *orchestrator.Orchestrator) (any, error) {
		return o.AvailablePlayers(ctx, f)
	})
}

func parseFilter(r *http.Request) (pool.Filter, error) {
	q := r.URL.Query()
	f := pool.Filter{
		Search: q.Get("search"),
		SortBy: pool.ParseSortField(q.Get("sort")),
	}
	for _, raw := range q["position"] {
		for _, s := range strings.Split(raw, ",") {
			if strings.TrimSpace(s) == "" {
				continue
			}
			pos, ok := models.ParsePosition(s)
			if !ok {
				return pool.Filter{}, fmt.Errorf("%w: unknown position %q", ErrInvalidInput, s)
			}
			f.Positions = append(f.Positions, pos)
		}
	}
	if d := q.Get("desc"); d != "" {
		desc, err := strconv.ParseBool(d)
		if err != nil {
			return pool.Filter{}, fmt.Errorf("%w: desc must be a boolean", ErrInvalidInput)
		}
		f.Descending = desc
	}
	return f, nil
}

func (h *Handler) GetRoster(w http.ResponseWriter, r *http.Request) {
	participantID := r.PathValue("participant")
	h.serve(w, r, func(ctx context.Context, o *orchestrator.Orchestrator) (any, error) {
		return o.Roster(ctx, participantID)
	})
}

func (h *Handler) DraftPlayer(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	h.serve(w, r, func(ctx context.Context, o *orchestrator.Orchestrator) (any, error) {
		return o.DraftPlayer(ctx, req.PlayerID)
	})
}

func (h *Handler) DraftFromQueue(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(ctx context.Context, o *orchestrator.Orchestrator) (any, error) {
		return o.DraftFromQueue(ctx)
	})
}

func (h *Handler) AutoPick(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(ctx context.Context, o *orchestrator.Orchestrator) (any, error) {
		return o.AutoPickForUser(ctx)
	})
}

func (h *Handler) GetQueue(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(ctx context.Context, o *orchestrator.Orchestrator) (any, error) {
		return o.Queue(ctx)
	})
}

func (h *Handler) Enqueue(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	h.serve(w, r, func(ctx context.Context, o *orchestrator.Orchestrator) (any, error) {
		changed, err := o.Enqueue(ctx, req.PlayerID)
		return changedResponse{Changed: changed}, err
	})
}

func (h *Handler) ToggleQueue(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	h.serve(w, r, func(ctx context.Context, o *orchestrator.Orchestrator) (any, error) {
		queued, err := o.ToggleQueue(ctx, req.PlayerID)
		return queuedResponse{Queued: queued}, err
	})
}

func (h *Handler) ReorderQueue(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	h.serve(w, r, func(ctx context.Context, o *orchestrator.Orchestrator) (any, error) {
		changed, err := o.ReorderQueue(ctx, *req.From, *req.To)
		return changedResponse{Changed: changed}, err
	})
}

func (h *Handler) Dequeue(w http.ResponseWriter, r *http.Request) {
	playerID := r.PathValue("player")
	h.serve(w, r, func(ctx context.Context, o *orchestrator.Orchestrator) (any, error) {
		changed, err := o.Dequeue(ctx, playerID)
		return changedResponse{Changed: changed}, err
	})
}

func (h *Handler) ClearQueue(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(ctx context.Context, o *orchestrator.Orchestrator) (any, error) {
		return changedResponse{Changed: true}, o.ClearQueue(ctx)
	})
}

func (h *Handler) StartDraft(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(ctx context.Context, o *orchestrator.Orchestrator) (any, error) {
		if err := o.StartDraft(ctx); err != nil {
			return nil, err
		}
		return statusResponse{Status: models.DraftStatusActive}, nil
	})
}

func (h *Handler) TogglePause(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(ctx context.Context, o *orchestrator.Orchestrator) (any, error) {
		status, err := o.TogglePause(ctx)
		return statusResponse{Status: status}, err
	})
}

func (h *Handler) ForcePick(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(ctx context.Context, o *orchestrator.Orchestrator) (any, error) {
		return o.ForcePick(ctx)
	})
}

func (h *Handler) Restart(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(ctx context.Context, o *orchestrator.Orchestrator) (any, error) {
		if err := o.Restart(ctx); err != nil {
			return nil, err
		}
		return statusResponse{Status: models.DraftStatusWaiting}, nil
	})
}

func (h *Handler) LeaveDraft(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(ctx context.Context, o *orchestrator.Orchestrator) (any, error) {
		return changedResponse{Changed: true}, o.LeaveDraft(ctx)
	})
}
