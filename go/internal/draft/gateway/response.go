package gateway

import (
	"errors"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/dynasty/go/internal/draft/ledger"
	"github.com/mcdev12/dynasty/go/internal/draft/orchestrator"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrRoomNotFound = errors.New("draft room not found")
)

type errorBody struct {
	Code    int    `json:"code"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type mappedError struct {
	status int
	reason string
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := sonic.ConfigDefault.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	m := mapError(err)
	if m.status >= http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, m.status, errorResponse{Error: errorBody{
		Code:    m.status,
		Reason:  m.reason,
		Message: err.Error(),
	}})
}

func mapError(err error) mappedError {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return mappedError{http.StatusBadRequest, "invalidInput"}
	case errors.Is(err, ErrRoomNotFound):
		return mappedError{http.StatusNotFound, "roomNotFound"}
	case errors.Is(err, ledger.ErrUnknownPlayer),
		errors.Is(err, ledger.ErrUnknownParticipant):
		return mappedError{http.StatusNotFound, "notFound"}
	case errors.Is(err, ledger.ErrNotYourTurn):
		return mappedError{http.StatusConflict, "notYourTurn"}
	case errors.Is(err, ledger.ErrAlreadyDrafted):
		return mappedError{http.StatusConflict, "alreadyDrafted"}
	case errors.Is(err, ledger.ErrPickOutOfRange),
		errors.Is(err, ledger.ErrPickOutOfSequence):
		return mappedError{http.StatusConflict, "pickOutOfSequence"}
	case errors.Is(err, orchestrator.ErrNotActive),
		errors.Is(err, orchestrator.ErrInvalidState),
		errors.Is(err, orchestrator.ErrDraftComplete):
		return mappedError{http.StatusConflict, "invalidState"}
	case errors.Is(err, orchestrator.ErrQueueEmpty),
		errors.Is(err, orchestrator.ErrAutoPickDone),
		errors.Is(err, orchestrator.ErrNoEligible):
		return mappedError{http.StatusConflict, "noPick"}
	case errors.Is(err, orchestrator.ErrNoLocalUser):
		return mappedError{http.StatusUnprocessableEntity, "noLocalUser"}
	case errors.Is(err, orchestrator.ErrClosed):
		return mappedError{http.StatusServiceUnavailable, "roomClosed"}
	default:
		return mappedError{http.StatusInternalServerError, "internalError"}
	}
}
