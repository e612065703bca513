package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/radi8/getajob/internal/engine"
	"github.com/radi8/getajob/internal/summary"
	"github.com/radi8/getajob/internal/tracker"
	"github.com/rs/zerolog"
)

// PlayerHeader carries the identity of the player who invoked a
// command. The host's command dispatcher sets it; direct callers
// without it are rejected.
const PlayerHeader = "X-Player-Id"

// RejectionMessage is the fixed response for non-player callers.
const RejectionMessage = "This command can only be run by a player."

// Handler serves the player commands and host lifecycle events.
type Handler struct {
	tracker    *tracker.Tracker
	summarizer *summary.Summarizer
	engine     *engine.Engine
	logger     zerolog.Logger
}

// NewHandler creates an API handler.
func NewHandler(tr *tracker.Tracker, sum *summary.Summarizer, eng *engine.Engine, logger zerolog.Logger) *Handler {
	return &Handler{
		tracker:    tr,
		summarizer: sum,
		engine:     eng,
		logger:     logger.With().Str("component", "api").Logger(),
	}
}

// GetPlaytime returns the invoking player's current session time.
func (h *Handler) GetPlaytime(w http.ResponseWriter, r *http.Request) {
	playerID, ok := invokingPlayer(w, r)
	if !ok {
		return
	}

	minutes := h.tracker.SessionMinutes(playerID)
	writeJSON(w, http.StatusOK, map[string]any{
		"minutes": minutes,
		"message": fmt.Sprintf("Your approximate playtime this session: %d minute(s).", minutes),
	})
}

// GetLeaderboard returns today's playtime summary.
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if _, ok := invokingPlayer(w, r); !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": h.summarizer.SummarizeToday(r.Context()),
	})
}

type playerEvent struct {
	PlayerID string `json:"player_id"`
}

// PlayerJoined handles the host's join lifecycle callback.
func (h *Handler) PlayerJoined(w http.ResponseWriter, r *http.Request) {
	event, ok := decodeEvent(w, r)
	if !ok {
		return
	}

	h.logger.Info().Str("player", event.PlayerID).Msg("Player joined")
	h.engine.OnJoin(event.PlayerID)
	w.WriteHeader(http.StatusAccepted)
}

// PlayerQuit handles the host's quit lifecycle callback.
func (h *Handler) PlayerQuit(w http.ResponseWriter, r *http.Request) {
	event, ok := decodeEvent(w, r)
	if !ok {
		return
	}

	h.logger.Info().Str("player", event.PlayerID).Msg("Player quit")
	h.engine.OnQuit(event.PlayerID)
	w.WriteHeader(http.StatusAccepted)
}

// invokingPlayer extracts the command invoker. Commands are restricted
// to interactive players; anything else gets the fixed rejection.
func invokingPlayer(w http.ResponseWriter, r *http.Request) (string, bool) {
	playerID := r.Header.Get(PlayerHeader)
	if playerID == "" {
		writeError(w, http.StatusForbidden, RejectionMessage)
		return "", false
	}
	return playerID, true
}

func decodeEvent(w http.ResponseWriter, r *http.Request) (playerEvent, bool) {
	var event playerEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid event body")
		return event, false
	}
	if _, err := uuid.Parse(event.PlayerID); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid player id")
		return event, false
	}
	return event, true
}
