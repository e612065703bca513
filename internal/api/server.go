package api

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Server is the command and event HTTP server. The host's command
// dispatcher and lifecycle hooks are its only intended clients.
type Server struct {
	server   *http.Server
	logger   zerolog.Logger
	listener net.Listener // Optional pre-created listener (for systemd socket activation)
}

// NewServer creates the API server around a handler.
func NewServer(addr string, handler *Handler, logger zerolog.Logger) *Server {
	r := mux.NewRouter()
	r.HandleFunc("/v1/playtime", handler.GetPlaytime).Methods(http.MethodGet)
	r.HandleFunc("/v1/leaderboard", handler.GetLeaderboard).Methods(http.MethodGet)
	r.HandleFunc("/v1/events/join", handler.PlayerJoined).Methods(http.MethodPost)
	r.HandleFunc("/v1/events/quit", handler.PlayerQuit).Methods(http.MethodPost)

	return &Server{
		server: &http.Server{
			Addr:    addr,
			Handler: r,
		},
		logger: logger.With().Str("component", "api").Logger(),
	}
}

// SetListener sets a pre-created listener for systemd socket activation
func (s *Server) SetListener(ln net.Listener) {
	s.listener = ln
}

// Start starts the API server
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting API server")
	go func() {
		var err error
		if s.listener != nil {
			err = s.server.Serve(s.listener)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("API server error")
		}
	}()
	return nil
}

// Stop stops the API server
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping API server")
	return s.server.Close()
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
