package metrics

import (
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	// Tick loop metrics
	TicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "getajob_ticks_total",
			Help: "Total tick evaluations by classification result",
		},
		[]string{"result"},
	)

	PlayersOnline = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "getajob_players_online",
			Help: "Number of players seen in the last evaluation cycle",
		},
	)

	// Kick metrics
	KicksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "getajob_kicks_total",
			Help: "Total players kicked for exceeding the daily threshold",
		},
	)

	// Persistence metrics
	MinutesPersisted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "getajob_minutes_persisted_total",
			Help: "Total session minutes flushed to the store",
		},
	)

	StoreErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "getajob_store_errors_total",
			Help: "Storage operation failures",
		},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(
		TicksTotal,
		PlayersOnline,
		KicksTotal,
		MinutesPersisted,
		StoreErrors,
	)
}

// Server is the metrics HTTP server
type Server struct {
	server   *http.Server
	logger   zerolog.Logger
	listener net.Listener // Optional pre-created listener (for systemd socket activation)
}

// NewServer creates a new metrics server
func NewServer(addr string, logger zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Server{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
		logger: logger.With().Str("component", "metrics").Logger(),
	}
}

// SetListener sets a pre-created listener for systemd socket activation
func (s *Server) SetListener(ln net.Listener) {
	s.listener = ln
}

// Start starts the metrics server
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting metrics server")
	go func() {
		var err error
		if s.listener != nil {
			err = s.server.Serve(s.listener)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Metrics server error")
		}
	}()
	return nil
}

// Stop stops the metrics server
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping metrics server")
	return s.server.Close()
}
