package engine

import (
	"context"
	"sync"
	"time"

	"github.com/radi8/getajob/internal/host"
	"github.com/radi8/getajob/internal/metrics"
	"github.com/radi8/getajob/internal/policy"
	"github.com/radi8/getajob/internal/storage"
	"github.com/radi8/getajob/internal/tracker"
	"github.com/rs/zerolog"
)

// KickConfigSource supplies the live kick configuration. The engine
// reads it on every evaluation so external reloads take effect
// immediately.
type KickConfigSource interface {
	Kick() policy.KickConfig
}

// Config holds the evaluation cycle settings.
type Config struct {
	TickPeriod   time.Duration
	InitialDelay time.Duration
}

// Engine drives the periodic presence evaluation: sample positions,
// accumulate active time, and kick players over the daily threshold.
type Engine struct {
	cfg      Config
	kickCfg  KickConfigSource
	gateway  host.Gateway
	tracker  *tracker.Tracker
	sessions storage.SessionStore
	dispatch *host.Dispatcher
	logger   zerolog.Logger

	stopChan chan struct{}
	stopOnce sync.Once
	loopDone chan struct{}
	persists sync.WaitGroup
}

// New creates an engine. The caller is responsible for running the
// dispatcher's sync loop.
func New(cfg Config, kickCfg KickConfigSource, gateway host.Gateway, tr *tracker.Tracker,
	sessions storage.SessionStore, dispatch *host.Dispatcher, logger zerolog.Logger) *Engine {

	if cfg.TickPeriod <= 0 {
		cfg.TickPeriod = time.Minute
	}

	return &Engine{
		cfg:      cfg,
		kickCfg:  kickCfg,
		gateway:  gateway,
		tracker:  tr,
		sessions: sessions,
		dispatch: dispatch,
		logger:   logger.With().Str("component", "engine").Logger(),
		stopChan: make(chan struct{}),
		loopDone: make(chan struct{}),
	}
}

// Start begins the periodic evaluation loop.
func (e *Engine) Start() {
	go e.run()
	e.logger.Info().
		Dur("tick_period", e.cfg.TickPeriod).
		Dur("initial_delay", e.cfg.InitialDelay).
		Msg("Evaluation loop started")
}

// Stop halts the loop, waits for in-flight persistence, and flushes
// every still-connected player's session synchronously. A failure to
// flush one player is logged and does not block the others.
func (e *Engine) Stop(ctx context.Context) {
	e.stopOnce.Do(func() { close(e.stopChan) })
	<-e.loopDone
	e.persists.Wait()
	e.flushAll(ctx)
	e.logger.Info().Msg("Engine stopped")
}

func (e *Engine) run() {
	defer close(e.loopDone)

	if e.cfg.InitialDelay > 0 {
		select {
		case <-time.After(e.cfg.InitialDelay):
		case <-e.stopChan:
			return
		}
	}

	ticker := time.NewTicker(e.cfg.TickPeriod)
	defer ticker.Stop()

	e.Evaluate(context.Background())
	for {
		select {
		case <-ticker.C:
			e.Evaluate(context.Background())
		case <-e.stopChan:
			return
		}
	}
}

// Evaluate runs one evaluation cycle over every connected player.
// Per-player failures are logged and skipped; they never abort the
// rest of the cycle.
func (e *Engine) Evaluate(ctx context.Context) {
	players, err := e.gateway.OnlinePlayers(ctx)
	if err != nil {
		e.logger.Warn().Err(err).Msg("Failed to list online players, skipping cycle")
		return
	}

	metrics.PlayersOnline.Set(float64(len(players)))

	for _, p := range players {
		e.evaluatePlayer(ctx, p)
	}
}

func (e *Engine) evaluatePlayer(ctx context.Context, p host.Player) {
	pos, err := e.gateway.PlayerPosition(ctx, p.ID)
	if err != nil {
		e.logger.Warn().Err(err).Str("player", p.ID).Msg("Failed to fetch position, skipping player this cycle")
		return
	}

	added := e.tracker.OnTick(p.ID, pos)
	if added > 0 {
		metrics.TicksTotal.WithLabelValues("active").Inc()
	} else {
		metrics.TicksTotal.WithLabelValues("idle").Inc()
	}

	past, err := e.sessions.TodayTotalFor(ctx, p.ID)
	if err != nil {
		// Treated as 0 for this cycle only; next cycle queries again.
		e.logger.Warn().Err(err).Str("player", p.ID).Msg("Failed to query today's playtime")
		metrics.StoreErrors.WithLabelValues("today_total").Inc()
		past = 0
	}

	todayMinutes := e.tracker.SessionMinutes(p.ID) + past
	e.logger.Debug().
		Str("player", p.ID).
		Int64("minutes_today", todayMinutes).
		Msg("Evaluated player")

	decision := policy.Decide(todayMinutes, e.kickCfg.Kick(), p.ID, p.Name)
	if decision.Kick {
		e.dispatchKick(p, decision, true)
	}
}

// dispatchKick enqueues the removal onto the host sync context. Kicks
// and broadcasts must never be issued from the evaluation goroutine.
func (e *Engine) dispatchKick(p host.Player, decision policy.Decision, broadcast bool) {
	e.dispatch.Submit(func(ctx context.Context) {
		if err := e.gateway.Kick(ctx, p.ID, decision.KickMessage); err != nil {
			e.logger.Warn().Err(err).Str("player", p.ID).Msg("Failed to kick player")
		} else {
			metrics.KicksTotal.Inc()
		}
		if broadcast {
			if err := e.gateway.Broadcast(ctx, decision.Broadcast); err != nil {
				e.logger.Warn().Err(err).Msg("Failed to broadcast kick message")
			}
		}
	})
}

// OnJoin starts a fresh session and re-checks the daily threshold in
// the background, so a player rejoining after a kick is removed again
// without waiting for the next cycle.
func (e *Engine) OnJoin(playerID string) {
	e.tracker.OnJoin(playerID)

	e.persists.Add(1)
	go func() {
		defer e.persists.Done()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		past, err := e.sessions.TodayTotalFor(ctx, playerID)
		if err != nil {
			e.logger.Warn().Err(err).Str("player", playerID).Msg("Failed to query playtime on join")
			metrics.StoreErrors.WithLabelValues("today_total").Inc()
			return
		}

		name, err := e.gateway.ResolveName(ctx, playerID)
		if err != nil {
			name = playerID
		}

		decision := policy.Decide(past, e.kickCfg.Kick(), playerID, name)
		if decision.Kick {
			e.dispatchKick(host.Player{ID: playerID, Name: name}, decision, false)
		}
	}()
}

// OnQuit removes the player's session and persists it in the
// background when it is at least one minute long.
func (e *Engine) OnQuit(playerID string) {
	minutes, persist := e.tracker.OnQuit(playerID)
	if !persist {
		return
	}

	e.logger.Info().Str("player", playerID).Int64("minutes", minutes).Msg("Saving playtime")

	e.persists.Add(1)
	go func() {
		defer e.persists.Done()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		e.appendSession(ctx, playerID, minutes)
	}()
}

func (e *Engine) flushAll(ctx context.Context) {
	for playerID := range e.tracker.SnapshotAll() {
		minutes, persist := e.tracker.OnQuit(playerID)
		if !persist {
			continue
		}
		e.logger.Info().Str("player", playerID).Int64("minutes", minutes).Msg("Flushing playtime at shutdown")
		e.appendSession(ctx, playerID, minutes)
	}
}

func (e *Engine) appendSession(ctx context.Context, playerID string, minutes int64) {
	if err := e.sessions.AppendSession(ctx, playerID, minutes); err != nil {
		// The session's time is lost, but the engine keeps running.
		e.logger.Error().Err(err).Str("player", playerID).Msg("Failed to save playtime")
		metrics.StoreErrors.WithLabelValues("append").Inc()
		return
	}
	metrics.MinutesPersisted.Add(float64(minutes))
}
