package tracker

import (
	"sync"

	"github.com/radi8/getajob/internal/afk"
	"github.com/rs/zerolog"
)

const (
	// TicksPerMinute converts accumulated ticks to whole minutes.
	TicksPerMinute = 1200

	// TickIncrement is added for every evaluation that finds a player
	// active. One increment equals one minute of play.
	TickIncrement = 1200
)

// session is the in-memory state for one connected player. Each entry
// carries its own lock; there is no global lock across players.
type session struct {
	mu    sync.Mutex
	ticks int64
	last  *afk.Position
}

// Tracker owns all live per-player session state. It is the only
// component that mutates it. Join, quit, and tick evaluations may run
// concurrently for different players.
type Tracker struct {
	sessions  sync.Map // player ID -> *session
	tolerance float64
	logger    zerolog.Logger
}

// New creates a session tracker using the given movement tolerance.
func New(tolerance float64, logger zerolog.Logger) *Tracker {
	if tolerance <= 0 {
		tolerance = afk.DefaultTolerance
	}
	return &Tracker{
		tolerance: tolerance,
		logger:    logger.With().Str("component", "tracker").Logger(),
	}
}

// OnJoin starts a fresh session for the player. A re-join overwrites
// any stale state left behind by an abnormal disconnect, so leaked
// ticks never carry into the new session.
func (t *Tracker) OnJoin(playerID string) {
	t.sessions.Store(playerID, &session{})
	t.logger.Info().Str("player", playerID).Msg("Session started")
}

// OnTick evaluates one player against their anchored position and
// returns the ticks added (TickIncrement when active, 0 when idle).
// An idle tick leaves the anchor untouched: a player drifting a little
// each minute stays anchored to the position where they went idle.
func (t *Tracker) OnTick(playerID string, current afk.Position) int64 {
	entry := t.get(playerID)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if !afk.IsActive(entry.last, current, t.tolerance) {
		t.logger.Debug().Str("player", playerID).Msg("Player is likely afk, not adding time")
		return 0
	}

	pos := current
	entry.last = &pos
	entry.ticks += TickIncrement
	return TickIncrement
}

// OnQuit removes the player's session and returns its length in whole
// minutes. The second return is false when the session is shorter than
// one minute and must not be persisted.
func (t *Tracker) OnQuit(playerID string) (int64, bool) {
	value, ok := t.sessions.LoadAndDelete(playerID)
	if !ok {
		return 0, false
	}

	entry := value.(*session)
	entry.mu.Lock()
	minutes := entry.ticks / TicksPerMinute
	entry.mu.Unlock()

	return minutes, minutes >= 1
}

// SessionMinutes returns the player's current session length in whole
// minutes, 0 when the player has no live session.
func (t *Tracker) SessionMinutes(playerID string) int64 {
	value, ok := t.sessions.Load(playerID)
	if !ok {
		return 0
	}

	entry := value.(*session)
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.ticks / TicksPerMinute
}

// SnapshotAll returns a copy of every live session's accumulated ticks.
// Safe to call while ticks, joins, and quits are in flight.
func (t *Tracker) SnapshotAll() map[string]int64 {
	snapshot := make(map[string]int64)
	t.sessions.Range(func(key, value any) bool {
		entry := value.(*session)
		entry.mu.Lock()
		snapshot[key.(string)] = entry.ticks
		entry.mu.Unlock()
		return true
	})
	return snapshot
}

// get returns the player's session, creating an empty one if the join
// event has not arrived yet.
func (t *Tracker) get(playerID string) *session {
	if value, ok := t.sessions.Load(playerID); ok {
		return value.(*session)
	}
	value, _ := t.sessions.LoadOrStore(playerID, &session{})
	return value.(*session)
}
