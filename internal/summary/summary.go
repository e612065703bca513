package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/radi8/getajob/internal/host"
	"github.com/radi8/getajob/internal/storage"
	"github.com/radi8/getajob/internal/tracker"
	"github.com/rs/zerolog"
)

// NoActivityMessage is returned when nobody has played today.
const NoActivityMessage = "No time played today."

// NoSignificantTimeMessage is returned when players were seen today but
// none has a full minute on record.
const NoSignificantTimeMessage = "No significant time played today."

// Summarizer builds the daily leaderboard from persisted sessions plus
// the in-progress sessions that have not been flushed yet.
type Summarizer struct {
	sessions storage.SessionStore
	tracker  *tracker.Tracker
	gateway  host.Gateway
	logger   zerolog.Logger
}

// New creates a summarizer.
func New(sessions storage.SessionStore, tr *tracker.Tracker, gateway host.Gateway, logger zerolog.Logger) *Summarizer {
	return &Summarizer{
		sessions: sessions,
		tracker:  tr,
		gateway:  gateway,
		logger:   logger.With().Str("component", "summary").Logger(),
	}
}

// SummarizeToday returns one line per player with their total active
// minutes today. A storage failure degrades to live sessions only.
func (s *Summarizer) SummarizeToday(ctx context.Context) string {
	totals, err := s.sessions.TodayTotalsAll(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to load today's past sessions, summarizing live sessions only")
		totals = make(map[string]int64)
	}

	for playerID, ticks := range s.tracker.SnapshotAll() {
		minutes := ticks / tracker.TicksPerMinute
		if minutes >= 1 {
			totals[playerID] += minutes
		}
	}

	if len(totals) == 0 {
		return NoActivityMessage
	}

	var b strings.Builder
	for playerID, minutes := range totals {
		if minutes <= 0 {
			continue
		}
		name := s.displayName(ctx, playerID)
		fmt.Fprintf(&b, "%s has played for %d minute(s) today\n", name, minutes)
	}

	if b.Len() == 0 {
		return NoSignificantTimeMessage
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *Summarizer) displayName(ctx context.Context, playerID string) string {
	name, err := s.gateway.ResolveName(ctx, playerID)
	if err != nil || name == "" {
		return fmt.Sprintf("Unknown (%s)", playerID)
	}
	return name
}
