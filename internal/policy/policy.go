package policy

import (
	"slices"
	"strings"
)

// KickConfig is the live kick policy configuration. It is re-read from
// the config manager on every evaluation, so external reloads take
// effect without a restart.
type KickConfig struct {
	ThresholdMinutes int64
	KickMessage      string
	KickBroadcast    string
	IgnoredUsers     []string
}

// Decision is the outcome of one kick evaluation.
type Decision struct {
	Kick        bool
	KickMessage string
	Broadcast   string
}

// Noop is the empty decision.
var Noop = Decision{}

// Decide evaluates the kick policy for one player. Players on the
// ignore list are never kicked. The threshold is inclusive: a player
// exactly at the limit is removed.
func Decide(todayMinutes int64, cfg KickConfig, playerID, displayName string) Decision {
	if slices.Contains(cfg.IgnoredUsers, playerID) {
		return Noop
	}
	if todayMinutes < cfg.ThresholdMinutes {
		return Noop
	}
	return Decision{
		Kick:        true,
		KickMessage: cfg.KickMessage,
		Broadcast:   strings.ReplaceAll(cfg.KickBroadcast, "{player}", displayName),
	}
}
