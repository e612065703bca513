package host

import (
	"context"
	"errors"

	"github.com/radi8/getajob/internal/afk"
)

// ErrPlayerOffline is returned by gateway operations against a player
// who is no longer connected.
var ErrPlayerOffline = errors.New("host: player is offline")

// Player is one connected player as reported by the host.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Gateway is the narrow contract with the game server. All state the
// engine needs from the host flows through it, which keeps the engine
// testable against a fake.
type Gateway interface {
	// OnlinePlayers lists the currently connected players.
	OnlinePlayers(ctx context.Context) ([]Player, error)

	// PlayerPosition fetches one player's current position.
	PlayerPosition(ctx context.Context, playerID string) (afk.Position, error)

	// ResolveName resolves a player ID to a display name, including
	// players who are no longer online.
	ResolveName(ctx context.Context, playerID string) (string, error)

	// Kick removes a player from the server with a message.
	Kick(ctx context.Context, playerID, message string) error

	// Broadcast sends a message to every connected player.
	Broadcast(ctx context.Context, message string) error
}
