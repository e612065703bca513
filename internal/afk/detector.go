package afk

import "math"

// DefaultTolerance is the movement tolerance in world units. A player
// whose position stays within this box between evaluations is idle.
const DefaultTolerance = 5.0

// Position is a player's 2D world coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// IsActive classifies a player as active based on how far the current
// position is from the last anchored one. A player with no anchored
// position yet is always active. Movement must strictly exceed the
// tolerance on at least one axis to count.
func IsActive(last *Position, current Position, tolerance float64) bool {
	if last == nil {
		return true
	}
	return math.Abs(last.X-current.X) > tolerance || math.Abs(last.Y-current.Y) > tolerance
}
