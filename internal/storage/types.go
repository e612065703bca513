package storage

import "time"

// SessionRecord is one completed play session. Records are append-only:
// once written they are never mutated, only aggregated.
type SessionRecord struct {
	PlayerID      string    `json:"player_id"`
	LengthMinutes int64     `json:"length_minutes"`
	RecordedAt    time.Time `json:"recorded_at"`
}

// DayKey formats a timestamp as the calendar-day key used to group
// session records. The day boundary is the store's local start of day.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
