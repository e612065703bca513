package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/radi8/getajob/internal/storage"
	"github.com/redis/go-redis/v9"
)

type sessionStore struct {
	client *redis.Client
}

func totalsKey(date string) string {
	return fmt.Sprintf("getajob:playtime:%s", date)
}

func recordsKey(date string) string {
	return fmt.Sprintf("getajob:sessions:%s", date)
}

// AppendSession appends the record to today's session log and bumps the
// player's daily total in the same script, so a partial write is not
// observable.
func (s *sessionStore) AppendSession(ctx context.Context, playerID string, lengthMinutes int64) error {
	if lengthMinutes <= 0 {
		return fmt.Errorf("session length must be positive, got %d", lengthMinutes)
	}

	now := time.Now()
	record := storage.SessionRecord{
		PlayerID:      playerID,
		LengthMinutes: lengthMinutes,
		RecordedAt:    now,
	}
	data, err := marshalRecord(record)
	if err != nil {
		return err
	}

	date := storage.DayKey(now)
	script := redis.NewScript(appendSessionScript)
	keys := []string{recordsKey(date), totalsKey(date)}
	args := []interface{}{string(data), playerID, lengthMinutes}

	return script.Run(ctx, s.client, keys, args...).Err()
}

func (s *sessionStore) TodayTotalFor(ctx context.Context, playerID string) (int64, error) {
	date := storage.DayKey(time.Now())

	value, err := s.client.HGet(ctx, totalsKey(date), playerID).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	total, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse daily total: %w", err)
	}
	return total, nil
}

func (s *sessionStore) TodayTotalsAll(ctx context.Context) (map[string]int64, error) {
	date := storage.DayKey(time.Now())

	data, err := s.client.HGetAll(ctx, totalsKey(date)).Result()
	if err != nil {
		return nil, err
	}

	totals := make(map[string]int64, len(data))
	for playerID, value := range data {
		total, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse daily total for %s: %w", playerID, err)
		}
		totals[playerID] = total
	}
	return totals, nil
}
