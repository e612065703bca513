package bolt

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/radi8/getajob/internal/storage"
	"go.etcd.io/bbolt"
)

type sessionStore struct {
	db *bbolt.DB
}

func (s *sessionStore) AppendSession(ctx context.Context, playerID string, lengthMinutes int64) error {
	if lengthMinutes <= 0 {
		return fmt.Errorf("session length must be positive, got %d", lengthMinutes)
	}

	now := time.Now()
	key, err := recordKey(now)
	if err != nil {
		return err
	}

	record := storage.SessionRecord{
		PlayerID:      playerID,
		LengthMinutes: lengthMinutes,
		RecordedAt:    now,
	}
	data, err := marshal(record)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b := tx.Bucket([]byte(bucketSessions))
		if b == nil {
			return fmt.Errorf("sessions bucket missing")
		}
		return b.Put([]byte(key), data)
	})
}

func (s *sessionStore) TodayTotalFor(ctx context.Context, playerID string) (int64, error) {
	var total int64
	err := s.forEachToday(ctx, func(record storage.SessionRecord) {
		if record.PlayerID == playerID {
			total += record.LengthMinutes
		}
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (s *sessionStore) TodayTotalsAll(ctx context.Context) (map[string]int64, error) {
	totals := make(map[string]int64)
	err := s.forEachToday(ctx, func(record storage.SessionRecord) {
		totals[record.PlayerID] += record.LengthMinutes
	})
	if err != nil {
		return nil, err
	}
	return totals, nil
}

// forEachToday walks every record whose key carries today's day prefix.
func (s *sessionStore) forEachToday(ctx context.Context, fn func(storage.SessionRecord)) error {
	prefix := []byte(storage.DayKey(time.Now()) + "/")
	return s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketSessions))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var record storage.SessionRecord
			if err := unmarshal(v, &record); err != nil {
				return err
			}
			fn(record)
		}
		return nil
	})
}
