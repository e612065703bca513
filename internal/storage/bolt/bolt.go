package bolt

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/radi8/getajob/internal/storage"
	"go.etcd.io/bbolt"
)

const bucketSessions = "sessions"

// Store implements the storage.Store interface using bbolt.
type Store struct {
	db       *bbolt.DB
	sessions *sessionStore
}

// Open opens a BoltDB-backed store and ensures the sessions bucket
// exists. A failure here is fatal for the caller: the engine must not
// start without a working store.
func Open(path string) (*Store, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	store := &Store{db: db, sessions: &sessionStore{db: db}}
	if err := store.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return storage.EnsureDir(dir)
}

func (s *Store) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketSessions)); err != nil {
			return fmt.Errorf("create bucket %s: %w", bucketSessions, err)
		}
		return nil
	})
}

// Close closes the underlying database. Safe to call more than once.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	db := s.db
	s.db = nil
	return db.Close()
}

// Sessions returns the session store. Valid across Close: operations
// on a closed store fail with bbolt's not-open error instead of
// panicking.
func (s *Store) Sessions() storage.SessionStore { return s.sessions }

func marshal(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal value: %w", err)
	}
	return data, nil
}

func unmarshal(data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal value: %w", err)
	}
	return nil
}

func randomSuffix() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("random suffix: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// recordKey builds an ordered append key: records sort by day, then by
// write time within the day, so a cursor seek on the day prefix walks
// exactly one calendar day.
func recordKey(ts time.Time) (string, error) {
	suffix, err := randomSuffix()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%020d-%s", storage.DayKey(ts), ts.UnixNano(), suffix), nil
}
