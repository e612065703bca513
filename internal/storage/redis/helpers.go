package redis

import (
	"encoding/json"
	"fmt"

	"github.com/radi8/getajob/internal/storage"
)

// marshalRecord encodes a session record for the append-only log.
func marshalRecord(record storage.SessionRecord) ([]byte, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("marshal session record: %w", err)
	}
	return data, nil
}
