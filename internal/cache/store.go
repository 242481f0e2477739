package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Store is the durable key/value mirror behind the in-memory layer.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) (map[string][]byte, error)
	DeletePrefix(ctx context.Context, prefix string) error
}

type storedEntry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

func encodeEntry(data any, ts time.Time) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cache data: %w", err)
	}
	return json.Marshal(storedEntry{Data: raw, Timestamp: ts.UnixMilli()})
}

func decodeEntry(payload []byte) (storedEntry, error) {
	var e storedEntry
	if err := json.Unmarshal(payload, &e); err != nil {
		return e, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}
	if e.Timestamp <= 0 || len(e.Data) == 0 {
		return e, fmt.Errorf("incomplete cache entry")
	}
	return e, nil
}
