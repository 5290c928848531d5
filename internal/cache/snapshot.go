// internal/cache/snapshot.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/stardeal/internal/action"
	"github.com/redis/go-redis/v9"
)

const snapshotPrefix = "stardeal:pending:"

// SnapshotStore keeps the durable record of each room's pending action in
// redis so operators can inspect a stuck room.
type SnapshotStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSnapshotStore wraps rdb. A ttl of zero keeps snapshots until deleted.
func NewSnapshotStore(rdb *redis.Client, ttl time.Duration) *SnapshotStore {
	return &SnapshotStore{rdb: rdb, ttl: ttl}
}

func snapshotKey(roomID uuid.UUID) string {
	return snapshotPrefix + roomID.String()
}

// Save overwrites the room's snapshot.
func (s *SnapshotStore) Save(ctx context.Context, roomID uuid.UUID, pending action.PendingAction) error {
	data, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("marshal pending action %s: %w", pending.ID, err)
	}
	if err := s.rdb.Set(ctx, snapshotKey(roomID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save snapshot for room %s: %w", roomID, err)
	}
	return nil
}

// Load returns the room's snapshot, or nil when there is none.
func (s *SnapshotStore) Load(ctx context.Context, roomID uuid.UUID) (*action.PendingAction, error) {
	data, err := s.rdb.Get(ctx, snapshotKey(roomID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot for room %s: %w", roomID, err)
	}
	var pending action.PendingAction
	if err := json.Unmarshal(data, &pending); err != nil {
		return nil, fmt.Errorf("decode snapshot for room %s: %w", roomID, err)
	}
	return &pending, nil
}

// Delete drops the room's snapshot. Deleting a missing snapshot is not an error.
func (s *SnapshotStore) Delete(ctx context.Context, roomID uuid.UUID) error {
	if err := s.rdb.Del(ctx, snapshotKey(roomID)).Err(); err != nil {
		return fmt.Errorf("delete snapshot for room %s: %w", roomID, err)
	}
	return nil
}
