// internal/cache/redis.go

// Package cache holds the redis side of a room: the action log queue consumed by
// the historian and the pending action snapshots.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Rdb is the process-wide client, set by ConnectRedis at startup.
var Rdb *redis.Client

// DefaultQueueName is the redis list the action log is pushed onto.
const DefaultQueueName = "stardeal_actions"

// ActionRecord is one entry of a room's action log.
type ActionRecord struct {
	RoomID        uuid.UUID              `json:"room_id"`
	ActionIndex   int                    `json:"action_index"`
	ActorUserID   uuid.UUID              `json:"actor_user_id"`
	ActionType    string                 `json:"action_type"`
	ActionPayload map[string]interface{} `json:"action_payload"`
	Timestamp     int64                  `json:"timestamp"`
}

// ConnectRedis creates Rdb and pings it.
func ConnectRedis(addr string, db int) error {
	Rdb = redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return nil
}

// ActionLog is the producer and consumer side of the action queue.
type ActionLog struct {
	rdb   *redis.Client
	queue string
}

// NewActionLog wraps rdb. An empty queue name selects DefaultQueueName.
func NewActionLog(rdb *redis.Client, queue string) *ActionLog {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &ActionLog{rdb: rdb, queue: queue}
}

// Queue is the name of the backing list.
func (l *ActionLog) Queue() string {
	return l.queue
}

// Publish serializes the record and pushes it onto the queue.
func (l *ActionLog) Publish(ctx context.Context, record ActionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal ActionRecord: %w", err)
	}
	if err := l.rdb.RPush(ctx, l.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", l.queue, err)
	}
	return nil
}

// Pop blocks up to timeout for the next record. It returns nil, nil when the
// wait ends empty.
func (l *ActionLog) Pop(ctx context.Context, timeout time.Duration) (*ActionRecord, error) {
	res, err := l.rdb.BLPop(ctx, timeout, l.queue).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("BLPop %s: %w", l.queue, err)
	}
	if len(res) < 2 {
		return nil, nil
	}
	// res[0] is the list name, res[1] the payload
	var record ActionRecord
	if err := json.Unmarshal([]byte(res[1]), &record); err != nil {
		return nil, fmt.Errorf("invalid action record: %w", err)
	}
	return &record, nil
}
