// internal/cache/cache_test.go
package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jason-s-yu/stardeal/internal/action"
	"github.com/jason-s-yu/stardeal/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestActionLogRoundTrip(t *testing.T) {
	_, rdb := newTestRedis(t)
	log := NewActionLog(rdb, "")
	assert.Equal(t, DefaultQueueName, log.Queue())
	ctx := context.Background()

	rec := ActionRecord{
		RoomID:        uuid.New(),
		ActionIndex:   7,
		ActorUserID:   uuid.New(),
		ActionType:    "action_completed",
		ActionPayload: map[string]interface{}{"actionType": "pirate_raid"},
		Timestamp:     time.Now().UnixMilli(),
	}
	require.NoError(t, log.Publish(ctx, rec))

	got, err := log.Pop(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.RoomID, got.RoomID)
	assert.Equal(t, 7, got.ActionIndex)
	assert.Equal(t, "pirate_raid", got.ActionPayload["actionType"])
}

func TestActionLogPopRejectsGarbage(t *testing.T) {
	mr, rdb := newTestRedis(t)
	log := NewActionLog(rdb, "q")
	_, err := mr.RPush("q", "not json")
	require.NoError(t, err)

	_, err = log.Pop(context.Background(), time.Second)
	assert.Error(t, err)
}

func TestActionLogPopEmpty(t *testing.T) {
	_, rdb := newTestRedis(t)
	log := NewActionLog(rdb, "q")

	got, err := log.Pop(context.Background(), 50*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSnapshotKeepsWildcardColor(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := NewSnapshotStore(rdb, time.Minute)
	ctx := context.Background()
	roomID := uuid.New()

	missing, err := store.Load(ctx, roomID)
	require.NoError(t, err)
	assert.Nil(t, missing)

	pending := action.PendingAction{
		ID:          uuid.New(),
		InitiatorID: uuid.New(),
		ActionType:  models.ActionPirateRaid,
		CardID:      uuid.New(),
		StepIndex:   3,
	}
	pending.Params.TargetPlayers = []uuid.UUID{uuid.New()}
	pending.Params.SetWildcardColor(models.ColorViolet)
	require.NoError(t, store.Save(ctx, roomID, pending))
	assert.True(t, mr.Exists(snapshotKey(roomID)))
	assert.Equal(t, time.Minute, mr.TTL(snapshotKey(roomID)))

	got, err := store.Load(ctx, roomID)
	require.NoError(t, err)
	require.NotNil(t, got)
	color, ok := got.Params.WildcardColor()
	require.True(t, ok)
	assert.Equal(t, models.ColorViolet, color)
	assert.Equal(t, pending.Params.TargetPlayers, got.Params.TargetPlayers)
	assert.Equal(t, 3, got.StepIndex)

	require.NoError(t, store.Delete(ctx, roomID))
	assert.False(t, mr.Exists(snapshotKey(roomID)))
	require.NoError(t, store.Delete(ctx, roomID))
}

func TestConnectRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	require.NoError(t, ConnectRedis(mr.Addr(), 0))
	require.NotNil(t, Rdb)
	Rdb.Close()
}
