// internal/historian/historian_test.go
package historian

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jason-s-yu/stardeal/internal/cache"
	"github.com/jason-s-yu/stardeal/internal/database"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySink struct {
	mu        sync.Mutex
	batches   [][]cache.ActionRecord
	abandoned []uuid.UUID
	failFlush bool
}

func (m *memorySink) Flush(_ context.Context, batch []cache.ActionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFlush {
		return errors.New("db down")
	}
	m.batches = append(m.batches, batch)
	return nil
}

func (m *memorySink) MarkAbandoned(_ context.Context, roomID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.abandoned = append(m.abandoned, roomID)
	return nil
}

func (m *memorySink) records() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.batches {
		n += len(b)
	}
	return n
}

func (m *memorySink) abandonedRooms() []uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uuid.UUID(nil), m.abandoned...)
}

func quietLog() *logrus.Entry {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return logrus.NewEntry(logger)
}

func newQueue(t *testing.T) *cache.ActionLog {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return cache.NewActionLog(rdb, "historian_test")
}

func publish(t *testing.T, q *cache.ActionLog, roomID uuid.UUID, index int, actionType string) {
	t.Helper()
	require.NoError(t, q.Publish(context.Background(), cache.ActionRecord{
		RoomID:      roomID,
		ActionIndex: index,
		ActorUserID: uuid.New(),
		ActionType:  actionType,
		Timestamp:   time.Now().UnixMilli(),
	}))
}

func TestDrainsQueueInBatches(t *testing.T) {
	q := newQueue(t)
	sink := &memorySink{}
	svc := New(q, sink, Options{
		BatchSize:     2,
		FlushInterval: 100 * time.Millisecond,
		PopTimeout:    time.Second,
		Log:           quietLog(),
	})

	roomID := uuid.New()
	for i := 1; i <= 3; i++ {
		publish(t, q, roomID, i, "action_started")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return sink.records() == 3 }, 5*time.Second, 20*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("historian did not stop")
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.NotEmpty(t, sink.batches)
	assert.Len(t, sink.batches[0], 2, "a full batch flushes immediately")
	assert.Equal(t, 1, sink.batches[0][0].ActionIndex)
}

func TestSweepAbandonsIdleRooms(t *testing.T) {
	sink := &memorySink{}
	svc := New(nil, sink, Options{Inactivity: time.Minute, Log: quietLog()})

	idle, busy, finished := uuid.New(), uuid.New(), uuid.New()
	svc.track(cache.ActionRecord{RoomID: idle, ActionType: "turn_end"})
	svc.track(cache.ActionRecord{RoomID: busy, ActionType: "turn_end"})
	svc.track(cache.ActionRecord{RoomID: finished, ActionType: "turn_end"})
	svc.track(cache.ActionRecord{RoomID: finished, ActionType: database.EndGameAction})
	svc.lastActivity.Store(idle, time.Now().Add(-2*time.Minute))

	svc.sweep(context.Background(), time.Now())
	assert.Equal(t, []uuid.UUID{idle}, sink.abandonedRooms())

	svc.sweep(context.Background(), time.Now())
	assert.Len(t, sink.abandonedRooms(), 1, "a room is abandoned once")
}

func TestFailedFlushDropsBatch(t *testing.T) {
	sink := &memorySink{failFlush: true}
	svc := New(nil, sink, Options{Log: quietLog()})
	svc.appendToBatch(cache.ActionRecord{RoomID: uuid.New(), ActionType: "turn_end"})

	svc.flush(context.Background())
	svc.batchMu.Lock()
	assert.Empty(t, svc.batch)
	svc.batchMu.Unlock()

	sink.failFlush = false
	svc.flush(context.Background())
	assert.Equal(t, 0, sink.records())
}
