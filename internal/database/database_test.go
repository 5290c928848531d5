// internal/database/database_test.go
package database

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jason-s-yu/stardeal/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type execCall struct {
	sql  string
	args []any
}

// fakeTx records statements. Methods not overridden panic through the nil
// embedded interface.
type fakeTx struct {
	pgx.Tx
	calls      []execCall
	failOn     string
	rows       int64
	committed  bool
	rolledBack bool
}

func (f *fakeTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, execCall{sql: sql, args: args})
	if f.failOn != "" && strings.Contains(sql, f.failOn) {
		return pgconn.CommandTag{}, errors.New("boom")
	}
	if f.rows > 0 {
		return pgconn.NewCommandTag("UPDATE 1"), nil
	}
	return pgconn.NewCommandTag("UPDATE 0"), nil
}

func (f *fakeTx) Commit(context.Context) error {
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback(context.Context) error {
	f.rolledBack = true
	return nil
}

type fakeBeginner struct {
	tx *fakeTx
}

func (b fakeBeginner) BeginTx(context.Context, pgx.TxOptions) (pgx.Tx, error) {
	return b.tx, nil
}

func record(actionType string) cache.ActionRecord {
	return cache.ActionRecord{
		RoomID:        uuid.New(),
		ActionIndex:   3,
		ActorUserID:   uuid.New(),
		ActionType:    actionType,
		ActionPayload: map[string]interface{}{"cardId": "x"},
		Timestamp:     time.Now().UnixMilli(),
	}
}

func TestInsertActionTx(t *testing.T) {
	tx := &fakeTx{}
	rec := record("action_started")

	require.NoError(t, InsertActionTx(context.Background(), tx, rec))
	require.Len(t, tx.calls, 2)
	assert.Contains(t, tx.calls[0].sql, "INSERT INTO rooms")
	assert.Contains(t, tx.calls[1].sql, "INSERT INTO room_actions")
	assert.Equal(t, rec.RoomID, tx.calls[1].args[0])
	assert.Equal(t, 3, tx.calls[1].args[1])
	assert.JSONEq(t, `{"cardId":"x"}`, string(tx.calls[1].args[4].([]byte)))
}

func TestInsertEndGameFinalizesRoom(t *testing.T) {
	tx := &fakeTx{}
	rec := record(EndGameAction)
	rec.ActionPayload = nil

	require.NoError(t, InsertActionTx(context.Background(), tx, rec))
	require.Len(t, tx.calls, 3)
	assert.Contains(t, tx.calls[2].sql, "status = 'completed'")
	assert.JSONEq(t, `{}`, string(tx.calls[1].args[4].([]byte)))
}

func TestInsertSystemRecordHasNoActor(t *testing.T) {
	tx := &fakeTx{}
	rec := record("game_start")
	rec.ActorUserID = uuid.Nil

	require.NoError(t, InsertActionTx(context.Background(), tx, rec))
	assert.Nil(t, tx.calls[1].args[2])
}

func TestBeginTxFunc(t *testing.T) {
	tx := &fakeTx{}
	err := BeginTxFunc(context.Background(), fakeBeginner{tx}, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return InsertActionTx(context.Background(), tx, record("turn_end"))
	})
	require.NoError(t, err)
	assert.True(t, tx.committed)
	assert.False(t, tx.rolledBack)

	tx = &fakeTx{failOn: "room_actions"}
	err = BeginTxFunc(context.Background(), fakeBeginner{tx}, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return InsertActionTx(context.Background(), tx, record("turn_end"))
	})
	assert.Error(t, err)
	assert.True(t, tx.rolledBack)
	assert.False(t, tx.committed)
}

func TestMarkRoomAbandoned(t *testing.T) {
	changed, err := MarkRoomAbandoned(context.Background(), &fakeTx{rows: 1}, uuid.New())
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = MarkRoomAbandoned(context.Background(), &fakeTx{}, uuid.New())
	require.NoError(t, err)
	assert.False(t, changed)
}
