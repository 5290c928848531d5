// internal/database/actions.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jason-s-yu/stardeal/internal/cache"
)

// Schema creates the tables the historian writes to.
const Schema = `
CREATE TABLE IF NOT EXISTS rooms (
	id         UUID PRIMARY KEY,
	status     TEXT NOT NULL,
	start_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	end_time   TIMESTAMPTZ,
	winner_id  UUID
);

CREATE TABLE IF NOT EXISTS room_actions (
	room_id        UUID NOT NULL REFERENCES rooms(id),
	action_index   INT NOT NULL,
	actor_user_id  UUID,
	action_type    TEXT NOT NULL,
	action_payload JSONB NOT NULL DEFAULT '{}'::jsonb,
	occurred_at    TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (room_id, action_index)
);
`

// EndGameAction is the action type that completes a room.
const EndGameAction = "action_end_game"

// Execer runs a statement. pgx.Tx, *pgx.Conn and *pgxpool.Pool satisfy it.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// EnsureSchema creates missing tables.
func EnsureSchema(ctx context.Context, db Execer) error {
	if _, err := db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// InsertActionTx stores one action record, upserting its room row. The end of
// game record completes the room and stores the winner.
func InsertActionTx(ctx context.Context, tx Execer, rec cache.ActionRecord) error {
	upsertRoomQ := `
		INSERT INTO rooms (id, status, start_time)
		VALUES ($1, 'in_progress', NOW())
		ON CONFLICT (id)
		DO UPDATE SET status = 'in_progress'
		WHERE rooms.status = 'abandoned'
	`
	if _, err := tx.Exec(ctx, upsertRoomQ, rec.RoomID); err != nil {
		return fmt.Errorf("upsert room %s: %w", rec.RoomID, err)
	}

	payload := rec.ActionPayload
	if payload == nil {
		payload = map[string]interface{}{}
	}
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	var actor *uuid.UUID
	if rec.ActorUserID != uuid.Nil {
		actor = &rec.ActorUserID
	}
	actionInsertQ := `
		INSERT INTO room_actions (
			room_id, action_index, actor_user_id, action_type, action_payload, occurred_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (room_id, action_index) DO NOTHING
	`
	_, err = tx.Exec(ctx, actionInsertQ,
		rec.RoomID, rec.ActionIndex, actor, rec.ActionType, jsonPayload, time.UnixMilli(rec.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("insert action %d of room %s: %w", rec.ActionIndex, rec.RoomID, err)
	}

	if rec.ActionType == EndGameAction {
		finalizeQ := `
			UPDATE rooms
			SET status = 'completed', end_time = NOW(), winner_id = $2
			WHERE id = $1 AND status = 'in_progress'
		`
		if _, err := tx.Exec(ctx, finalizeQ, rec.RoomID, actor); err != nil {
			return fmt.Errorf("finalize room %s: %w", rec.RoomID, err)
		}
	}
	return nil
}

// MarkRoomAbandoned flags an in-progress room as abandoned. It reports whether
// a row changed.
func MarkRoomAbandoned(ctx context.Context, db Execer, roomID uuid.UUID) (bool, error) {
	q := `
		UPDATE rooms
		SET status = 'abandoned', end_time = NOW()
		WHERE id = $1 AND status = 'in_progress'
	`
	tag, err := db.Exec(ctx, q, roomID)
	if err != nil {
		return false, fmt.Errorf("mark room %s abandoned: %w", roomID, err)
	}
	return tag.RowsAffected() > 0, nil
}
