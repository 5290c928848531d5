// internal/room/history.go
package room

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/stardeal/internal/action"
	"github.com/jason-s-yu/stardeal/internal/cache"
	"github.com/sirupsen/logrus"
)

// logAction sends an entry of the room's action log to the historian queue.
func (r *Room) logAction(actorID uuid.UUID, actionType string, payload map[string]interface{}) {
	r.actionIndex++
	if r.ActionLog == nil {
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}
	record := cache.ActionRecord{
		RoomID:        r.ID,
		ActionIndex:   r.actionIndex,
		ActorUserID:   actorID,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	go func(pub Publisher, log *logrus.Entry, rec cache.ActionRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := pub.Publish(ctx, rec); err != nil {
			log.WithError(err).WithField("index", rec.ActionIndex).Warn("failed to publish action record")
		}
	}(r.ActionLog, r.Log, record)
}

// snapshot mirrors the pending action to the snapshot writer, deleting it once
// the room has nothing pending. Writes are applied in order by one goroutine per
// room.
func (r *Room) snapshot() {
	if r.Snapshots == nil || r.closed {
		return
	}
	if r.snapshotQ == nil {
		r.snapshotQ = make(chan *action.PendingAction, 64)
		go runSnapshots(r.snapshotQ, r.Snapshots, r.Log, r.ID)
	}
	var job *action.PendingAction
	if active, ok := r.store.Active(); ok {
		pending := active.Pending
		pending.Params = active.Pending.Params.Clone()
		job = &pending
	}
	select {
	case r.snapshotQ <- job:
	default:
		r.Log.Warn("snapshot queue full, dropping write")
	}
}

// runSnapshots drains q until it is closed. A nil entry deletes the snapshot.
func runSnapshots(q <-chan *action.PendingAction, w SnapshotWriter, log *logrus.Entry, roomID uuid.UUID) {
	for pending := range q {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		var err error
		if pending != nil {
			err = w.Save(ctx, roomID, *pending)
		} else {
			err = w.Delete(ctx, roomID)
		}
		cancel()
		if err != nil {
			log.WithError(err).Warn("failed to write pending action snapshot")
		}
	}
}

// scheduleResponseTimer forces the current dialog once ResponseTimeoutSec
// passes without it moving on.
func (r *Room) scheduleResponseTimer() {
	r.stopResponseTimer()
	if r.HouseRules.ResponseTimeoutSec <= 0 || r.closed {
		return
	}
	active, ok := r.store.Active()
	if !ok {
		return
	}
	current := active.Current()
	actionID, step, waiting := active.ID(), current.StepIndex(), len(current.AddressedPlayerIDs)
	timeout := time.Duration(r.HouseRules.ResponseTimeoutSec) * time.Second

	r.responseTimer = time.AfterFunc(timeout, func() {
		r.Mu.Lock()
		defer r.Mu.Unlock()

		active, ok := r.store.Active()
		if !ok || active.ID() != actionID || active.Current().StepIndex() != step || len(active.Current().AddressedPlayerIDs) != waiting {
			r.Log.WithField("action", actionID).Debug("stale response timer ignored")
			return
		}
		r.Log.WithField("action", active.String()).Info("response timed out")
		if _, err := r.forceRespond(); err != nil {
			r.Log.WithError(err).Warn("forced response failed")
		}
	})
}

func (r *Room) stopResponseTimer() {
	if r.responseTimer != nil {
		r.responseTimer.Stop()
		r.responseTimer = nil
	}
}
