// internal/historian/historian.go

// Package historian drains the room action queue into durable storage and marks
// rooms abandoned once they stop producing actions.
package historian

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/stardeal/internal/cache"
	"github.com/jason-s-yu/stardeal/internal/database"
	"github.com/sirupsen/logrus"
)

// Source yields queued action records. *cache.ActionLog satisfies it.
type Source interface {
	Pop(ctx context.Context, timeout time.Duration) (*cache.ActionRecord, error)
}

// Sink stores flushed batches.
type Sink interface {
	Flush(ctx context.Context, batch []cache.ActionRecord) error
	MarkAbandoned(ctx context.Context, roomID uuid.UUID) error
}

// Options tune the service. Zero values take the defaults.
type Options struct {
	BatchSize     int
	FlushInterval time.Duration
	Inactivity    time.Duration // idle time until a room is abandoned
	CheckInterval time.Duration // how often idle rooms are looked for
	PopTimeout    time.Duration
	Log           *logrus.Entry
}

// Service holds the batch and the last activity seen per room.
type Service struct {
	source Source
	sink   Sink
	opts   Options
	log    *logrus.Entry

	lastActivity sync.Map // map[uuid.UUID]time.Time

	batchMu sync.Mutex
	batch   []cache.ActionRecord
}

// New builds a Service over source and sink.
func New(source Source, sink Sink, opts Options) *Service {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 20
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = 500 * time.Millisecond
	}
	if opts.Inactivity <= 0 {
		opts.Inactivity = 10 * time.Minute
	}
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = time.Minute
	}
	if opts.PopTimeout <= 0 {
		opts.PopTimeout = 3 * time.Second
	}
	log := opts.Log
	if log == nil {
		log = logrus.WithField("component", "historian")
	}
	return &Service{
		source: source,
		sink:   sink,
		opts:   opts,
		log:    log,
		batch:  make([]cache.ActionRecord, 0, opts.BatchSize),
	}
}

// Run reads the queue and checks for idle rooms until ctx is done, then flushes
// what is left.
func (s *Service) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.readLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		s.inactivityLoop(ctx)
	}()

	s.log.Info("historian started")
	wg.Wait()

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.flush(flushCtx)
	s.log.Info("historian stopped")
}

// readLoop pops records one at a time, flushing on the ticker between pops.
func (s *Service) readLoop(ctx context.Context) {
	ticker := time.NewTicker(s.opts.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			s.flush(ctx)

		default:
			rec, err := s.source.Pop(ctx, s.opts.PopTimeout)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.log.WithError(err).Error("pop action record")
				continue
			}
			if rec == nil {
				continue
			}
			s.track(*rec)
			if s.appendToBatch(*rec) {
				s.flush(ctx)
			}
		}
	}
}

// track updates the room's last activity. Finished rooms are no longer watched.
func (s *Service) track(rec cache.ActionRecord) {
	if rec.ActionType == database.EndGameAction {
		s.lastActivity.Delete(rec.RoomID)
		return
	}
	s.lastActivity.Store(rec.RoomID, time.Now())
}

// appendToBatch reports whether the batch is full.
func (s *Service) appendToBatch(rec cache.ActionRecord) bool {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	s.batch = append(s.batch, rec)
	return len(s.batch) >= s.opts.BatchSize
}

// flush hands the current batch to the sink. A failed batch is dropped.
func (s *Service) flush(ctx context.Context) {
	s.batchMu.Lock()
	if len(s.batch) == 0 {
		s.batchMu.Unlock()
		return
	}
	batchCopy := make([]cache.ActionRecord, len(s.batch))
	copy(batchCopy, s.batch)
	s.batch = s.batch[:0]
	s.batchMu.Unlock()

	if err := s.sink.Flush(ctx, batchCopy); err != nil {
		s.log.WithError(err).WithField("records", len(batchCopy)).Error("flush failed, batch dropped")
		return
	}
	s.log.WithField("records", len(batchCopy)).Debug("flushed action records")
}

func (s *Service) inactivityLoop(ctx context.Context) {
	ticker := time.NewTicker(s.opts.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx, time.Now())
		}
	}
}

// sweep abandons every room idle for longer than the inactivity threshold.
func (s *Service) sweep(ctx context.Context, now time.Time) {
	s.lastActivity.Range(func(key, val interface{}) bool {
		roomID, ok1 := key.(uuid.UUID)
		last, ok2 := val.(time.Time)
		if !ok1 || !ok2 || now.Sub(last) <= s.opts.Inactivity {
			return true
		}
		// pending records of the room go first so the row exists
		s.flush(ctx)
		if err := s.sink.MarkAbandoned(ctx, roomID); err != nil {
			s.log.WithError(err).WithField("room", roomID).Warn("failed to mark room abandoned")
			return true
		}
		s.lastActivity.Delete(roomID)
		s.log.WithField("room", roomID).Info("marked room abandoned due to inactivity")
		return true
	})
}

// pool is what PostgresSink needs from *pgxpool.Pool.
type pool interface {
	database.TxBeginner
	database.Execer
}

// PostgresSink writes batches in one transaction each.
type PostgresSink struct {
	DB pool
}

func (p PostgresSink) Flush(ctx context.Context, batch []cache.ActionRecord) error {
	if p.DB == nil {
		return errors.New("postgres sink has no pool")
	}
	return database.BeginTxFunc(ctx, p.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range batch {
			if err := database.InsertActionTx(ctx, tx, rec); err != nil {
				return fmt.Errorf("insertActionTx: %w", err)
			}
		}
		return nil
	})
}

func (p PostgresSink) MarkAbandoned(ctx context.Context, roomID uuid.UUID) error {
	if p.DB == nil {
		return errors.New("postgres sink has no pool")
	}
	_, err := database.MarkRoomAbandoned(ctx, p.DB, roomID)
	return err
}
