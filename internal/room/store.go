// internal/room/store.go
package room

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/stardeal/internal/metrics"
	"github.com/jason-s-yu/stardeal/internal/models"
)

// Store is the registry of live rooms.
type Store struct {
	mu      sync.Mutex
	rooms   map[uuid.UUID]*Room
	metrics *metrics.Recorder
}

// NewStore returns an empty registry. rec may be nil.
func NewStore(rec *metrics.Recorder) *Store {
	return &Store{
		rooms:   make(map[uuid.UUID]*Room),
		metrics: rec,
	}
}

func (s *Store) AddRoom(r *Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rooms[r.ID]; !exists {
		s.metrics.RoomOpened()
	}
	s.rooms[r.ID] = r
}

func (s *Store) GetRoom(id uuid.UUID) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, exists := s.rooms[id]
	return r, exists
}

// DeleteRoom unregisters the room and stops its timers.
func (s *Store) DeleteRoom(id uuid.UUID) {
	s.mu.Lock()
	r, exists := s.rooms[id]
	delete(s.rooms, id)
	s.mu.Unlock()

	if exists {
		s.metrics.RoomClosed()
		r.Close()
	}
}

// List returns the summaries of every room, oldest first.
func (s *Store) List() []Summary {
	s.mu.Lock()
	rooms := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, r)
	}
	s.mu.Unlock()

	sort.Slice(rooms, func(i, j int) bool { return rooms[i].CreatedAt.Before(rooms[j].CreatedAt) })
	out := make([]Summary, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.Summary())
	}
	return out
}

// Join seats p in the room with the given id. A player already seated in
// another unfinished room cannot join.
func (s *Store) Join(roomID uuid.UUID, p *models.Player) models.JoinResult {
	s.mu.Lock()
	target, exists := s.rooms[roomID]
	others := make([]*Room, 0, len(s.rooms))
	for id, r := range s.rooms {
		if id != roomID {
			others = append(others, r)
		}
	}
	s.mu.Unlock()

	if !exists {
		return models.JoinRoomNotFound
	}
	for _, r := range others {
		if r.HasPlayer(p.ID) && r.Summary().State != models.StateEnded {
			return models.JoinAlreadyInGame
		}
	}
	return target.AddPlayer(p)
}
