// internal/models/room.go
package models

// GameState is the lifecycle phase of a room.
type GameState string

const (
	StateWaitingRoom GameState = "waiting_room"
	StateInProgress  GameState = "in_progress"
	StateEnded       GameState = "ended"
)

// JoinResult reports the outcome of a player joining a room.
type JoinResult string

const (
	JoinJoined        JoinResult = "joined"
	JoinFailed        JoinResult = "failed"
	JoinRoomNotFound  JoinResult = "room_not_found"
	JoinFull          JoinResult = "full"
	JoinAlreadyInGame JoinResult = "already_in_game"
)
