// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the room handler.
// These provide more specific reasons for closure than standard codes.
const (
	BadSubprotocolError   = 3000 // Client connected with an unsupported subprotocol.
	InvalidAuthTokenError = 3001 // Provided auth token was invalid or expired.
	InvalidUserIDError    = 3002 // User is not seated in the room.
	InvalidRoomIDError    = 3003 // Target room does not exist or has been removed.
	SlowConsumerError     = 3004 // Client stopped reading and its send queue overflowed.
)
