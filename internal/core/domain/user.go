package domain

// ConnectionID identifies a single live transport connection. It is opaque
// to the core: the signal layer mints one per accepted WebSocket.
type ConnectionID string

// RoomCode is the short shared secret identifying a two-party call session.
type RoomCode string

// User is a registered participant. A username maps to at most one live
// User at any time; ConnectionID is updated only on (re)registration.
type User struct {
	Username     string       `json:"username"`
	ConnectionID ConnectionID `json:"id"`
	RoomCode     RoomCode     `json:"roomCode,omitempty"`
}

// Presence is the snapshot broadcast to every client after any registry
// mutation, keyed by username.
type Presence map[string]*User
