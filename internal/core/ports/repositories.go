package ports

import (
	"context"

	"pairlink/internal/core/domain"
)

// UserRepository is the process-wide username registry.
type UserRepository interface {
	// Register inserts a user. Returns domain.ErrUsernameTaken if the
	// username already maps to a live entry.
	Register(ctx context.Context, user *domain.User) error

	// Unregister removes the mapping. No-op if the username is absent.
	Unregister(ctx context.Context, username string) error

	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// FindByConnection is the reverse lookup used on disconnect.
	FindByConnection(ctx context.Context, id domain.ConnectionID) (*domain.User, error)

	// Snapshot returns a copy of the full presence map.
	Snapshot(ctx context.Context) (domain.Presence, error)

	Count(ctx context.Context) (int, error)

	// Clear empties the registry.
	Clear(ctx context.Context) error
}

// RoomRepository is the process-wide call session registry.
type RoomRepository interface {
	// Create allocates a fresh collision-free code and inserts a room with
	// the creator as sole participant.
	Create(ctx context.Context, creator string, creatorConn domain.ConnectionID) (domain.RoomCode, error)

	Get(ctx context.Context, code domain.RoomCode) (*domain.Room, error)

	// Join appends username and returns the first participant's username
	// for pairing confirmation. Fails with domain.ErrInvalidCode or
	// domain.ErrRoomFull.
	Join(ctx context.Context, code domain.RoomCode, username string) (otherUser string, err error)

	// Leave removes username from the room. An emptied room is destroyed.
	// Returns the remaining participant's username, or "" if the room no
	// longer exists.
	Leave(ctx context.Context, code domain.RoomCode, username string) (remaining string, err error)

	// Destroy removes the room unconditionally. No-op if absent.
	Destroy(ctx context.Context, code domain.RoomCode) error

	Count(ctx context.Context) (int, error)

	Clear(ctx context.Context) error
}

// MessageLog is the transient chat history for the current call.
type MessageLog interface {
	Append(ctx context.Context, msg domain.ChatMessage) error
	All(ctx context.Context) ([]domain.ChatMessage, error)
	Clear(ctx context.Context) error
}
