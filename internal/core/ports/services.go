package ports

import (
	"context"

	"pairlink/internal/core/domain"
)

// JoinResult carries what the transport needs after a successful join: the
// pairing confirmation and where to deliver the user-joined notification.
type JoinResult struct {
	OtherUser   string
	CreatorConn domain.ConnectionID
}

// DisconnectResult describes the registry repair performed for a closed
// connection. User is nil when the connection never registered. PeerConn is
// the remaining participant's connection, or "" when none is left behind.
type DisconnectResult struct {
	User     *domain.User
	PeerConn domain.ConnectionID
}

// SessionService is the connection lifecycle state machine. All compound
// registry mutations are serialized behind a single lock so concurrent
// events from different connections cannot observe partial state.
type SessionService interface {
	// CreateRoom registers the user and creates a room in one step.
	CreateRoom(ctx context.Context, username string, conn domain.ConnectionID) (domain.RoomCode, error)

	// JoinRoom normalizes the code to uppercase, joins the room and
	// registers the user atomically.
	JoinRoom(ctx context.Context, username string, code domain.RoomCode, conn domain.ConnectionID) (*JoinResult, error)

	// Disconnect repairs both registries for a closed connection and always
	// clears the message log.
	Disconnect(ctx context.Context, conn domain.ConnectionID) (*DisconnectResult, error)

	// Reset empties users, rooms and the message log.
	Reset(ctx context.Context) error

	Presence(ctx context.Context) (domain.Presence, error)

	// Stats reports the live user and room counts.
	Stats(ctx context.Context) (users int, rooms int, err error)
}

// RelayService authorizes and resolves routing for negotiation and chat
// events. Routing resolvers return ok=false for any pairing that is not
// co-located; such events are dropped, never reported to the sender.
type RelayService interface {
	// RouteOffer resolves the connection the offer is forwarded to (the
	// callee's).
	RouteOffer(ctx context.Context, from, to string) (domain.ConnectionID, bool)

	// RouteAnswer resolves the connection the answer is forwarded to (the
	// original offerer's).
	RouteAnswer(ctx context.Context, from, to string) (domain.ConnectionID, bool)

	// EndCall collects the connections of both parties that still exist,
	// destroys the caller's room and resets all session state.
	EndCall(ctx context.Context, from, to string) ([]domain.ConnectionID, error)

	// AppendMessage validates and appends a chat message, returning the
	// full log for rebroadcast. Messages with an empty sender or content
	// fail with domain.ErrInvalidMessage and do not enter the log.
	AppendMessage(ctx context.Context, msg domain.ChatMessage) ([]domain.ChatMessage, error)
}
