package services

import (
	"context"
	"fmt"
	"strings"

	"pairlink/internal/core/domain"
	"pairlink/internal/core/ports"

	"go.uber.org/zap"
)

type sessionService struct {
	state  *State
	logger *zap.SugaredLogger
}

func NewSessionService(state *State, logger *zap.SugaredLogger) ports.SessionService {
	return &sessionService{
		state:  state,
		logger: logger,
	}
}

func (s *sessionService) CreateRoom(ctx context.Context, username string, conn domain.ConnectionID) (domain.RoomCode, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	if _, err := s.state.users.GetByUsername(ctx, username); err == nil {
		return "", domain.ErrUsernameTaken
	}

	code, err := s.state.rooms.Create(ctx, username, conn)
	if err != nil {
		return "", fmt.Errorf("create room: %w", err)
	}

	user := &domain.User{
		Username:     username,
		ConnectionID: conn,
		RoomCode:     code,
	}
	if err := s.state.users.Register(ctx, user); err != nil {
		// Roll the room back so no orphan survives the failed registration.
		s.state.rooms.Destroy(ctx, code)
		return "", err
	}

	s.logger.Infow("room created", "username", username, "room_code", code)
	return code, nil
}

func (s *sessionService) JoinRoom(ctx context.Context, username string, code domain.RoomCode, conn domain.ConnectionID) (*ports.JoinResult, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	// Codes are shared verbally; compare uppercase.
	code = domain.RoomCode(strings.ToUpper(string(code)))

	room, err := s.state.rooms.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if room.IsFull() {
		return nil, domain.ErrRoomFull
	}
	if _, err := s.state.users.GetByUsername(ctx, username); err == nil {
		return nil, domain.ErrUsernameTaken
	}

	otherUser, err := s.state.rooms.Join(ctx, code, username)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		ConnectionID: conn,
		RoomCode:     code,
	}
	if err := s.state.users.Register(ctx, user); err != nil {
		s.state.rooms.Leave(ctx, code, username)
		return nil, err
	}

	s.logger.Infow("user joined room", "username", username, "room_code", code, "other_user", otherUser)
	return &ports.JoinResult{
		OtherUser:   otherUser,
		CreatorConn: room.CreatorConn,
	}, nil
}

func (s *sessionService) Disconnect(ctx context.Context, conn domain.ConnectionID) (*ports.DisconnectResult, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	// A call boundary ends the chat history regardless of cause.
	defer s.state.messages.Clear(ctx)

	user, err := s.state.users.FindByConnection(ctx, conn)
	if err != nil {
		// Anonymous connection; nothing to repair.
		return &ports.DisconnectResult{}, nil
	}

	if err := s.state.users.Unregister(ctx, user.Username); err != nil {
		return nil, fmt.Errorf("unregister %s: %w", user.Username, err)
	}

	result := &ports.DisconnectResult{User: user}

	if user.RoomCode != "" {
		remaining, err := s.state.rooms.Leave(ctx, user.RoomCode, user.Username)
		if err == nil && remaining != "" {
			if peer, err := s.state.users.GetByUsername(ctx, remaining); err == nil {
				result.PeerConn = peer.ConnectionID
			}
		}
	}

	s.logger.Infow("user disconnected", "username", user.Username, "room_code", user.RoomCode)
	return result, nil
}

func (s *sessionService) Reset(ctx context.Context) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	return s.state.resetLocked(ctx)
}

func (s *sessionService) Presence(ctx context.Context) (domain.Presence, error) {
	return s.state.users.Snapshot(ctx)
}

func (s *sessionService) Stats(ctx context.Context) (int, int, error) {
	users, err := s.state.users.Count(ctx)
	if err != nil {
		return 0, 0, err
	}
	rooms, err := s.state.rooms.Count(ctx)
	if err != nil {
		return 0, 0, err
	}
	return users, rooms, nil
}
