package services

import (
	"context"

	"pairlink/internal/core/domain"
	"pairlink/internal/core/ports"

	"go.uber.org/zap"
)

type relayService struct {
	state  *State
	logger *zap.SugaredLogger
}

func NewRelayService(state *State, logger *zap.SugaredLogger) ports.RelayService {
	return &relayService{
		state:  state,
		logger: logger,
	}
}

// colocatedLocked returns both users iff they exist and share a room. This
// membership check is the core relay guarantee: a stale or malicious client
// cannot address a user in a different call. Callers must hold state.mu.
func (s *relayService) colocatedLocked(ctx context.Context, from, to string) (*domain.User, *domain.User, bool) {
	fromUser, err := s.state.users.GetByUsername(ctx, from)
	if err != nil {
		return nil, nil, false
	}
	toUser, err := s.state.users.GetByUsername(ctx, to)
	if err != nil {
		return nil, nil, false
	}
	if fromUser.RoomCode == "" || fromUser.RoomCode != toUser.RoomCode {
		return nil, nil, false
	}
	return fromUser, toUser, true
}

func (s *relayService) RouteOffer(ctx context.Context, from, to string) (domain.ConnectionID, bool) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	_, toUser, ok := s.colocatedLocked(ctx, from, to)
	if !ok {
		s.logger.Debugw("dropping offer", "from", from, "to", to)
		return "", false
	}
	return toUser.ConnectionID, true
}

func (s *relayService) RouteAnswer(ctx context.Context, from, to string) (domain.ConnectionID, bool) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	// The answer travels back to the original offerer.
	fromUser, _, ok := s.colocatedLocked(ctx, from, to)
	if !ok {
		s.logger.Debugw("dropping answer", "from", from, "to", to)
		return "", false
	}
	return fromUser.ConnectionID, true
}

// EndCall is the deliberately blunt hang-up: both parties are notified, the
// caller's room is destroyed and the whole process state is wiped. Sound
// under the single-active-call assumption this system makes.
func (s *relayService) EndCall(ctx context.Context, from, to string) ([]domain.ConnectionID, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	var targets []domain.ConnectionID
	fromUser, err := s.state.users.GetByUsername(ctx, from)
	if err == nil {
		targets = append(targets, fromUser.ConnectionID)
	}
	if toUser, err := s.state.users.GetByUsername(ctx, to); err == nil {
		targets = append(targets, toUser.ConnectionID)
	}

	if fromUser != nil && fromUser.RoomCode != "" {
		if err := s.state.rooms.Destroy(ctx, fromUser.RoomCode); err != nil {
			return targets, err
		}
	}

	if err := s.state.resetLocked(ctx); err != nil {
		return targets, err
	}

	s.logger.Infow("call ended", "from", from, "to", to)
	return targets, nil
}

func (s *relayService) AppendMessage(ctx context.Context, msg domain.ChatMessage) ([]domain.ChatMessage, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	if !msg.Valid() {
		return nil, domain.ErrInvalidMessage
	}

	if err := s.state.messages.Append(ctx, msg); err != nil {
		return nil, err
	}
	return s.state.messages.All(ctx)
}
