package services

import (
	"context"
	"sync"

	"pairlink/internal/core/ports"
)

// State is the single ownership domain for all signaling registries. The
// user registry, room registry and message log must mutate as one unit:
// operations like join-room touch both registries and have to appear atomic
// so two concurrent joins cannot both observe spare capacity. Every
// compound operation in the session and relay services runs under mu.
type State struct {
	mu       sync.Mutex
	users    ports.UserRepository
	rooms    ports.RoomRepository
	messages ports.MessageLog
}

func NewState(users ports.UserRepository, rooms ports.RoomRepository, messages ports.MessageLog) *State {
	return &State{
		users:    users,
		rooms:    rooms,
		messages: messages,
	}
}

// resetLocked empties all three registries. Callers must hold mu.
func (st *State) resetLocked(ctx context.Context) error {
	if err := st.users.Clear(ctx); err != nil {
		return err
	}
	if err := st.rooms.Clear(ctx); err != nil {
		return err
	}
	return st.messages.Clear(ctx)
}
