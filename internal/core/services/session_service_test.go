package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"pairlink/internal/core/domain"
	"pairlink/internal/core/ports"
	"pairlink/internal/infrastructure/repositories/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServices(t *testing.T) (ports.SessionService, ports.RelayService, ports.MessageLog) {
	t.Helper()
	messages := memory.NewMemoryMessageLog()
	state := NewState(
		memory.NewMemoryUserRepository(),
		memory.NewMemoryRoomRepository(),
		messages,
	)
	logger := zap.NewNop().Sugar()
	return NewSessionService(state, logger), NewRelayService(state, logger), messages
}

func TestCreateRoom_ReturnsCodeAndRegistersUser(t *testing.T) {
	sessions, _, _ := newTestServices(t)
	ctx := context.Background()

	code, err := sessions.CreateRoom(ctx, "alice", "c1")
	require.NoError(t, err)
	assert.Len(t, string(code), 6)

	presence, err := sessions.Presence(ctx)
	require.NoError(t, err)
	require.Contains(t, presence, "alice")
	assert.Equal(t, code, presence["alice"].RoomCode)
	assert.Equal(t, domain.ConnectionID("c1"), presence["alice"].ConnectionID)
}

func TestCreateRoom_RejectsTakenUsername(t *testing.T) {
	sessions, _, _ := newTestServices(t)
	ctx := context.Background()

	_, err := sessions.CreateRoom(ctx, "alice", "c1")
	require.NoError(t, err)

	_, err = sessions.CreateRoom(ctx, "alice", "c2")
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)
}

func TestJoinRoom_PairsWithCreator(t *testing.T) {
	sessions, _, _ := newTestServices(t)
	ctx := context.Background()

	code, err := sessions.CreateRoom(ctx, "alice", "c1")
	require.NoError(t, err)

	result, err := sessions.JoinRoom(ctx, "bob", code, "c2")
	require.NoError(t, err)
	assert.Equal(t, "alice", result.OtherUser)
	assert.Equal(t, domain.ConnectionID("c1"), result.CreatorConn)

	presence, err := sessions.Presence(ctx)
	require.NoError(t, err)
	assert.Len(t, presence, 2)
	assert.Equal(t, presence["alice"].RoomCode, presence["bob"].RoomCode)
}

func TestJoinRoom_CodeIsCaseInsensitive(t *testing.T) {
	sessions, _, _ := newTestServices(t)
	ctx := context.Background()

	code, err := sessions.CreateRoom(ctx, "alice", "c1")
	require.NoError(t, err)

	lower := domain.RoomCode(strings.ToLower(string(code)))
	result, err := sessions.JoinRoom(ctx, "bob", lower, "c2")
	require.NoError(t, err)
	assert.Equal(t, "alice", result.OtherUser)
}

func TestJoinRoom_InvalidCode(t *testing.T) {
	sessions, _, _ := newTestServices(t)

	_, err := sessions.JoinRoom(context.Background(), "bob", "NOROOM", "c2")
	assert.ErrorIs(t, err, domain.ErrInvalidCode)
}

func TestJoinRoom_RoomFull(t *testing.T) {
	sessions, _, _ := newTestServices(t)
	ctx := context.Background()

	code, err := sessions.CreateRoom(ctx, "alice", "c1")
	require.NoError(t, err)
	_, err = sessions.JoinRoom(ctx, "bob", code, "c2")
	require.NoError(t, err)

	_, err = sessions.JoinRoom(ctx, "carol", code, "c3")
	assert.ErrorIs(t, err, domain.ErrRoomFull)
}

func TestJoinRoom_RejectsTakenUsernameAcrossRooms(t *testing.T) {
	sessions, _, _ := newTestServices(t)
	ctx := context.Background()

	_, err := sessions.CreateRoom(ctx, "alice", "c1")
	require.NoError(t, err)
	code, err := sessions.CreateRoom(ctx, "carol", "c3")
	require.NoError(t, err)

	// "alice" already occupies another room; a username can never be in
	// two rooms at once.
	_, err = sessions.JoinRoom(ctx, "alice", code, "c2")
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)
}

func TestDisconnect_SoleParticipantDestroysRoom(t *testing.T) {
	sessions, _, _ := newTestServices(t)
	ctx := context.Background()

	_, err := sessions.CreateRoom(ctx, "alice", "c1")
	require.NoError(t, err)

	result, err := sessions.Disconnect(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, result.User)
	assert.Equal(t, "alice", result.User.Username)
	assert.Empty(t, result.PeerConn)

	users, rooms, err := sessions.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, users)
	assert.Zero(t, rooms)
}

func TestDisconnect_NotifiesRemainingPeer(t *testing.T) {
	sessions, _, _ := newTestServices(t)
	ctx := context.Background()

	code, err := sessions.CreateRoom(ctx, "alice", "c1")
	require.NoError(t, err)
	_, err = sessions.JoinRoom(ctx, "bob", code, "c2")
	require.NoError(t, err)

	result, err := sessions.Disconnect(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, domain.ConnectionID("c1"), result.PeerConn)

	// One room with one participant must remain.
	users, rooms, err := sessions.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, users)
	assert.Equal(t, 1, rooms)
}

func TestDisconnect_AnonymousConnectionIsNoop(t *testing.T) {
	sessions, _, _ := newTestServices(t)

	result, err := sessions.Disconnect(context.Background(), "never-registered")
	require.NoError(t, err)
	assert.Nil(t, result.User)
	assert.Empty(t, result.PeerConn)
}

func TestDisconnect_AlwaysClearsMessageLog(t *testing.T) {
	sessions, relay, messages := newTestServices(t)
	ctx := context.Background()

	_, err := relay.AppendMessage(ctx, domain.ChatMessage{Sender: "alice", Content: "hi"})
	require.NoError(t, err)

	_, err = sessions.Disconnect(ctx, "never-registered")
	require.NoError(t, err)

	all, err := messages.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestReset_EmptiesEverything(t *testing.T) {
	sessions, relay, messages := newTestServices(t)
	ctx := context.Background()

	code, err := sessions.CreateRoom(ctx, "alice", "c1")
	require.NoError(t, err)
	_, err = sessions.JoinRoom(ctx, "bob", code, "c2")
	require.NoError(t, err)
	_, err = relay.AppendMessage(ctx, domain.ChatMessage{Sender: "alice", Content: "hi"})
	require.NoError(t, err)

	require.NoError(t, sessions.Reset(ctx))

	users, rooms, err := sessions.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, users)
	assert.Zero(t, rooms)

	all, err := messages.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

// Presence size must always equal the aggregate participant count across
// rooms, whatever sequence of creates and joins produced it.
func TestPresenceConsistentWithRooms(t *testing.T) {
	sessions, _, _ := newTestServices(t)
	ctx := context.Background()

	var codes []domain.RoomCode
	for i := 0; i < 5; i++ {
		code, err := sessions.CreateRoom(ctx, fmt.Sprintf("creator%d", i), domain.ConnectionID(fmt.Sprintf("cc%d", i)))
		require.NoError(t, err)
		codes = append(codes, code)
	}
	for i := 0; i < 3; i++ {
		_, err := sessions.JoinRoom(ctx, fmt.Sprintf("joiner%d", i), codes[i], domain.ConnectionID(fmt.Sprintf("jc%d", i)))
		require.NoError(t, err)
	}

	presence, err := sessions.Presence(ctx)
	require.NoError(t, err)
	users, rooms, err := sessions.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 8, len(presence))
	assert.Equal(t, 8, users)
	assert.Equal(t, 5, rooms)
}

// Two concurrent joins on a one-slot room must not both succeed.
func TestConcurrentJoinsRespectCapacity(t *testing.T) {
	sessions, _, _ := newTestServices(t)
	ctx := context.Background()

	code, err := sessions.CreateRoom(ctx, "alice", "c1")
	require.NoError(t, err)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = sessions.JoinRoom(ctx, fmt.Sprintf("user%d", i), code, domain.ConnectionID(fmt.Sprintf("c%d", i+2)))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded)

	users, rooms, err := sessions.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, users)
	assert.Equal(t, 1, rooms)
}
