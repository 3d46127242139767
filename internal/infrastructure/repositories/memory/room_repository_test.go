package memory

import (
	"context"
	"testing"

	"pairlink/internal/core/domain"
	"pairlink/pkg/roomcode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomRepository_CreateAndGet(t *testing.T) {
	repo := NewMemoryRoomRepository()
	ctx := context.Background()

	code, err := repo.Create(ctx, "alice", "c1")
	require.NoError(t, err)
	assert.Len(t, string(code), roomcode.Length)

	room, err := repo.Get(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, room.Participants)
	assert.Equal(t, "alice", room.Creator())
	assert.Equal(t, domain.ConnectionID("c1"), room.CreatorConn)
}

func TestRoomRepository_CreateRegeneratesOnCollision(t *testing.T) {
	codes := []string{"SAMECD", "SAMECD", "FRESH2"}
	i := 0
	repo := NewMemoryRoomRepositoryWithGenerator(func() string {
		code := codes[i]
		i++
		return code
	})
	ctx := context.Background()

	first, err := repo.Create(ctx, "alice", "c1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoomCode("SAMECD"), first)

	second, err := repo.Create(ctx, "carol", "c3")
	require.NoError(t, err)
	assert.Equal(t, domain.RoomCode("FRESH2"), second)
}

func TestRoomRepository_CreateFailsWhenCodeSpaceExhausted(t *testing.T) {
	repo := NewMemoryRoomRepositoryWithGenerator(func() string { return "STUCK1" })
	ctx := context.Background()

	_, err := repo.Create(ctx, "alice", "c1")
	require.NoError(t, err)

	_, err = repo.Create(ctx, "bob", "c2")
	assert.ErrorIs(t, err, domain.ErrCodeSpaceExhausted)
}

func TestRoomRepository_JoinInvalidCode(t *testing.T) {
	repo := NewMemoryRoomRepository()

	_, err := repo.Join(context.Background(), "NOROOM", "bob")
	assert.ErrorIs(t, err, domain.ErrInvalidCode)
}

func TestRoomRepository_JoinFullRoom(t *testing.T) {
	repo := NewMemoryRoomRepository()
	ctx := context.Background()

	code, err := repo.Create(ctx, "alice", "c1")
	require.NoError(t, err)

	other, err := repo.Join(ctx, code, "bob")
	require.NoError(t, err)
	assert.Equal(t, "alice", other)

	room, err := repo.Get(ctx, code)
	require.NoError(t, err)
	assert.True(t, room.HasParticipant("bob"))
	assert.True(t, room.IsFull())

	_, err = repo.Join(ctx, code, "carol")
	assert.ErrorIs(t, err, domain.ErrRoomFull)
}

func TestRoomRepository_LeaveDestroysEmptyRoom(t *testing.T) {
	repo := NewMemoryRoomRepository()
	ctx := context.Background()

	code, err := repo.Create(ctx, "alice", "c1")
	require.NoError(t, err)

	remaining, err := repo.Leave(ctx, code, "alice")
	require.NoError(t, err)
	assert.Empty(t, remaining)

	_, err = repo.Get(ctx, code)
	assert.ErrorIs(t, err, domain.ErrInvalidCode)
}

func TestRoomRepository_LeaveKeepsRemainingParticipant(t *testing.T) {
	repo := NewMemoryRoomRepository()
	ctx := context.Background()

	code, err := repo.Create(ctx, "alice", "c1")
	require.NoError(t, err)
	_, err = repo.Join(ctx, code, "bob")
	require.NoError(t, err)

	remaining, err := repo.Leave(ctx, code, "bob")
	require.NoError(t, err)
	assert.Equal(t, "alice", remaining)

	room, err := repo.Get(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, room.Participants)
}
