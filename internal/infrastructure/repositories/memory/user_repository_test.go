package memory

import (
	"context"
	"testing"

	"pairlink/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_RegisterDuplicate(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	err := repo.Register(ctx, &domain.User{Username: "alice", ConnectionID: "c1"})
	require.NoError(t, err)

	err = repo.Register(ctx, &domain.User{Username: "alice", ConnectionID: "c2"})
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)
}

func TestUserRepository_UnregisterAbsentIsNoop(t *testing.T) {
	repo := NewMemoryUserRepository()

	assert.NoError(t, repo.Unregister(context.Background(), "ghost"))
}

func TestUserRepository_FindByConnection(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	require.NoError(t, repo.Register(ctx, &domain.User{Username: "alice", ConnectionID: "c1"}))
	require.NoError(t, repo.Register(ctx, &domain.User{Username: "bob", ConnectionID: "c2"}))

	user, err := repo.FindByConnection(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, "bob", user.Username)

	_, err = repo.FindByConnection(ctx, "c3")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserRepository_SnapshotIsACopy(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	require.NoError(t, repo.Register(ctx, &domain.User{Username: "alice", ConnectionID: "c1", RoomCode: "AAAAAA"}))

	snap, err := repo.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap, 1)

	// Mutating the snapshot must not reach the registry.
	snap["alice"].RoomCode = "ZZZZZZ"
	user, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.RoomCode("AAAAAA"), user.RoomCode)
}

func TestUserRepository_Clear(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	require.NoError(t, repo.Register(ctx, &domain.User{Username: "alice", ConnectionID: "c1"}))
	require.NoError(t, repo.Clear(ctx))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
