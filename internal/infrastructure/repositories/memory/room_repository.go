package memory

import (
	"context"
	"sync"
	"time"

	"pairlink/internal/core/domain"
	"pairlink/internal/core/ports"
	"pairlink/pkg/roomcode"
)

// maxCodeAttempts bounds the collision-regenerate loop. At 6 characters
// over a 32-character alphabet the space is never close to exhausted, so
// hitting the cap indicates a broken generator rather than bad luck.
const maxCodeAttempts = 5

type MemoryRoomRepository struct {
	rooms    map[domain.RoomCode]*domain.Room
	generate func() string
	mu       sync.RWMutex
}

func NewMemoryRoomRepository() ports.RoomRepository {
	return &MemoryRoomRepository{
		rooms:    make(map[domain.RoomCode]*domain.Room),
		generate: roomcode.Generate,
	}
}

// NewMemoryRoomRepositoryWithGenerator allows tests to control code
// generation.
func NewMemoryRoomRepositoryWithGenerator(generate func() string) ports.RoomRepository {
	return &MemoryRoomRepository{
		rooms:    make(map[domain.RoomCode]*domain.Room),
		generate: generate,
	}
}

func (r *MemoryRoomRepository) Create(ctx context.Context, creator string, creatorConn domain.ConnectionID) (domain.RoomCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var code domain.RoomCode
	for attempt := 0; ; attempt++ {
		if attempt >= maxCodeAttempts {
			return "", domain.ErrCodeSpaceExhausted
		}
		code = domain.RoomCode(r.generate())
		if _, taken := r.rooms[code]; !taken {
			break
		}
	}

	r.rooms[code] = &domain.Room{
		Code:         code,
		Participants: []string{creator},
		CreatorConn:  creatorConn,
		CreatedAt:    time.Now(),
	}

	return code, nil
}

func (r *MemoryRoomRepository) Get(ctx context.Context, code domain.RoomCode) (*domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, exists := r.rooms[code]
	if !exists {
		return nil, domain.ErrInvalidCode
	}

	return room, nil
}

func (r *MemoryRoomRepository) Join(ctx context.Context, code domain.RoomCode, username string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, exists := r.rooms[code]
	if !exists {
		return "", domain.ErrInvalidCode
	}
	if room.IsFull() {
		return "", domain.ErrRoomFull
	}

	room.Participants = append(room.Participants, username)
	return room.Participants[0], nil
}

func (r *MemoryRoomRepository) Leave(ctx context.Context, code domain.RoomCode, username string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, exists := r.rooms[code]
	if !exists {
		return "", domain.ErrInvalidCode
	}

	kept := room.Participants[:0]
	for _, p := range room.Participants {
		if p != username {
			kept = append(kept, p)
		}
	}
	room.Participants = kept

	if len(room.Participants) == 0 {
		delete(r.rooms, code)
		return "", nil
	}

	return room.Participants[0], nil
}

func (r *MemoryRoomRepository) Destroy(ctx context.Context, code domain.RoomCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.rooms, code)
	return nil
}

func (r *MemoryRoomRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms), nil
}

func (r *MemoryRoomRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rooms = make(map[domain.RoomCode]*domain.Room)
	return nil
}
