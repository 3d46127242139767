package memory

import (
	"context"
	"sync"

	"pairlink/internal/core/domain"
	"pairlink/internal/core/ports"
)

// MemoryMessageLog holds the chat history of the current call. Scope is
// process-wide, matching the two-party single-call design.
type MemoryMessageLog struct {
	messages []domain.ChatMessage
	mu       sync.RWMutex
}

func NewMemoryMessageLog() ports.MessageLog {
	return &MemoryMessageLog{}
}

func (l *MemoryMessageLog) Append(ctx context.Context, msg domain.ChatMessage) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.messages = append(l.messages, msg)
	return nil
}

func (l *MemoryMessageLog) All(ctx context.Context) ([]domain.ChatMessage, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.ChatMessage, len(l.messages))
	copy(out, l.messages)
	return out, nil
}

func (l *MemoryMessageLog) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.messages = nil
	return nil
}
