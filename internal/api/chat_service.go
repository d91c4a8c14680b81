package api

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/chatpoc-ai/BuddyUp/internal/bus"
	"github.com/chatpoc-ai/BuddyUp/internal/chat"
	"github.com/chatpoc-ai/BuddyUp/internal/store"
)

// ChatService exposes conversation listing and read-state operations
// to the presentation layer. All queries are synchronous snapshots of
// registry state.
type ChatService struct {
	reg    *store.Registry
	bus    *bus.Bus
	logger *zap.Logger
}

// NewChatService creates a chat service backed by the registry.
func NewChatService(reg *store.Registry, b *bus.Bus, logger *zap.Logger) *ChatService {
	return &ChatService{reg: reg, bus: b, logger: logger}
}

// ListConversations returns conversation summaries in listing order.
func (s *ChatService) ListConversations(f store.Filter) []chat.Conversation {
	return s.reg.List(f)
}

// GetConversation returns one conversation summary.
func (s *ChatService) GetConversation(id string) (chat.Conversation, error) {
	c, ok := s.reg.Get(id)
	if !ok {
		return chat.Conversation{}, fmt.Errorf("get %q: %w", id, store.ErrNotFound)
	}
	return c, nil
}

// ListMessages returns a stable snapshot of a conversation's log.
func (s *ChatService) ListMessages(id string) ([]chat.Message, error) {
	return s.reg.Messages(id)
}

// SelectConversation marks the conversation as viewed: it becomes the
// active one and its unread counter drops to zero.
func (s *ChatService) SelectConversation(id string) (chat.Conversation, error) {
	c, ok := s.reg.Get(id)
	if !ok {
		return chat.Conversation{}, fmt.Errorf("select %q: %w", id, store.ErrNotFound)
	}
	s.reg.SetActive(id)
	c.Unread = 0
	return c, nil
}

// CloseConversation marks no conversation as viewed.
func (s *ChatService) CloseConversation() {
	s.reg.ClearActive()
}

// UnreadTotal returns the badge count, recomputed on every call.
func (s *ChatService) UnreadTotal() int {
	return s.reg.TotalUnread()
}

// WatchEvents exposes the bus to the presentation layer for live
// updates. Returns the event channel and an unsubscribe function.
func (s *ChatService) WatchEvents(namespace string, bufSize int) (<-chan bus.Event, func()) {
	return s.bus.Subscribe(namespace, bufSize)
}
