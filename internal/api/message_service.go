package api

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/chatpoc-ai/BuddyUp/internal/bus"
	"github.com/chatpoc-ai/BuddyUp/internal/chat"
	"github.com/chatpoc-ai/BuddyUp/internal/store"
)

// MessageService handles user sends into registry conversations.
type MessageService struct {
	reg    *store.Registry
	bus    *bus.Bus
	logger *zap.Logger
}

// NewMessageService creates a message service backed by the registry.
func NewMessageService(reg *store.Registry, b *bus.Bus, logger *zap.Logger) *MessageService {
	return &MessageService{reg: reg, bus: b, logger: logger}
}

// SendText appends a self-authored message and publishes the
// message.sent event that triggers the simulated counterpart reply.
// The append lands before the event, so the reply can never precede
// its trigger.
func (s *MessageService) SendText(conversationID, text string) error {
	conv, ok := s.reg.Get(conversationID)
	if !ok {
		return fmt.Errorf("send to %q: %w", conversationID, store.ErrNotFound)
	}

	m := chat.TextMessage(chat.SenderSelf, text)
	if err := s.reg.Append(conversationID, m); err != nil {
		return err
	}

	s.bus.Emit("message.sent", chat.MessageSent{
		ConversationID: conversationID,
		Kind:           conv.Kind,
		Sender:         chat.SenderSelf,
	})
	return nil
}
