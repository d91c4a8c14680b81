package api

import (
	"context"

	"github.com/chatpoc-ai/BuddyUp/internal/assistant"
	"github.com/chatpoc-ai/BuddyUp/internal/chat"
)

// AssistantService exposes the assistant session to the presentation
// layer. Send is asynchronous; completion is observed via History.
type AssistantService struct {
	session *assistant.Session
	chats   *ChatService
}

// NewAssistantService creates an assistant service.
func NewAssistantService(session *assistant.Session, chats *ChatService) *AssistantService {
	return &AssistantService{session: session, chats: chats}
}

// Send forwards a user turn to the assistant session. Returns
// assistant.ErrBusy while a model call is in flight.
func (s *AssistantService) Send(ctx context.Context, text string) error {
	return s.session.Send(ctx, text)
}

// History returns a snapshot of the assistant log.
func (s *AssistantService) History() []chat.Message {
	return s.session.History()
}

// Thinking reports whether a model call is outstanding.
func (s *AssistantService) Thinking() bool {
	return s.session.Thinking()
}

// OpenMatch opens the conversation referenced by a match card,
// marking it viewed.
func (s *AssistantService) OpenMatch(conversationID string) (chat.Conversation, error) {
	return s.chats.SelectConversation(conversationID)
}
