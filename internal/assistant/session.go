package assistant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/chatpoc-ai/BuddyUp/internal/bus"
	"github.com/chatpoc-ai/BuddyUp/internal/chat"
	"github.com/chatpoc-ai/BuddyUp/internal/gemini"
)

// ErrBusy is returned by Send while a model call is outstanding. At
// most one in-flight call per session; overlapping sends are rejected
// at the boundary, not queued.
var ErrBusy = errors.New("assistant: a reply is already in flight")

// failureReply is the single user-visible message for any transport,
// protocol or orchestration failure. Errors never propagate past the
// send pipeline and are never silently dropped.
const failureReply = "I'm having trouble connecting to the BuddyUp network right now. Please try again."

// Gateway is the model boundary the session drives.
type Gateway interface {
	Converse(ctx context.Context, history []gemini.Turn, text string) (*gemini.Reply, error)
	Acknowledge(ctx context.Context, history []gemini.Turn, text string, inv *gemini.Invocation) (string, error)
}

// Matchmaker materializes a validated match request into a committed
// conversation and returns the card payload.
type Matchmaker interface {
	Create(ctx context.Context, req chat.MatchRequest) (chat.MatchInfo, error)
}

// Session is the distinguished AI thread: a linear append-only log
// with no unread semantics, never listed among conversations. All
// mutation goes through its append methods.
type Session struct {
	mu       sync.Mutex
	msgs     []chat.Message
	thinking bool

	gateway    Gateway
	matchmaker Matchmaker
	bus        *bus.Bus
	logger     *zap.Logger
	timeout    time.Duration
}

// NewSession creates an assistant session.
func NewSession(gw Gateway, mm Matchmaker, b *bus.Bus, logger *zap.Logger, timeout time.Duration) *Session {
	return &Session{
		gateway:    gw,
		matchmaker: mm,
		bus:        b,
		logger:     logger,
		timeout:    timeout,
	}
}

// SeedWelcome appends the assistant's opening message.
func (s *Session) SeedWelcome(userName string) {
	s.appendAssistant(fmt.Sprintf(
		"Hi %s! Welcome to BuddyUp! I'm your AI Wingman. Tell me what activity you're looking to do? "+
			"Maybe find a tennis partner or a hiking group?", userName))
}

// History returns a stable snapshot of the session log.
func (s *Session) History() []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]chat.Message(nil), s.msgs...)
}

// Thinking reports whether a model call is outstanding.
func (s *Session) Thinking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.thinking
}

// Send appends the user turn and drives one model exchange
// asynchronously; completion is observed through History. Returns
// ErrBusy while a previous exchange is still in flight.
func (s *Session) Send(ctx context.Context, text string) error {
	s.mu.Lock()
	if s.thinking {
		s.mu.Unlock()
		return ErrBusy
	}
	s.thinking = true
	// The history sent to the model is the prior log, excluding the
	// in-flight user turn; Converse carries that turn separately.
	history := gemini.HistoryFromMessages(s.msgs)
	s.appendLocked(chat.TextMessage(chat.SenderSelf, text))
	s.mu.Unlock()

	go s.run(ctx, history, text)
	return nil
}

func (s *Session) run(ctx context.Context, history []gemini.Turn, text string) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	defer s.clearThinking()

	reply, err := s.gateway.Converse(ctx, history, text)
	if err != nil {
		s.fail("inference failed", err)
		return
	}

	switch reply.Kind {
	case gemini.ReplyText:
		if reply.Text != "" {
			s.appendAssistant(reply.Text)
		}
	case gemini.ReplyInvocation:
		info, err := s.matchmaker.Create(ctx, reply.Invocation.Request)
		if err != nil {
			s.fail("match creation failed", err)
			return
		}
		s.appendMatchCard(info)

		follow, err := s.gateway.Acknowledge(ctx, history, text, reply.Invocation)
		if err != nil {
			s.fail("acknowledgment failed", err)
			return
		}
		if follow != "" {
			s.appendAssistant(follow)
		}
	}
}

// fail degrades any pipeline error to one apologetic message.
func (s *Session) fail(stage string, err error) {
	s.logger.Error("assistant exchange failed", zap.String("stage", stage), zap.Error(err))
	s.appendAssistant(failureReply)
}

func (s *Session) clearThinking() {
	s.mu.Lock()
	s.thinking = false
	s.mu.Unlock()
}

func (s *Session) appendAssistant(text string) {
	s.mu.Lock()
	s.appendLocked(chat.TextMessage(chat.SenderAssistant, text))
	s.mu.Unlock()
}

// appendMatchCard records the committed match in the session log. The
// orchestrator never writes here; it returns the payload and this
// session appends it, keeping log ownership in one place. Match cards
// exist only in this log.
func (s *Session) appendMatchCard(info chat.MatchInfo) {
	s.mu.Lock()
	s.appendLocked(chat.Message{
		ID:        chat.NewID(),
		Sender:    chat.SenderAssistant,
		Kind:      chat.KindMatchCard,
		Timestamp: chat.NowMillis(),
		Match:     &info,
	})
	s.mu.Unlock()
}

func (s *Session) appendLocked(m chat.Message) {
	s.msgs = append(s.msgs, m)
	if s.bus != nil {
		s.bus.Emit("assistant.message", m)
	}
}
