package reply

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/chatpoc-ai/BuddyUp/internal/bus"
	"github.com/chatpoc-ai/BuddyUp/internal/chat"
	"github.com/chatpoc-ai/BuddyUp/internal/store"
)

const (
	directReply = "That sounds great! When are you free?"
	groupReply  = "Welcome to the group everyone!"
)

// Simulator schedules one delayed counterpart reply for every message
// the user sends into a registry conversation. It subscribes to
// "message.sent" events; each trigger schedules its own independent
// task, so replies interleave across conversations but never reorder
// within one, because the trigger is appended before its event is
// published.
type Simulator struct {
	reg    *store.Registry
	bus    *bus.Bus
	logger *zap.Logger
	delay  time.Duration
	cancel context.CancelFunc
}

// NewSimulator creates a simulator replying after the given delay.
func NewSimulator(reg *store.Registry, b *bus.Bus, logger *zap.Logger, delay time.Duration) *Simulator {
	return &Simulator{
		reg:    reg,
		bus:    b,
		logger: logger,
		delay:  delay,
	}
}

// Start subscribes to message events on the bus.
func (s *Simulator) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	ch, unsub := s.bus.Subscribe("message.sent", 256)

	go func() {
		defer unsub()
		for {
			select {
			case evt := <-ch:
				s.handleEvent(ctx, evt)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the subscription. Already-scheduled replies check the
// context before firing.
func (s *Simulator) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Simulator) handleEvent(ctx context.Context, evt bus.Event) {
	sent, ok := evt.Payload.(chat.MessageSent)
	if !ok || sent.Sender != chat.SenderSelf {
		return
	}
	time.AfterFunc(s.delay, func() {
		s.deliver(ctx, sent.ConversationID, sent.Kind)
	})
}

// deliver appends the canned counterpart reply. The text is selected
// by conversation kind only, never by content analysis. A conversation
// that vanished between trigger and fire is a no-op, not a fault.
func (s *Simulator) deliver(ctx context.Context, conversationID string, kind chat.ConversationKind) {
	if ctx.Err() != nil {
		return
	}

	body := directReply
	if kind == chat.Group {
		body = groupReply
	}
	m := chat.TextMessage(chat.SenderCounterpart, body)

	if err := s.reg.Append(conversationID, m); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.logger.Debug("reply target vanished", zap.String("conversation", conversationID))
			return
		}
		s.logger.Error("failed to deliver reply",
			zap.String("conversation", conversationID), zap.Error(err))
		return
	}

	s.bus.Emit("message.received", chat.Delivery{
		ConversationID: conversationID,
		Message:        m,
	})
}
