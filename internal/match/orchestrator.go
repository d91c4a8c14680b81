package match

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/chatpoc-ai/BuddyUp/internal/bus"
	"github.com/chatpoc-ai/BuddyUp/internal/chat"
	"github.com/chatpoc-ai/BuddyUp/internal/store"
)

// State is a phase of a single match-creation attempt.
type State string

const (
	Requested    State = "REQUESTED"
	Synthesizing State = "SYNTHESIZING"
	Committed    State = "COMMITTED"
	Notified     State = "NOTIFIED"
)

// next defines the linear attempt lifecycle.
var next = map[State]State{
	Requested:    Synthesizing,
	Synthesizing: Committed,
	Committed:    Notified,
}

type attempt struct {
	id    string
	state State
}

func (a *attempt) advance(to State) error {
	if next[a.state] != to {
		return fmt.Errorf("invalid transition from %s to %s", a.state, to)
	}
	a.state = to
	return nil
}

// Orchestrator materializes conversations from validated find_match
// requests. Each Create call is a one-shot run; no state outlives it.
type Orchestrator struct {
	reg    *store.Registry
	bus    *bus.Bus
	logger *zap.Logger
	delay  time.Duration

	newID func() string // overridable in tests
}

// New creates an orchestrator. delay bounds the Synthesizing phase,
// simulating external matchmaking latency.
func New(reg *store.Registry, b *bus.Bus, logger *zap.Logger, delay time.Duration) *Orchestrator {
	return &Orchestrator{
		reg:    reg,
		bus:    b,
		logger: logger,
		delay:  delay,
		newID:  chat.NewID,
	}
}

// Create runs one attempt: requested, synthesizing (bounded delay,
// nothing partial visible), committed (registry insertion), notified
// (match.committed published). The returned MatchInfo is the card
// payload; the caller owns appending it to the assistant session.
func (o *Orchestrator) Create(ctx context.Context, req chat.MatchRequest) (chat.MatchInfo, error) {
	a := &attempt{id: o.newID(), state: Requested}
	o.logger.Info("match requested",
		zap.String("attempt", a.id),
		zap.String("kind", string(req.Kind)),
		zap.String("activity", req.Activity))
	o.bus.Emit("match.requested", req)

	if err := a.advance(Synthesizing); err != nil {
		return chat.MatchInfo{}, err
	}
	select {
	case <-time.After(o.delay):
	case <-ctx.Done():
		return chat.MatchInfo{}, fmt.Errorf("synthesis aborted: %w", ctx.Err())
	}

	if err := a.advance(Committed); err != nil {
		return chat.MatchInfo{}, err
	}
	conv, seed := o.synthesize(a.id, req)
	if err := o.reg.Create(conv, seed); err != nil {
		o.logger.Error("match commit failed", zap.String("attempt", a.id), zap.Error(err))
		return chat.MatchInfo{}, err
	}

	if err := a.advance(Notified); err != nil {
		return chat.MatchInfo{}, err
	}
	info := chat.MatchInfo{
		ConversationID: conv.ID,
		Name:           conv.Name,
		Avatar:         conv.Avatar,
		Kind:           conv.Kind,
		Description:    req.Description,
	}
	o.bus.Emit("match.committed", info)
	o.logger.Info("match committed",
		zap.String("attempt", a.id),
		zap.String("conversation", conv.ID),
		zap.String("name", conv.Name))
	return info, nil
}

// synthesize derives the conversation record and its seeded first
// message from the match kind and activity. Direct matches open with
// an unread counterpart greeting; group matches open already read with
// a system join-notice, since the user joined proactively.
func (o *Orchestrator) synthesize(id string, req chat.MatchRequest) (chat.Conversation, chat.Message) {
	now := chat.NowMillis()
	if req.Kind == chat.Direct {
		conv := chat.Conversation{
			ID:     id,
			Kind:   chat.Direct,
			Name:   fmt.Sprintf("Partner for %s", req.Activity),
			Avatar: chat.AvatarAvataaars(id),
			Unread: 1,
		}
		seed := chat.Message{
			ID:        chat.NewID(),
			Sender:    chat.SenderCounterpart,
			Body:      fmt.Sprintf("Hey! I saw you're interested in %s. Let's chat!", req.Activity),
			Kind:      chat.KindPlain,
			Timestamp: now,
		}
		return conv, seed
	}

	conv := chat.Conversation{
		ID:     id,
		Kind:   chat.Group,
		Name:   fmt.Sprintf("%s Squad", req.Activity),
		Avatar: chat.AvatarIdenticon(id),
		Unread: 0,
	}
	seed := chat.Message{
		ID:        chat.NewID(),
		Sender:    chat.SenderSystem,
		Body:      fmt.Sprintf("You joined the %s Squad. Say hello!", req.Activity),
		Kind:      chat.KindSystemNotice,
		Timestamp: now,
	}
	return conv, seed
}
