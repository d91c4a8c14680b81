package assistant

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/chatpoc-ai/BuddyUp/internal/bus"
	"github.com/chatpoc-ai/BuddyUp/internal/chat"
	"github.com/chatpoc-ai/BuddyUp/internal/gemini"
)

type fakeGateway struct {
	mu         sync.Mutex
	reply      *gemini.Reply
	err        error
	ackText    string
	ackErr     error
	block      chan struct{} // when non-nil, Converse waits for close
	gotHistory []gemini.Turn
	gotText    string
}

func (f *fakeGateway) Converse(ctx context.Context, history []gemini.Turn, text string) (*gemini.Reply, error) {
	f.mu.Lock()
	f.gotHistory = append([]gemini.Turn(nil), history...)
	f.gotText = text
	block := f.block
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.reply, f.err
}

func (f *fakeGateway) Acknowledge(ctx context.Context, history []gemini.Turn, text string, inv *gemini.Invocation) (string, error) {
	return f.ackText, f.ackErr
}

type fakeMatchmaker struct {
	info    chat.MatchInfo
	err     error
	created int
}

func (f *fakeMatchmaker) Create(ctx context.Context, req chat.MatchRequest) (chat.MatchInfo, error) {
	f.created++
	return f.info, f.err
}

func newTestSession(gw Gateway, mm Matchmaker) *Session {
	return NewSession(gw, mm, bus.New(), zap.NewNop(), time.Second)
}

func waitIdle(t *testing.T, s *Session) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for s.Thinking() {
		if time.Now().After(deadline) {
			t.Fatal("session never left the thinking state")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSendTextReply(t *testing.T) {
	gw := &fakeGateway{reply: &gemini.Reply{Kind: gemini.ReplyText, Text: "How about tennis?"}}
	s := newTestSession(gw, &fakeMatchmaker{})
	s.SeedWelcome("Alex")

	if err := s.Send(context.Background(), "any ideas?"); err != nil {
		t.Fatal(err)
	}
	waitIdle(t, s)

	h := s.History()
	if len(h) != 3 {
		t.Fatalf("len(history) = %d, want welcome + user + reply", len(h))
	}
	if h[1].Sender != chat.SenderSelf || h[1].Body != "any ideas?" {
		t.Errorf("h[1] = %+v", h[1])
	}
	if h[2].Sender != chat.SenderAssistant || h[2].Body != "How about tennis?" {
		t.Errorf("h[2] = %+v", h[2])
	}
}

func TestSendHistoryExcludesInFlightTurn(t *testing.T) {
	gw := &fakeGateway{reply: &gemini.Reply{Kind: gemini.ReplyText, Text: "ok"}}
	s := newTestSession(gw, &fakeMatchmaker{})
	s.SeedWelcome("Alex")

	if err := s.Send(context.Background(), "hello"); err != nil {
		t.Fatal(err)
	}
	waitIdle(t, s)

	if len(gw.gotHistory) != 1 {
		t.Fatalf("history sent to model has %d turns, want 1 (welcome only)", len(gw.gotHistory))
	}
	if gw.gotHistory[0].Role != gemini.RoleModel {
		t.Errorf("welcome role = %q, want model", gw.gotHistory[0].Role)
	}
	if gw.gotText != "hello" {
		t.Errorf("gotText = %q", gw.gotText)
	}
}

func TestSendRejectsWhileThinking(t *testing.T) {
	gw := &fakeGateway{
		reply: &gemini.Reply{Kind: gemini.ReplyText, Text: "ok"},
		block: make(chan struct{}),
	}
	s := newTestSession(gw, &fakeMatchmaker{})

	if err := s.Send(context.Background(), "first"); err != nil {
		t.Fatal(err)
	}
	if err := s.Send(context.Background(), "second"); !errors.Is(err, ErrBusy) {
		t.Errorf("second Send() error = %v, want ErrBusy", err)
	}
	close(gw.block)
	waitIdle(t, s)

	// The rejected send must leave no trace in the log.
	for _, m := range s.History() {
		if m.Body == "second" {
			t.Error("rejected send appeared in the log")
		}
	}

	if err := s.Send(context.Background(), "third"); err != nil {
		t.Errorf("Send() after idle error = %v", err)
	}
	waitIdle(t, s)
}

func TestSendFailureAppendsOneApology(t *testing.T) {
	gw := &fakeGateway{err: errors.New("connection reset")}
	mm := &fakeMatchmaker{}
	s := newTestSession(gw, mm)

	if err := s.Send(context.Background(), "find me a buddy"); err != nil {
		t.Fatal(err)
	}
	waitIdle(t, s)

	h := s.History()
	if len(h) != 2 {
		t.Fatalf("len(history) = %d, want user + apology", len(h))
	}
	if h[1].Body != failureReply {
		t.Errorf("h[1].Body = %q, want the apology", h[1].Body)
	}
	if mm.created != 0 {
		t.Errorf("matchmaker invoked %d times, want 0", mm.created)
	}
	if s.Thinking() {
		t.Error("thinking flag stuck after failure")
	}
}

func TestSendInvocationFlow(t *testing.T) {
	info := chat.MatchInfo{
		ConversationID: "conv-1",
		Name:           "Partner for Tennis",
		Kind:           chat.Direct,
		Description:    "a tennis partner",
	}
	gw := &fakeGateway{
		reply: &gemini.Reply{
			Kind: gemini.ReplyInvocation,
			Invocation: &gemini.Invocation{
				ID:      "call-1",
				Request: chat.MatchRequest{Kind: chat.Direct, Activity: "Tennis", Description: "a tennis partner"},
			},
		},
		ackText: "Found someone! Check the card above.",
	}
	mm := &fakeMatchmaker{info: info}
	s := newTestSession(gw, mm)

	if err := s.Send(context.Background(), "find me a tennis partner"); err != nil {
		t.Fatal(err)
	}
	waitIdle(t, s)

	h := s.History()
	if len(h) != 3 {
		t.Fatalf("len(history) = %d, want user + card + follow-up", len(h))
	}
	card := h[1]
	if card.Kind != chat.KindMatchCard || card.Match == nil {
		t.Fatalf("h[1] = %+v, want a match card", card)
	}
	if card.Match.ConversationID != "conv-1" {
		t.Errorf("card references %q, want conv-1", card.Match.ConversationID)
	}
	// The card lands strictly before the follow-up utterance.
	if h[2].Kind != chat.KindPlain || h[2].Body != "Found someone! Check the card above." {
		t.Errorf("h[2] = %+v", h[2])
	}
	if mm.created != 1 {
		t.Errorf("matchmaker invoked %d times, want 1", mm.created)
	}
}

func TestSendMatchmakerFailureFallsBack(t *testing.T) {
	gw := &fakeGateway{
		reply: &gemini.Reply{
			Kind: gemini.ReplyInvocation,
			Invocation: &gemini.Invocation{
				ID:      "call-1",
				Request: chat.MatchRequest{Kind: chat.Group, Activity: "Hiking", Description: "d"},
			},
		},
	}
	mm := &fakeMatchmaker{err: errors.New("id collision")}
	s := newTestSession(gw, mm)

	if err := s.Send(context.Background(), "find hikers"); err != nil {
		t.Fatal(err)
	}
	waitIdle(t, s)

	h := s.History()
	if len(h) != 2 || h[1].Body != failureReply {
		t.Fatalf("history = %+v, want user + apology and no card", h)
	}
	for _, m := range h {
		if m.Kind == chat.KindMatchCard {
			t.Error("no card may be emitted for an aborted attempt")
		}
	}
}

func TestSendPublishesAssistantEvents(t *testing.T) {
	gw := &fakeGateway{reply: &gemini.Reply{Kind: gemini.ReplyText, Text: "hi"}}
	b := bus.New()
	s := NewSession(gw, &fakeMatchmaker{}, b, zap.NewNop(), time.Second)
	ch, unsub := b.Subscribe("assistant.", 16)
	defer unsub()

	if err := s.Send(context.Background(), "hello"); err != nil {
		t.Fatal(err)
	}
	waitIdle(t, s)

	got := 0
	for {
		select {
		case <-ch:
			got++
			if got == 2 {
				return
			}
		case <-time.After(time.Second):
			t.Fatalf("received %d assistant events, want 2 (user + reply)", got)
		}
	}
}
