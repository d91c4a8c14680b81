package api

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/chatpoc-ai/BuddyUp/internal/bus"
	"github.com/chatpoc-ai/BuddyUp/internal/chat"
	"github.com/chatpoc-ai/BuddyUp/internal/store"
)

func testChatService(t *testing.T) (*ChatService, *MessageService, *store.Registry, *bus.Bus) {
	t.Helper()
	reg := store.NewRegistry()
	b := bus.New()
	logger := zap.NewNop()
	return NewChatService(reg, b, logger), NewMessageService(reg, b, logger), reg, b
}

func TestSelectConversationMarksRead(t *testing.T) {
	chats, _, reg, _ := testChatService(t)
	if err := reg.Create(chat.Conversation{ID: "c1", Kind: chat.Direct, Name: "Jordan", Unread: 3}); err != nil {
		t.Fatal(err)
	}

	c, err := chats.SelectConversation("c1")
	if err != nil {
		t.Fatal(err)
	}
	if c.Unread != 0 {
		t.Errorf("returned Unread = %d, want 0", c.Unread)
	}
	if got := chats.UnreadTotal(); got != 0 {
		t.Errorf("UnreadTotal() = %d, want 0", got)
	}
}

func TestSelectMissingConversation(t *testing.T) {
	chats, _, _, _ := testChatService(t)
	if _, err := chats.SelectConversation("ghost"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("SelectConversation() error = %v, want ErrNotFound", err)
	}
}

func TestSendTextPublishesTrigger(t *testing.T) {
	chats, msgs, reg, b := testChatService(t)
	if err := reg.Create(chat.Conversation{ID: "c1", Kind: chat.Group, Name: "Hikers"}); err != nil {
		t.Fatal(err)
	}
	ch, unsub := b.Subscribe("message.sent", 10)
	defer unsub()

	if err := msgs.SendText("c1", "anyone around?"); err != nil {
		t.Fatal(err)
	}

	log, err := chats.ListMessages("c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(log) != 1 || log[0].Sender != chat.SenderSelf {
		t.Fatalf("log = %+v, want one self message", log)
	}

	select {
	case evt := <-ch:
		sent, ok := evt.Payload.(chat.MessageSent)
		if !ok || sent.ConversationID != "c1" || sent.Kind != chat.Group {
			t.Errorf("payload = %#v", evt.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("no message.sent event")
	}
}

func TestSendTextToMissingConversation(t *testing.T) {
	_, msgs, _, b := testChatService(t)
	ch, unsub := b.Subscribe("message.", 10)
	defer unsub()

	if err := msgs.SendText("ghost", "hello?"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("SendText() error = %v, want ErrNotFound", err)
	}
	select {
	case evt := <-ch:
		t.Errorf("no event should be published for a failed send, got %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnreadBadgeFlow(t *testing.T) {
	chats, _, reg, _ := testChatService(t)
	if err := reg.Create(chat.Conversation{ID: "c1", Kind: chat.Direct, Name: "Jordan", Unread: 1}); err != nil {
		t.Fatal(err)
	}
	if err := reg.Create(chat.Conversation{ID: "c2", Kind: chat.Group, Name: "Hikers", Unread: 2}); err != nil {
		t.Fatal(err)
	}

	if got := chats.UnreadTotal(); got != 3 {
		t.Errorf("UnreadTotal() = %d, want 3", got)
	}
	if _, err := chats.SelectConversation("c2"); err != nil {
		t.Fatal(err)
	}
	if got := chats.UnreadTotal(); got != 1 {
		t.Errorf("UnreadTotal() after select = %d, want 1", got)
	}
}

func TestProfileClaimTask(t *testing.T) {
	p := NewProfileService(
		chat.Participant{ID: "me", Name: "Alex", VIP: true},
		[]chat.Task{
			{ID: 1, Title: "Daily Login", Reward: "10 Coins", Done: true},
			{ID: 2, Title: "Chat with a new match", Reward: "50 Coins"},
		},
	)

	if err := p.ClaimTask(2); err != nil {
		t.Fatal(err)
	}
	if err := p.ClaimTask(2); err == nil {
		t.Error("expected error claiming a task twice")
	}
	if err := p.ClaimTask(99); err == nil {
		t.Error("expected error for unknown task")
	}

	tasks := p.Tasks()
	if !tasks[1].Done {
		t.Error("task 2 should be done after claim")
	}

	// Returned slice is a copy.
	tasks[0].Done = false
	if !p.Tasks()[0].Done {
		t.Error("Tasks() must return a copy")
	}
}
