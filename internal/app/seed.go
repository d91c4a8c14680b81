package app

import (
	"time"

	"github.com/chatpoc-ai/BuddyUp/internal/chat"
	"github.com/chatpoc-ai/BuddyUp/internal/store"
)

// selfParticipant returns the sole mutable participant, alive for the
// process lifetime.
func selfParticipant() chat.Participant {
	return chat.Participant{
		ID:     "me",
		Name:   "Alex",
		Avatar: chat.AvatarAvataaars("Alex"),
		VIP:    true,
	}
}

func defaultTasks() []chat.Task {
	return []chat.Task{
		{ID: 1, Title: "Daily Login", Reward: "10 Coins", Done: true},
		{ID: 2, Title: "Chat with a new match", Reward: "50 Coins"},
		{ID: 3, Title: "Join a group activity", Reward: "100 Coins"},
	}
}

// seedDemo installs the two demo conversations. The group is created
// last so it lists first.
func seedDemo(reg *store.Registry) error {
	now := chat.NowMillis()

	jordan := chat.Conversation{
		ID:            "1v1-demo",
		Kind:          chat.Direct,
		Name:          "Jordan Lee",
		Avatar:        chat.AvatarAvataaars("Jordan"),
		Unread:        1,
		LastMessageAt: now - (3 * time.Hour).Milliseconds(),
	}
	greeting := chat.Message{
		ID:        chat.NewID(),
		Sender:    chat.SenderCounterpart,
		Body:      "Hey! Are you still looking for a tennis partner?",
		Kind:      chat.KindPlain,
		Timestamp: jordan.LastMessageAt,
	}
	if err := reg.Create(jordan, greeting); err != nil {
		return err
	}

	hikers := chat.Conversation{
		ID:            "group-demo",
		Kind:          chat.Group,
		Name:          "Weekend Hikers 🏔️",
		Avatar:        chat.AvatarIdenticon("hike"),
		Unread:        2,
		LastMessageAt: now - (15 * time.Minute).Milliseconds(),
	}
	trail := chat.Message{
		ID:         chat.NewID(),
		Sender:     chat.SenderCounterpart,
		SenderName: "Sam",
		Body:       "The trail looks great for Sunday!",
		Kind:       chat.KindPlain,
		Timestamp:  hikers.LastMessageAt,
	}
	return reg.Create(hikers, trail)
}
