package chat

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewID returns a fresh globally unique identifier for conversations
// and messages. Ordering within a log is positional, so ids only need
// uniqueness, not sortability.
func NewID() string {
	return uuid.NewString()
}

// NowMillis returns the current wall clock in unix milliseconds, the
// timestamp resolution used throughout the message model.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}

// TextMessage builds a plain message with a fresh id and timestamp.
func TextMessage(sender Sender, body string) Message {
	return Message{
		ID:        NewID(),
		Sender:    sender,
		Body:      body,
		Kind:      KindPlain,
		Timestamp: NowMillis(),
	}
}

// AvatarAvataaars returns a dicebear avataaars avatar URL for people.
func AvatarAvataaars(seed string) string {
	return fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/svg?seed=%s", seed)
}

// AvatarIdenticon returns a dicebear identicon avatar URL for groups.
func AvatarIdenticon(seed string) string {
	return fmt.Sprintf("https://api.dicebear.com/7.x/identicon/svg?seed=%s", seed)
}
