package chat

// Sender identifies who authored a message.
type Sender string

const (
	SenderSelf        Sender = "self"
	SenderCounterpart Sender = "counterpart"
	SenderSystem      Sender = "system"
	SenderAssistant   Sender = "assistant"
)

// MessageKind distinguishes ordinary text from special renderings.
type MessageKind string

const (
	KindPlain        MessageKind = "plain"
	KindSystemNotice MessageKind = "system_notice"
	KindMatchCard    MessageKind = "match_card"
)

// ConversationKind distinguishes two-party threads from group threads.
type ConversationKind string

const (
	Direct ConversationKind = "direct"
	Group  ConversationKind = "group"
)

// Participant represents a chat participant. Immutable once created.
type Participant struct {
	ID     string
	Name   string
	Avatar string
	VIP    bool
}

// Message is a single immutable entry in a conversation log.
// Match is set only for KindMatchCard messages, which appear only
// in the assistant session, never in ordinary conversations.
type Message struct {
	ID         string
	Sender     Sender
	SenderName string
	Body       string
	Kind       MessageKind
	Timestamp  int64 // unix millis
	Match      *MatchInfo
}

// MatchInfo is the payload attached to a match-card message,
// referencing a committed conversation.
type MatchInfo struct {
	ConversationID string
	Name           string
	Avatar         string
	Kind           ConversationKind
	Description    string
}

// MatchRequest holds the validated arguments of a find_match invocation.
type MatchRequest struct {
	Kind        ConversationKind
	Activity    string
	Description string
}

// Conversation is the summary record for a thread. Message logs are
// owned by the registry and read through it.
type Conversation struct {
	ID                 string
	Kind               ConversationKind
	Name               string
	Avatar             string
	Participants       []Participant
	LastMessagePreview string
	LastMessageAt      int64
	Unread             int
}

// Task is a daily task shown on the profile page.
type Task struct {
	ID     int
	Title  string
	Reward string
	Done   bool
}
