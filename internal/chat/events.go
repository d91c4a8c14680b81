package chat

// MessageSent is the bus payload published after a message is appended
// to a registry conversation ("message.sent").
type MessageSent struct {
	ConversationID string
	Kind           ConversationKind
	Sender         Sender
}

// Delivery is the bus payload for a counterpart message arriving in a
// conversation ("message.received").
type Delivery struct {
	ConversationID string
	Message        Message
}
