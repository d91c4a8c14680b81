package bus

import "time"

// Event represents a domain event published on the bus.
//
// Kinds in use: "message.sent", "message.received", "match.requested",
// "match.committed", "assistant.message".
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}
