package gemini

import "github.com/chatpoc-ai/BuddyUp/internal/chat"

// Role is a history turn role in the model's exchange format.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one (role, text) entry of the conversation history sent to
// the model.
type Turn struct {
	Role Role
	Text string
}

// ReplyKind tags the variant carried by a Reply.
type ReplyKind int

const (
	// ReplyText carries a plain natural-language reply.
	ReplyText ReplyKind = iota
	// ReplyInvocation carries a find_match capability invocation.
	ReplyInvocation
)

// Reply is the interpreted model response: either free text or exactly
// one capability invocation. When the model returns several calls,
// only the first is honored; resolving multi-call responses by taking
// the first is a deliberate single-call policy.
type Reply struct {
	Kind       ReplyKind
	Text       string
	Invocation *Invocation
}

// Invocation is a parsed, validated find_match call. The ID ties the
// later function-response acknowledgment back to this call.
type Invocation struct {
	ID      string
	Request chat.MatchRequest
}
