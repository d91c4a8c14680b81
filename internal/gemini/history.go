package gemini

import (
	"fmt"

	"github.com/chatpoc-ai/BuddyUp/internal/chat"
)

// HistoryFromMessages converts the assistant session's log to model
// turns: role user for self-authored messages, model otherwise. A
// match-card message is rewritten to a textual summary so the raw card
// payload never reaches the model.
func HistoryFromMessages(msgs []chat.Message) []Turn {
	turns := make([]Turn, 0, len(msgs))
	for _, m := range msgs {
		text := m.Body
		if m.Kind == chat.KindMatchCard && m.Match != nil {
			text = fmt.Sprintf("[System: I have created a match for %s. The user can see it.]",
				m.Match.Description)
		}
		role := RoleModel
		if m.Sender == chat.SenderSelf {
			role = RoleUser
		}
		turns = append(turns, Turn{Role: role, Text: text})
	}
	return turns
}
