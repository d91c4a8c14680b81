package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/chatpoc-ai/BuddyUp/internal/chat"
)

var (
	// ErrNotFound is returned when a conversation id is unknown.
	ErrNotFound = errors.New("conversation not found")
	// ErrExists is returned when creating a conversation whose id is taken.
	ErrExists = errors.New("conversation already exists")
)

const previewMax = 100

type entry struct {
	conv chat.Conversation
	msgs []chat.Message
}

// Registry owns all conversation records and their append-only message
// logs. Its mutex is the sole synchronization point: appends to one
// conversation are linearizable, and unread/preview derivations happen
// in the same critical section as the append they derive from.
type Registry struct {
	mu       sync.RWMutex
	byID     map[string]*entry
	order    []string // listing order, newest creation first
	activeID string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*entry)}
}

// Filter selects a subset of conversations for listing.
// A zero Filter matches everything.
type Filter struct {
	Kind  chat.ConversationKind // empty = all kinds
	Query string                // case-insensitive substring of name or preview
}

// Match reports whether the conversation passes the filter.
func (f Filter) Match(c chat.Conversation) bool {
	if f.Kind != "" && c.Kind != f.Kind {
		return false
	}
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		if !strings.Contains(strings.ToLower(c.Name), q) &&
			!strings.Contains(strings.ToLower(c.LastMessagePreview), q) {
			return false
		}
	}
	return true
}

// Create inserts a new conversation at the head of the listing order,
// installing any seed messages verbatim. The record's Unread is kept
// as supplied: synthesized group matches start read while direct
// matches start with one unread greeting. Fails with ErrExists if the
// id is already taken.
func (r *Registry) Create(c chat.Conversation, seed ...chat.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[c.ID]; ok {
		return fmt.Errorf("create %q: %w", c.ID, ErrExists)
	}

	e := &entry{conv: c, msgs: append([]chat.Message(nil), seed...)}
	if len(e.msgs) > 0 {
		last := e.msgs[len(e.msgs)-1]
		if e.conv.LastMessagePreview == "" {
			e.conv.LastMessagePreview = preview(last)
		}
		if e.conv.LastMessageAt == 0 {
			e.conv.LastMessageAt = last.Timestamp
		}
	}

	r.byID[c.ID] = e
	r.order = append([]string{c.ID}, r.order...)
	return nil
}

// Append adds a message to a conversation's log. The preview and
// last-activity timestamp are derived from the message; unread grows
// by one for non-self messages while the conversation is not the
// active one.
func (r *Registry) Append(id string, m chat.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("append to %q: %w", id, ErrNotFound)
	}

	e.msgs = append(e.msgs, m)
	e.conv.LastMessagePreview = preview(m)
	e.conv.LastMessageAt = m.Timestamp
	if m.Sender != chat.SenderSelf && id != r.activeID {
		e.conv.Unread++
	}
	return nil
}

// MarkRead zeroes a conversation's unread counter. Idempotent; a
// missing id is a no-op, not an error.
func (r *Registry) MarkRead(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.byID[id]; ok {
		e.conv.Unread = 0
	}
}

// SetActive marks the conversation as the currently viewed one and
// zeroes its unread counter in the same critical section. A missing
// id still becomes active so a subsequent Create+Append sequence sees
// it; unread semantics only depend on the id comparison.
func (r *Registry) SetActive(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activeID = id
	if e, ok := r.byID[id]; ok {
		e.conv.Unread = 0
	}
}

// ClearActive marks no conversation as viewed.
func (r *Registry) ClearActive() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activeID = ""
}

// ActiveID returns the currently viewed conversation id, if any.
func (r *Registry) ActiveID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeID
}

// Get returns a copy of the conversation summary.
func (r *Registry) Get(id string) (chat.Conversation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[id]
	if !ok {
		return chat.Conversation{}, false
	}
	return e.conv, true
}

// Messages returns a stable snapshot of a conversation's log. Later
// appends do not mutate previously returned snapshots.
func (r *Registry) Messages(id string) ([]chat.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("read %q: %w", id, ErrNotFound)
	}
	return append([]chat.Message(nil), e.msgs...), nil
}

// List returns conversation summaries in listing order, filtered.
// Pure function of current state.
func (r *Registry) List(f Filter) []chat.Conversation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []chat.Conversation
	for _, id := range r.order {
		c := r.byID[id].conv
		if f.Match(c) {
			out = append(out, c)
		}
	}
	return out
}

// TotalUnread sums unread counters over all conversations, recomputed
// from current state on every call.
func (r *Registry) TotalUnread() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := 0
	for _, e := range r.byID {
		total += e.conv.Unread
	}
	return total
}

// preview derives the list preview line from a message.
func preview(m chat.Message) string {
	var p string
	switch {
	case m.Sender == chat.SenderSelf:
		p = "You: " + m.Body
	case m.Sender == chat.SenderSystem:
		p = "System: " + m.Body
	case m.Sender == chat.SenderCounterpart && m.SenderName != "":
		p = m.SenderName + ": " + m.Body
	default:
		p = m.Body
	}
	return truncate(p, previewMax)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
