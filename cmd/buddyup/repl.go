package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/fatih/color"
	"go.uber.org/fx"

	"github.com/chatpoc-ai/BuddyUp/internal/api"
	"github.com/chatpoc-ai/BuddyUp/internal/assistant"
	"github.com/chatpoc-ai/BuddyUp/internal/bus"
	"github.com/chatpoc-ai/BuddyUp/internal/chat"
	"github.com/chatpoc-ai/BuddyUp/internal/store"
)

var (
	youStyle  = color.New(color.FgGreen, color.Bold).SprintFunc()
	botStyle  = color.New(color.FgCyan, color.Bold).SprintFunc()
	infoStyle = color.New(color.FgYellow).SprintFunc()
	cardStyle = color.New(color.FgMagenta, color.Bold).SprintFunc()
)

type repl struct {
	assistant *api.AssistantService
	chats     *api.ChatService
	messages  *api.MessageService
	profile   *api.ProfileService
	shutdown  fx.Shutdowner

	mu      sync.Mutex
	openID  string // conversation currently on screen, empty = assistant
	unwatch func()
}

func newREPL(a *api.AssistantService, c *api.ChatService, m *api.MessageService, p *api.ProfileService, sd fx.Shutdowner) *repl {
	return &repl{assistant: a, chats: c, messages: m, profile: p, shutdown: sd}
}

func (r *repl) run() {
	fmt.Println(botStyle("✨ BuddyUp — AI Wingman"))
	fmt.Println("Type a message to chat with the assistant, or /help for commands.")
	fmt.Println()

	ch, unwatch := r.chats.WatchEvents("", 64)
	r.mu.Lock()
	r.unwatch = unwatch
	r.mu.Unlock()
	go r.printEvents(ch)

	for _, m := range r.assistant.History() {
		r.printAssistantMessage(m)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if !r.handleCommand(line) {
				return
			}
			continue
		}
		r.send(line)
	}
	_ = r.shutdown.Shutdown()
}

func (r *repl) stop() {
	r.mu.Lock()
	if r.unwatch != nil {
		r.unwatch()
	}
	r.mu.Unlock()
}

func (r *repl) current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.openID
}

func (r *repl) send(text string) {
	if id := r.current(); id != "" {
		if err := r.messages.SendText(id, text); err != nil {
			fmt.Println(infoStyle("send failed: " + err.Error()))
		}
		return
	}
	err := r.assistant.Send(context.Background(), text)
	if errors.Is(err, assistant.ErrBusy) {
		fmt.Println(infoStyle("The assistant is still thinking, hold on..."))
	} else if err != nil {
		fmt.Println(infoStyle("send failed: " + err.Error()))
	}
}

// handleCommand returns false when the REPL should exit.
func (r *repl) handleCommand(line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		_ = r.shutdown.Shutdown()
		return false
	case "/help":
		fmt.Println("  /chats [direct|group] [query]   list conversations")
		fmt.Println("  /open <id>                      open a conversation")
		fmt.Println("  /back                           return to the assistant")
		fmt.Println("  /profile                        show profile and tasks")
		fmt.Println("  /claim <task-id>                claim a daily task")
		fmt.Println("  /quit                           exit")
	case "/chats":
		r.listChats(fields[1:])
	case "/open":
		if len(fields) < 2 {
			fmt.Println(infoStyle("usage: /open <id>"))
			return true
		}
		r.openConversation(fields[1])
	case "/back":
		r.mu.Lock()
		r.openID = ""
		r.mu.Unlock()
		r.chats.CloseConversation()
		fmt.Println(infoStyle("Back with your AI Wingman."))
	case "/profile":
		r.showProfile()
	case "/claim":
		if len(fields) < 2 {
			fmt.Println(infoStyle("usage: /claim <task-id>"))
			return true
		}
		id, err := strconv.Atoi(fields[1])
		if err != nil {
			fmt.Println(infoStyle("task ids are numeric"))
			return true
		}
		if err := r.profile.ClaimTask(id); err != nil {
			fmt.Println(infoStyle(err.Error()))
		} else {
			fmt.Println(infoStyle("Claimed!"))
		}
	default:
		fmt.Println(infoStyle("unknown command, try /help"))
	}
	return true
}

func (r *repl) listChats(args []string) {
	var f store.Filter
	for _, a := range args {
		switch a {
		case "direct":
			f.Kind = chat.Direct
		case "group":
			f.Kind = chat.Group
		default:
			f.Query = a
		}
	}

	list := r.chats.ListConversations(f)
	if len(list) == 0 {
		fmt.Println(infoStyle("No messages yet. Chat with BuddyUp AI to find new friends or groups!"))
		return
	}
	if total := r.chats.UnreadTotal(); total > 0 {
		fmt.Println(infoStyle(fmt.Sprintf("%d unread", total)))
	}
	for _, c := range list {
		badge := "  "
		if c.Unread > 0 {
			badge = fmt.Sprintf("%d•", c.Unread)
		}
		fmt.Printf("  %s %-28s [%s] %s  (id: %s)\n", badge, c.Name, c.Kind, c.LastMessagePreview, c.ID)
	}
}

func (r *repl) openConversation(id string) {
	c, err := r.chats.SelectConversation(id)
	if err != nil {
		fmt.Println(infoStyle("no such conversation"))
		return
	}
	r.mu.Lock()
	r.openID = id
	r.mu.Unlock()

	fmt.Println(botStyle("— " + c.Name + " —"))
	msgs, err := r.chats.ListMessages(id)
	if err != nil {
		fmt.Println(infoStyle(err.Error()))
		return
	}
	for _, m := range msgs {
		r.printConversationMessage(m)
	}
}

func (r *repl) showProfile() {
	self := r.profile.Self()
	vip := ""
	if self.VIP {
		vip = " 👑 VIP"
	}
	fmt.Println(botStyle(self.Name + vip))
	for _, task := range r.profile.Tasks() {
		mark := " "
		if task.Done {
			mark = "x"
		}
		fmt.Printf("  [%s] %d. %s — %s\n", mark, task.ID, task.Title, task.Reward)
	}
}

// printEvents renders asynchronous updates: assistant replies, match
// cards and simulated counterpart messages in the open conversation.
func (r *repl) printEvents(ch <-chan bus.Event) {
	for evt := range ch {
		switch evt.Kind {
		case "assistant.message":
			m, ok := evt.Payload.(chat.Message)
			if ok && m.Sender != chat.SenderSelf && r.current() == "" {
				r.printAssistantMessage(m)
			}
		case "message.received":
			d, ok := evt.Payload.(chat.Delivery)
			if ok && d.ConversationID == r.current() {
				r.printConversationMessage(d.Message)
			}
		}
	}
}

func (r *repl) printAssistantMessage(m chat.Message) {
	switch {
	case m.Kind == chat.KindMatchCard && m.Match != nil:
		label := "1v1 Match"
		if m.Match.Kind == chat.Group {
			label = "Group Match"
		}
		fmt.Println(cardStyle(fmt.Sprintf("🎉 %s — %s", m.Match.Name, label)))
		fmt.Println(cardStyle("   " + m.Match.Description))
		fmt.Println(cardStyle("   Start chatting: /open " + m.Match.ConversationID))
	case m.Sender == chat.SenderSelf:
		fmt.Println(youStyle("You: ") + m.Body)
	default:
		fmt.Println(botStyle("BuddyUp: ") + m.Body)
	}
}

func (r *repl) printConversationMessage(m chat.Message) {
	switch m.Sender {
	case chat.SenderSelf:
		fmt.Println(youStyle("You: ") + m.Body)
	case chat.SenderSystem:
		fmt.Println(infoStyle("• " + m.Body))
	default:
		name := m.SenderName
		if name == "" {
			name = "Them"
		}
		fmt.Println(botStyle(name+": ") + m.Body)
	}
}
