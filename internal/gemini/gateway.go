package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/chatpoc-ai/BuddyUp/internal/chat"
)

const (
	findMatchFunction = "find_match"

	systemInstruction = "You are 'BuddyUp', a friendly, enthusiastic social connectivity assistant. " +
		"Your job is to help the user find friends or activities (aka 'Da-zi'). Be conversational. " +
		"If the user wants to find someone or something, ask clarifying questions if needed, " +
		"or use the 'find_match' tool to simulate finding a match."
)

// Config configures the gateway.
type Config struct {
	APIKey string
	Model  string
}

// Gateway adapts the assistant session's history to the Gemini
// exchange format and interprets the responses. It declares exactly
// one callable capability, find_match.
type Gateway struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// New creates a gateway. The find_match declaration is validated here,
// before any model call can be issued; a schema that drifts from its
// required parameter list fails construction.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Gateway, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: api key required")
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}
	if err := validateDeclaration(matchDeclaration()); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Gateway{client: client, model: model, logger: logger}, nil
}

func matchDeclaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name: findMatchFunction,
		Description: "Find a social match for the user. Use this when the user explicitly " +
			"expresses interest in finding a person or a group activity.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"type": {
					Type:        genai.TypeString,
					Enum:        []string{"1v1", "group"},
					Description: "The type of match: 1v1 for single partner, group for activities.",
				},
				"activity": {
					Type:        genai.TypeString,
					Description: "The activity name (e.g., Tennis, Movie, Coding).",
				},
				"description": {
					Type:        genai.TypeString,
					Description: "A short description of the matched entity.",
				},
			},
			Required: []string{"type", "activity", "description"},
		},
	}
}

// validateDeclaration checks the capability schema against its own
// required list. All find_match parameters are mandatory.
func validateDeclaration(d *genai.FunctionDeclaration) error {
	if d.Parameters == nil || d.Parameters.Type != genai.TypeObject {
		return fmt.Errorf("gemini: declaration %q must take an object", d.Name)
	}
	for _, name := range d.Parameters.Required {
		if _, ok := d.Parameters.Properties[name]; !ok {
			return fmt.Errorf("gemini: declaration %q requires undeclared parameter %q", d.Name, name)
		}
	}
	if len(d.Parameters.Required) != len(d.Parameters.Properties) {
		return fmt.Errorf("gemini: declaration %q has optional parameters; all must be required", d.Name)
	}
	return nil
}

func (g *Gateway) generateConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		Tools: []*genai.Tool{
			{FunctionDeclarations: []*genai.FunctionDeclaration{matchDeclaration()}},
		},
	}
}

// Converse issues one inference call carrying the prior history plus
// the new user turn, and interprets the result as a tagged Reply.
func (g *Gateway) Converse(ctx context.Context, history []Turn, text string) (*Reply, error) {
	contents := contentsFromTurns(history)
	contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, g.generateConfig())
	if err != nil {
		return nil, fmt.Errorf("gemini: generate: %w", err)
	}

	calls := resp.FunctionCalls()
	if len(calls) == 0 {
		return &Reply{Kind: ReplyText, Text: resp.Text()}, nil
	}
	if len(calls) > 1 {
		g.logger.Warn("multiple function calls returned, honoring the first",
			zap.Int("ignored", len(calls)-1))
	}
	inv, err := parseInvocation(calls[0])
	if err != nil {
		return nil, err
	}
	return &Reply{Kind: ReplyInvocation, Invocation: inv}, nil
}

// Acknowledge issues the follow-up call after a match was committed:
// the replayed history, the model's own function call, and a success
// function response, soliciting the final natural-language reply.
func (g *Gateway) Acknowledge(ctx context.Context, history []Turn, text string, inv *Invocation) (string, error) {
	contents := contentsFromTurns(history)
	contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
	contents = append(contents, genai.NewContentFromParts([]*genai.Part{{
		FunctionCall: &genai.FunctionCall{
			ID:   inv.ID,
			Name: findMatchFunction,
			Args: map[string]any{
				"type":        wireKind(inv.Request.Kind),
				"activity":    inv.Request.Activity,
				"description": inv.Request.Description,
			},
		},
	}}, genai.RoleModel))
	contents = append(contents, genai.NewContentFromParts([]*genai.Part{{
		FunctionResponse: &genai.FunctionResponse{
			ID:   inv.ID,
			Name: findMatchFunction,
			Response: map[string]any{
				"result":  "success",
				"message": "Match created successfully and added to database.",
			},
		},
	}}, genai.RoleUser))

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, g.generateConfig())
	if err != nil {
		return "", fmt.Errorf("gemini: acknowledge: %w", err)
	}
	return resp.Text(), nil
}

func contentsFromTurns(turns []Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(turns)+3)
	for _, t := range turns {
		contents = append(contents, genai.NewContentFromText(t.Text, genai.Role(t.Role)))
	}
	return contents
}

// parseInvocation validates the capability arguments. A missing
// required field or an unknown match type rejects the call before any
// match synthesis begins.
func parseInvocation(fc *genai.FunctionCall) (*Invocation, error) {
	if fc.Name != findMatchFunction {
		return nil, fmt.Errorf("gemini: unknown function %q", fc.Name)
	}
	wire, _ := fc.Args["type"].(string)
	activity, _ := fc.Args["activity"].(string)
	description, _ := fc.Args["description"].(string)

	var kind chat.ConversationKind
	switch wire {
	case "1v1":
		kind = chat.Direct
	case "group":
		kind = chat.Group
	default:
		return nil, fmt.Errorf("gemini: find_match: invalid type %q", wire)
	}
	if strings.TrimSpace(activity) == "" {
		return nil, errors.New("gemini: find_match: missing activity")
	}
	if strings.TrimSpace(description) == "" {
		return nil, errors.New("gemini: find_match: missing description")
	}

	id := fc.ID
	if id == "" {
		id = uuid.NewString()
	}
	return &Invocation{
		ID: id,
		Request: chat.MatchRequest{
			Kind:        kind,
			Activity:    activity,
			Description: description,
		},
	}, nil
}

func wireKind(k chat.ConversationKind) string {
	if k == chat.Direct {
		return "1v1"
	}
	return "group"
}
