package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Anthropic implements Client using the Messages API with tool definitions.
type Anthropic struct {
	client    anthropic.Client
	model     string
	maxTokens int
}

// NewAnthropic creates an Anthropic backend with retries disabled.
func NewAnthropic(cfg Config) *Anthropic {
	cfg = cfg.withDefaults()

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	return &Anthropic{
		client:    anthropic.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

// Name returns the provider identifier.
func (p *Anthropic) Name() string {
	return NameAnthropic
}

// Complete performs a single non-streaming Messages request.
func (p *Anthropic) Complete(ctx context.Context, req *Request) (*Response, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(p.maxTokens),
		Messages:  buildAnthropicMessages(req),
		Tools:     buildAnthropicTools(req.Functions),
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, wrapAnthropicError(err)
	}

	out := &Response{}
	var text strings.Builder
	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			text.WriteString(b.Text)
		case anthropic.ToolUseBlock:
			if out.FunctionCall != nil {
				continue
			}
			args := strings.TrimSpace(string(b.Input))
			if args == "" {
				args = "{}"
			}
			out.FunctionCall = &FunctionCall{
				Name:          b.Name,
				ArgumentsJSON: args,
			}
		}
	}
	out.Text = text.String()

	return out, nil
}

// buildAnthropicMessages converts turns to Messages API params. The API
// requires alternating roles, so consecutive turns from the same role
// are joined.
func buildAnthropicMessages(req *Request) []anthropic.MessageParam {
	var merged []Turn
	for _, turn := range allTurns(req) {
		role := turn.Role
		if role != RoleAssistant {
			role = RoleUser
		}
		if n := len(merged); n > 0 && merged[n-1].Role == role {
			merged[n-1].Content += "\n\n" + turn.Content
			continue
		}
		merged = append(merged, Turn{Role: role, Content: turn.Content})
	}

	out := make([]anthropic.MessageParam, 0, len(merged))
	for _, turn := range merged {
		if turn.Role == RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(turn.Content)))
			continue
		}
		out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(turn.Content)))
	}
	return out
}

func buildAnthropicTools(fns []Function) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, len(fns))
	for i, fn := range fns {
		out[i] = anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        fn.Name,
				Description: anthropic.String(fn.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: fn.Parameters["properties"],
					Required:   requiredFields(fn.Parameters),
				},
			},
		}
	}
	return out
}

func wrapAnthropicError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		message := apiErr.Error()
		return &Error{
			Kind:       classify(apiErr.StatusCode, "", message),
			Provider:   NameAnthropic,
			StatusCode: apiErr.StatusCode,
			Message:    message,
			Err:        err,
		}
	}
	return &Error{
		Kind:     KindUpstream,
		Provider: NameAnthropic,
		Message:  fmt.Sprintf("calling messages API: %v", err),
		Err:      err,
	}
}
