package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// OpenAI implements Client using the Chat Completions function-calling API.
type OpenAI struct {
	client    openai.Client
	model     string
	maxTokens int
}

// NewOpenAI creates an OpenAI backend. Retries are disabled: the caller
// decides whether to re-invoke after a failure.
func NewOpenAI(cfg Config) *OpenAI {
	cfg = cfg.withDefaults()

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Organization != "" {
		opts = append(opts, option.WithHeader("OpenAI-Organization", cfg.Organization))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	return &OpenAI{
		client:    openai.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

// Name returns the provider identifier.
func (p *OpenAI) Name() string {
	return NameOpenAI
}

// Complete performs a single non-streaming chat completion.
func (p *OpenAI) Complete(ctx context.Context, req *Request) (*Response, error) {
	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: buildOpenAIMessages(req),
	}
	if p.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(p.maxTokens))
	}
	if len(req.Functions) > 0 {
		params.Tools = buildOpenAITools(req.Functions)
		params.ParallelToolCalls = openai.Bool(false)
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, wrapOpenAIError(err)
	}

	out := &Response{}
	if len(completion.Choices) == 0 {
		return out, nil
	}

	msg := completion.Choices[0].Message
	out.Text = msg.Content
	if len(msg.ToolCalls) > 0 {
		tc := msg.ToolCalls[0]
		out.FunctionCall = &FunctionCall{
			Name:          tc.Function.Name,
			ArgumentsJSON: tc.Function.Arguments,
		}
	}

	return out, nil
}

func buildOpenAIMessages(req *Request) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Turns)+2)
	if req.SystemPrompt != "" {
		out = append(out, openai.SystemMessage(req.SystemPrompt))
	}
	for _, turn := range allTurns(req) {
		switch turn.Role {
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(turn.Content))
		default:
			out = append(out, openai.UserMessage(turn.Content))
		}
	}
	return out
}

func buildOpenAITools(fns []Function) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, 0, len(fns))
	for _, fn := range fns {
		def := shared.FunctionDefinitionParam{
			Name:        fn.Name,
			Description: openai.String(fn.Description),
		}
		if len(fn.Parameters) > 0 {
			def.Parameters = shared.FunctionParameters(fn.Parameters)
		}
		out = append(out, openai.ChatCompletionToolParam{Function: def})
	}
	return out
}

func wrapOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		message := apiErr.Message
		if message == "" {
			message = apiErr.Error()
		}
		return &Error{
			Kind:       classify(apiErr.StatusCode, apiErr.Code, message),
			Provider:   NameOpenAI,
			StatusCode: apiErr.StatusCode,
			Message:    message,
			Err:        err,
		}
	}
	return &Error{
		Kind:     KindUpstream,
		Provider: NameOpenAI,
		Message:  fmt.Sprintf("calling chat completions: %v", err),
		Err:      err,
	}
}
