package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Gemini implements Client using GenerateContent with function declarations.
type Gemini struct {
	client    *genai.Client
	model     string
	maxTokens int
}

// NewGemini creates a Gemini API backend.
func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	cfg = cfg.withDefaults()

	client, err := genai.NewClient(ctx, geminiClientConfig(cfg))
	if err != nil {
		return nil, NewConfigurationError(NameGemini, "creating client", err)
	}

	return &Gemini{
		client:    client,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

func geminiClientConfig(cfg Config) *genai.ClientConfig {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		timeout := cfg.Timeout
		clientCfg.HTTPOptions.Timeout = &timeout
	}
	return clientCfg
}

// Name returns the provider identifier.
func (p *Gemini) Name() string {
	return NameGemini
}

// Complete performs a single GenerateContent call.
func (p *Gemini) Complete(ctx context.Context, req *Request) (*Response, error) {
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(p.maxTokens),
	}
	if req.SystemPrompt != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.SystemPrompt}}}
	}
	if decls := buildGeminiDeclarations(req.Functions); len(decls) > 0 {
		config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, buildGeminiContents(req), config)
	if err != nil {
		return nil, wrapGeminiError(err)
	}

	return geminiResponse(resp)
}

// geminiResponse keeps the text parts of the first candidate alongside
// its first function call. Thought parts are skipped.
func geminiResponse(resp *genai.GenerateContentResponse) (*Response, error) {
	out := &Response{}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return out, nil
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil {
			continue
		}
		if part.Text != "" && !part.Thought {
			text.WriteString(part.Text)
		}
		if part.FunctionCall != nil && out.FunctionCall == nil {
			args, err := json.Marshal(part.FunctionCall.Args)
			if err != nil {
				return nil, &Error{
					Kind:     KindUpstream,
					Provider: NameGemini,
					Message:  "encoding function call arguments",
					Err:      err,
				}
			}
			out.FunctionCall = &FunctionCall{
				Name:          part.FunctionCall.Name,
				ArgumentsJSON: string(args),
			}
		}
	}
	out.Text = text.String()

	return out, nil
}

func buildGeminiContents(req *Request) []*genai.Content {
	turns := allTurns(req)
	out := make([]*genai.Content, 0, len(turns))
	for _, turn := range turns {
		role := "user"
		if turn.Role == RoleAssistant {
			role = "model"
		}
		out = append(out, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: turn.Content}},
		})
	}
	return out
}

func buildGeminiDeclarations(fns []Function) []*genai.FunctionDeclaration {
	out := make([]*genai.FunctionDeclaration, 0, len(fns))
	for _, fn := range fns {
		out = append(out, &genai.FunctionDeclaration{
			Name:                 fn.Name,
			Description:          fn.Description,
			ParametersJsonSchema: fn.Parameters,
		})
	}
	return out
}

func wrapGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &Error{
			Kind:       classify(apiErr.Code, apiErr.Status, apiErr.Message),
			Provider:   NameGemini,
			StatusCode: apiErr.Code,
			Message:    apiErr.Message,
			Err:        err,
		}
	}
	return &Error{
		Kind:     KindUpstream,
		Provider: NameGemini,
		Message:  fmt.Sprintf("generating content: %v", err),
		Err:      err,
	}
}
