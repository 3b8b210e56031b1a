// Package provider submits a composed prompt and a declared function
// schema to a hosted language model and returns either prose or a single
// function invocation.
package provider

import "context"

// Role identifies the author of a prior conversational turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one prior message in the conversation sent to the model.
type Turn struct {
	Role    Role
	Content string
}

// Function declares a callable action the model may request.
// Parameters is a JSON Schema object.
type Function struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Request is a single-shot completion request.
type Request struct {
	SystemPrompt string
	Turns        []Turn

	// Input is the new user utterance; it is always sent as the final turn.
	Input string

	Functions []Function
}

// FunctionCall is the raw function invocation returned by the model.
type FunctionCall struct {
	Name          string
	ArgumentsJSON string
}

// Response is either free-form text, a function call, or both.
type Response struct {
	Text         string
	FunctionCall *FunctionCall
}

// Client is a model provider backend.
type Client interface {
	// Name returns the provider identifier (e.g. "openai").
	Name() string

	// Complete sends req and returns the model's reply. At most one
	// function call is returned; additional calls are discarded.
	Complete(ctx context.Context, req *Request) (*Response, error)
}

// requiredFields extracts the "required" list from a JSON Schema object.
func requiredFields(schema map[string]any) []string {
	switch req := schema["required"].(type) {
	case []string:
		return req
	case []any:
		out := make([]string, 0, len(req))
		for _, r := range req {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// allTurns returns the prior turns followed by the new input as a user turn.
func allTurns(req *Request) []Turn {
	turns := make([]Turn, 0, len(req.Turns)+1)
	turns = append(turns, req.Turns...)
	turns = append(turns, Turn{Role: RoleUser, Content: req.Input})
	return turns
}
