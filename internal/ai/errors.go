package ai

import (
	"errors"
	"fmt"

	"github.com/nhle/assistant-engine/internal/provider"
)

var (
	// ErrUnresolvedDestination means a send_message action has no chat to
	// deliver to.
	ErrUnresolvedDestination = errors.New("message destination could not be resolved")

	// ErrNotConfigured means the engine was built without a model client.
	ErrNotConfigured = errors.New("assistant is not configured with an API key")

	// ErrStaleResponse is returned alongside a response that was superseded
	// by a newer request for the same conversation, or whose request was
	// cancelled.
	ErrStaleResponse = errors.New("response superseded by a newer request")
)

// ParseError is returned when the model's function call cannot be turned
// into an action. The turn's text is still returned; the action is dropped.
type ParseError struct {
	Function string
	Reason   string
	Err      error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("parsing %s call: %s", e.Function, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsParseError checks whether an error is a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

func newParseError(function, reason string, err error) *ParseError {
	return &ParseError{Function: function, Reason: reason, Err: err}
}

// UserMessage returns the text shown to the user for an engine error.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotConfigured), provider.IsConfigurationError(err):
		return "The assistant could not authenticate with the AI provider. Please check your configuration."
	case provider.IsAuthMismatchError(err):
		return "The AI provider rejected this account or organization. Please check your configuration."
	case provider.IsRateLimitError(err):
		return "The AI service is over its usage limit right now. Please try again later."
	case IsParseError(err):
		return "I couldn't understand the action I was asked to perform. Please try rephrasing."
	case errors.Is(err, ErrUnresolvedDestination):
		return "I couldn't tell which chat to send that message to. Open the chat or include the recipient's email."
	default:
		return "Something went wrong while contacting the assistant. Please try again."
	}
}
