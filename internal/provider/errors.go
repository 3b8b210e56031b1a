package provider

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind classifies provider failures by how the caller should react.
type ErrorKind string

const (
	// KindConfiguration covers a missing or rejected API key.
	KindConfiguration ErrorKind = "configuration"

	// KindRateLimit covers quota and request-rate rejections.
	KindRateLimit ErrorKind = "rate_limit"

	// KindAuthMismatch covers account or organization mismatches.
	KindAuthMismatch ErrorKind = "auth_mismatch"

	// KindUpstream covers every other provider or transport failure.
	KindUpstream ErrorKind = "upstream"
)

// Error is returned by every Client when the provider call fails.
type Error struct {
	Kind       ErrorKind
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s error (%s, %d): %s", e.Provider, e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s error (%s): %s", e.Provider, e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) ErrorKind {
	var pErr *Error
	if errors.As(err, &pErr) {
		return pErr.Kind
	}
	return ""
}

// IsConfigurationError reports whether err is a configuration-kind provider error.
func IsConfigurationError(err error) bool {
	return KindOf(err) == KindConfiguration
}

// IsRateLimitError reports whether err is a rate-limit provider error.
func IsRateLimitError(err error) bool {
	return KindOf(err) == KindRateLimit
}

// IsAuthMismatchError reports whether err is an account/organization mismatch.
func IsAuthMismatchError(err error) bool {
	return KindOf(err) == KindAuthMismatch
}

// NewConfigurationError builds a configuration-kind error without a status code.
func NewConfigurationError(providerName, message string, err error) *Error {
	return &Error{
		Kind:     KindConfiguration,
		Provider: providerName,
		Message:  message,
		Err:      err,
	}
}

// classify maps an HTTP status and the provider's error code/message to a kind.
func classify(status int, code, message string) ErrorKind {
	lower := strings.ToLower(code + " " + message)

	authStatus := status == http.StatusUnauthorized || status == http.StatusForbidden
	if authStatus && (strings.Contains(lower, "organization") || strings.Contains(lower, "mismatched_project")) {
		return KindAuthMismatch
	}

	switch status {
	case http.StatusUnauthorized:
		return KindConfiguration
	case http.StatusForbidden:
		return KindAuthMismatch
	case http.StatusTooManyRequests:
		return KindRateLimit
	}

	if strings.Contains(lower, "insufficient_quota") || strings.Contains(lower, "resource_exhausted") {
		return KindRateLimit
	}
	if strings.Contains(lower, "api key not valid") || strings.Contains(lower, "invalid_api_key") {
		return KindConfiguration
	}

	return KindUpstream
}
