package llm

import (
	"fmt"
	"time"
)

// ErrRateLimit indicates the provider returned a rate limit error (429).
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse indicates the provider reply could not be decoded
// into the neutral response shape (empty choices, missing content).
type ErrInvalidResponse struct {
	Err error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid LLM response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProvider indicates a non-2xx reply from the LLM API. Body carries
// the provider's raw error payload for diagnostics.
type ErrProvider struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *ErrProvider) Error() string {
	return fmt.Sprintf("provider error (HTTP %d): %v", e.StatusCode, e.Err)
}

func (e *ErrProvider) Unwrap() error { return e.Err }

// ErrProviderUnavailable indicates the provider is down or unreachable.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
	}
	return "LLM provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrToolArguments indicates the model supplied arguments that do not
// conform to the tool's declared parameter schema.
type ErrToolArguments struct {
	Tool string
	Err  error
}

func (e *ErrToolArguments) Error() string {
	return fmt.Sprintf("invalid arguments for tool %q: %v", e.Tool, e.Err)
}

func (e *ErrToolArguments) Unwrap() error { return e.Err }
