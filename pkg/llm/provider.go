package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Usage reports token accounting for a single completion call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Completion is the result of a single provider call. Structured is nil
// unless an output schema was supplied AND the model's output validated
// against it. A failed validation yields Structured == nil, not an error,
// so callers can distinguish "no parseable object" from transport failure.
type Completion struct {
	Text       string
	Structured json.RawMessage
	Usage      Usage
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model

	// OutputSchema is a JSON Schema document. When set, the provider asks
	// the model for JSON and validates the reply against the schema.
	OutputSchema []byte
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithOutputSchema(schema []byte) Option {
	return func(o *Options) {
		o.OutputSchema = schema
	}
}

// Provider defines the contract for any completion backend
type Provider interface {
	// Complete sends a system instruction, prior history and the current
	// prompt to the model and returns the completion.
	Complete(ctx context.Context, system string, history []Message, prompt string, options ...Option) (*Completion, error)
}

// RateLimitError marks a transient capacity error from the completion
// service. Callers retry these with bounded backoff; every other error is
// treated as terminal at the call site.
type RateLimitError struct {
	Provider string
	Detail   string
}

func (e *RateLimitError) Error() string {
	return "rate limited by " + e.Provider + ": " + e.Detail
}

// IsRateLimited reports whether err is (or wraps) a RateLimitError.
func IsRateLimited(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}
