package orchestrator

import (
	"context"
	"time"

	"ai-diagnostics-be/pkg/llm"

	"github.com/cenkalti/backoff/v5"
)

// RetryPolicy bounds how model calls are retried. Only rate-limit errors
// are retried; everything else fails the attempt immediately.
type RetryPolicy struct {
	MaxAttempts     uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy allows two retries after the initial attempt.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	}
}

// RetryingProvider decorates a completion provider with the rate-limit
// retry policy. Extraction and formatting both call the model through this
// wrapper, so neither stage needs its own retry handling.
type RetryingProvider struct {
	inner  llm.Provider
	policy RetryPolicy
}

func NewRetryingProvider(inner llm.Provider, policy RetryPolicy) *RetryingProvider {
	return &RetryingProvider{inner: inner, policy: policy}
}

func (p *RetryingProvider) Complete(ctx context.Context, system string, history []llm.Message, prompt string, options ...llm.Option) (*llm.Completion, error) {
	return retryCompletion(ctx, p.policy, func() (*llm.Completion, error) {
		return p.inner.Complete(ctx, system, history, prompt, options...)
	})
}

// retryCompletion runs op under the policy. Non-rate-limit errors are
// marked permanent so backoff stops immediately.
func retryCompletion[T any](ctx context.Context, policy RetryPolicy, op func() (T, error)) (T, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = policy.InitialInterval
	bo.MaxInterval = policy.MaxInterval

	return backoff.Retry(ctx, func() (T, error) {
		result, err := op()
		if err != nil && !llm.IsRateLimited(err) {
			return result, backoff.Permanent(err)
		}
		return result, err
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(policy.MaxAttempts))
}
