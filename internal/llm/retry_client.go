package llm

import (
	"context"
	"time"

	talonerrors "talon/internal/errors"
	"talon/internal/logging"
)

// retryClient wraps a Client with retry logic.
type retryClient struct {
	underlying  Client
	retryConfig talonerrors.RetryConfig
	logger      logging.Logger
}

// NewRetryClient wraps an LLM client with exponential-backoff retries for
// transient provider failures.
func NewRetryClient(client Client, retryConfig talonerrors.RetryConfig) Client {
	return &retryClient{
		underlying:  client,
		retryConfig: retryConfig,
		logger:      logging.NewComponentLogger("llm-retry"),
	}
}

func (c *retryClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	startTime := time.Now()

	resp, err := talonerrors.RetryWithResult(ctx, c.retryConfig, func(ctx context.Context) (*CompletionResponse, error) {
		return c.underlying.Complete(ctx, req)
	}, c.logger)

	duration := time.Since(startTime)
	if err != nil {
		c.logger.Warn("completion failed after retries (took %v): %v", duration, err)
		return nil, err
	}
	if duration > 5*time.Second {
		c.logger.Debug("completion succeeded after %v", duration)
	}
	return resp, nil
}

func (c *retryClient) Model() string {
	return c.underlying.Model()
}
