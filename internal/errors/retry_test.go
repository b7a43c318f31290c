package errors

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRetryWithResultSucceedsAfterTransientFailures(t *testing.T) {
	t.Parallel()

	config := RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
	attempts := 0

	result, err := RetryWithResult(context.Background(), config, func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 3 {
			return "", &TransientError{Err: stderrors.New("upstream hiccup"), StatusCode: 503}
		}
		return "ok", nil
	}, nil)

	require.NoError(t, err)
	require.Equal(t, "ok", result)
	require.Equal(t, 3, attempts)
}

func TestRetryWithResultStopsOnPermanentError(t *testing.T) {
	t.Parallel()

	config := RetryConfig{MaxAttempts: 5, BaseDelay: time.Millisecond}
	attempts := 0

	_, err := RetryWithResult(context.Background(), config, func(ctx context.Context) (int, error) {
		attempts++
		return 0, &PermanentError{Err: stderrors.New("bad api key"), StatusCode: 401}
	}, nil)

	require.Error(t, err)
	require.Equal(t, 1, attempts)
}

func TestRetryWithResultExhaustsAttempts(t *testing.T) {
	t.Parallel()

	config := RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond}
	attempts := 0

	_, err := RetryWithResult(context.Background(), config, func(ctx context.Context) (int, error) {
		attempts++
		return 0, &TransientError{Err: stderrors.New("still down")}
	}, nil)

	require.Error(t, err)
	require.Equal(t, 3, attempts)
	require.Contains(t, err.Error(), "max retries exceeded")
}

func TestRetryWithResultHonorsContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RetryWithResult(ctx, DefaultRetryConfig(), func(ctx context.Context) (int, error) {
		t.Fatal("function should not run with cancelled context")
		return 0, nil
	}, nil)

	require.Error(t, err)
}

func TestIsTransientClassification(t *testing.T) {
	t.Parallel()

	require.True(t, IsTransient(&TransientError{Err: stderrors.New("x")}))
	require.False(t, IsTransient(&PermanentError{Err: stderrors.New("x")}))
	require.False(t, IsTransient(nil))
	require.True(t, IsTransient(stderrors.New("dial tcp: connection refused")))
	require.False(t, IsTransient(stderrors.New("invalid argument")))
}

func TestIsTransientHTTPStatus(t *testing.T) {
	t.Parallel()

	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		require.True(t, IsTransientHTTPStatus(code), "status %d", code)
	}
	for _, code := range []int{200, 400, 401, 403, 404, 422} {
		require.False(t, IsTransientHTTPStatus(code), "status %d", code)
	}
}
