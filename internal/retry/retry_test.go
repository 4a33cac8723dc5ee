package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 3, time.Millisecond, nil, func(context.Context) error {
		calls++
		if calls < 3 {
			return errBoom
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestDoStopsAtMaxRetries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 2, time.Millisecond, nil, func(context.Context) error {
		calls++
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)
	require.Equal(t, 3, calls)
}

func TestDoSkipsNonRetryable(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 5, time.Millisecond, func(error) bool { return false }, func(context.Context) error {
		calls++
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)
	require.Equal(t, 1, calls)
}

func TestDoHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, 5, time.Hour, nil, func(context.Context) error {
		return errBoom
	})
	require.ErrorIs(t, err, context.Canceled)
}
