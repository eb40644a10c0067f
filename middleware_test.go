package wardly

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	next := CallerFunc(func(_ context.Context, _ string, _ map[string]any) (any, error) {
		return "ok", nil
	})
	payload, err := WithLogging(logger)(next).Call(context.Background(), "list_beds", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", payload)

	out := buf.String()
	assert.Contains(t, out, "tool call start")
	assert.Contains(t, out, "tool call end")
	assert.Contains(t, out, "tool=list_beds")
}

func TestWithLogging_Error(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	boom := errors.New("backend down")
	next := CallerFunc(func(_ context.Context, _ string, _ map[string]any) (any, error) {
		return nil, boom
	})
	_, err := WithLogging(logger)(next).Call(context.Background(), "list_beds", nil)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, buf.String(), "tool call error")
	assert.Contains(t, buf.String(), "backend down")
}

func TestWithRecovery(t *testing.T) {
	next := CallerFunc(func(_ context.Context, _ string, _ map[string]any) (any, error) {
		panic("kaboom")
	})
	_, err := WithRecovery()(next).Call(context.Background(), "t", nil)
	require.Error(t, err)
	assert.True(t, IsSystemError(err))

	var se *SystemError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Err.Error(), "kaboom")
}

func TestWithTimeoutMiddleware(t *testing.T) {
	next := CallerFunc(func(ctx context.Context, _ string, _ map[string]any) (any, error) {
		select {
		case <-time.After(time.Second):
			return "late", nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
	_, err := WithTimeoutMiddleware(10*time.Millisecond)(next).Call(context.Background(), "t", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWithTimeoutMiddleware_Disabled(t *testing.T) {
	next := CallerFunc(func(ctx context.Context, _ string, _ map[string]any) (any, error) {
		_, ok := ctx.Deadline()
		assert.False(t, ok)
		return "ok", nil
	})
	payload, err := WithTimeoutMiddleware(0)(next).Call(context.Background(), "t", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", payload)
}
