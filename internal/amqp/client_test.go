package amqp

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// disconnected returns a client that never dialed a broker, enough to drive
// the breaker and the early exits of PublishRefresh.
func disconnected() *Client {
	return &Client{exchangeName: "muckraker", queueName: "refresh_snapshot"}
}

func TestReconnectBackoff(t *testing.T) {
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second}
	for attempt, d := range want {
		assert.Equal(t, d, exponentialBackoff(attempt), "attempt %d", attempt)
	}
	for _, attempt := range []int{5, 6, 20, 63} {
		assert.Equal(t, maxBackoff, exponentialBackoff(attempt), "attempt %d", attempt)
	}
}

func TestIsConnectionError(t *testing.T) {
	lost := []error{
		amqp091.ErrClosed,
		fmt.Errorf("start consuming: %w", amqp091.ErrClosed),
		errors.New("dial tcp 127.0.0.1:5672: connect: connection refused"),
		errors.New("read: connection reset by peer"),
		errors.New("unexpected EOF"),
		errors.New("write: broken pipe"),
		errors.New("use of closed network connection"),
		errors.New("Exception (504) Reason: \"channel/connection is not open\""),
	}
	for _, err := range lost {
		assert.True(t, isConnectionError(err), err.Error())
	}

	assert.False(t, isConnectionError(nil))
	assert.False(t, isConnectionError(errors.New("Exception (406) Reason: \"PRECONDITION_FAILED\"")))
	assert.False(t, isConnectionError(errors.New("refresh request without year")))
}

func TestCircuitBreakerLifecycle(t *testing.T) {
	c := disconnected()
	require.False(t, c.isCircuitOpen(), "a new client starts closed")

	for i := 1; i < maxFailures; i++ {
		c.recordFailure()
		require.False(t, c.isCircuitOpen(), "still closed after %d failures", i)
	}
	c.recordFailure()
	require.True(t, c.isCircuitOpen(), "opens at the failure threshold")

	// Recent failure: stays open.
	assert.True(t, c.isCircuitOpen())
	assert.Equal(t, StateOpen, atomic.LoadInt32(&c.state))

	// Once the open timeout has passed, one probe request is let through.
	c.lastFailure = time.Now().Add(-openTimeout - time.Second)
	assert.False(t, c.isCircuitOpen())
	assert.Equal(t, StateHalfOpen, atomic.LoadInt32(&c.state))

	c.recordSuccess()
	assert.Equal(t, StateClosed, atomic.LoadInt32(&c.state))
	assert.Zero(t, atomic.LoadInt64(&c.failureCount))
}

func TestCircuitBreaker_FailureWhileHalfOpenReopens(t *testing.T) {
	c := disconnected()
	atomic.StoreInt32(&c.state, StateHalfOpen)

	c.recordFailure()

	assert.Equal(t, StateOpen, atomic.LoadInt32(&c.state))
	assert.True(t, c.isCircuitOpen())
}

func TestPublishRefresh_ShortCircuits(t *testing.T) {
	t.Run("open breaker", func(t *testing.T) {
		c := disconnected()
		atomic.StoreInt32(&c.state, StateOpen)
		c.lastFailure = time.Now()

		err := c.PublishRefresh(context.Background(), NewRefreshRequest(2012, "ops"))
		assert.ErrorIs(t, err, ErrCircuitOpen)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := disconnected().PublishRefresh(ctx, NewRefreshRequest(2012, "ops"))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestNewRefreshRequest(t *testing.T) {
	msg := NewRefreshRequest(2012, "cli")

	assert.Equal(t, 2012, msg.Year)
	assert.Equal(t, "cli", msg.RequestedBy)
	assert.NoError(t, msg.Validate())
	assert.WithinDuration(t, time.Now(), msg.Timestamp, time.Second)
	assert.NotEqual(t, msg.ID, NewRefreshRequest(2012, "cli").ID, "message ids must be unique")
}

func TestRefreshRequest_FromJSON(t *testing.T) {
	body := []byte(`{"id":"3f0c9a4e-8f1b-4c43-9d0e-1b2a3c4d5e6f","year":2014,"requested_by":"10.0.0.7","timestamp":"2024-01-01T12:00:00Z"}`)

	msg, err := RefreshRequestFromJSON(body)
	require.NoError(t, err)
	assert.Equal(t, "3f0c9a4e-8f1b-4c43-9d0e-1b2a3c4d5e6f", msg.ID)
	assert.Equal(t, 2014, msg.Year)
	assert.Equal(t, "10.0.0.7", msg.RequestedBy)
	assert.True(t, msg.Timestamp.Equal(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)))
}

func TestRefreshRequest_Invalid(t *testing.T) {
	tests := map[string]string{
		"not json":   `{"id":`,
		"bad id":     `{"id":"nope","year":2012}`,
		"wrong type": `{"id":"3f0c9a4e-8f1b-4c43-9d0e-1b2a3c4d5e6f","year":"2012"}`,
		"no year":    `{"id":"3f0c9a4e-8f1b-4c43-9d0e-1b2a3c4d5e6f"}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := RefreshRequestFromJSON([]byte(body))
			assert.Error(t, err)
		})
	}
}
