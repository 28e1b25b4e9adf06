package ratelimit

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func response(status int, retryAfter string) *http.Response {
	resp := &http.Response{StatusCode: status, Header: http.Header{}}
	if retryAfter != "" {
		resp.Header.Set("Retry-After", retryAfter)
	}
	return resp
}

func TestCheckResponse(t *testing.T) {
	h := NewHandler()

	var events []Event
	var recovered []string
	h.SetOnRateLimit(func(e Event) { events = append(events, e) })
	h.SetOnRecovered(func(p string) { recovered = append(recovered, p) })

	assert.Nil(t, h.CheckResponse("mapbox", response(http.StatusOK, "")))
	assert.False(t, h.IsRateLimited("mapbox"))

	e := h.CheckResponse("mapbox", response(http.StatusTooManyRequests, "30"))
	require.NotNil(t, e)
	assert.Equal(t, 30*time.Second, e.RetryAfter)
	assert.Equal(t, 1, e.Count)
	assert.Contains(t, e.Message, "HTTP 429")
	assert.True(t, h.IsRateLimited("mapbox"))
	assert.False(t, h.IsRateLimited("sentinel"))

	e = h.CheckResponse("mapbox", response(509, ""))
	require.NotNil(t, e)
	assert.Equal(t, 2, e.Count)
	assert.Equal(t, DefaultCooldown, e.RetryAfter)

	assert.Nil(t, h.CheckResponse("mapbox", response(http.StatusOK, "")))
	assert.False(t, h.IsRateLimited("mapbox"))
	assert.Nil(t, h.State("mapbox"))

	assert.Len(t, events, 2)
	assert.Equal(t, []string{"mapbox"}, recovered)
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 120*time.Second, parseRetryAfter("120", now))
	assert.Equal(t, 90*time.Second, parseRetryAfter(now.Add(90*time.Second).Format(http.TimeFormat), now))
	assert.Equal(t, time.Duration(0), parseRetryAfter("soon", now))
	assert.Equal(t, time.Duration(0), parseRetryAfter("", now))
}

func TestIsThrottleStatus(t *testing.T) {
	assert.True(t, IsThrottleStatus(429))
	assert.False(t, IsThrottleStatus(403))
	assert.False(t, IsThrottleStatus(401))
	assert.True(t, IsThrottleStatus(509))
	assert.False(t, IsThrottleStatus(404))
	assert.False(t, IsThrottleStatus(500))
}
