package ratelimit

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"geosat/internal/common"
)

// DefaultCooldown is suggested to the host when a provider sends no Retry-After
const DefaultCooldown = 5 * time.Minute

// Event describes one throttling response from a provider
type Event struct {
	Timestamp  time.Time     `json:"timestamp"`
	Provider   string        `json:"provider"`
	StatusCode int           `json:"statusCode"`
	Count      int           `json:"count"` // consecutive throttled responses
	RetryAfter time.Duration `json:"retryAfter"`
	Message    string        `json:"message"`
}

// Handler records throttling per provider. It never retries on its own;
// the suggested cooldown is surfaced so the host can decide.
type Handler struct {
	mu          sync.RWMutex
	limited     map[string]*Event
	onRateLimit func(Event)
	onRecovered func(provider string)
	now         func() time.Time
}

// NewHandler creates an empty handler
func NewHandler() *Handler {
	return &Handler{
		limited: make(map[string]*Event),
		now:     time.Now,
	}
}

// SetOnRateLimit sets the callback for throttling events
func (h *Handler) SetOnRateLimit(callback func(Event)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onRateLimit = callback
}

// SetOnRecovered sets the callback invoked when a provider answers normally again
func (h *Handler) SetOnRecovered(callback func(provider string)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onRecovered = callback
}

// IsThrottleStatus reports whether status signals rate limiting. 403 is left
// out: Sentinel Hub and Mapbox use it for rejected credentials or scopes.
func IsThrottleStatus(status int) bool {
	return status == http.StatusTooManyRequests || // 429
		status == 509 // Bandwidth Limit Exceeded
}

// CheckResponse inspects resp and returns the recorded event when it is a
// throttling response, or nil otherwise
func (h *Handler) CheckResponse(provider string, resp *http.Response) *Event {
	if !IsThrottleStatus(resp.StatusCode) {
		h.checkRecovery(provider)
		return nil
	}
	return h.record(provider, resp.StatusCode, parseRetryAfter(resp.Header.Get("Retry-After"), h.now()))
}

// IsRateLimited reports whether the last response from provider was throttled
func (h *Handler) IsRateLimited(provider string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, limited := h.limited[provider]
	return limited
}

// State returns a copy of the current event for provider, or nil
func (h *Handler) State(provider string) *Event {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if e, ok := h.limited[provider]; ok {
		c := *e
		return &c
	}
	return nil
}

func (h *Handler) record(provider string, status int, retryAfter time.Duration) *Event {
	h.mu.Lock()
	count := 1
	if prev, ok := h.limited[provider]; ok {
		count = prev.Count + 1
	}
	if retryAfter <= 0 {
		retryAfter = DefaultCooldown
	}
	e := &Event{
		Timestamp:  h.now(),
		Provider:   provider,
		StatusCode: status,
		Count:      count,
		RetryAfter: retryAfter,
	}
	e.Message = buildMessage(*e)
	h.limited[provider] = e
	cb := h.onRateLimit
	h.mu.Unlock()

	slog.Warn("provider throttled", "component", "ratelimit", "provider", provider,
		"status", status, "count", count, "retryAfter", retryAfter)

	if cb != nil {
		cb(*e)
	}
	c := *e
	return &c
}

func (h *Handler) checkRecovery(provider string) {
	h.mu.Lock()
	_, was := h.limited[provider]
	delete(h.limited, provider)
	cb := h.onRecovered
	h.mu.Unlock()

	if was {
		slog.Info("provider throttling cleared", "component", "ratelimit", "provider", provider)
		if cb != nil {
			cb(provider)
		}
	}
}

// parseRetryAfter accepts both delay-seconds and HTTP-date forms
func parseRetryAfter(v string, now time.Time) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

func buildMessage(e Event) string {
	return fmt.Sprintf("%s rate limit detected (HTTP %d). Wait about %s before requesting more tiles.",
		common.ProviderDisplayName(e.Provider), e.StatusCode, e.RetryAfter.Round(time.Second))
}
