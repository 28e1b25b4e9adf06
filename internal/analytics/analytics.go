// Package analytics sends opt-in usage events to PostHog.
package analytics

import (
	"log/slog"
	"runtime"

	"github.com/google/uuid"
	"github.com/posthog/posthog-go"
)

// Event names
const (
	EventFetchStarted   = "fetch_started"
	EventFetchCompleted = "fetch_completed"
	EventFetchFailed    = "fetch_failed"
	EventCacheCleared   = "cache_cleared"
)

// Tracker records usage events
type Tracker interface {
	Track(event string, props map[string]interface{})
	Close() error
}

// Config mirrors the analytics settings section
type Config struct {
	Enabled   bool
	APIKey    string
	Endpoint  string
	InstallID string
}

// Nop discards every event
type Nop struct{}

func (Nop) Track(string, map[string]interface{}) {}
func (Nop) Close() error                         { return nil }

// PostHog enqueues events on a posthog client under a per-install distinct id
type PostHog struct {
	client     posthog.Client
	distinctID string
}

// New returns a PostHog tracker when analytics are enabled and keyed, Nop otherwise
func New(cfg Config) Tracker {
	if !cfg.Enabled || cfg.APIKey == "" {
		return Nop{}
	}
	client, err := posthog.NewWithConfig(cfg.APIKey, posthog.Config{
		Endpoint: cfg.Endpoint,
	})
	if err != nil {
		slog.Warn("failed to initialize PostHog", "component", "analytics", "error", err)
		return Nop{}
	}
	id, _ := EnsureInstallID(cfg.InstallID)
	return &PostHog{client: client, distinctID: id}
}

// EnsureInstallID returns id, or a fresh UUID and true when id is empty or malformed
func EnsureInstallID(id string) (string, bool) {
	if _, err := uuid.Parse(id); err == nil {
		return id, false
	}
	return uuid.NewString(), true
}

func (p *PostHog) Track(event string, props map[string]interface{}) {
	if props == nil {
		props = map[string]interface{}{}
	}
	props["os"] = runtime.GOOS
	props["arch"] = runtime.GOARCH
	if err := p.client.Enqueue(posthog.Capture{
		DistinctId: p.distinctID,
		Event:      event,
		Properties: props,
	}); err != nil {
		slog.Debug("failed to enqueue analytics event", "component", "analytics", "event", event, "error", err)
	}
}

// Close flushes queued events
func (p *PostHog) Close() error {
	return p.client.Close()
}
