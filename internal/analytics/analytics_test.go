package analytics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDisabledIsNop(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"disabled", Config{Enabled: false, APIKey: "phc_key"}},
		{"no key", Config{Enabled: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New(tt.cfg)
			assert.IsType(t, Nop{}, tr)
			tr.Track(EventFetchStarted, nil)
			assert.NoError(t, tr.Close())
		})
	}
}

func TestEnsureInstallID(t *testing.T) {
	existing := uuid.NewString()
	id, created := EnsureInstallID(existing)
	assert.Equal(t, existing, id)
	assert.False(t, created)

	id, created = EnsureInstallID("")
	assert.True(t, created)
	_, err := uuid.Parse(id)
	assert.NoError(t, err)

	id, created = EnsureInstallID("backend_user")
	assert.True(t, created)
	assert.NotEqual(t, "backend_user", id)
}

func TestPostHogFlushesOnClose(t *testing.T) {
	var batches atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "batch") {
			batches.Add(1)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":1}`))
	}))
	defer srv.Close()

	tr := New(Config{Enabled: true, APIKey: "phc_test", Endpoint: srv.URL})
	require.IsType(t, &PostHog{}, tr)

	tr.Track(EventFetchCompleted, map[string]interface{}{"tiles": 25})
	require.NoError(t, tr.Close())

	assert.GreaterOrEqual(t, batches.Load(), int32(1))
}
