package imagery

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geosat/internal/cache"
	"geosat/internal/common"
	"geosat/internal/ratelimit"
	"geosat/internal/tiles"
)

func TestMapboxTileURL(t *testing.T) {
	m, err := NewMapbox(MapboxConfig{AccessToken: "pk.abc"}, Options{})
	require.NoError(t, err)

	assert.Equal(t, "https://api.mapbox.com/v4/mapbox.satellite/12/2200/1343.jpg90?access_token=pk.abc",
		m.TileURL(tiles.Key{Zoom: 12, X: 2200, Y: 1343}))
	assert.Equal(t, common.ProviderMapbox, m.Provider())
}

func TestMapboxRequiresToken(t *testing.T) {
	_, err := NewMapbox(MapboxConfig{}, Options{})
	assert.ErrorContains(t, err, "access token")
}

func TestMapboxFetchUsesCache(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/v4/custom.tiles/3/4/5.jpg90", r.URL.Path)
		assert.Equal(t, "tok", r.URL.Query().Get("access_token"))
		assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpeg-bytes"))
	}))
	defer srv.Close()

	disk, err := cache.NewDisk(t.TempDir())
	require.NoError(t, err)

	m, err := NewMapbox(MapboxConfig{AccessToken: "tok", Tileset: "custom.tiles", BaseURL: srv.URL + "/"},
		Options{Cache: disk, HTTPClient: srv.Client()})
	require.NoError(t, err)

	key := tiles.Key{Zoom: 3, X: 4, Y: 5}
	data, err := m.FetchTile(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))

	cached, ok, err := disk.TryGet(3, 4, 5)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "jpeg-bytes", string(cached))

	data, err = m.FetchTile(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))
	assert.Equal(t, int64(1), hits.Load(), "second fetch is served from cache")
}

func TestMapboxFetchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	}))
	defer srv.Close()

	disk, err := cache.NewDisk(t.TempDir())
	require.NoError(t, err)
	m, err := NewMapbox(MapboxConfig{AccessToken: "tok", BaseURL: srv.URL}, Options{Cache: disk, HTTPClient: srv.Client()})
	require.NoError(t, err)

	_, err = m.FetchTile(context.Background(), tiles.Key{Zoom: 1, X: 0, Y: 0})
	var ferr *common.FetchError
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, http.StatusNotFound, ferr.Status)
	assert.Equal(t, common.ProviderMapbox, ferr.Provider)

	_, ok, _ := disk.TryGet(1, 0, 0)
	assert.False(t, ok, "failed responses are not cached")
}

func TestMapboxThrottled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "42")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	limiter := ratelimit.NewHandler()
	m, err := NewMapbox(MapboxConfig{AccessToken: "tok", BaseURL: srv.URL}, Options{HTTPClient: srv.Client(), RateLimit: limiter})
	require.NoError(t, err)

	_, err = m.FetchTile(context.Background(), tiles.Key{Zoom: 2, X: 1, Y: 1})
	var ferr *common.FetchError
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, http.StatusTooManyRequests, ferr.Status)
	assert.Equal(t, "42s", ferr.RetryAfter)
	assert.True(t, limiter.IsRateLimited(common.ProviderMapbox))
}

func TestMapboxForbiddenIsNotThrottling(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	limiter := ratelimit.NewHandler()
	m, err := NewMapbox(MapboxConfig{AccessToken: "tok", BaseURL: srv.URL}, Options{HTTPClient: srv.Client(), RateLimit: limiter})
	require.NoError(t, err)

	_, err = m.FetchTile(context.Background(), tiles.Key{Zoom: 2, X: 1, Y: 1})
	var ferr *common.FetchError
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, http.StatusForbidden, ferr.Status)
	assert.Empty(t, ferr.RetryAfter)
	assert.False(t, limiter.IsRateLimited(common.ProviderMapbox))
}

func TestMapboxRejectsInvalidKey(t *testing.T) {
	m, err := NewMapbox(MapboxConfig{AccessToken: "tok"}, Options{})
	require.NoError(t, err)
	_, err = m.FetchTile(context.Background(), tiles.Key{Zoom: 2, X: 4, Y: 0})
	assert.Error(t, err)
}

func TestNewSelectsProvider(t *testing.T) {
	f, err := New(common.ProviderMapbox, SentinelConfig{}, MapboxConfig{AccessToken: "x"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, common.ProviderMapbox, f.Provider())

	_, err = New(common.ProviderSentinel, SentinelConfig{}, MapboxConfig{}, Options{})
	assert.ErrorContains(t, err, "client id")

	_, err = New("bing", SentinelConfig{}, MapboxConfig{}, Options{})
	assert.Error(t, err)
}
