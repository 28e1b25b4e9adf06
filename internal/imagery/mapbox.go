package imagery

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"geosat/internal/common"
	"geosat/internal/tiles"
)

const (
	DefaultMapboxBaseURL = "https://api.mapbox.com"
	DefaultMapboxTileset = "mapbox.satellite"
)

// MapboxConfig holds the static access token and tileset
type MapboxConfig struct {
	AccessToken string
	Tileset     string
	BaseURL     string
}

// Validate reports a missing access token
func (c MapboxConfig) Validate() error {
	if c.AccessToken == "" {
		return fmt.Errorf("mapbox configuration is missing access token")
	}
	return nil
}

// Mapbox fetches raster tiles from the Mapbox v4 API
type Mapbox struct {
	cachedFetcher
	cfg MapboxConfig
}

// NewMapbox creates a Mapbox fetcher
func NewMapbox(cfg MapboxConfig, opts Options) (*Mapbox, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Tileset == "" {
		cfg.Tileset = DefaultMapboxTileset
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultMapboxBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Mapbox{
		cachedFetcher: cachedFetcher{provider: common.ProviderMapbox, opts: opts.withDefaults()},
		cfg:           cfg,
	}, nil
}

// TileURL builds the raster request URL for key
func (m *Mapbox) TileURL(key tiles.Key) string {
	return fmt.Sprintf("%s/v4/%s/%d/%d/%d.jpg90?access_token=%s",
		m.cfg.BaseURL, m.cfg.Tileset, key.Zoom, key.X, key.Y, url.QueryEscape(m.cfg.AccessToken))
}

// FetchTile returns the tile from cache or Mapbox
func (m *Mapbox) FetchTile(ctx context.Context, key tiles.Key) ([]byte, error) {
	return m.fetch(ctx, key, func(ctx context.Context, key tiles.Key) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.TileURL(key), nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		return req, nil
	})
}
