package imagery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"geosat/internal/cache"
	"geosat/internal/common"
	"geosat/internal/ratelimit"
	"geosat/internal/tiles"
)

// TileFetcher retrieves single tiles from one imagery provider
type TileFetcher interface {
	Provider() string
	FetchTile(ctx context.Context, key tiles.Key) ([]byte, error)
}

// Options carries the collaborators shared by all providers
type Options struct {
	Cache      cache.TileCache
	HTTPClient *http.Client
	RateLimit  *ratelimit.Handler
}

func (o Options) withDefaults() Options {
	if o.HTTPClient == nil {
		o.HTTPClient = NewHTTPClient(DefaultTimeout)
	}
	if o.RateLimit == nil {
		o.RateLimit = ratelimit.NewHandler()
	}
	return o
}

// cachedFetcher implements the cache-first request flow used by every provider
type cachedFetcher struct {
	provider string
	opts     Options
}

type requestFunc func(ctx context.Context, key tiles.Key) (*http.Request, error)

func (c *cachedFetcher) Provider() string {
	return c.provider
}

func (c *cachedFetcher) fetch(ctx context.Context, key tiles.Key, build requestFunc) ([]byte, error) {
	if !key.Valid() {
		return nil, fmt.Errorf("invalid tile key z=%d x=%d y=%d", key.Zoom, key.X, key.Y)
	}

	if c.opts.Cache != nil {
		data, ok, err := c.opts.Cache.TryGet(key.Zoom, key.X, key.Y)
		if err != nil {
			return nil, err
		}
		if ok {
			slog.Debug("cache hit", "component", "imagery", "provider", c.provider, "z", key.Zoom, "x", key.X, "y", key.Y)
			return data, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrCancelled, err)
	}

	req, err := build(ctx, key)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrCancelled, ctx.Err())
		}
		return nil, c.fetchError(key, 0, "", err)
	}
	defer resp.Body.Close()

	if event := c.opts.RateLimit.CheckResponse(c.provider, resp); event != nil {
		io.Copy(io.Discard, resp.Body)
		return nil, c.fetchError(key, resp.StatusCode, event.RetryAfter.String(), nil)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		var cause error
		if len(body) > 0 {
			cause = errors.New(string(body))
		}
		return nil, c.fetchError(key, resp.StatusCode, "", cause)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.fetchError(key, resp.StatusCode, "", fmt.Errorf("failed to read tile body: %w", err))
	}
	if len(data) == 0 {
		return nil, c.fetchError(key, resp.StatusCode, "", errors.New("empty tile body"))
	}

	if c.opts.Cache != nil {
		if err := c.opts.Cache.Put(key.Zoom, key.X, key.Y, data); err != nil {
			return nil, err
		}
	}

	return data, nil
}

func (c *cachedFetcher) fetchError(key tiles.Key, status int, retryAfter string, err error) error {
	return &common.FetchError{
		Provider:   c.provider,
		Zoom:       key.Zoom,
		X:          key.X,
		Y:          key.Y,
		Status:     status,
		RetryAfter: retryAfter,
		Err:        err,
	}
}

// New builds the fetcher for provider from its configuration
func New(provider string, sentinel SentinelConfig, mapbox MapboxConfig, opts Options) (TileFetcher, error) {
	switch provider {
	case common.ProviderSentinel:
		return NewSentinel(sentinel, opts)
	case common.ProviderMapbox:
		return NewMapbox(mapbox, opts)
	default:
		return nil, fmt.Errorf("unknown imagery provider %q", provider)
	}
}
