// Package app wires settings, caches, providers and the pipeline together
// for the command line.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"geosat/internal/analytics"
	"geosat/internal/cache"
	"geosat/internal/common"
	"geosat/internal/config"
	"geosat/internal/crs"
	"geosat/internal/imagery"
	"geosat/internal/pipeline"
	"geosat/internal/ratelimit"
	"geosat/internal/wmts"
)

// App holds the long-lived collaborators of one process
type App struct {
	settings     *config.Settings
	settingsPath string
	mu           sync.Mutex

	tracker          analytics.Tracker
	rateLimitHandler *ratelimit.Handler
	caches           map[string]*cache.Layered
}

// New builds an App from loaded settings. settingsPath is where changes are saved.
func New(settings *config.Settings, settingsPath string) *App {
	a := &App{
		settings:         settings,
		settingsPath:     settingsPath,
		rateLimitHandler: ratelimit.NewHandler(),
		caches:           make(map[string]*cache.Layered),
	}

	a.rateLimitHandler.SetOnRateLimit(func(e ratelimit.Event) {
		slog.Warn(e.Message, "component", "app", "provider", e.Provider, "retryAfter", e.RetryAfter)
	})

	a.tracker = analytics.New(analytics.Config{
		Enabled:   settings.Analytics.Enabled,
		APIKey:    settings.Analytics.APIKey,
		Endpoint:  settings.Analytics.Endpoint,
		InstallID: settings.Analytics.InstallID,
	})
	return a
}

// Close flushes analytics
func (a *App) Close() error {
	return a.tracker.Close()
}

// Tracker returns the analytics tracker
func (a *App) Tracker() analytics.Tracker {
	return a.tracker
}

// cacheRoot is the tile cache directory for provider
func (a *App) cacheRoot(provider string) string {
	if a.settings.Cache.Dir != "" {
		return filepath.Join(a.settings.Cache.Dir, provider)
	}
	return cache.GetCacheDir(provider)
}

// TileCache opens (once) the layered cache of provider
func (a *App) TileCache(provider string) (*cache.Layered, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if c, ok := a.caches[provider]; ok {
		return c, nil
	}
	c, err := cache.Open(a.cacheRoot(provider), provider, a.settings.Cache.MemoryTiles)
	if err != nil {
		return nil, fmt.Errorf("failed to open tile cache: %w", err)
	}
	a.caches[provider] = c
	return c, nil
}

// Fetcher builds the tile fetcher of the configured (or given) provider
func (a *App) Fetcher(provider string) (imagery.TileFetcher, error) {
	if provider == "" {
		provider = a.settings.Provider
	}
	if !common.ValidProvider(provider) {
		return nil, fmt.Errorf("unknown imagery provider %q", provider)
	}

	tileCache, err := a.TileCache(provider)
	if err != nil {
		return nil, err
	}
	opts := imagery.Options{
		Cache:      tileCache,
		HTTPClient: imagery.NewHTTPClient(a.settings.Imaging.Timeout),
		RateLimit:  a.rateLimitHandler,
	}

	switch provider {
	case common.ProviderSentinel:
		cfg, err := a.settings.SentinelConfig()
		if err != nil {
			return nil, err
		}
		return imagery.NewSentinel(cfg, opts)
	default:
		cfg, err := a.settings.MapboxConfig()
		if err != nil {
			return nil, err
		}
		return imagery.NewMapbox(cfg, opts)
	}
}

// Transformer builds the transformer for code, or the persisted drawing CRS when empty
func (a *App) Transformer(code string) (*crs.Transformer, error) {
	if code == "" {
		code = a.settings.CRS
	}
	entry, err := crs.Lookup(code)
	if err != nil {
		return nil, err
	}
	return crs.NewTransformer(entry)
}

// FetchOptions selects per-run overrides; zero values fall back to settings
type FetchOptions struct {
	CRS       string
	Provider  string
	OutputDir string
	Format    string
	// Zoom overrides imaging.zoom when set; pipeline.AutoZoom forces automatic selection
	Zoom      *int
	Footprint bool
}

// Engine builds a pipeline engine for opts
func (a *App) Engine(opts FetchOptions) (*pipeline.Engine, error) {
	tr, err := a.Transformer(opts.CRS)
	if err != nil {
		return nil, err
	}
	fetcher, err := a.Fetcher(opts.Provider)
	if err != nil {
		return nil, err
	}
	fill, err := a.settings.FillColor()
	if err != nil {
		return nil, err
	}
	return pipeline.NewEngine(pipeline.Config{
		Transformer:      tr,
		Fetcher:          fetcher,
		TargetResolution: a.settings.Imaging.TargetResolution,
		Fill:             fill,
		Tracker:          a.tracker,
	})
}

// Request turns two corners and opts into a pipeline request
func (a *App) Request(x1, y1, x2, y2 float64, opts FetchOptions) (pipeline.Request, error) {
	format := opts.Format
	if format == "" {
		format = a.settings.Output.Format
	}
	outFormat, err := common.ParseOutputFormat(format)
	if err != nil {
		return pipeline.Request{}, err
	}
	dir := opts.OutputDir
	if dir == "" {
		dir = a.settings.Output.Dir
	}
	zoom := a.settings.Imaging.Zoom
	if opts.Zoom != nil {
		zoom = *opts.Zoom
	}
	return pipeline.Request{
		X1: x1, Y1: y1, X2: x2, Y2: y2,
		OutputDir: dir,
		Format:    outFormat,
		Quality:   a.settings.Output.Quality,
		Zoom:      zoom,
		Footprint: opts.Footprint || a.settings.Output.Footprint,
	}, nil
}

// Fetch runs one acquisition with the given hooks
func (a *App) Fetch(ctx context.Context, x1, y1, x2, y2 float64, opts FetchOptions, onState func(pipeline.State), onProgress imagery.ProgressFunc) (pipeline.PlacementResult, error) {
	engine, err := a.Engine(opts)
	if err != nil {
		return pipeline.PlacementResult{}, err
	}
	req, err := a.Request(x1, y1, x2, y2, opts)
	if err != nil {
		return pipeline.PlacementResult{}, err
	}
	engine.OnState = onState
	engine.OnProgress = onProgress
	return engine.Run(ctx, req)
}

// Layers lists the Sentinel Hub layers of the configured instance
func (a *App) Layers(ctx context.Context) ([]wmts.LayerInfo, error) {
	cfg, err := a.settings.SentinelConfig()
	if err != nil {
		return nil, err
	}
	s, err := imagery.NewSentinel(cfg, imagery.Options{
		HTTPClient: imagery.NewHTTPClient(a.settings.Imaging.Timeout),
		RateLimit:  a.rateLimitHandler,
	})
	if err != nil {
		return nil, err
	}
	return s.Layers(ctx)
}
