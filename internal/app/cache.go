package app

import (
	"github.com/dustin/go-humanize"

	"geosat/internal/analytics"
	"geosat/internal/common"
	"geosat/internal/ratelimit"
)

// CacheStats summarizes one provider's tile cache
type CacheStats struct {
	Provider  string      `json:"provider"`
	CachePath string      `json:"cachePath"`
	Tiles     int         `json:"tiles"`
	SizeBytes int64       `json:"sizeBytes"`
	Size      string      `json:"size"`
	Zooms     map[int]int `json:"zooms"`
	MemTiles  int         `json:"memoryTiles"`
}

// GetCacheStats returns statistics of provider's disk cache
func (a *App) GetCacheStats(provider string) (CacheStats, error) {
	c, err := a.TileCache(provider)
	if err != nil {
		return CacheStats{}, err
	}
	stats, err := c.Disk().Stats()
	if err != nil {
		return CacheStats{}, err
	}
	return CacheStats{
		Provider:  provider,
		CachePath: c.Disk().Root(),
		Tiles:     stats.Tiles,
		SizeBytes: stats.Bytes,
		Size:      humanize.Bytes(uint64(stats.Bytes)),
		Zooms:     stats.Zooms,
		MemTiles:  c.MemoryLen(),
	}, nil
}

// ClearCache removes every cached tile of provider
func (a *App) ClearCache(provider string) error {
	c, err := a.TileCache(provider)
	if err != nil {
		return err
	}
	if err := c.Clear(); err != nil {
		return err
	}
	a.tracker.Track(analytics.EventCacheCleared, map[string]interface{}{"provider": provider})
	return nil
}

// Providers lists the known imagery providers
func Providers() []string {
	return []string{common.ProviderMapbox, common.ProviderSentinel}
}

// GetRateLimitStatus returns the current throttling state for a provider, or nil
func (a *App) GetRateLimitStatus(provider string) *ratelimit.Event {
	return a.rateLimitHandler.State(provider)
}

// IsRateLimited checks if a provider is currently rate limited
func (a *App) IsRateLimited(provider string) bool {
	return a.rateLimitHandler.IsRateLimited(provider)
}
