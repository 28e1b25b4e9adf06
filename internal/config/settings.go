package config

import (
	"errors"
	"fmt"
	"image/color"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"geosat/internal/common"
	"geosat/internal/crs"
	"geosat/internal/imagery"
	"geosat/internal/tiles"
)

// EnvPrefix namespaces environment overrides: GEOSAT_MAPBOX_ACCESS_TOKEN → mapbox.access_token
const EnvPrefix = "GEOSAT"

// Settings represents persistent user preferences
type Settings struct {
	// Provider selects the imagery source: "mapbox" or "sentinel"
	Provider string `mapstructure:"provider"`
	// CRS is the drawing coordinate reference system, e.g. "EPSG:32633"
	CRS string `mapstructure:"crs"`

	Sentinel  SentinelSettings  `mapstructure:"sentinel"`
	Mapbox    MapboxSettings    `mapstructure:"mapbox"`
	Output    OutputSettings    `mapstructure:"output"`
	Imaging   ImagingSettings   `mapstructure:"imaging"`
	Cache     CacheSettings     `mapstructure:"cache"`
	Log       LogSettings       `mapstructure:"log"`
	Analytics AnalyticsSettings `mapstructure:"analytics"`
}

type SentinelSettings struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	InstanceID   string `mapstructure:"instance_id"`
	Layer        string `mapstructure:"layer"`
	// Date is YYYY-MM-DD; empty means today
	Date     string `mapstructure:"date"`
	BaseURL  string `mapstructure:"base_url"`
	TokenURL string `mapstructure:"token_url"`
}

type MapboxSettings struct {
	AccessToken string `mapstructure:"access_token"`
	Tileset     string `mapstructure:"tileset"`
	BaseURL     string `mapstructure:"base_url"`
}

type OutputSettings struct {
	Dir     string `mapstructure:"dir"`
	Format  string `mapstructure:"format"`
	Quality int    `mapstructure:"quality"`
	// Footprint writes a GeoJSON sidecar with the covered extent
	Footprint bool `mapstructure:"footprint"`
}

type ImagingSettings struct {
	// TargetResolution is the desired ground size of a pixel in meters
	TargetResolution float64 `mapstructure:"target_resolution"`
	// Zoom forces a zoom level; -1 picks one from TargetResolution
	Zoom    int           `mapstructure:"zoom"`
	Fill    string        `mapstructure:"fill"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type CacheSettings struct {
	// Dir overrides the per-provider OS cache directory
	Dir         string `mapstructure:"dir"`
	MemoryTiles int    `mapstructure:"memory_tiles"`
}

type LogSettings struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type AnalyticsSettings struct {
	Enabled   bool   `mapstructure:"enabled"`
	APIKey    string `mapstructure:"api_key"`
	Endpoint  string `mapstructure:"endpoint"`
	InstallID string `mapstructure:"install_id"`
}

// GetSettingsPath returns the default settings file path
func GetSettingsPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".geosat", "settings.yaml")
}

func setDefaults(v *viper.Viper) {
	homeDir, _ := os.UserHomeDir()

	v.SetDefault("provider", common.ProviderMapbox)
	v.SetDefault("crs", "EPSG:3857")

	v.SetDefault("sentinel.client_id", "")
	v.SetDefault("sentinel.client_secret", "")
	v.SetDefault("sentinel.instance_id", "")
	v.SetDefault("sentinel.layer", imagery.DefaultSentinelLayer)
	v.SetDefault("sentinel.date", "")
	v.SetDefault("sentinel.base_url", imagery.DefaultSentinelBaseURL)
	v.SetDefault("sentinel.token_url", imagery.DefaultSentinelTokenURL)

	v.SetDefault("mapbox.access_token", "")
	v.SetDefault("mapbox.tileset", imagery.DefaultMapboxTileset)
	v.SetDefault("mapbox.base_url", imagery.DefaultMapboxBaseURL)

	v.SetDefault("output.dir", filepath.Join(homeDir, "Pictures", "geosat"))
	v.SetDefault("output.format", string(common.FormatJPEG))
	v.SetDefault("output.quality", 90)
	v.SetDefault("output.footprint", false)

	// Sentinel-2 free tier resolves about 10 m
	v.SetDefault("imaging.target_resolution", 10.0)
	v.SetDefault("imaging.zoom", -1)
	v.SetDefault("imaging.fill", "#000000")
	v.SetDefault("imaging.timeout", imagery.DefaultTimeout)

	v.SetDefault("cache.dir", "")
	v.SetDefault("cache.memory_tiles", 512)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("log.compress", true)

	v.SetDefault("analytics.enabled", false)
	v.SetDefault("analytics.api_key", "")
	v.SetDefault("analytics.endpoint", "https://eu.i.posthog.com")
	v.SetDefault("analytics.install_id", "")
}

// Default returns the built-in settings without reading a file or the environment
func Default() *Settings {
	v := viper.New()
	setDefaults(v)
	var s Settings
	// defaults always decode
	_ = v.Unmarshal(&s)
	return &s
}

// Load reads settings from path (GetSettingsPath when empty) and applies
// GEOSAT_* environment overrides. A missing file yields the defaults.
func Load(path string) (*Settings, error) {
	if path == "" {
		path = GetSettingsPath()
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	return &s, nil
}

// Save writes s to path (GetSettingsPath when empty) as YAML
func Save(path string, s *Settings) error {
	if path == "" {
		path = GetSettingsPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.MergeConfigMap(s.toMap()); err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	return nil
}

func (s *Settings) toMap() map[string]any {
	return map[string]any{
		"provider": s.Provider,
		"crs":      s.CRS,
		"sentinel": map[string]any{
			"client_id":     s.Sentinel.ClientID,
			"client_secret": s.Sentinel.ClientSecret,
			"instance_id":   s.Sentinel.InstanceID,
			"layer":         s.Sentinel.Layer,
			"date":          s.Sentinel.Date,
			"base_url":      s.Sentinel.BaseURL,
			"token_url":     s.Sentinel.TokenURL,
		},
		"mapbox": map[string]any{
			"access_token": s.Mapbox.AccessToken,
			"tileset":      s.Mapbox.Tileset,
			"base_url":     s.Mapbox.BaseURL,
		},
		"output": map[string]any{
			"dir":       s.Output.Dir,
			"format":    s.Output.Format,
			"quality":   s.Output.Quality,
			"footprint": s.Output.Footprint,
		},
		"imaging": map[string]any{
			"target_resolution": s.Imaging.TargetResolution,
			"zoom":              s.Imaging.Zoom,
			"fill":              s.Imaging.Fill,
			"timeout":           s.Imaging.Timeout.String(),
		},
		"cache": map[string]any{
			"dir":          s.Cache.Dir,
			"memory_tiles": s.Cache.MemoryTiles,
		},
		"log": map[string]any{
			"level":        s.Log.Level,
			"format":       s.Log.Format,
			"file":         s.Log.File,
			"max_size_mb":  s.Log.MaxSizeMB,
			"max_backups":  s.Log.MaxBackups,
			"max_age_days": s.Log.MaxAgeDays,
			"compress":     s.Log.Compress,
		},
		"analytics": map[string]any{
			"enabled":    s.Analytics.Enabled,
			"api_key":    s.Analytics.APIKey,
			"endpoint":   s.Analytics.Endpoint,
			"install_id": s.Analytics.InstallID,
		},
	}
}

// Validate checks every section and reports all problems at once.
// Provider credentials are checked separately by SentinelConfig/MapboxConfig.
func (s *Settings) Validate() error {
	var errs []string

	if !common.ValidProvider(s.Provider) {
		errs = append(errs, fmt.Sprintf("provider must be %q or %q, got %q", common.ProviderMapbox, common.ProviderSentinel, s.Provider))
	}
	if _, err := crs.Lookup(s.CRS); err != nil {
		errs = append(errs, fmt.Sprintf("crs: %v", err))
	}
	if _, err := common.ParseOutputFormat(s.Output.Format); err != nil {
		errs = append(errs, fmt.Sprintf("output.format: %v", err))
	}
	if s.Output.Quality < 1 || s.Output.Quality > 100 {
		errs = append(errs, fmt.Sprintf("output.quality must be 1-100, got %d", s.Output.Quality))
	}
	if s.Imaging.TargetResolution <= 0 {
		errs = append(errs, "imaging.target_resolution must be positive")
	}
	if s.Imaging.Zoom < -1 || s.Imaging.Zoom > tiles.MaxZoom {
		errs = append(errs, fmt.Sprintf("imaging.zoom must be -1 (auto) or 0-%d, got %d", tiles.MaxZoom, s.Imaging.Zoom))
	}
	if _, err := ParseColor(s.Imaging.Fill); err != nil {
		errs = append(errs, fmt.Sprintf("imaging.fill: %v", err))
	}
	if s.Imaging.Timeout <= 0 {
		errs = append(errs, "imaging.timeout must be positive")
	}
	if s.Cache.MemoryTiles < 0 {
		errs = append(errs, "cache.memory_tiles must not be negative")
	}
	switch s.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level must be debug, info, warn or error, got %q", s.Log.Level))
	}
	switch s.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("log.format must be text or json, got %q", s.Log.Format))
	}
	if s.Sentinel.Date != "" {
		if _, err := common.ParseISO8601(s.Sentinel.Date); err != nil {
			errs = append(errs, fmt.Sprintf("sentinel.date: %v", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("settings validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// SentinelConfig returns the Sentinel Hub fetcher configuration, or an
// error naming the missing credentials
func (s *Settings) SentinelConfig() (imagery.SentinelConfig, error) {
	cfg := imagery.SentinelConfig{
		ClientID:     s.Sentinel.ClientID,
		ClientSecret: s.Sentinel.ClientSecret,
		InstanceID:   s.Sentinel.InstanceID,
		Layer:        s.Sentinel.Layer,
		Date:         s.Sentinel.Date,
		BaseURL:      s.Sentinel.BaseURL,
		TokenURL:     s.Sentinel.TokenURL,
	}
	return cfg, cfg.Validate()
}

// MapboxConfig returns the Mapbox fetcher configuration, or an error when
// the access token is missing
func (s *Settings) MapboxConfig() (imagery.MapboxConfig, error) {
	cfg := imagery.MapboxConfig{
		AccessToken: s.Mapbox.AccessToken,
		Tileset:     s.Mapbox.Tileset,
		BaseURL:     s.Mapbox.BaseURL,
	}
	return cfg, cfg.Validate()
}

// FillColor returns the parsed imaging.fill color
func (s *Settings) FillColor() (color.RGBA, error) {
	return ParseColor(s.Imaging.Fill)
}

// ParseColor parses "#rrggbb" or "#rrggbbaa"
func ParseColor(hex string) (color.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	c := color.RGBA{A: 0xff}
	var err error
	switch len(h) {
	case 6:
		_, err = fmt.Sscanf(h, "%02x%02x%02x", &c.R, &c.G, &c.B)
	case 8:
		_, err = fmt.Sscanf(h, "%02x%02x%02x%02x", &c.R, &c.G, &c.B, &c.A)
	default:
		return color.RGBA{}, fmt.Errorf("invalid color %q (expected #rrggbb or #rrggbbaa)", hex)
	}
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	return c, nil
}

// secretKeys are masked by Flatten
var secretKeys = map[string]bool{
	"sentinel.client_secret": true,
	"mapbox.access_token":    true,
	"analytics.api_key":      true,
}

// Flatten returns every setting under its dotted key. Secrets are masked
// unless showSecrets is set.
func (s *Settings) Flatten(showSecrets bool) map[string]any {
	v := viper.New()
	// toMap only holds plain values
	_ = v.MergeConfigMap(s.toMap())

	out := make(map[string]any, len(v.AllKeys()))
	for _, k := range v.AllKeys() {
		val := v.Get(k)
		if secretKeys[k] && !showSecrets {
			if str, ok := val.(string); ok && str != "" {
				val = mask(str)
			}
		}
		out[k] = val
	}
	return out
}

func mask(secret string) string {
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:4] + strings.Repeat("*", 8)
}
