package imagery

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"geosat/internal/common"
	"geosat/internal/tiles"
	"geosat/internal/wmts"
)

const (
	DefaultSentinelBaseURL  = "https://sh.dataspace.copernicus.eu/ogc/wmts"
	DefaultSentinelTokenURL = "https://identity.dataspace.copernicus.eu/auth/realms/CDSE/protocol/openid-connect/token"
	DefaultSentinelLayer    = "TRUE_COLOR"

	// TileMatrixSet is the 256 px Web Mercator matrix set of Sentinel Hub
	TileMatrixSet = "PopularWebMercator256"

	// TokenRefreshMargin renews the bearer token this long before it expires
	TokenRefreshMargin = 60 * time.Second
)

// SentinelConfig holds Sentinel Hub credentials and request parameters
type SentinelConfig struct {
	ClientID     string
	ClientSecret string
	InstanceID   string
	Layer        string
	// Date selects the imagery day (YYYY-MM-DD); empty means today (UTC)
	Date     string
	BaseURL  string
	TokenURL string
}

// Validate reports missing credentials
func (c SentinelConfig) Validate() error {
	var missing []string
	if c.ClientID == "" {
		missing = append(missing, "client id")
	}
	if c.ClientSecret == "" {
		missing = append(missing, "client secret")
	}
	if c.InstanceID == "" {
		missing = append(missing, "instance id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("sentinel hub configuration is missing %s", strings.Join(missing, ", "))
	}
	if c.Date != "" && !validDate(c.Date) {
		return fmt.Errorf("invalid sentinel date %q (expected %s)", c.Date, common.ISO8601Date)
	}
	return nil
}

func validDate(s string) bool {
	_, err := common.ParseISO8601(s)
	return err == nil
}

// Sentinel fetches tiles from a Sentinel Hub WMTS instance
type Sentinel struct {
	cachedFetcher
	cfg         SentinelConfig
	credentials *clientcredentials.Config

	mu    sync.Mutex
	token *oauth2.Token
}

// NewSentinel creates a Sentinel Hub fetcher. The bearer token is requested
// lazily on the first cache miss and reused until TokenRefreshMargin before expiry.
func NewSentinel(cfg SentinelConfig, opts Options) (*Sentinel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Layer == "" {
		cfg.Layer = DefaultSentinelLayer
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultSentinelBaseURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultSentinelTokenURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	opts = opts.withDefaults()

	credentials := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	return &Sentinel{
		cachedFetcher: cachedFetcher{provider: common.ProviderSentinel, opts: opts},
		cfg:           cfg,
		credentials:   credentials,
	}, nil
}

type tokenSourceFunc func() (*oauth2.Token, error)

func (f tokenSourceFunc) Token() (*oauth2.Token, error) { return f() }

// Config returns the effective configuration with defaults applied
func (s *Sentinel) Config() SentinelConfig {
	return s.cfg
}

func (s *Sentinel) day() string {
	if s.cfg.Date != "" {
		return s.cfg.Date
	}
	return common.CurrentDateISO8601()
}

// TileURL builds the WMTS GetTile KVP request for key
func (s *Sentinel) TileURL(key tiles.Key) string {
	return fmt.Sprintf("%s/%s?SERVICE=WMTS&REQUEST=GetTile&VERSION=1.0.0&LAYER=%s&STYLE=default&FORMAT=image/jpeg"+
		"&TILEMATRIXSET=%s&TILEMATRIX=%d&TILEROW=%d&TILECOL=%d&TIME=%s",
		s.cfg.BaseURL, url.PathEscape(s.cfg.InstanceID), url.QueryEscape(s.cfg.Layer),
		TileMatrixSet, key.Zoom, key.Y, key.X, common.SameDayWindow(s.day()))
}

// authorization returns the bearer header value. A token request, when one
// is needed, runs on ctx so cancelling the run aborts it.
func (s *Sentinel) authorization(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw := tokenSourceFunc(func() (*oauth2.Token, error) {
		slog.Debug("requesting sentinel hub token", "component", "imagery", "tokenURL", s.cfg.TokenURL)
		return s.credentials.Token(context.WithValue(ctx, oauth2.HTTPClient, s.opts.HTTPClient))
	})
	tok, err := oauth2.ReuseTokenSourceWithExpiry(s.token, raw, TokenRefreshMargin).Token()
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %w", common.ErrCancelled, ctx.Err())
		}
		return "", &common.AuthError{Provider: common.DisplayNameSentinel, Err: err}
	}
	s.token = tok
	return "Bearer " + tok.AccessToken, nil
}

// FetchTile returns the tile from cache or Sentinel Hub
func (s *Sentinel) FetchTile(ctx context.Context, key tiles.Key) ([]byte, error) {
	return s.fetch(ctx, key, func(ctx context.Context, key tiles.Key) (*http.Request, error) {
		auth, err := s.authorization(ctx)
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.TileURL(key), nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", auth)
		return req, nil
	})
}

// Layers lists the layers configured on the instance
func (s *Sentinel) Layers(ctx context.Context) ([]wmts.LayerInfo, error) {
	auth, err := s.authorization(ctx)
	if err != nil {
		return nil, err
	}
	capsURL, err := wmts.CapabilitiesURL(s.cfg.BaseURL + "/" + url.PathEscape(s.cfg.InstanceID))
	if err != nil {
		return nil, err
	}
	caps, err := wmts.FetchCapabilities(ctx, s.opts.HTTPClient, capsURL, auth)
	if err != nil {
		return nil, err
	}
	return wmts.GetLayers(caps), nil
}
