package imagery

import (
	"net/http"
	"time"
)

const (
	// UserAgent identifies tile requests
	UserAgent = "geosat/1.0 (+https://github.com/geosat)"

	// DefaultTimeout bounds a single tile or token request
	DefaultTimeout = 30 * time.Second
)

// NewHTTPClient creates an HTTP client with system proxy support
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	// Use http.ProxyFromEnvironment to respect system proxy settings
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConnsPerHost: MaxConcurrent,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
