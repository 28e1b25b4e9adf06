package common

// Provider name constants for consistent naming across the application
const (
	// ProviderSentinel is the cache and config identifier for Sentinel Hub WMTS imagery
	ProviderSentinel = "sentinel"

	// ProviderMapbox is the cache and config identifier for Mapbox raster imagery
	ProviderMapbox = "mapbox"

	// DisplayNameSentinel is the human-readable name shown in CLI output
	DisplayNameSentinel = "Sentinel Hub"

	// DisplayNameMapbox is the human-readable name shown in CLI output
	DisplayNameMapbox = "Mapbox Satellite"
)

// ProviderDisplayName maps a provider identifier to its display name
func ProviderDisplayName(provider string) string {
	switch provider {
	case ProviderSentinel:
		return DisplayNameSentinel
	case ProviderMapbox:
		return DisplayNameMapbox
	default:
		return provider
	}
}

// ValidProvider reports whether provider is a known identifier
func ValidProvider(provider string) bool {
	return provider == ProviderSentinel || provider == ProviderMapbox
}
