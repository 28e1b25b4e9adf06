package cache

import (
	"os"
	"path/filepath"
	goruntime "runtime"
)

// GetCacheDir returns the OS-specific tile cache directory for a provider.
// Each provider gets its own {z}/{x}/{y} tree so imagery never mixes.
func GetCacheDir(provider string) string {
	homeDir, _ := os.UserHomeDir()

	var base string
	switch goruntime.GOOS {
	case "darwin": // macOS
		base = filepath.Join(homeDir, "Library", "Caches", "geosat", "tiles")
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			localAppData = filepath.Join(homeDir, "AppData", "Local")
		}
		base = filepath.Join(localAppData, "GeoSat", "TileCache")
	default: // Linux and others
		cacheHome := os.Getenv("XDG_CACHE_HOME")
		if cacheHome == "" {
			cacheHome = filepath.Join(homeDir, ".cache")
		}
		base = filepath.Join(cacheHome, "geosat", "tiles")
	}

	if provider == "" {
		return base
	}
	return filepath.Join(base, provider)
}
