package app

import (
	"fmt"
	"log/slog"

	"geosat/internal/analytics"
	"geosat/internal/config"
	"geosat/internal/crs"
)

// GetSettings returns a copy of the current settings
func (a *App) GetSettings() config.Settings {
	a.mu.Lock()
	defer a.mu.Unlock()
	return *a.settings
}

// SaveSettings validates and persists settings
func (a *App) SaveSettings(settings *config.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := config.Save(a.settingsPath, settings); err != nil {
		return err
	}
	a.settings = settings
	slog.Info("settings saved", "component", "app", "path", a.settingsPath)
	return nil
}

// GetSettingsPath returns the file settings are saved to
func (a *App) GetSettingsPath() string {
	if a.settingsPath == "" {
		return config.GetSettingsPath()
	}
	return a.settingsPath
}

// SetDrawingCRS resolves code and persists it as the drawing CRS
func (a *App) SetDrawingCRS(code string) (crs.Entry, error) {
	entry, err := crs.Lookup(code)
	if err != nil {
		return crs.Entry{}, err
	}

	updated := a.GetSettings()
	updated.CRS = entry.Code
	if err := a.SaveSettings(&updated); err != nil {
		return crs.Entry{}, fmt.Errorf("failed to save drawing CRS: %w", err)
	}
	return entry, nil
}

// DrawingCRS returns the persisted drawing CRS
func (a *App) DrawingCRS() (crs.Entry, error) {
	return crs.Lookup(a.GetSettings().CRS)
}

// SetAnalytics toggles usage analytics and assigns an install id on first enable
func (a *App) SetAnalytics(enabled bool) error {
	updated := a.GetSettings()
	updated.Analytics.Enabled = enabled
	if enabled {
		updated.Analytics.InstallID, _ = analytics.EnsureInstallID(updated.Analytics.InstallID)
	}
	return a.SaveSettings(&updated)
}
