package model

import "time"

// Settings are the per-device preferences.
type Settings struct {
	DefaultExpirationDays int        `json:"defaultExpirationDays"`
	ExpirationWarningDays int        `json:"expirationWarningDays"`
	Theme                 string     `json:"theme"`
	LastBackup            *time.Time `json:"lastBackup,omitempty"`
	Version               string     `json:"version"`
}

// Themes.
const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

// DefaultSettings returns the settings written on first run.
func DefaultSettings() Settings {
	return Settings{
		DefaultExpirationDays: 90,
		ExpirationWarningDays: 7,
		Theme:                 ThemeSystem,
		Version:               "1.0.0",
	}
}

// SyncState is the singleton sync bookkeeping record. DeviceID is only used
// for diagnostics.
type SyncState struct {
	LastSyncedAt time.Time `json:"lastSyncedAt"`
	DeviceID     string    `json:"deviceId"`
}
