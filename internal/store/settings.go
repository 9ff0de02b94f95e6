package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/erazemk/zamrzovalnik/internal/model"
)

// Setting keys.
const (
	SettingDefaultExpirationDays = "default_expiration_days"
	SettingExpirationWarningDays = "expiration_warning_days"
	SettingTheme                 = "theme"
	SettingLastBackup            = "last_backup"
	SettingVersion               = "version"
)

// GetSettings returns the device settings, falling back to defaults for
// missing keys.
func GetSettings(ctx context.Context, db *sql.DB) (model.Settings, error) {
	s := model.DefaultSettings()

	rows, err := db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return s, fmt.Errorf("reading settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return s, fmt.Errorf("scanning setting: %w", err)
		}
		// Unparseable values keep the default.
		_ = applySetting(&s, key, value)
	}
	return s, rows.Err()
}

// UpdateSetting validates and stores one user-facing setting.
func UpdateSetting(ctx context.Context, db *sql.DB, key, value string) error {
	s := model.DefaultSettings()
	if err := applySetting(&s, key, value); err != nil {
		return err
	}
	return SetValue(ctx, db, key, value)
}

// GetValue returns a raw value from the settings table.
func GetValue(ctx context.Context, db *sql.DB, key string) (string, bool, error) {
	var value string
	err := db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying %s: %w", key, err)
	}
	return value, true, nil
}

// SetValue stores a raw value in the settings table.
func SetValue(ctx context.Context, db *sql.DB, key, value string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("storing %s: %w", key, err)
	}
	return nil
}

// DeleteValue removes a raw value from the settings table.
func DeleteValue(ctx context.Context, db *sql.DB, key string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

func applySetting(s *model.Settings, key, value string) error {
	switch key {
	case SettingDefaultExpirationDays, SettingExpirationWarningDays:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%s must be a non-negative number of days", key)
		}
		if key == SettingDefaultExpirationDays {
			s.DefaultExpirationDays = n
		} else {
			s.ExpirationWarningDays = n
		}
	case SettingTheme:
		if value != model.ThemeLight && value != model.ThemeDark && value != model.ThemeSystem {
			return fmt.Errorf("theme must be one of light, dark, system")
		}
		s.Theme = value
	case SettingLastBackup:
		if value == "" {
			s.LastBackup = nil
			return nil
		}
		t, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return fmt.Errorf("last_backup must be an RFC 3339 time")
		}
		s.LastBackup = &t
	case SettingVersion:
		s.Version = value
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}

func settingsToValues(s model.Settings) map[string]string {
	values := map[string]string{
		SettingDefaultExpirationDays: strconv.Itoa(s.DefaultExpirationDays),
		SettingExpirationWarningDays: strconv.Itoa(s.ExpirationWarningDays),
		SettingTheme:                 s.Theme,
		SettingVersion:               s.Version,
	}
	if s.LastBackup != nil {
		values[SettingLastBackup] = s.LastBackup.Format(time.RFC3339)
	}
	return values
}
