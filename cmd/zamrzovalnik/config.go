package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	zsync "github.com/erazemk/zamrzovalnik/internal/sync"
)

const envPrefix = "ZAMRZOVALNIK"

// Config keys.
const (
	keyDB           = "db"
	keyRemoteURL    = "remote_url"
	keyLog          = "log"
	keySyncInterval = "sync_interval"
)

// fileConfig is the layout of config.yaml.
type fileConfig struct {
	DB           string `yaml:"db"`
	RemoteURL    string `yaml:"remote_url"`
	Log          string `yaml:"log"`
	SyncInterval string `yaml:"sync_interval"`
}

func configDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "zamrzovalnik")
}

func defaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

func defaults() map[string]any {
	return map[string]any{
		keyDB:           filepath.Join(configDir(), "zamrzovalnik.sqlite3"),
		keyRemoteURL:    "",
		keyLog:          "",
		keySyncInterval: zsync.DefaultInterval,
	}
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the current settings",
	Long: `Write a config file with the current settings.

Values come from flags, ZAMRZOVALNIK_* environment variables and defaults,
in that order. An existing file is only replaced with --force.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = defaultConfigPath()
		}

		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(path); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}

		cfg := currentConfig()
		if err := writeConfig(path, cfg); err != nil {
			return err
		}
		fmt.Printf("Config written to %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if used := viper.ConfigFileUsed(); used != "" {
			fmt.Printf("# %s\n", used)
		}
		out, err := yaml.Marshal(currentConfig())
		if err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}
		fmt.Print(string(out))
		return nil
	},
}

func init() {
	configInitCmd.Flags().Bool("force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd, configShowCmd)
}

func currentConfig() fileConfig {
	return fileConfig{
		DB:           viper.GetString(keyDB),
		RemoteURL:    viper.GetString(keyRemoteURL),
		Log:          viper.GetString(keyLog),
		SyncInterval: viper.GetDuration(keySyncInterval).String(),
	}
}

func writeConfig(path string, cfg fileConfig) error {
	if _, err := time.ParseDuration(cfg.SyncInterval); err != nil {
		return fmt.Errorf("invalid sync_interval %q: %w", cfg.SyncInterval, err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
