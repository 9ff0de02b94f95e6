package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/erazemk/zamrzovalnik/internal/db"
	"github.com/erazemk/zamrzovalnik/internal/logging"
	"github.com/erazemk/zamrzovalnik/internal/remote"
	"github.com/erazemk/zamrzovalnik/internal/store"
	zsync "github.com/erazemk/zamrzovalnik/internal/sync"
)

var (
	cfgFile string
	verbose bool
)

// app holds everything a command needs. It is opened lazily by commands
// that touch the database.
type app struct {
	db       *sql.DB
	client   *remote.Client
	cache    *store.Cache
	engine   *zsync.Engine
	closeLog func()
}

func (a *app) Close() {
	a.db.Close()
	a.closeLog()
}

var rootCmd = &cobra.Command{
	Use:   "zamrzovalnik",
	Short: "Freezer inventory with offline-first sync",
	Long: `Keep track of what is in the freezer and when it expires.

Everything is stored on this device first. With a remote_url configured and
an account signed in, "sync" and "watch" reconcile it with the remote store.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: "+defaultConfigPath()+")")
	pf.String("db", "", "local database path")
	pf.String("remote-url", "", "remote store URL (empty disables sync)")
	pf.String("log", "", "log file path")
	pf.BoolVarP(&verbose, "verbose", "v", false, "log progress to stdout")

	viper.BindPFlag(keyDB, pf.Lookup("db"))
	viper.BindPFlag(keyRemoteURL, pf.Lookup("remote-url"))
	viper.BindPFlag(keyLog, pf.Lookup("log"))

	rootCmd.AddCommand(addCmd, listCmd, showCmd, editCmd, rmCmd)
	rootCmd.AddCommand(categoryCmd, settingsCmd)
	rootCmd.AddCommand(signupCmd, loginCmd, logoutCmd)
	rootCmd.AddCommand(syncCmd, statusCmd, watchCmd)
	rootCmd.AddCommand(configCmd)
}

// initConfig reads the config file and environment into viper.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(configDir())
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	for k, v := range defaults() {
		viper.SetDefault(k, v)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// openApp opens the local database, seeds it and wires the remote client and
// sync engine.
func openApp(ctx context.Context) (*app, error) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	closeLog := logging.Setup(logging.Options{Path: viper.GetString(keyLog), Level: level})

	path := viper.GetString(keyDB)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		closeLog()
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	database, err := db.Open(path)
	if err != nil {
		closeLog()
		return nil, err
	}
	if err := db.EnsureSchema(database); err != nil {
		database.Close()
		closeLog()
		return nil, err
	}
	if err := store.Seed(ctx, database); err != nil {
		database.Close()
		closeLog()
		return nil, err
	}

	client := remote.NewClient(viper.GetString(keyRemoteURL), remote.SettingsTokenStore{DB: database})
	cache := store.NewCache(database)
	engine := zsync.New(database, client,
		zsync.WithCache(cache),
		zsync.WithInterval(viper.GetDuration(keySyncInterval)),
	)

	return &app{db: database, client: client, cache: cache, engine: engine, closeLog: closeLog}, nil
}

// withApp wraps a command body that needs the app.
func withApp(fn func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(ctx, a, cmd, args)
	}
}
