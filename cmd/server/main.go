package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erazemk/zamrzovalnik/internal/api"
	"github.com/erazemk/zamrzovalnik/internal/logging"
	"github.com/erazemk/zamrzovalnik/internal/rowstore"
)

func main() {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	var dsn string
	fs.StringVar(&dsn, "db", "zamrzovalnik-server.sqlite3", "")
	fs.StringVar(&dsn, "d", "zamrzovalnik-server.sqlite3", "")

	var driver string
	fs.StringVar(&driver, "driver", rowstore.DriverSQLite, "")

	var addr string
	fs.StringVar(&addr, "addr", ":8080", "")
	fs.StringVar(&addr, "a", ":8080", "")

	var logPath string
	fs.StringVar(&logPath, "log", "", "")
	fs.StringVar(&logPath, "l", "", "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: server [flags]

Flags:
  -d, -db <dsn>           database path or connection string (default: zamrzovalnik-server.sqlite3)
      -driver <name>      sqlite or postgres (default: sqlite)
  -a, -addr <host:port>   listen address (default: :8080)
  -l, -log <path>         log file path, rotated (default: no file, stdout/stderr only)
  -h, -help               show this help and exit
`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(1)
	}

	// INFO/WARN → stdout, ERROR → stderr, everything to the file if set.
	closeLog := logging.Setup(logging.Options{Path: logPath, Level: slog.LevelInfo})
	defer closeLog()

	ctx := context.Background()

	rs, err := rowstore.Open(ctx, driver, dsn)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer rs.Close()

	slog.Info("database ready", "driver", driver)

	// Load JWT secret from database (auto-generated on first run).
	jwtSecret, err := rs.GetJWTSecret(ctx)
	if err != nil {
		slog.Error("failed to get JWT secret", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           api.LoggingMiddleware(api.NewRouter(rs, jwtSecret)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped, closing database")
}
