// Package main provides the breakwatch command line.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rpggio/breakwatch/internal/app"
	"github.com/rpggio/breakwatch/internal/config"
	"github.com/rpggio/breakwatch/internal/metrics"
	"github.com/rpggio/breakwatch/internal/sqlite"
)

var configPath string

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "breakwatch",
		Short:        "Badge scan interval analysis",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (default $BREAKWATCH_CONFIG_PATH)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newBackupCmd())
	rootCmd.AddCommand(newRestoreCmd())
	rootCmd.AddCommand(newScanCmd())
	return rootCmd
}

func loadConfig() (config.Config, error) {
	if configPath != "" {
		return config.LoadFrom(configPath)
	}
	return config.Load()
}

// environment is what every command needs: config, logger, and the wired app.
type environment struct {
	cfg    config.Config
	logger *slog.Logger
	db     *sqlite.DB
	app    *app.App
	close  func()
}

// openEnvironment loads config, builds the logger, and opens the database.
// Logs go to stderr when stdout carries data (stdio transport or CLI output).
func openEnvironment(logToStderr bool) (*environment, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	var closers []func()
	logWriter := io.Writer(os.Stdout)
	if logToStderr || cfg.Transport.Mode == "stdio" {
		logWriter = os.Stderr
	}
	if cfg.Log.Path != "" {
		fileWriter, file, err := newLogFileWriter(cfg.Log.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			closers = append(closers, func() { _ = file.Close() })
			logWriter = fileWriter
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	if err := ensureDBDir(cfg.DB.Path); err != nil {
		return nil, fmt.Errorf("prepare database path: %w", err)
	}
	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	closers = append([]func(){func() { _ = db.Close() }}, closers...)
	if err := db.RunMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	a := app.New(db, app.Options{
		Location:     loc,
		TrendDays:    cfg.Analysis.TrendDays,
		SyncRetryMax: cfg.Sync.RetryMax,
		SyncTimeout:  cfg.Sync.Timeout,
		Metrics:      metrics.New(),
		Logger:       logger,
	})

	return &environment{
		cfg:    cfg,
		logger: logger,
		db:     db,
		app:    a,
		close: func() {
			for _, c := range closers {
				c()
			}
		},
	}, nil
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
