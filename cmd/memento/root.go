package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/memento"
)

var (
	verbose    bool
	dataDir    string
	adapter    string
	configPath string
	noSandbox  bool

	cfg memento.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "memento",
	Short: "A note keeper with timed reminders",
	Long: `Memento keeps short text notes on this machine.
Notes can be searched, pinned, exported and given reminders that a
background daemon delivers when they fall due.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		path := configPath
		if path == "" {
			path = findConfig()
		}
		loaded, err := memento.LoadConfig(path)
		if err != nil {
			fatal("Failed to load configuration", err)
		}
		cfg = loaded

		// Flags win over environment and file.
		if cmd.Flags().Changed("data-dir") {
			cfg.DataDir = dataDir
		}
		if cmd.Flags().Changed("adapter") {
			cfg.Adapter = adapter
		}

		level := parseLevel(cfg.LogLevel)
		if verbose {
			level = slog.LevelDebug
		}
		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "", "Data directory (default: nearest .memento or ~/.memento)")
	rootCmd.PersistentFlags().StringVar(&adapter, "adapter", "fs", "Storage adapter: fs, sqlite or memory")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to memento.yaml")
	rootCmd.PersistentFlags().BoolVar(&noSandbox, "unsafe", false, "Use the real data directory even under go run")
}

// openApp wires the application from the merged configuration.
func openApp(ctx context.Context, extra ...memento.Option) *memento.App {
	opts, err := cfg.Options()
	if err != nil {
		fatal("Invalid configuration", err)
	}
	opts = append(opts,
		memento.WithLogger(slog.Default()),
		memento.WithDevSafety(!noSandbox),
	)
	opts = append(opts, extra...)

	app, err := memento.New(ctx, cfg.DataDir, opts...)
	if err != nil {
		fatal("Failed to open memento", err)
	}
	return app
}

func findConfig() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for dir := wd; ; dir = filepath.Dir(dir) {
		candidate := filepath.Join(dir, "memento.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		if filepath.Dir(dir) == dir {
			return ""
		}
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
