package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/jchantrell/rsbconv/internal/config"
)

var (
	cfg     *config.Config
	cfgFile string

	target     string
	workDir    string
	historyDB  string
	jobs       int
	logLevel   string
	logFormat  string
	noProgress bool
)

var rootCmd = &cobra.Command{
	Use:   "rsbconv",
	Short: "Convert resource stream bundles between Android and iOS",
	Long: `rsbconv rewrites a resource stream bundle built for one platform into the
equivalent bundle for the other: Android .obb bundles become iOS .rsb bundles
and back.

Every packet is retagged for the target platform. Composite packets are
re-encoded with the target texture format category, the streaming wave packet
is rebuilt under the target's name and layout, and every other packet has its
container format flag patched in place.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if cmd.Flags().Changed("target") {
			cfg.Target = target
		}
		if cmd.Flags().Changed("work-dir") {
			cfg.WorkDir = workDir
		}
		if cmd.Flags().Changed("history") {
			cfg.History = historyDB
		}
		if cmd.Flags().Changed("jobs") {
			cfg.Jobs = jobs
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			cfg.LogFormat = logFormat
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid flags: %w", err)
		}

		var level slog.Level
		switch cfg.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		default:
			level = slog.LevelInfo
		}

		var handler slog.Handler
		if cfg.LogFormat == "json" {
			handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})
		} else {
			handler = tint.NewHandler(os.Stderr, &tint.Options{
				Level: level,
			})
		}

		logger := slog.New(handler)
		slog.SetDefault(logger)

		slog.Debug("Configuration",
			"target", cfg.Target,
			"work_dir", cfg.WorkDir,
			"history", cfg.History,
			"jobs", cfg.Jobs,
			"continue_on_error", cfg.ContinueOnError,
			"decode_method", cfg.DecodeMethod,
			"only_high_resolution", cfg.OnlyHighResolution,
			"log_level", cfg.LogLevel,
			"log_format", cfg.LogFormat)

		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is rsbconv.yaml in $HOME or pwd)")
	rootCmd.PersistentFlags().StringVarP(&target, "target", "t", "", "target platform (ios, android)")
	rootCmd.PersistentFlags().StringVar(&workDir, "work-dir", "", "directory bundles are unpacked into")
	rootCmd.PersistentFlags().StringVar(&historyDB, "history", "", "conversion history database, empty to disable")
	rootCmd.PersistentFlags().IntVarP(&jobs, "jobs", "j", 0, "number of bundles converted at once")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "disable progress bar")
}
