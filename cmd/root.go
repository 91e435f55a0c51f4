package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var (
		logFormat  string
		logLevel   string
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "bookshelf",
		Short: "Bookshelf photo analysis and book recommendations",
		Long: `Bookshelf analyzes a photo of a book collection with a vision-capable LLM,
describes the reader behind it and recommends books they have not read yet.

It runs as an HTTP service (serve), as a one-off CLI (analyze) and can score
recorded AI responses offline (eval).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			if logFormat == "" {
				logFormat = os.Getenv("LOG_FORMAT")
			}
			if logLevel == "" {
				logLevel = os.Getenv("LOG_LEVEL")
			}
			logger, err := newLogger(logFormat, logLevel)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json (env LOG_FORMAT)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error (env LOG_LEVEL)")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (env CONFIG_PATH)")

	cmd.AddCommand(newServeCmd(&configPath))
	cmd.AddCommand(newAnalyzeCmd(&configPath))
	cmd.AddCommand(newEvalCmd())

	return cmd
}

func newLogger(format, level string) (*slog.Logger, error) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "", "info":
		lvl = slog.LevelInfo
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q", level)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}
