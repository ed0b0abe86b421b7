package main

import (
	"fmt"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/crawlspace/crawlspace/internal/config"
	"github.com/crawlspace/crawlspace/internal/crawler"
	"github.com/crawlspace/crawlspace/internal/server"
)

// NewRootCmd creates the root command for crawlspace.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawlspace",
		Short: "MCP server exposing web crawling as tools",
		Long: `Crawlspace serves crawl, deep_crawl, and search tools over the
model context protocol. Configuration comes from CRAWLSPACE_* environment
variables; see the repository documentation for the full list.`,
		Version:       server.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	cmd.Flags().String("transport", "stdio", "Transport to serve on (stdio or http)")
	cmd.Flags().String("addr", ":8080", "Listen address for the http transport")

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	// Load .env files - .env.local takes priority for development
	_ = godotenv.Load(".env.local", ".env")

	settings, err := config.Load()
	if err != nil {
		return err
	}

	setupLogging(settings)

	// Initialise Sentry for error tracking when a DSN is configured
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			Environment:      getEnvWithDefault("APP_ENV", "development"),
			AttachStacktrace: true,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialise Sentry")
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	transport, err := cmd.Flags().GetString("transport")
	if err != nil {
		return err
	}
	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return err
	}

	engine := crawler.New(settings)
	s := server.New(engine, settings)

	log.Info().
		Str("transport", transport).
		Str("cache_mode", string(settings.CacheMode)).
		Str("content_type", string(settings.ContentType)).
		Msg("Starting crawlspace MCP server")

	return server.Serve(s, server.Transport(transport), addr)
}

// setupLogging configures the logging system. MCP stdio transports own
// stdout, so all logging goes to stderr.
func setupLogging(settings config.Settings) {
	level := zerolog.InfoLevel
	if settings.Verbose {
		level = zerolog.DebugLevel
	}
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if parsed, err := zerolog.ParseLevel(raw); err == nil {
			level = parsed
		}
	}
	zerolog.SetGlobalLevel(level)

	if getEnvWithDefault("APP_ENV", "development") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		log.Logger = zerolog.New(os.Stderr).
			With().
			Timestamp().
			Str("service", "crawlspace").
			Logger()
	}
}

// getEnvWithDefault retrieves an environment variable or returns a default value if not set
func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
