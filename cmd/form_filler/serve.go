package main

import (
	"fmt"

	"github.com/jonathan/form-filler/internal/browser"
	"github.com/jonathan/form-filler/internal/config"
	"github.com/jonathan/form-filler/internal/db"
	"github.com/jonathan/form-filler/internal/metrics"
	"github.com/jonathan/form-filler/internal/server"
	"github.com/jonathan/form-filler/internal/server/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the fill API server",
	Long: "Start an HTTP server that fills posted markup or live pages with candidate records. " +
		"Bearer auth is enabled when JWT_SECRET is set.",
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	serveAddr        string
	serveMaxBrowsers int64
	serveNoBrowser   bool
	serveMigrate     bool
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides the config addr)")
	serveCmd.Flags().Int64Var(&serveMaxBrowsers, "max-browsers", 2, "Concurrent live page fills")
	serveCmd.Flags().BoolVar(&serveNoBrowser, "no-browser", false, "Disable POST /fill/url")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "Apply the database schema before serving")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	addr := appConfig.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	fillOpts := fillerOptions()
	fillOpts.Metrics = metrics.New(reg)

	cfg := server.Config{
		Addr:        addr,
		Fill:        fillOpts,
		Highlight:   highlightOptions(),
		MaxBrowsers: serveMaxBrowsers,
		Gatherer:    reg,
		Logger:      logger,
	}

	rateLimit, err := config.NewRateLimitConfig()
	if err != nil {
		return err
	}
	cfg.RateLimit = ratelimit.FromSettings(rateLimit)

	if appConfig.DatabaseURL != "" {
		database, err := db.Connect(ctx, appConfig.DatabaseURL)
		if err != nil {
			return err
		}
		defer database.Close()

		if serveMigrate {
			if err := database.Migrate(ctx); err != nil {
				return err
			}
		}
		cfg.Candidates = database
		cfg.Recorder = database
	} else {
		src, release, err := openSource(ctx, appConfig)
		if err != nil {
			return err
		}
		defer release()
		cfg.Candidates = src
	}

	if !serveNoBrowser {
		cfg.OpenPage = server.BrowserPages(browser.Options{
			Headful: appConfig.Headful,
			Timeout: appConfig.BrowserTimeout.Std(),
			Logger:  logger,
		})
	}

	if appConfig.JWTSecret != "" {
		jwtConfig, err := config.NewJWTConfigWithSecret(appConfig.JWTSecret)
		if err != nil {
			return fmt.Errorf("invalid JWT configuration: %w", err)
		}
		cfg.JWT = jwtConfig
	} else {
		logger.Warn("JWT_SECRET not set, API is unauthenticated")
	}

	logger.Info("starting server",
		zap.String("addr", addr),
		zap.Bool("auth", cfg.JWT != nil),
		zap.Bool("live_fills", cfg.OpenPage != nil),
	)
	return server.New(cfg).Start(ctx)
}
