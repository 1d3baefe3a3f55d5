package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jonathan/form-filler/internal/browser"
	"github.com/jonathan/form-filler/internal/candidates"
	"github.com/jonathan/form-filler/internal/config"
	"github.com/jonathan/form-filler/internal/db"
	"github.com/jonathan/form-filler/internal/filler"
	"github.com/jonathan/form-filler/internal/highlight"
	"github.com/jonathan/form-filler/internal/logging"
	"github.com/jonathan/form-filler/internal/messaging"
	"github.com/jonathan/form-filler/internal/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Set by setup before any subcommand runs.
var (
	appConfig *config.Config
	logger    *zap.Logger
)

func defaultConfig() config.Config {
	return config.Config{
		BackendURL:     candidates.DefaultCandidatesURL,
		SessionURL:     candidates.DefaultSessionURL,
		SettleDelay:    config.Duration(filler.DefaultSettleDelay),
		HighlightColor: highlight.DefaultColor,
		BrowserTimeout: config.Duration(browser.DefaultTimeout),
		LogLevel:       "info",
		LogFormat:      "console",
		Addr:           ":8080",
	}
}

// setup layers flags over the config file over the environment over the
// defaults, validates the result and builds the logger.
func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = logFormat
	}
	if verbose {
		cfg.Verbose = true
	}

	merged := cfg.MergeWithDefaults(defaultConfig())
	if err := merged.Validate(); err != nil {
		return err
	}

	l, err := logging.New(merged.LogLevel, merged.LogFormat)
	if err != nil {
		return err
	}
	appConfig = &merged
	logger = l
	return nil
}

// openSource picks the candidate source: a local file, the database, or the
// backend API, in that order. The returned func releases it.
func openSource(ctx context.Context, cfg *config.Config) (candidates.Source, func(), error) {
	switch {
	case cfg.CandidatesFile != "":
		return candidates.FileSource{Path: cfg.CandidatesFile}, func() {}, nil
	case cfg.DatabaseURL != "":
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return database, database.Close, nil
	default:
		client := candidates.NewClient(candidates.ClientConfig{
			SessionURL:    cfg.SessionURL,
			CandidatesURL: cfg.BackendURL,
			Cookie:        cfg.SessionCookie,
			Timeout:       cfg.BrowserTimeout.Std(),
		}, logger)
		return client, func() {}, nil
	}
}

// loadCandidate reads the candidate from a message file ("-" for stdin) or,
// with only an id, from the configured source.
func loadCandidate(ctx context.Context, path, id string) (types.Candidate, error) {
	if path == "" && id == "" {
		return types.Candidate{}, fmt.Errorf("either --candidate or --candidate-id is required")
	}

	if path != "" {
		var (
			data []byte
			err  error
		)
		if path == "-" {
			data, err = io.ReadAll(os.Stdin)
		} else {
			data, err = os.ReadFile(path)
		}
		if err != nil {
			return types.Candidate{}, fmt.Errorf("failed to read candidate file: %w", err)
		}

		msg, err := messaging.Parse(data)
		if err != nil {
			return types.Candidate{}, err
		}
		if id == "" {
			return msg.Candidate(), nil
		}
		for _, c := range msg.Candidates {
			if c.ID() == id {
				return c, nil
			}
		}
		return types.Candidate{}, fmt.Errorf("candidate %s not found in %s", id, path)
	}

	src, release, err := openSource(ctx, appConfig)
	if err != nil {
		return types.Candidate{}, err
	}
	defer release()

	c, ok, err := candidates.Find(ctx, src, id)
	if err != nil {
		return types.Candidate{}, err
	}
	if !ok {
		return types.Candidate{}, fmt.Errorf("candidate %s not found", id)
	}
	return c, nil
}

// recordRun stores an outcome in the audit log when a database is configured.
func recordRun(ctx context.Context, candidateID string, outcomes ...types.Outcome) error {
	if appConfig.DatabaseURL == "" {
		return fmt.Errorf("--record needs database_url or %s", config.EnvDatabaseURL)
	}
	database, err := db.Connect(ctx, appConfig.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	for _, o := range outcomes {
		if err := database.RecordFillRun(ctx, candidateID, o); err != nil {
			return err
		}
	}
	return nil
}

func highlightOptions() highlight.Options {
	return highlight.Options{Color: appConfig.HighlightColor, Logger: logger}
}

func fillerOptions() filler.Options {
	return filler.Options{SettleDelay: appConfig.SettleDelay.Std(), Logger: logger}
}
