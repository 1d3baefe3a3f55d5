// Package main provides the form_filler command line: fill forms from files,
// URLs or the HTTP API, and inspect candidates and field aliases.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "form_filler",
	Short: "Fill web forms from candidate records",
	Long: "form_filler writes a candidate record into the matching controls of a web form, " +
		"announces each change to the page and flashes the filled controls.",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

var (
	configFile string
	logLevel   string
	logFormat  string
	verbose    bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a JSON config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: console or json")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print boxed summaries")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
