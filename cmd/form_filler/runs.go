package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/jonathan/form-filler/internal/config"
	"github.com/jonathan/form-filler/internal/db"
	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recent fills from the audit log",
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database tables",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

var (
	runsCandidateID string
	runsLimit       int
	runsJSON        bool
)

func init() {
	runsCmd.Flags().StringVar(&runsCandidateID, "candidate-id", "", "Only show fills of this candidate")
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "Maximum number of runs")
	runsCmd.Flags().BoolVar(&runsJSON, "json", false, "Print runs as JSON")

	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(migrateCmd)
}

func connect(cmd *cobra.Command) (*db.DB, error) {
	if appConfig.DatabaseURL == "" {
		return nil, fmt.Errorf("database_url or %s is required", config.EnvDatabaseURL)
	}
	return db.Connect(cmd.Context(), appConfig.DatabaseURL)
}

func runRuns(cmd *cobra.Command, _ []string) error {
	database, err := connect(cmd)
	if err != nil {
		return err
	}
	defer database.Close()

	runs, err := database.ListFillRuns(cmd.Context(), runsCandidateID, runsLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if runsJSON {
		return writeJSON(out, runs)
	}
	if len(runs) == 0 {
		_, err := fmt.Fprintln(out, "No fill runs recorded")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tCANDIDATE\tSTATE\tFILLED\tTOOK\tAT")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%dms\t%s\n",
			r.ID, r.CandidateID, r.State, r.Filled, r.Eligible, r.DurationMs, r.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	database, err := connect(cmd)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.Migrate(cmd.Context()); err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), "Schema applied")
	return err
}
