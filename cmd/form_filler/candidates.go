package main

import (
	"fmt"
	"time"

	"github.com/jonathan/form-filler/internal/candidates"
	"github.com/jonathan/form-filler/internal/observability"
	"github.com/jonathan/form-filler/internal/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var candidatesCmd = &cobra.Command{
	Use:   "candidates",
	Short: "List the candidates available for filling",
	Long: "List candidates from the configured source: candidates_file, database_url, " +
		"or the backend API authenticated through the session endpoint.",
	Args: cobra.NoArgs,
	RunE: runCandidates,
}

var candidatesJSON bool

func init() {
	candidatesCmd.Flags().BoolVar(&candidatesJSON, "json", false, "Print the records as JSON")

	rootCmd.AddCommand(candidatesCmd)
}

func runCandidates(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	src, release, err := openSource(ctx, appConfig)
	if err != nil {
		return err
	}
	defer release()

	if client, ok := src.(*candidates.Client); ok {
		warnOnExpiry(cmd, client)
	}

	list, err := src.List(ctx)
	if err != nil {
		return err
	}
	if list == nil {
		list = []types.Candidate{}
	}

	out := cmd.OutOrStdout()
	if candidatesJSON {
		return writeJSON(out, types.CandidateListResponse{Candidates: list, Count: len(list)})
	}

	if appConfig.Verbose {
		observability.NewPrinter(out).PrintCandidates(list)
		return nil
	}
	if len(list) == 0 {
		_, err := fmt.Fprintln(out, "No candidates found")
		return err
	}
	for _, c := range list {
		if _, err := fmt.Fprintf(out, "%s\t%s\n", c.ID(), c.Record().FullName()); err != nil {
			return err
		}
	}
	return nil
}

// warnOnExpiry reports an expired backend token before it is used.
func warnOnExpiry(cmd *cobra.Command, client *candidates.Client) {
	token, err := client.Token(cmd.Context())
	if err != nil || token == "" {
		return
	}
	exp, ok := candidates.TokenExpiry(token)
	if !ok {
		return
	}
	if time.Now().After(exp) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: backend session expired at %s\n", exp.Format(time.RFC3339))
		return
	}
	logger.Debug("backend session valid", zap.Time("expires_at", exp))
}
