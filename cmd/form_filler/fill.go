package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonathan/form-filler/internal/htmldoc"
	"github.com/jonathan/form-filler/internal/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var fillCmd = &cobra.Command{
	Use:   "fill [flags] page.html...",
	Short: "Fill local HTML forms with a candidate",
	Long: "Fill one or more saved HTML forms with a candidate record and write the filled markup. " +
		"The candidate comes from a FILL_FORM message or a bare record (--candidate), " +
		"or by id from the configured candidate source (--candidate-id).",
	Args: cobra.MinimumNArgs(1),
	RunE: runFill,
}

var (
	fillCandidate   string
	fillCandidateID string
	fillOutDir      string
	fillSuffix      string
	fillWorkers     int
	fillJSON        bool
	fillRecord      bool
)

func init() {
	fillCmd.Flags().StringVarP(&fillCandidate, "candidate", "c", "", "Path to a FILL_FORM message or candidate JSON file (- for stdin)")
	fillCmd.Flags().StringVar(&fillCandidateID, "candidate-id", "", "Candidate id, selected from --candidate or looked up in the candidate source")
	fillCmd.Flags().StringVarP(&fillOutDir, "out-dir", "o", "", "Directory for filled pages (default: next to each input)")
	fillCmd.Flags().StringVar(&fillSuffix, "suffix", ".filled", "Suffix added to output file names when --out-dir is not set")
	fillCmd.Flags().IntVar(&fillWorkers, "workers", 4, "Pages filled concurrently")
	fillCmd.Flags().BoolVar(&fillJSON, "json", false, "Print outcomes as JSON")
	fillCmd.Flags().BoolVar(&fillRecord, "record", false, "Store outcomes in the fill audit log")

	rootCmd.AddCommand(fillCmd)
}

func runFill(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if fillWorkers < 1 {
		return fmt.Errorf("--workers must be at least 1")
	}

	c, err := loadCandidate(ctx, fillCandidate, fillCandidateID)
	if err != nil {
		return err
	}

	if fillOutDir != "" {
		if err := os.MkdirAll(fillOutDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	outcomes := make([]types.Outcome, len(args))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fillWorkers)
	for i, in := range args {
		g.Go(func() error {
			outcome, err := fillFile(gctx, in, outputPath(in), c)
			if err != nil {
				return err
			}
			outcomes[i] = outcome
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if fillJSON {
		if err := writeJSON(out, outcomes); err != nil {
			return err
		}
	} else {
		for i, in := range args {
			if err := reportOutcome(out, in, outcomes[i], false); err != nil {
				return err
			}
		}
	}

	if fillRecord {
		if err := recordRun(ctx, c.ID(), outcomes...); err != nil {
			return err
		}
	}
	return abortedError(outcomes)
}

// outputPath places the filled page in --out-dir or next to the input.
func outputPath(in string) string {
	if fillOutDir != "" {
		return filepath.Join(fillOutDir, filepath.Base(in))
	}
	ext := filepath.Ext(in)
	return strings.TrimSuffix(in, ext) + fillSuffix + ext
}

// fillFile fills one saved page and writes the result to out.
func fillFile(ctx context.Context, in, out string, c types.Candidate) (types.Outcome, error) {
	f, err := os.Open(in)
	if err != nil {
		return types.Outcome{}, fmt.Errorf("failed to open page: %w", err)
	}
	defer f.Close()

	doc, err := htmldoc.Parse(f)
	if err != nil {
		return types.Outcome{}, fmt.Errorf("%s: %w", in, err)
	}

	outcome := fillPage(ctx, doc, c)

	html, err := doc.HTML()
	if err != nil {
		return types.Outcome{}, err
	}
	if err := writeFile(out, []byte(html)); err != nil {
		return types.Outcome{}, err
	}

	logger.Debug("page filled",
		zap.String("page", in),
		zap.String("output", out),
		zap.String("state", string(outcome.State)),
		zap.Int("filled", outcome.Filled()),
	)
	return outcome, nil
}
