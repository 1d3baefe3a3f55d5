package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/form-filler/internal/browser"
	"github.com/jonathan/form-filler/internal/dom"
	"github.com/jonathan/form-filler/internal/fetch"
	"github.com/jonathan/form-filler/internal/filler"
	"github.com/jonathan/form-filler/internal/highlight"
	"github.com/jonathan/form-filler/internal/htmldoc"
	"github.com/jonathan/form-filler/internal/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var fillURLCmd = &cobra.Command{
	Use:   "fill-url [flags] URL",
	Short: "Open a page in a browser and fill its form",
	Long: "Open URL in Chrome, fill its form with a candidate and optionally save a screenshot " +
		"or the resulting markup. With --static the page is fetched over HTTP and filled without a browser.",
	Args: cobra.ExactArgs(1),
	RunE: runFillURL,
}

var (
	fillURLCandidate   string
	fillURLCandidateID string
	fillURLOut         string
	fillURLScreenshot  string
	fillURLHeadful     bool
	fillURLStatic      bool
	fillURLHold        time.Duration
	fillURLJSON        bool
	fillURLRecord      bool
)

func init() {
	fillURLCmd.Flags().StringVarP(&fillURLCandidate, "candidate", "c", "", "Path to a FILL_FORM message or candidate JSON file (- for stdin)")
	fillURLCmd.Flags().StringVar(&fillURLCandidateID, "candidate-id", "", "Candidate id, selected from --candidate or looked up in the candidate source")
	fillURLCmd.Flags().StringVarP(&fillURLOut, "out", "o", "", "Write the filled markup to this file")
	fillURLCmd.Flags().StringVar(&fillURLScreenshot, "screenshot", "", "Write a PNG screenshot taken while the highlights show")
	fillURLCmd.Flags().BoolVar(&fillURLHeadful, "headful", false, "Show the browser window")
	fillURLCmd.Flags().BoolVar(&fillURLStatic, "static", false, "Fetch over HTTP and fill without a browser")
	fillURLCmd.Flags().DurationVar(&fillURLHold, "hold", 0, "Keep the browser open this long after filling")
	fillURLCmd.Flags().BoolVar(&fillURLJSON, "json", false, "Print the outcome as JSON")
	fillURLCmd.Flags().BoolVar(&fillURLRecord, "record", false, "Store the outcome in the fill audit log")

	rootCmd.AddCommand(fillURLCmd)
}

func runFillURL(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	target := args[0]

	c, err := loadCandidate(ctx, fillURLCandidate, fillURLCandidateID)
	if err != nil {
		return err
	}

	var outcome types.Outcome
	if fillURLStatic {
		if fillURLScreenshot != "" {
			return fmt.Errorf("--screenshot needs a browser and cannot be used with --static")
		}
		outcome, err = fillStatic(ctx, target, c)
	} else {
		outcome, err = fillLive(ctx, target, c)
	}
	if err != nil {
		return err
	}

	if err := reportOutcome(cmd.OutOrStdout(), target, outcome, fillURLJSON); err != nil {
		return err
	}
	if fillURLRecord {
		if err := recordRun(ctx, c.ID(), outcome); err != nil {
			return err
		}
	}
	return abortedError([]types.Outcome{outcome})
}

// fillStatic fetches the page and fills the parsed markup.
func fillStatic(ctx context.Context, target string, c types.Candidate) (types.Outcome, error) {
	opts := fetch.DefaultOptions()
	if t := appConfig.BrowserTimeout.Std(); t > 0 {
		opts.Timeout = t
	}
	res, err := fetch.URL(ctx, target, opts)
	if err != nil {
		return types.Outcome{}, err
	}
	doc, err := htmldoc.ParseString(res.HTML())
	if err != nil {
		return types.Outcome{}, err
	}

	outcome := fillPage(ctx, doc, c)
	if err := saveMarkup(doc); err != nil {
		return types.Outcome{}, err
	}
	return outcome, nil
}

// fillLive fills the page in Chrome.
func fillLive(ctx context.Context, target string, c types.Candidate) (types.Outcome, error) {
	session, err := browser.Launch(ctx, browser.Options{
		Headful: appConfig.Headful || fillURLHeadful,
		Timeout: appConfig.BrowserTimeout.Std(),
		Logger:  logger,
	})
	if err != nil {
		return types.Outcome{}, err
	}
	defer session.Close()

	page, err := session.Open(target)
	if err != nil {
		return types.Outcome{}, err
	}

	outcome := fillPage(ctx, page, c)

	if fillURLScreenshot != "" {
		shot, err := page.Screenshot(90)
		if err != nil {
			return types.Outcome{}, err
		}
		if err := writeFile(fillURLScreenshot, shot); err != nil {
			return types.Outcome{}, err
		}
	}
	if err := saveMarkup(page); err != nil {
		return types.Outcome{}, err
	}

	if fillURLHold > 0 {
		logger.Info("holding browser open", zap.Duration("hold", fillURLHold))
		select {
		case <-time.After(fillURLHold):
		case <-ctx.Done():
		}
	}
	return outcome, nil
}

func saveMarkup(page interface{ HTML() (string, error) }) error {
	if fillURLOut == "" {
		return nil
	}
	html, err := page.HTML()
	if err != nil {
		return err
	}
	return writeFile(fillURLOut, []byte(html))
}

// fillPage runs one fill with a private highlighter and cancels any flash
// still pending when it returns.
func fillPage(ctx context.Context, page dom.Page, c types.Candidate) types.Outcome {
	h := highlight.New(highlightOptions())
	opts := fillerOptions()
	opts.Flasher = h

	outcome := filler.New(opts).Fill(ctx, page, c)
	h.Stop()
	return outcome
}
