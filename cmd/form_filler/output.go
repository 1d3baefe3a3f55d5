package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jonathan/form-filler/internal/observability"
	"github.com/jonathan/form-filler/internal/types"
)

// writeJSON prints v indented to out.
func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeFile writes data to path, creating or truncating it.
func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// reportOutcome prints one fill outcome as JSON, as a boxed report in
// verbose mode, or as a single summary line.
func reportOutcome(out io.Writer, label string, outcome types.Outcome, asJSON bool) error {
	switch {
	case asJSON:
		return writeJSON(out, outcome)
	case appConfig.Verbose:
		observability.NewPrinter(out).PrintFillReport(label, outcome)
		return nil
	case outcome.Completed():
		_, err := fmt.Fprintf(out, "%s: filled %d/%d fields\n", label, outcome.Report.Filled, outcome.Report.Eligible)
		return err
	default:
		_, err := fmt.Fprintf(out, "%s: aborted: %s\n", label, outcome.Reason)
		return err
	}
}

// abortedError summarizes aborted outcomes as a command error.
func abortedError(outcomes []types.Outcome) error {
	aborted := 0
	var reason string
	for _, o := range outcomes {
		if !o.Completed() {
			aborted++
			reason = o.Reason
		}
	}
	switch {
	case aborted == 0:
		return nil
	case len(outcomes) == 1:
		return fmt.Errorf("fill aborted: %s", reason)
	default:
		return fmt.Errorf("%d of %d fills aborted", aborted, len(outcomes))
	}
}
