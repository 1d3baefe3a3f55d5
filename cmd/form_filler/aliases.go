package main

import (
	"fmt"
	"strings"

	"github.com/jonathan/form-filler/internal/aliases"
	"github.com/jonathan/form-filler/internal/observability"
	"github.com/jonathan/form-filler/internal/types"
	"github.com/spf13/cobra"
)

var aliasesCmd = &cobra.Command{
	Use:   "aliases [data-key...]",
	Short: "Show the form field names tried for each data key",
	Long: "Show the alias table. With arguments, print the aliases tried for each given data key; " +
		"keys missing from the table are tried by their own name.",
	RunE: runAliases,
}

var aliasesJSON bool

func init() {
	aliasesCmd.Flags().BoolVar(&aliasesJSON, "json", false, "Print the table as JSON")

	rootCmd.AddCommand(aliasesCmd)
}

func runAliases(cmd *cobra.Command, args []string) error {
	keys := args
	if len(keys) == 0 {
		keys = aliases.Keys()
	}

	out := cmd.OutOrStdout()
	if aliasesJSON {
		entries := make([]types.AliasEntry, 0, len(keys))
		for _, k := range keys {
			entries = append(entries, types.AliasEntry{Key: k, Aliases: aliases.Lookup(k)})
		}
		return writeJSON(out, entries)
	}

	if appConfig.Verbose {
		observability.NewPrinter(out).PrintAliases(keys, aliases.Lookup)
		return nil
	}
	for _, k := range keys {
		if _, err := fmt.Fprintf(out, "%s: %s\n", k, strings.Join(aliases.Lookup(k), ", ")); err != nil {
			return err
		}
	}
	return nil
}
