package main

import (
	"fmt"

	"github.com/Tyler-Pritchard/Spokesperson/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [catalog-file]",
	Short: "Check a question catalog",
	Long:  `Loads the catalog, checks every question (keys, types, choices) and the optional summary template.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.CatalogPath
		if len(args) > 0 {
			path = args[0]
		}
		cat, _, err := cli.LoadCatalog(path)
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		if path == "" {
			path = "built-in catalog"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is valid: %d questions\n", path, cat.Len())
		for i, q := range cat.Questions() {
			fmt.Fprintf(cmd.OutOrStdout(), "  %d. [%s] %s (%s)\n", i+1, q.Key, q.Prompt, q.Type)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
