package main

import (
	"fmt"
	"strings"

	"github.com/Tyler-Pritchard/Spokesperson"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of spokesperson",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "spokesperson version %s\n", strings.TrimSpace(spokesperson.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
