package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Tyler-Pritchard/Spokesperson/internal/cli"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage stored conversation states",
	Long:  `List, inspect and remove sessions in the configured state backend (file or redis).`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all stored sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.Build(cmd.Context(), cfg, logger, cli.BuildOptions{DisableAnswerLog: true})
		if err != nil {
			return err
		}
		defer app.Close()

		sessions, err := app.Service.Sessions().List(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing sessions: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No active sessions found.")
			return nil
		}
		sort.Strings(sessions)
		fmt.Fprintln(out, "Active Sessions:")
		for _, s := range sessions {
			fmt.Fprintln(out, "- "+s)
		}
		return nil
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Inspect the state of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.Build(cmd.Context(), cfg, logger, cli.BuildOptions{DisableAnswerLog: true})
		if err != nil {
			return err
		}
		defer app.Close()

		state, err := app.Service.State(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("loading session '%s': %w", args[0], err)
		}
		data, err := json.MarshalIndent(state, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>",
	Short: "Remove a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.Build(cmd.Context(), cfg, logger, cli.BuildOptions{DisableAnswerLog: true})
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.Service.Sessions().Delete(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("removing session '%s': %w", args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Session '%s' removed.\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd, sessionInspectCmd, sessionRmCmd)
}
