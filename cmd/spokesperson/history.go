package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/Tyler-Pritchard/Spokesperson/pkg/adapters/sqlite"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history [session-id]",
	Short: "Show recorded answers",
	Long:  `Without arguments lists the sessions in the answer log; with a session ID prints its answers in order.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")
		ctx := cmd.Context()

		db, err := sqlite.Open(ctx, cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer db.Close()

		out := cmd.OutOrStdout()
		if len(args) == 0 {
			sessions, err := db.Sessions(ctx, limit)
			if err != nil {
				return err
			}
			if asJSON {
				return json.NewEncoder(out).Encode(sessions)
			}
			if len(sessions) == 0 {
				fmt.Fprintln(out, "No sessions recorded.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SESSION\tNAME\tANSWERS\tSTARTED")
			for _, s := range sessions {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", s.SessionID, s.DisplayName, s.Answers, s.CreatedAt.Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		}

		records, err := db.FetchHistory(ctx, args[0])
		if err != nil {
			return err
		}
		if asJSON {
			return json.NewEncoder(out).Encode(records)
		}
		for _, r := range records {
			fmt.Fprintf(out, "%s  %s\n", r.Timestamp.Format("2006-01-02 15:04:05"), r.Text)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().Int("limit", 20, "Maximum sessions to list")
	historyCmd.Flags().Bool("json", false, "Print JSON")
}
