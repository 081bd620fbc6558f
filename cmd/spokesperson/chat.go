package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/Tyler-Pritchard/Spokesperson/internal/cli"
	"github.com/Tyler-Pritchard/Spokesperson/internal/presentation/tui"
	"github.com/Tyler-Pritchard/Spokesperson/pkg/runner"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Run a conversation in the terminal",
	Long: `Asks the questions on stdin/stdout. Type /restart to start over or /quit to leave.
With --json the conversation is exchanged as JSON lines for scripts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonMode, _ := cmd.Flags().GetBool("json")
		sessionID, _ := cmd.Flags().GetString("session")
		name, _ := cmd.Flags().GetString("name")
		continuous, _ := cmd.Flags().GetBool("continuous")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app, err := cli.Build(ctx, cfg, logger, cli.BuildOptions{})
		if err != nil {
			return err
		}
		defer app.Close()

		var handler runner.IOHandler
		if jsonMode {
			handler = runner.NewJSONHandler(os.Stdin, os.Stdout)
		} else {
			textOpts := []runner.TextHandlerOption{runner.WithTextHandlerMaxInput(cfg.MaxInputSize)}
			if runner.IsTerminal(os.Stdout) {
				tui.PrintBanner(os.Stdout)
				textOpts = append(textOpts, runner.WithTextHandlerRenderer(tui.NewRenderer(80)))
			}
			handler = runner.NewTextHandler(os.Stdin, os.Stdout, textOpts...)
		}

		r := runner.NewRunner(
			runner.WithInputHandler(handler),
			runner.WithLogger(logger),
			runner.WithSessionID(sessionID),
			runner.WithDisplayName(name),
			runner.WithContinuous(continuous),
		)
		return r.Run(ctx, app.Service)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().Bool("json", false, "Exchange JSON lines instead of text")
	chatCmd.Flags().String("session", "", "Resume or start this session ID")
	chatCmd.Flags().String("name", "", "Display name recorded with the session")
	chatCmd.Flags().Bool("continuous", false, "Start a new round after each summary")
}
