package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Tyler-Pritchard/Spokesperson/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "spokesperson",
	Short: "Spokesperson builds a short profile through a guided conversation",
	Long: `Spokesperson asks a fixed list of questions, validates every answer,
and closes with a friendly summary written by a completion service or a template.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		loaded, err := config.Load(envFile)
		if err != nil {
			return err
		}
		applyFlagOverrides(cmd, loaded)
		if err := loaded.Validate(); err != nil {
			return err
		}
		cfg = loaded
		logger = cfg.Logger()
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("env-file", ".env", "Dotenv file to load before reading the environment")
	flags.String("catalog", "", "Question catalog file (.yaml or .json); built-in questions when empty")
	flags.String("db", "", "SQLite answer log path (overrides SPOKESPERSON_DB)")
	flags.String("state", "", "State backend: memory, file or redis (overrides SPOKESPERSON_STATE)")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.String("log-format", "", "Log format: text or json")
}

// applyFlagOverrides copies explicitly set flags over environment values.
func applyFlagOverrides(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("catalog") {
		c.CatalogPath, _ = flags.GetString("catalog")
	}
	if flags.Changed("db") {
		c.DatabasePath, _ = flags.GetString("db")
	}
	if flags.Changed("state") {
		s, _ := flags.GetString("state")
		c.StateBackend = config.StateBackend(s)
	}
	if flags.Changed("log-level") {
		c.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		c.LogFormat, _ = flags.GetString("log-format")
	}
	if flags.Lookup("port") != nil && flags.Changed("port") {
		c.Port, _ = flags.GetInt("port")
	}
}
