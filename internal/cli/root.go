// Package cli implements the servingurl command.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	debug   bool
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "servingurl",
	Short: "Resolves image serving URLs and derives resized variant URLs",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if debug {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
	},
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("failed to execute command", "error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML); DT_ environment variables take precedence")
	rootCmd.AddCommand(serveCmd, lookupdCmd, variantCmd, srcsetCmd)
}
