// Command talenttrack runs the TalentTrack HR backend.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "talenttrack",
	Short:         "TalentTrack HR backend",
	Long:          `TalentTrack serves the HR API over a managed PostgreSQL, MySQL or SQLite connection.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "YAML config file (environment variables override it)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "talenttrack %s (commit: %s, built: %s)\n", version, commit, date)
		},
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
