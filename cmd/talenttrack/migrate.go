package main

import (
	"github.com/spf13/cobra"

	"github.com/koustreak/talenttrack/internal/database"
)

var (
	migrateAlter bool
	migrateForce bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Synchronize the database schema and exit",
	Long: `Applies pending migrations. --alter also migrates a database that is behind
in production; --force drops every table and rebuilds the schema.`,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateAlter, "alter", false, "apply pending migrations outside development")
	migrateCmd.Flags().BoolVar(&migrateForce, "force", false, "drop and recreate all tables")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	var opts []database.SyncOption
	if cmd.Flags().Changed("alter") {
		opts = append(opts, database.WithAlter(migrateAlter))
	}
	if cmd.Flags().Changed("force") {
		opts = append(opts, database.WithForce(migrateForce))
	}
	if err := a.db.Sync(cmd.Context(), opts...); err != nil {
		return err
	}
	a.log.Info("schema is up to date")
	return nil
}
