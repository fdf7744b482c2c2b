package cmd

import (
	"context"
	"fmt"

	"github.com/vibast-solutions/ms-go-jobtracker/app/database"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx := context.Background()
		cfg, db, err := openStoreForCommands(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		if err = database.Migrate(ctx, db, cfg.Database.Driver); err != nil {
			return err
		}

		fmt.Printf("schema ready (%s)\n", cfg.Database.Driver)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
