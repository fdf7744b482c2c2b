package cmd

import (
	"context"
	"encoding/json"
	"os"

	"github.com/vibast-solutions/ms-go-jobtracker/app/repository"
	"github.com/vibast-solutions/ms-go-jobtracker/app/service"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats <email>",
	Short: "Print the statistics report of a user as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		ctx := context.Background()
		_, db, err := openStoreForCommands(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		user, err := findUserByEmail(ctx, db, args[0])
		if err != nil {
			return err
		}

		statsService := service.NewStatisticsService(repository.NewApplicationRepository(db))
		report, err := statsService.Statistics(ctx, user.ID)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
