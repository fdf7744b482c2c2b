package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/vibast-solutions/ms-go-jobtracker/app/exporter"
	"github.com/vibast-solutions/ms-go-jobtracker/app/repository"

	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export <email>",
	Short: "Export the applications of a user as CSV, JSON or YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		format, err := exporter.ParseFormat(exportFormat)
		if err != nil {
			return err
		}

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

		apps, err := repository.NewApplicationRepository(db).ListAllByUser(ctx, user.ID)
		if err != nil {
			return err
		}

		var out io.Writer = os.Stdout
		if exportOutput != "" {
			file, err := os.Create(exportOutput)
			if err != nil {
				return fmt.Errorf("create export file: %w", err)
			}
			defer file.Close()
			out = file
		}

		if err = exporter.Write(out, format, apps); err != nil {
			return err
		}

		if exportOutput != "" {
			fmt.Printf("exported %d application(s) to %s\n", len(apps), exportOutput)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", string(exporter.FormatCSV), "export format: csv, json or yaml")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write to file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}
