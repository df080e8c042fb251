package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yukikurage/workforce-api/internal/repository"
	"github.com/yukikurage/workforce-api/internal/services"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup-notifications",
	Short: "Delete old read notifications and expired notifications",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()

		retention := time.Duration(a.cfg.Notifications.ReadRetentionDays) * 24 * time.Hour
		notifications := services.NewNotificationService(repository.NewNotificationRepository(a.db), retention, a.log)

		result, err := notifications.Cleanup(time.Now().UTC())
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Successfully deleted %d old notifications and %d expired notifications\n",
			result.Read, result.Expired)
		return nil
	},
}
