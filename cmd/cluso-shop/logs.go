package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-shop/pkg/logging"
)

func newLogsCmd(a *app) *cobra.Command {
	logs := &cobra.Command{
		Use:   "logs",
		Short: "Security log maintenance",
	}

	var days int
	cleanup := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete security log files older than the retention period",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days <= 0 {
				days = a.cfg.Logging.RetentionDays
			}
			removed := a.securityLog().CleanupOldLogs(days)
			for _, name := range removed {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			a.logger.Info("security log cleanup finished",
				logging.Int("removed", len(removed)),
				logging.Int("days", days))
			return nil
		},
	}
	cleanup.Flags().IntVar(&days, "days", 0, "days to keep (default logging.retention_days)")

	logs.AddCommand(cleanup)
	return logs
}
