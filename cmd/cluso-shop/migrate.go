package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-shop/pkg/logging"
	"github.com/dd0wney/cluso-shop/pkg/store/postgres"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate up|down",
		Short:     "Apply or roll back the database schema",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{string(postgres.Up), string(postgres.Down)},
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Database.URL == "" {
				return fmt.Errorf("database.url (or DATABASE_URL) is required")
			}
			dir := postgres.Direction(args[0])
			op := logging.StartTimer(a.logger, "migration", logging.String("direction", string(dir)))
			if err := postgres.Migrate(a.cfg.Database.URL, dir); err != nil {
				op.EndError(err)
				return err
			}
			op.End()
			return nil
		},
	}
}
