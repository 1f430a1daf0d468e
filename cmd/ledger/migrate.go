package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/intern-hub/progress-ledger/internal/infrastructure/persistence/postgres"
	"github.com/intern-hub/progress-ledger/pkg/logger"
)

var errNoDatabase = errors.New("migrations need PostgreSQL, unset DB_IN_MEMORY and --in-memory")

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|status]",
	Short:     "Manage the database schema",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down", "status"},
	RunE: func(cmd *cobra.Command, args []string) error {
		action := "up"
		if len(args) == 1 {
			action = args[0]
		}

		ctx := cmd.Context()
		a, err := bootstrap(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if a.conn == nil {
			return errNoDatabase
		}
		migrator := postgres.NewMigrator(a.conn)

		switch action {
		case "up":
			applied, err := migrator.Migrate(ctx)
			if err != nil {
				return err
			}
			a.log.Info("migrations applied", logger.Int("count", applied))
		case "down":
			version, err := migrator.Rollback(ctx)
			if err != nil {
				return err
			}
			if version == 0 {
				a.log.Info("nothing to roll back")
				return nil
			}
			a.log.Info("migration rolled back", logger.Int("version", version))
		case "status":
			migrations, err := migrator.Status(ctx)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "VERSION\tNAME\tAPPLIED AT")
			for _, m := range migrations {
				appliedAt := "pending"
				if m.IsApplied {
					appliedAt = m.AppliedAt.Format("2006-01-02 15:04:05")
				}
				fmt.Fprintf(tw, "%03d\t%s\t%s\n", m.Version, m.Name, appliedAt)
			}
			return tw.Flush()
		}
		return nil
	},
}
