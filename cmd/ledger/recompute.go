package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/intern-hub/progress-ledger/internal/application/command"
	"github.com/intern-hub/progress-ledger/internal/infrastructure/scheduler/jobs"
)

var recomputeCmd = &cobra.Command{
	Use:   "recompute [intern-id]",
	Short: "Rebuild scores and award newly earned badges",
	Long: "Recomputes an intern's score from attendance, lessons, courses and quizzes, " +
		"awarding any badge whose criteria are now met. With --all every active intern is recomputed.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		if all == (len(args) == 1) {
			return errors.New("pass exactly one of an intern id or --all")
		}

		ctx := cmd.Context()
		a, err := bootstrap(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		bus, err := a.newEventBus(false)
		if err != nil {
			return err
		}
		defer bus.Close()

		scorer := a.commands(bus).RecomputeScore

		if all {
			job := jobs.NewRecomputeScoresJob(a.store.Interns(), scorer, a.log)
			err := job.Run(ctx)
			if stats := job.LastStats(); stats != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "interns=%d\tchanged=%d\tnew_badges=%d\tfailed=%d\n",
					stats.Interns, stats.Changed, stats.NewBadges, stats.Failed)
			}
			return err
		}

		res, err := scorer.Handle(ctx, command.RecomputeScoreCommand{InternID: args[0]})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\tpoints=%d\tbadges=%d\tchanged=%t\tnew_badges=%d\n",
			args[0], res.Score.TotalPoints, res.Score.BadgesEarned, res.Changed, len(res.NewBadges))
		return nil
	},
}

func init() {
	recomputeCmd.Flags().Bool("all", false, "Recompute every active intern")
}
