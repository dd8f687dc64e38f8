package cmd

import (
	"fmt"

	"task-marketplace/internal/data/repository"
	"task-marketplace/internal/reconciler"
	"task-marketplace/internal/wire"

	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:       "sweep <auto-accept|retry|stale-pending>",
	Short:     "Run one reconciliation sweep and exit",
	Long:      `Runs a single pass of the named sweep. Meant for cron jobs and manual repair.`,
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{reconciler.SweepAutoAccept, reconciler.SweepRetry, reconciler.SweepStalePending},
	RunE:      runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	rt, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	app, err := wire.Wiring(ctx, repository.NewRepository(rt.db, rt.log), rt.config, rt.log)
	if err != nil {
		return err
	}
	defer app.Close()

	res, err := app.Reconciler.Run(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: scanned=%d succeeded=%d skipped=%d failed=%d\n",
		res.Sweep, res.Scanned, res.Succeeded, res.Skipped, res.Failed)
	return nil
}
