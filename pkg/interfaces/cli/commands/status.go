package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vsinha/quiltplan/pkg/domain/repositories"
)

func newStatusCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the current overview without changing anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			stock, err := a.planner.LatestStock(ctx)
			if errors.Is(err, repositories.ErrNoSnapshot) {
				fmt.Fprintln(cmd.OutOrStdout(), "No stock recorded yet; start a session with `quiltplan run`.")
				return nil
			}
			if err != nil {
				return err
			}

			overview, err := a.planner.Overview(ctx, stock.Period)
			if err != nil {
				return err
			}
			overview.Unit = a.cfg.PeriodUnit()
			return a.printer.Overview(overview)
		},
	}
}
