package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vsinha/quiltplan/pkg/infrastructure/repositories/csv"
)

func newImportCommand(opts *rootOptions) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load demand, stock and finished goods CSV files into the store",
		Long: fmt.Sprintf(`Reads %s, %s and %s from --dir (missing files are skipped)
and appends them to the configured store. Demand for an existing period is
replaced; snapshots must not be older than the store's latest.`,
			csv.DemandFile, csv.StockFile, csv.FinishedFile),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			ds, err := csv.NewLoader().LoadDir(dir)
			if err != nil {
				return err
			}
			if err := csv.Import(ctx, ds, a.store); err != nil {
				return err
			}

			a.logger.Info("import complete",
				"dir", dir,
				"demand", len(ds.Demand),
				"stock", len(ds.Stock),
				"finished", len(ds.Finished))
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d demand record(s), %d stock snapshot(s), %d finished goods snapshot(s)\n",
				len(ds.Demand), len(ds.Stock), len(ds.Finished))
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "directory holding the CSV files")
	_ = cmd.MarkFlagRequired("dir")
	return cmd
}
